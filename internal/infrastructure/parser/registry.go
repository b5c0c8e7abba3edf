// Package parser converts office file formats to plain text for
// indexing. Absence of a parser for a type is not an error: the import
// pipeline falls back to a placeholder body.
package parser

import (
	"strings"

	"office-archive-indexer/internal/core/ports"
)

const (
	MimePDF   = "application/pdf"
	MimeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePlain = "text/plain"
)

type Registry struct {
	parsers map[string]ports.Parser
}

// NewRegistry wires the default parser set: PDF, XLSX and plain text.
// DOCX intentionally has no parser and takes the placeholder path.
func NewRegistry() *Registry {
	return &Registry{
		parsers: map[string]ports.Parser{
			MimePDF:   &PDFParser{},
			MimeXLSX:  &XLSXParser{},
			MimePlain: &PlainTextParser{},
		},
	}
}

// Register adds or replaces the parser for a MIME type.
func (r *Registry) Register(mimeType string, p ports.Parser) {
	r.parsers[mimeType] = p
}

// Get returns nil when no parser is registered for the type.
func (r *Registry) Get(mimeType string) ports.Parser {
	return r.parsers[mimeType]
}

// MimeByExtension maps the archive's known file extensions to MIME
// types. Unknown extensions return an empty string.
func (r *Registry) MimeByExtension(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".xlsx":
		return MimeXLSX
	case ".txt":
		return MimePlain
	default:
		return ""
	}
}
