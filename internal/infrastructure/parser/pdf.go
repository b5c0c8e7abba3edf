package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"office-archive-indexer/internal/core/domain"
)

type PDFParser struct{}

func (p *PDFParser) Parse(_ context.Context, data []byte, name, _ string) (*domain.ParsedContent, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", name, err)
	}

	var builder strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// Broken pages are common in scanned archives; keep going.
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	content := strings.TrimSpace(builder.String())
	if content == "" {
		return nil, fmt.Errorf("no extractable text in pdf %s", name)
	}
	return &domain.ParsedContent{
		Content: content,
		Metadata: map[string]string{
			"pages": strconv.Itoa(pages),
		},
	}, nil
}
