package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"office-archive-indexer/internal/core/domain"
)

type PlainTextParser struct{}

func (p *PlainTextParser) Parse(_ context.Context, data []byte, name, _ string) (*domain.ParsedContent, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("not valid utf-8: %s", name)
	}
	return &domain.ParsedContent{
		Content:  strings.TrimSpace(string(data)),
		Metadata: map[string]string{},
	}, nil
}
