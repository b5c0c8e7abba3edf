package parser

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"office-archive-indexer/internal/core/domain"
)

type XLSXParser struct{}

func (p *XLSXParser) Parse(_ context.Context, data []byte, name, _ string) (*domain.ParsedContent, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", name, err)
	}
	defer f.Close()

	var builder strings.Builder
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		builder.WriteString(sheet)
		builder.WriteString("\n")
		for _, row := range rows {
			builder.WriteString(strings.Join(row, "\t"))
			builder.WriteString("\n")
		}
	}

	content := strings.TrimSpace(builder.String())
	if content == "" {
		return nil, fmt.Errorf("no cell data in xlsx %s", name)
	}
	return &domain.ParsedContent{
		Content: content,
		Metadata: map[string]string{
			"sheets": strconv.Itoa(len(sheets)),
		},
	}, nil
}
