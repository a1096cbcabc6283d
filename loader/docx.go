package loader

import (
	"fmt"
	"os"
	"strings"

	docx "github.com/fumiama/go-docx"

	"pdfchat/types"
)

func loadDOCX(path, filename string) ([]types.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch block := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(block.String())
			sb.WriteString("\n")
		case *docx.Table:
			sb.WriteString(block.String())
			sb.WriteString("\n")
		}
	}

	content := sb.String()
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("docx contains no text")
	}

	return []types.Segment{{Content: content, Source: filename, Page: 1}}, nil
}
