package loader

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"pdfchat/types"
)

// loadPDF tries structured per-page extraction first and falls back to
// the crude whole-document extractor when it fails. Both failing
// propagates the fallback error.
func loadPDF(path, filename string) ([]types.Segment, error) {
	segments, err := extractPDFPages(path, filename)
	if err == nil {
		log.Printf("[LOADER] structured PDF extraction OK (%d pages)", len(segments))
		return segments, nil
	}
	log.Printf("[LOADER] structured PDF extraction failed (%v), falling back to plain text", err)

	return extractPDFWhole(path, filename)
}

// extractPDFPages validates the file and extracts one segment per page.
func extractPDFPages(path, filename string) (segments []types.Segment, err error) {
	// The parser panics on some malformed xref tables, turn that into
	// an error so the fallback gets its chance.
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	if err := api.ValidateFile(path, nil); err != nil {
		return nil, fmt.Errorf("pdf validation: %w", err)
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdf page count: %w", err)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		segments = append(segments, types.Segment{
			Content: text,
			Source:  filename,
			Page:    i,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no text extracted from %d pages", pageCount)
	}
	return segments, nil
}

// extractPDFWhole ignores page structure and reads all text in one go.
func extractPDFWhole(path, filename string) (segments []types.Segment, err error) {
	defer func() {
		if r := recover(); r != nil {
			segments = nil
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("pdf contains no extractable text")
	}

	return []types.Segment{{Content: string(data), Source: filename, Page: 1}}, nil
}
