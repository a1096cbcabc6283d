// Package loader extracts raw text segments from uploaded documents.
// The format is resolved once from the filename suffix and dispatched
// to a fixed set of extractors; parser failures propagate unmodified.
package loader

import (
	"errors"
	"fmt"
	"strings"

	"pdfchat/types"
)

// ErrUnsupportedFormat is returned for any extension outside
// .pdf/.docx/.txt. The API layer reports it in-band, so the message
// matches the wire contract.
var ErrUnsupportedFormat = errors.New("Formato de archivo no soportado")

type Format int

const (
	FormatPDF Format = iota
	FormatDOCX
	FormatTXT
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatTXT:
		return "txt"
	}
	return "unknown"
}

// Detect resolves the document format from the filename suffix.
func Detect(filename string) (Format, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return FormatPDF, nil
	case strings.HasSuffix(name, ".docx"):
		return FormatDOCX, nil
	case strings.HasSuffix(name, ".txt"):
		return FormatTXT, nil
	}
	return 0, ErrUnsupportedFormat
}

// Load reads the file at path and returns its text segments. The
// filename decides the parser, not the path, so uploads keep their
// original extension semantics.
func Load(path, filename string) ([]types.Segment, error) {
	format, err := Detect(filename)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		return loadPDF(path, filename)
	case FormatDOCX:
		return loadDOCX(path, filename)
	case FormatTXT:
		return loadText(path, filename)
	}
	return nil, fmt.Errorf("no extractor for format %s", format)
}
