package loader

import (
	"fmt"
	"os"

	"pdfchat/types"
)

func loadText(path, filename string) ([]types.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}

	return []types.Segment{{Content: string(data), Source: filename, Page: 1}}, nil
}
