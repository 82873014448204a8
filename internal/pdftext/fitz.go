package pdftext

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// FitzReader extracts text through MuPDF.
type FitzReader struct{}

func (FitzReader) Pages(ctx context.Context, data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]string, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}
