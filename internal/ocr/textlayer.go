package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrNoText = errors.New("pdf has no extractable text layer")

// TextLayer reads fields from the first page's text layer in-process. Scanned
// statements without a text layer need the OCR service instead.
type TextLayer struct{}

func NewTextLayer() *TextLayer {
	return &TextLayer{}
}

func (t *TextLayer) Extract(ctx context.Context, fileName string, content []byte) (*Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := firstPageText(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}

	return ParseFields(text), nil
}

// firstPageText returns the text of page one, falling back to the whole
// document when the page yields nothing.
func firstPageText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	if r.NumPage() == 0 {
		return "", ErrNoText
	}

	page := r.Page(1)
	if !page.V.IsNull() {
		rows, err := page.GetTextByRow()
		if err == nil {
			lines := make([]string, 0, len(rows))
			for _, row := range rows {
				parts := make([]string, 0, len(row.Content))
				for _, word := range row.Content {
					parts = append(parts, word.S)
				}
				if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
					lines = append(lines, line)
				}
			}
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
		}
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
