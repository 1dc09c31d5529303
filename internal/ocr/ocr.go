// Package ocr extracts candidate identity fields from statement PDFs, either
// through the external OCR service or from the PDF text layer.
package ocr

import (
	"context"
	"errors"
	"fmt"
)

const (
	TagFailed      = "ocr_failed"
	TagInvalidJSON = "ocr_invalid_json"

	// maxBodyBytes bounds how much of an upstream response is echoed back for diagnostics
	maxBodyBytes = 4000
)

var ErrNotConfigured = errors.New("OCR_SERVICE_URL not set")

// Fields is the raw field set read off the top of a statement. Any field the
// extractor could not find is nil.
type Fields struct {
	AccountNumber *string  `json:"account_number"`
	FirstName     *string  `json:"first_name"`
	DOBRaw        *string  `json:"dob_raw"`
	Confidence    *float64 `json:"confidence"`
	Raw           string   `json:"raw"`
}

type Extractor interface {
	Extract(ctx context.Context, fileName string, content []byte) (*Fields, error)
}

// Error is an upstream OCR failure. Tag is one of TagFailed or TagInvalidJSON.
type Error struct {
	Tag    string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Tag, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d", e.Tag, e.Status)
	}
	return e.Tag
}

func (e *Error) Unwrap() error {
	return e.Err
}

func truncate(body []byte) string {
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}
	return string(body)
}
