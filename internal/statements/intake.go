package statements

import (
	"context"
	"errors"
	"time"

	"nfpharmacy/internal/ocr"
	"nfpharmacy/pkg/types"
)

const defaultFileName = "statement.pdf"

type Upload struct {
	FileName string
	Size     int64
	Content  []byte
}

// ProcessResult is one intake row as shown to the back office before saving.
type ProcessResult struct {
	FileName      string            `json:"fileName"`
	Size          int64             `json:"size"`
	AccountNumber *string           `json:"account_number"`
	FirstName     *string           `json:"first_name"`
	DOB           *string           `json:"dob"`
	Confidence    *float64          `json:"confidence"`
	Match         types.MatchStatus `json:"match"`
	ProfileID     *string           `json:"profile_id"`
	Error         *string           `json:"error"`
}

// Process extracts candidate fields from an uploaded statement, normalizes the
// date of birth and matches the account number against resident profiles.
// Nothing is persisted.
func (s *Service) Process(ctx context.Context, upload Upload) (*ProcessResult, error) {
	if len(upload.Content) == 0 {
		return nil, ErrNoFile
	}

	fileName := upload.FileName
	if fileName == "" {
		fileName = defaultFileName
	}

	started := time.Now()
	fields, err := s.extractor.Extract(ctx, fileName, upload.Content)
	s.metrics.ObserveExtract(extractOutcome(err), time.Since(started))
	if err != nil {
		return nil, err
	}

	match, err := s.Match(ctx, fields.AccountNumber)
	if err != nil {
		return nil, err
	}

	return &ProcessResult{
		FileName:      fileName,
		Size:          upload.Size,
		AccountNumber: fields.AccountNumber,
		FirstName:     fields.FirstName,
		DOB:           NormalizeDOB(fields.DOBRaw),
		Confidence:    fields.Confidence,
		Match:         match.Status,
		ProfileID:     match.ProfileID,
	}, nil
}

func extractOutcome(err error) string {
	if err == nil {
		return "ok"
	}

	var ocrErr *ocr.Error
	if errors.As(err, &ocrErr) {
		return ocrErr.Tag
	}

	return "error"
}
