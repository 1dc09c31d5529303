package statements

import (
	"context"
	"fmt"
	"path"
	"time"

	"nfpharmacy/pkg/types"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const pdfContentType = "application/pdf"

type SaveInput struct {
	FileName      string
	Content       []byte
	AccountNumber *string
	FirstName     *string
	DOB           *string
	ProfileID     *string
	Confidence    *float64
}

// Save writes the statement file to object storage and then records it with
// status uploaded. A failed insert leaves the stored object behind.
func (s *Service) Save(ctx context.Context, in SaveInput) (*types.Statement, error) {
	if len(in.Content) == 0 {
		return nil, ErrNoFile
	}

	fileName := in.FileName
	if fileName == "" {
		fileName = defaultFileName
	}

	key := objectKey(s.now(), fileName)

	if err := s.objects.Put(ctx, key, in.Content, pdfContentType); err != nil {
		s.metrics.IncSaved("storage_error")
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	confidence := in.Confidence
	if confidence == nil {
		one := 1.0
		confidence = &one
	}

	statement := &types.Statement{
		ID:               uuid.NewString(),
		ProfileID:        in.ProfileID,
		OriginalFilename: fileName,
		StoragePath:      key,
		AccountNumber:    in.AccountNumber,
		FirstName:        in.FirstName,
		DOB:              in.DOB,
		MapConfidence:    confidence,
		Status:           types.StatementStatusUploaded,
	}

	if err := s.statements.CreateStatement(ctx, statement); err != nil {
		s.metrics.IncSaved("insert_error")
		s.logger.WithError(err).WithField("storage_path", key).Error("statement row insert failed after upload, object left in storage")
		return nil, fmt.Errorf("%w: %w", ErrSave, err)
	}

	s.metrics.IncSaved("ok")
	s.logger.WithFields(logrus.Fields{
		"statement_id": statement.ID,
		"storage_path": key,
	}).Info("statement saved")

	return statement, nil
}

// ImportResult is the outcome of processing and saving one file in a bulk upload.
type ImportResult struct {
	ProcessResult
	ID          string `json:"id,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
}

// Import processes and saves each upload in turn. A failing file is reported
// in its own result and does not stop the rest.
func (s *Service) Import(ctx context.Context, uploads []Upload) []ImportResult {
	results := make([]ImportResult, 0, len(uploads))

	for _, upload := range uploads {
		result := ImportResult{ProcessResult: ProcessResult{
			FileName: upload.FileName,
			Size:     upload.Size,
			Match:    types.MatchStatusNotFound,
		}}

		processed, err := s.Process(ctx, upload)
		if err != nil {
			result.Error = errorString(err)
			results = append(results, result)
			continue
		}
		result.ProcessResult = *processed

		statement, err := s.Save(ctx, SaveInput{
			FileName:      processed.FileName,
			Content:       upload.Content,
			AccountNumber: processed.AccountNumber,
			FirstName:     processed.FirstName,
			DOB:           processed.DOB,
			ProfileID:     processed.ProfileID,
			Confidence:    processed.Confidence,
		})
		if err != nil {
			result.Error = errorString(err)
			results = append(results, result)
			continue
		}

		result.ID = statement.ID
		result.StoragePath = statement.StoragePath
		results = append(results, result)
	}

	return results
}

// objectKey lays statements out by upload month: statements/YYYY/MM/<uuid>-<name>.
func objectKey(now time.Time, fileName string) string {
	return fmt.Sprintf("statements/%04d/%02d/%s-%s", now.Year(), int(now.Month()), uuid.NewString(), path.Base(fileName))
}

func errorString(err error) *string {
	msg := err.Error()
	return &msg
}
