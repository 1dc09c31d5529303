package statements

import (
	"context"
	"errors"

	"nfpharmacy/internal/ocr"
	"nfpharmacy/pkg/types"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) TestSave() {
	ctx := s.T().Context()
	pdf := []byte("%PDF-1.4 statement")
	keyPattern := `^statements/2025/03/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}-march\.pdf$`

	s.Run("stores the file then inserts an uploaded row", func() {
		var storedKey string
		s.mockObjects.EXPECT().Put(gomock.Any(), gomock.Any(), pdf, "application/pdf").
			DoAndReturn(func(_ context.Context, key string, _ []byte, _ string) error {
				storedKey = key
				return nil
			})
		s.mockStatements.EXPECT().CreateStatement(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, st *types.Statement) error {
				s.Equal(storedKey, st.StoragePath)
				return nil
			})

		st, err := s.service.Save(ctx, SaveInput{
			FileName:      "march.pdf",
			Content:       pdf,
			AccountNumber: strPtr("A-1023"),
			FirstName:     strPtr("Jane"),
			DOB:           strPtr("1985-03-04"),
			ProfileID:     strPtr("p-1"),
		})
		s.Require().NoError(err)
		s.Regexp(keyPattern, st.StoragePath)
		s.NotEmpty(st.ID)
		s.Equal("march.pdf", st.OriginalFilename)
		s.Equal(types.StatementStatusUploaded, st.Status)
		s.Equal(floatPtr(1), st.MapConfidence)
		s.Equal(strPtr("p-1"), st.ProfileID)
		s.Nil(st.OTPCode)
	})

	s.Run("confidence from the form is kept", func() {
		s.mockObjects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.mockStatements.EXPECT().CreateStatement(gomock.Any(), gomock.Any()).Return(nil)

		st, err := s.service.Save(ctx, SaveInput{FileName: "march.pdf", Content: pdf, Confidence: floatPtr(0.5)})
		s.Require().NoError(err)
		s.Equal(floatPtr(0.5), st.MapConfidence)
	})

	s.Run("directory components are stripped from the key", func() {
		s.mockObjects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.mockStatements.EXPECT().CreateStatement(gomock.Any(), gomock.Any()).Return(nil)

		st, err := s.service.Save(ctx, SaveInput{FileName: "../../etc/march.pdf", Content: pdf})
		s.Require().NoError(err)
		s.Regexp(keyPattern, st.StoragePath)
	})

	s.Run("storage failure aborts before insert", func() {
		s.mockObjects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("bucket missing"))

		_, err := s.service.Save(ctx, SaveInput{FileName: "march.pdf", Content: pdf})
		s.ErrorIs(err, ErrStorageWrite)
		s.ErrorContains(err, "bucket missing")
	})

	s.Run("insert failure reports save error", func() {
		s.mockObjects.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.mockStatements.EXPECT().CreateStatement(gomock.Any(), gomock.Any()).Return(errors.New("unique violation"))

		_, err := s.service.Save(ctx, SaveInput{FileName: "march.pdf", Content: pdf})
		s.ErrorIs(err, ErrSave)
	})

	s.Run("empty content", func() {
		_, err := s.service.Save(ctx, SaveInput{FileName: "march.pdf"})
		s.ErrorIs(err, ErrNoFile)
	})
}

func (s *ServiceSuite) TestImport() {
	ctx := s.T().Context()
	good := []byte("%PDF good")

	s.mockExtractor.EXPECT().Extract(gomock.Any(), "good.pdf", good).
		Return(&ocr.Fields{AccountNumber: strPtr("A-1023")}, nil)
	s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "A-1023", uint64(2)).
		Return([]*types.Profile{{ID: "p-1"}}, nil)
	s.mockObjects.EXPECT().Put(gomock.Any(), gomock.Any(), good, "application/pdf").Return(nil)
	s.mockStatements.EXPECT().CreateStatement(gomock.Any(), gomock.Any()).Return(nil)

	results := s.service.Import(ctx, []Upload{
		{FileName: "good.pdf", Size: int64(len(good)), Content: good},
		{FileName: "empty.pdf"},
	})

	s.Require().Len(results, 2)
	s.NotEmpty(results[0].ID)
	s.Regexp(`-good\.pdf$`, results[0].StoragePath)
	s.Equal(types.MatchStatusMatched, results[0].Match)
	s.Nil(results[0].Error)

	s.Empty(results[1].ID)
	s.Equal("empty.pdf", results[1].FileName)
	s.Require().NotNil(results[1].Error)
	s.Equal("no_file", *results[1].Error)
}
