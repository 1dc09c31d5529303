package statements

import (
	"errors"

	"nfpharmacy/internal/ocr"
	"nfpharmacy/pkg/types"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) TestProcess() {
	ctx := s.T().Context()
	pdf := []byte("%PDF-1.4 statement")

	s.Run("empty upload is rejected before extraction", func() {
		_, err := s.service.Process(ctx, Upload{FileName: "a.pdf"})
		s.ErrorIs(err, ErrNoFile)
	})

	s.Run("matched statement", func() {
		s.mockExtractor.EXPECT().Extract(gomock.Any(), "march.pdf", pdf).Return(&ocr.Fields{
			AccountNumber: strPtr("A-1023"),
			FirstName:     strPtr("Jane"),
			DOBRaw:        strPtr("3/4/1985"),
			Confidence:    floatPtr(0.82),
		}, nil)
		s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "A-1023", uint64(2)).
			Return([]*types.Profile{{ID: "p-1", AccountNumber: "A-1023"}}, nil)

		row, err := s.service.Process(ctx, Upload{FileName: "march.pdf", Size: int64(len(pdf)), Content: pdf})
		s.Require().NoError(err)
		s.Equal("march.pdf", row.FileName)
		s.Equal(int64(len(pdf)), row.Size)
		s.Equal(strPtr("A-1023"), row.AccountNumber)
		s.Equal(strPtr("Jane"), row.FirstName)
		s.Equal(strPtr("1985-03-04"), row.DOB)
		s.Equal(types.MatchStatusMatched, row.Match)
		s.Equal(strPtr("p-1"), row.ProfileID)
		s.Nil(row.Error)
	})

	s.Run("missing file name defaults", func() {
		s.mockExtractor.EXPECT().Extract(gomock.Any(), "statement.pdf", pdf).Return(&ocr.Fields{}, nil)

		row, err := s.service.Process(ctx, Upload{Content: pdf})
		s.Require().NoError(err)
		s.Equal("statement.pdf", row.FileName)
		s.Equal(types.MatchStatusNotFound, row.Match)
		s.Nil(row.ProfileID)
		s.Nil(row.DOB)
	})

	s.Run("unknown account is not_found", func() {
		s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&ocr.Fields{AccountNumber: strPtr("Z-9")}, nil)
		s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "Z-9", uint64(2)).Return(nil, nil)

		row, err := s.service.Process(ctx, Upload{FileName: "z.pdf", Content: pdf})
		s.Require().NoError(err)
		s.Equal(types.MatchStatusNotFound, row.Match)
	})

	s.Run("ocr failure is passed through", func() {
		upstream := &ocr.Error{Tag: ocr.TagFailed, Status: 503, Body: "down"}
		s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, upstream)

		_, err := s.service.Process(ctx, Upload{FileName: "a.pdf", Content: pdf})
		var ocrErr *ocr.Error
		s.Require().True(errors.As(err, &ocrErr))
		s.Equal(503, ocrErr.Status)
	})

	s.Run("profile lookup failure", func() {
		s.mockExtractor.EXPECT().Extract(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&ocr.Fields{AccountNumber: strPtr("A-1")}, nil)
		s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "A-1", uint64(2)).
			Return(nil, errors.New("connection reset"))

		_, err := s.service.Process(ctx, Upload{FileName: "a.pdf", Content: pdf})
		s.ErrorContains(err, "connection reset")
	})
}

func (s *ServiceSuite) TestMatch() {
	ctx := s.T().Context()

	s.Run("nil and blank accounts skip the lookup", func() {
		for _, acct := range []*string{nil, strPtr(""), strPtr("   ")} {
			res, err := s.service.Match(ctx, acct)
			s.Require().NoError(err)
			s.Equal(types.MatchStatusNotFound, res.Status)
			s.Nil(res.ProfileID)
		}
	})

	s.Run("duplicate accounts resolve to the newest profile", func() {
		s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "A-1023", uint64(2)).
			Return([]*types.Profile{{ID: "newest"}, {ID: "older"}}, nil)

		res, err := s.service.Match(ctx, strPtr("A-1023"))
		s.Require().NoError(err)
		s.Equal(types.MatchStatusMatched, res.Status)
		s.Equal(strPtr("newest"), res.ProfileID)
	})
}

func floatPtr(f float64) *float64 {
	return &f
}
