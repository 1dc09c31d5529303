package statements

import (
	"errors"
	"time"

	"nfpharmacy/pkg/types"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) sentStatement(code string, expiresAt time.Time) *types.Statement {
	return &types.Statement{
		ID:           "s-1",
		StoragePath:  "statements/2025/03/abc-march.pdf",
		Status:       types.StatementStatusSent,
		OTPCode:      &code,
		OTPExpiresAt: &expiresAt,
	}
}

func (s *ServiceSuite) TestVerifySuccess() {
	ctx := s.T().Context()
	st := s.sentStatement("123456", fixedNow.Add(5*time.Minute))

	gomock.InOrder(
		s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").Return(st, nil),
		s.mockObjects.EXPECT().SignedURL(gomock.Any(), st.StoragePath, 10*time.Minute).
			Return("https://signed.example/abc?sig=1", nil),
		s.mockStatements.EXPECT().ClaimPasscode(gomock.Any(), "s-1", "123456", fixedNow).Return(true, nil),
	)

	url, err := s.service.Verify(ctx, "s-1", "123456")
	s.Require().NoError(err)
	s.Equal("https://signed.example/abc?sig=1", url)
}

func (s *ServiceSuite) TestVerifyRejections() {
	ctx := s.T().Context()

	s.Run("missing inputs", func() {
		_, err := s.service.Verify(ctx, "", "123456")
		s.ErrorIs(err, ErrMissingInputs)
		_, err = s.service.Verify(ctx, "s-1", "")
		s.ErrorIs(err, ErrMissingInputs)
	})

	s.Run("unknown statement", func() {
		s.mockStatements.EXPECT().Statement(gomock.Any(), "nope").Return(nil, types.ErrStatementNotFound)

		_, err := s.service.Verify(ctx, "nope", "123456")
		s.ErrorIs(err, types.ErrStatementNotFound)
	})

	s.Run("no passcode issued", func() {
		s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").
			Return(&types.Statement{ID: "s-1", Status: types.StatementStatusUploaded}, nil)

		_, err := s.service.Verify(ctx, "s-1", "123456")
		s.ErrorIs(err, ErrNoOTPSet)
		s.Equal("No OTP set", err.Error())
	})

	s.Run("wrong code is checked before expiry", func() {
		s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").
			Return(s.sentStatement("123456", fixedNow.Add(-time.Minute)), nil)

		_, err := s.service.Verify(ctx, "s-1", "000000")
		s.ErrorIs(err, ErrInvalidOTP)
		s.service.attempts.Reset("s-1")
	})

	s.Run("code must match exactly", func() {
		s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").
			Return(s.sentStatement("123456", fixedNow.Add(time.Minute)), nil)

		_, err := s.service.Verify(ctx, "s-1", " 123456 ")
		s.ErrorIs(err, ErrInvalidOTP)
		s.service.attempts.Reset("s-1")
	})

	s.Run("expiry boundary is exclusive", func() {
		s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").
			Return(s.sentStatement("123456", fixedNow), nil)

		_, err := s.service.Verify(ctx, "s-1", "123456")
		s.ErrorIs(err, ErrOTPExpired)
		s.Equal("OTP expired", err.Error())
	})

	s.Run("lost claim race", func() {
		s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").
			Return(s.sentStatement("123456", fixedNow.Add(time.Minute)), nil)
		s.mockObjects.EXPECT().SignedURL(gomock.Any(), gomock.Any(), gomock.Any()).Return("https://signed", nil)
		s.mockStatements.EXPECT().ClaimPasscode(gomock.Any(), "s-1", "123456", fixedNow).Return(false, nil)

		_, err := s.service.Verify(ctx, "s-1", "123456")
		s.ErrorIs(err, ErrNoOTPSet)
	})

	s.Run("signing failure leaves the passcode in place", func() {
		s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").
			Return(s.sentStatement("123456", fixedNow.Add(time.Minute)), nil)
		s.mockObjects.EXPECT().SignedURL(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("no bucket"))

		_, err := s.service.Verify(ctx, "s-1", "123456")
		s.ErrorContains(err, "no bucket")
	})
}

func (s *ServiceSuite) TestVerifyLocksOutAfterRepeatedFailures() {
	ctx := s.T().Context()
	st := s.sentStatement("123456", fixedNow.Add(time.Minute))

	s.mockStatements.EXPECT().Statement(gomock.Any(), "s-1").Return(st, nil).Times(3)
	for range 3 {
		_, err := s.service.Verify(ctx, "s-1", "999999")
		s.ErrorIs(err, ErrInvalidOTP)
	}

	// locked out even with the right code, without touching the store
	_, err := s.service.Verify(ctx, "s-1", "123456")
	s.ErrorIs(err, ErrTooManyAttempts)

	// a fresh passcode lifts the lockout
	s.mockStatements.EXPECT().StatementsByIDs(gomock.Any(), []string{"s-1"}).
		Return([]*types.Statement{{ID: "s-1", AccountNumber: strPtr("A-1023")}}, nil)
	s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "A-1023", uint64(2)).
		Return([]*types.Profile{{ID: "p-1", Email: strPtr("jane@example.com")}}, nil)
	s.mockStatements.EXPECT().IssuePasscode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	_, err = s.service.Notify(ctx, []string{"s-1"})
	s.Require().NoError(err)
	s.False(s.service.attempts.Blocked("s-1"))
}
