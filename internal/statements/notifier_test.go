package statements

import (
	"context"
	"errors"
	"time"

	"nfpharmacy/internal/mailer"
	"nfpharmacy/pkg/types"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) TestNotifyRequiresIDs() {
	_, err := s.service.Notify(s.T().Context(), nil)
	s.ErrorIs(err, ErrNoStatementIDs)

	_, err = s.service.Notify(s.T().Context(), []string{"", "  "})
	s.ErrorIs(err, ErrNoStatementIDs)
}

func (s *ServiceSuite) TestNotifyReportsEachStatement() {
	ctx := s.T().Context()
	ids := []string{"s-sent", "s-no-account", "s-no-profile", "s-missing", "s-no-email"}

	s.mockStatements.EXPECT().StatementsByIDs(gomock.Any(), ids).Return([]*types.Statement{
		{ID: "s-sent", AccountNumber: strPtr("A-1023"), FirstName: strPtr("J")},
		{ID: "s-no-account"},
		{ID: "s-no-profile", AccountNumber: strPtr("Z-404")},
		{ID: "s-no-email", AccountNumber: strPtr("B-2")},
	}, nil)

	s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "A-1023", uint64(2)).
		Return([]*types.Profile{{ID: "p-1", FirstName: strPtr("Jane"), Email: strPtr("jane@example.com")}}, nil)
	s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "Z-404", uint64(2)).Return(nil, nil)
	s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), "B-2", uint64(2)).
		Return([]*types.Profile{{ID: "p-2"}}, nil)

	s.mockStatements.EXPECT().
		IssuePasscode(gomock.Any(), "s-sent", "p-1", "123456", fixedNow.Add(10*time.Minute)).
		Return(nil)
	s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg mailer.Message) error {
			s.Equal("jane@example.com", msg.To)
			s.Equal("Your Statement from North Falmouth Pharmacy", msg.Subject)
			s.Contains(msg.HTML, "https://pharmacy.test/statements/verify?id=s-sent")
			s.Contains(msg.HTML, "123456")
			s.Contains(msg.HTML, "Jane")
			return nil
		})

	results, err := s.service.Notify(ctx, ids)
	s.Require().NoError(err)
	s.Equal([]SendResult{
		{ID: "s-sent", Status: SendStatusSent},
		{ID: "s-no-account", Status: SendStatusSkipped, Reason: "no_account_number"},
		{ID: "s-no-profile", Status: SendStatusSkipped, Reason: "no_profile"},
		{ID: "s-missing", Status: SendStatusNotFound},
		{ID: "s-no-email", Status: SendStatusSkipped, Reason: "no_email"},
	}, results)
}

func (s *ServiceSuite) TestNotifyDeduplicatesIDs() {
	s.mockStatements.EXPECT().StatementsByIDs(gomock.Any(), []string{"s-1"}).Return(nil, nil)

	results, err := s.service.Notify(s.T().Context(), []string{"s-1", " s-1 ", "s-1"})
	s.Require().NoError(err)
	s.Equal([]SendResult{{ID: "s-1", Status: SendStatusNotFound}}, results)
}

func (s *ServiceSuite) TestNotifyFailures() {
	ctx := s.T().Context()
	statement := &types.Statement{ID: "s-1", AccountNumber: strPtr("A-1023")}
	profile := &types.Profile{ID: "p-1", Email: strPtr("jane@example.com")}

	s.Run("load failure aborts the batch", func() {
		s.mockStatements.EXPECT().StatementsByIDs(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		_, err := s.service.Notify(ctx, []string{"s-1"})
		s.ErrorContains(err, "db down")
	})

	s.Run("passcode write failure skips the email", func() {
		s.mockStatements.EXPECT().StatementsByIDs(gomock.Any(), gomock.Any()).Return([]*types.Statement{statement}, nil)
		s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]*types.Profile{profile}, nil)
		s.mockStatements.EXPECT().IssuePasscode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("timeout"))

		results, err := s.service.Notify(ctx, []string{"s-1"})
		s.Require().NoError(err)
		s.Equal([]SendResult{{ID: "s-1", Status: SendStatusFailed, Reason: "save_failed"}}, results)
	})

	s.Run("email failure is reported per item", func() {
		s.mockStatements.EXPECT().StatementsByIDs(gomock.Any(), gomock.Any()).Return([]*types.Statement{statement}, nil)
		s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]*types.Profile{profile}, nil)
		s.mockStatements.EXPECT().IssuePasscode(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		s.mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(mailer.ErrNotConfigured)

		results, err := s.service.Notify(ctx, []string{"s-1"})
		s.Require().NoError(err)
		s.Equal([]SendResult{{ID: "s-1", Status: SendStatusFailed, Reason: "email_failed"}}, results)
	})

	s.Run("profile lookup failure", func() {
		s.mockStatements.EXPECT().StatementsByIDs(gomock.Any(), gomock.Any()).Return([]*types.Statement{statement}, nil)
		s.mockProfiles.EXPECT().ProfilesByAccountNumber(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("db down"))

		results, err := s.service.Notify(ctx, []string{"s-1"})
		s.Require().NoError(err)
		s.Equal([]SendResult{{ID: "s-1", Status: SendStatusFailed, Reason: "profile_lookup_failed"}}, results)
	})
}

func (s *ServiceSuite) TestVerifyLinkEscapesID() {
	s.Equal("https://pharmacy.test/statements/verify?id=a+b%26c", s.service.verifyLink("a b&c"))
}
