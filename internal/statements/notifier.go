package statements

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"nfpharmacy/internal/mailer"
	"nfpharmacy/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type SendStatus string

const (
	SendStatusSent     SendStatus = "sent"
	SendStatusSkipped  SendStatus = "skipped"
	SendStatusNotFound SendStatus = "not_found"
	SendStatusFailed   SendStatus = "failed"
)

const (
	reasonNoAccountNumber = "no_account_number"
	reasonNoProfile       = "no_profile"
	reasonNoEmail         = "no_email"
	reasonProfileLookup   = "profile_lookup_failed"
	reasonPasscode        = "passcode_failed"
	reasonSaveFailed      = "save_failed"
	reasonEmailFailed     = "email_failed"
)

type SendResult struct {
	ID     string     `json:"id"`
	Status SendStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// Notify issues a fresh passcode for each statement and emails the resident a
// verification link. Results come back in the order of the deduplicated ids;
// one statement failing never stops the others.
func (s *Service) Notify(ctx context.Context, ids []string) ([]SendResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, ErrNoStatementIDs
	}

	loaded, err := s.statements.StatementsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load statements: %w", err)
	}

	byID := make(map[string]*types.Statement, len(loaded))
	for _, statement := range loaded {
		byID[statement.ID] = statement
	}

	results := make([]SendResult, len(ids))

	var g errgroup.Group
	g.SetLimit(s.cfg.NotifyConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			statement, ok := byID[id]
			if !ok {
				results[i] = SendResult{ID: id, Status: SendStatusNotFound}
			} else {
				results[i] = s.notifyOne(ctx, statement)
			}
			s.metrics.IncNotification(string(results[i].Status))
			return nil
		})
	}

	_ = g.Wait()

	return results, nil
}

func (s *Service) notifyOne(ctx context.Context, statement *types.Statement) SendResult {
	entry := s.logger.WithField("statement_id", statement.ID)
	skipped := func(reason string) SendResult {
		entry.WithField("reason", reason).Info("statement notification skipped")
		return SendResult{ID: statement.ID, Status: SendStatusSkipped, Reason: reason}
	}
	failed := func(reason string, err error) SendResult {
		entry.WithError(err).WithField("reason", reason).Error("statement notification failed")
		return SendResult{ID: statement.ID, Status: SendStatusFailed, Reason: reason}
	}

	if statement.AccountNumber == nil || strings.TrimSpace(*statement.AccountNumber) == "" {
		return skipped(reasonNoAccountNumber)
	}

	profile, err := s.profileByAccountNumber(ctx, *statement.AccountNumber)
	if err != nil {
		return failed(reasonProfileLookup, err)
	}
	if profile == nil {
		return skipped(reasonNoProfile)
	}
	if profile.Email == nil || strings.TrimSpace(*profile.Email) == "" {
		return skipped(reasonNoEmail)
	}

	code, err := s.newPasscode()
	if err != nil {
		return failed(reasonPasscode, err)
	}

	expiresAt := s.now().Add(s.cfg.OTPTTL)
	if err := s.statements.IssuePasscode(ctx, statement.ID, profile.ID, code, expiresAt); err != nil {
		return failed(reasonSaveFailed, err)
	}
	s.attempts.Reset(statement.ID)

	msg, err := mailer.StatementReady{
		To:        strings.TrimSpace(*profile.Email),
		FirstName: firstName(profile, statement),
		Link:      s.verifyLink(statement.ID),
		Passcode:  code,
		ExpiresIn: s.cfg.OTPTTL,
	}.Message()
	if err != nil {
		return failed(reasonEmailFailed, err)
	}

	// The passcode stays valid if the email fails; resending issues a new one.
	if err := s.mailer.Send(ctx, msg); err != nil {
		return failed(reasonEmailFailed, err)
	}

	entry.WithFields(logrus.Fields{
		"profile_id": profile.ID,
		"expires_at": expiresAt,
	}).Info("statement passcode sent")

	return SendResult{ID: statement.ID, Status: SendStatusSent}
}

func (s *Service) verifyLink(id string) string {
	return strings.TrimRight(s.cfg.SiteURL, "/") + "/statements/verify?id=" + url.QueryEscape(id)
}

func firstName(profile *types.Profile, statement *types.Statement) string {
	if profile.FirstName != nil && *profile.FirstName != "" {
		return *profile.FirstName
	}
	if statement.FirstName != nil {
		return *statement.FirstName
	}
	return ""
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
