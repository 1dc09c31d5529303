package statements

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"nfpharmacy/pkg/types"
)

// Verify checks a passcode against the statement and, when it is valid and
// unexpired, returns a short-lived download URL. The passcode is single use:
// it is claimed atomically so concurrent callers cannot both succeed.
func (s *Service) Verify(ctx context.Context, id, code string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || code == "" {
		s.metrics.IncVerification(ErrMissingInputs.Code)
		return "", ErrMissingInputs
	}

	// skip the store round trip once locked out
	if s.attempts.Blocked(id) {
		s.metrics.IncThrottled()
		s.metrics.IncVerification(ErrTooManyAttempts.Code)
		return "", ErrTooManyAttempts
	}

	statement, err := s.statements.Statement(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrStatementNotFound) {
			s.metrics.IncVerification("not_found")
			return "", err
		}
		return "", fmt.Errorf("failed to load statement: %w", err)
	}

	if !statement.HasPasscode() {
		s.metrics.IncVerification(ErrNoOTPSet.Code)
		return "", ErrNoOTPSet
	}

	err = s.attempts.Attempt(id, func() bool {
		return subtle.ConstantTimeCompare([]byte(*statement.OTPCode), []byte(code)) == 1
	})
	switch {
	case errors.Is(err, ErrTooManyAttempts):
		s.metrics.IncThrottled()
		s.metrics.IncVerification(ErrTooManyAttempts.Code)
		return "", ErrTooManyAttempts
	case err != nil:
		s.metrics.IncVerification(ErrInvalidOTP.Code)
		s.logger.WithField("statement_id", id).Warn("invalid passcode attempt")
		return "", ErrInvalidOTP
	}

	now := s.now()
	if !now.Before(*statement.OTPExpiresAt) {
		s.metrics.IncVerification(ErrOTPExpired.Code)
		return "", ErrOTPExpired
	}

	signed, err := s.objects.SignedURL(ctx, statement.StoragePath, s.cfg.SignedURLTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign statement url: %w", err)
	}

	claimed, err := s.statements.ClaimPasscode(ctx, id, code, now)
	if err != nil {
		return "", fmt.Errorf("failed to claim passcode: %w", err)
	}
	if !claimed {
		s.metrics.IncVerification(ErrNoOTPSet.Code)
		return "", ErrNoOTPSet
	}

	s.attempts.Reset(id)
	s.metrics.IncVerification("ok")
	s.logger.WithField("statement_id", id).Info("statement downloaded")

	return signed, nil
}
