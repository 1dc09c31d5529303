package statements

import (
	"context"
	"fmt"
	"strings"

	"nfpharmacy/pkg/types"

	"github.com/sirupsen/logrus"
)

type MatchResult struct {
	Status    types.MatchStatus
	ProfileID *string
}

// Match resolves an account number to a resident profile. A missing or blank
// account number is not_found without touching the profile store.
func (s *Service) Match(ctx context.Context, accountNumber *string) (MatchResult, error) {
	notFound := MatchResult{Status: types.MatchStatusNotFound}

	if accountNumber == nil || strings.TrimSpace(*accountNumber) == "" {
		return notFound, nil
	}

	profile, err := s.profileByAccountNumber(ctx, *accountNumber)
	if err != nil {
		return MatchResult{}, err
	}
	if profile == nil {
		return notFound, nil
	}

	id := profile.ID
	return MatchResult{Status: types.MatchStatusMatched, ProfileID: &id}, nil
}

// profileByAccountNumber returns the newest profile for the account number, or
// nil when there is none. Duplicates are logged, not rejected.
func (s *Service) profileByAccountNumber(ctx context.Context, accountNumber string) (*types.Profile, error) {
	profiles, err := s.profiles.ProfilesByAccountNumber(ctx, accountNumber, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	if len(profiles) == 0 {
		return nil, nil
	}

	if len(profiles) > 1 {
		s.logger.WithFields(logrus.Fields{
			"profile_id":     profiles[0].ID,
			"other_profiles": len(profiles) - 1,
		}).Warn("account number shared by multiple profiles, using newest")
	}

	return profiles[0], nil
}
