package seed

import (
	"context"
	"fmt"
	"time"

	"nfpharmacy/internal/utils"
	"nfpharmacy/pkg/types"

	"github.com/sirupsen/logrus"
)

type ProfileUpserter interface {
	UpsertProfile(ctx context.Context, profile *types.Profile) error
}

type fakeProfileSeed struct {
	ID            string
	AccountNumber string
	FirstName     string
	FullName      string
	DOB           string
	Email         string
}

// Account B-2040 is deliberately shared by two residents and C-3310 has no
// email, so both edge paths of the send flow can be exercised locally.
var fakeProfiles = []fakeProfileSeed{
	{ID: "11111111-1111-1111-1111-111111111111", AccountNumber: "A-1023", FirstName: "Jane", FullName: "Jane Doe", DOB: "1985-03-04", Email: "jane@example.com"},
	{ID: "22222222-2222-2222-2222-222222222222", AccountNumber: "A-1024", FirstName: "Walter", FullName: "Walter Briggs", DOB: "1938-11-02", Email: "walter.briggs+seed@example.com"},
	{ID: "33333333-3333-3333-3333-333333333333", AccountNumber: "B-2040", FirstName: "Edith", FullName: "Edith Marsh", DOB: "1941-06-17", Email: "edith.marsh+seed@example.com"},
	{ID: "44444444-4444-4444-4444-444444444444", AccountNumber: "B-2040", FirstName: "Ruth", FullName: "Ruth Marsh", DOB: "1944-01-09", Email: "ruth.marsh+seed@example.com"},
	{ID: "55555555-5555-5555-5555-555555555555", AccountNumber: "C-3310", FirstName: "Harold", FullName: "Harold Keane", DOB: "1936-09-28"},
}

func SeedProfiles(ctx context.Context, logger *logrus.Logger, repo ProfileUpserter) error {
	// staggered so the duplicate account has a well defined newest profile
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	for i, fake := range fakeProfiles {
		profile := &types.Profile{
			ID:            fake.ID,
			AccountNumber: fake.AccountNumber,
			FirstName:     utils.StringPtr(fake.FirstName),
			FullName:      utils.StringPtr(fake.FullName),
			DOB:           utils.StringPtr(fake.DOB),
			CreatedAt:     base.Add(time.Duration(i) * time.Hour),
		}
		if fake.Email != "" {
			profile.Email = utils.StringPtr(fake.Email)
		}

		if err := repo.UpsertProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to upsert fake profile %s: %w", fake.ID, err)
		}
	}

	logger.WithField("count", len(fakeProfiles)).Info("fake profiles seeded")
	return nil
}
