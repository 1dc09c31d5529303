package store

import (
	"context"
	"fmt"
	"time"

	"nfpharmacy/internal/utils"
	"nfpharmacy/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileTableName = "pharmacy.profiles"

var profileColumns = utils.StructTagValues(types.Profile{})

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// ProfilesByAccountNumber returns up to limit profiles sharing the account
// number, newest first.
func (r *ProfileRepository) ProfilesByAccountNumber(ctx context.Context, accountNumber string, limit uint64) ([]*types.Profile, error) {
	query, args, err := psql().
		Select(profileColumns...).
		From(profileTableName).
		Where(sq.Eq{"account_number": accountNumber}).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate profile query: %w", err)
	}

	profiles := make([]*types.Profile, 0)
	if err := pgxscan.Select(ctx, r.pool, &profiles, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch profiles by account number: %w", err)
	}

	return profiles, nil
}

// UpsertProfile is used by the seed command only.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile *types.Profile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}

	query, args, err := psql().
		Insert(profileTableName).
		SetMap(utils.StructToMap(profile)).
		Suffix("ON CONFLICT (id) DO UPDATE SET account_number = EXCLUDED.account_number, first_name = EXCLUDED.first_name, full_name = EXCLUDED.full_name, dob = EXCLUDED.dob, email = EXCLUDED.email").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert profile query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}
