package store

import (
	"context"
	"fmt"
	"time"

	"nfpharmacy/internal/utils"
	"nfpharmacy/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const statementTableName = "pharmacy.statements"

var statementColumns = utils.StructTagValues(types.Statement{})

type StatementRepository struct {
	pool *pgxpool.Pool
}

func NewStatementRepository(pool *pgxpool.Pool) *StatementRepository {
	return &StatementRepository{pool: pool}
}

func (r *StatementRepository) Statement(ctx context.Context, id string) (*types.Statement, error) {
	query, args, err := psql().
		Select(statementColumns...).
		From(statementTableName).
		Where(sq.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate statement query: %w", err)
	}

	var statement types.Statement
	err = pgxscan.Get(ctx, r.pool, &statement, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrStatementNotFound
		}
		return nil, fmt.Errorf("failed to fetch statement: %w", err)
	}

	return &statement, nil
}

func (r *StatementRepository) StatementsByIDs(ctx context.Context, ids []string) ([]*types.Statement, error) {
	if len(ids) == 0 {
		return []*types.Statement{}, nil
	}

	query, args, err := psql().
		Select(statementColumns...).
		From(statementTableName).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate statements-by-ids query: %w", err)
	}

	var statements []*types.Statement
	err = pgxscan.Select(ctx, r.pool, &statements, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch statements by ids: %w", err)
	}

	return statements, nil
}

func (r *StatementRepository) RecentStatements(ctx context.Context, limit uint64) ([]*types.Statement, error) {
	query, args, err := psql().
		Select(statementColumns...).
		From(statementTableName).
		OrderBy("created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate recent statements query: %w", err)
	}

	statements := make([]*types.Statement, 0)
	if err := pgxscan.Select(ctx, r.pool, &statements, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch recent statements: %w", err)
	}

	return statements, nil
}

// CreateStatement inserts a new statement row. ID and timestamps are
// assigned here when the caller leaves them empty.
func (r *StatementRepository) CreateStatement(ctx context.Context, statement *types.Statement) error {
	now := time.Now()
	if statement.ID == "" {
		statement.ID = uuid.NewString()
	}
	if statement.Status == "" {
		statement.Status = types.StatementStatusUploaded
	}
	statement.CreatedAt = now
	statement.UpdatedAt = now

	query, args, err := psql().
		Insert(statementTableName).
		SetMap(utils.StructToMap(statement)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create statement query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create statement: %w", err)
	}

	return nil
}

// IssuePasscode stores a fresh passcode on the statement and marks it sent.
func (r *StatementRepository) IssuePasscode(ctx context.Context, id, profileID, code string, expiresAt time.Time) error {
	now := time.Now()

	query, args, err := psql().
		Update(statementTableName).
		SetMap(map[string]any{
			"profile_id":     profileID,
			"otp_code":       code,
			"otp_expires_at": expiresAt,
			"status":         types.StatementStatusSent,
			"sent_at":        now,
			"updated_at":     now,
		}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate issue passcode query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to issue passcode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrStatementNotFound
	}

	return nil
}

// ClaimPasscode consumes the passcode in a single conditional update. It
// reports false when the code no longer matches or has expired by now, which
// is the case for every concurrent caller but the first.
func (r *StatementRepository) ClaimPasscode(ctx context.Context, id, code string, now time.Time) (bool, error) {
	query, args, err := psql().
		Update(statementTableName).
		Set("otp_code", nil).
		Set("otp_expires_at", nil).
		Set("status", types.StatementStatusDownloaded).
		Set("downloaded_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "otp_code": code}).
		Where(sq.Gt{"otp_expires_at": now}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to generate claim passcode query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to claim passcode: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
