package store

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"nfpharmacy/internal/db"
	"nfpharmacy/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestPool starts PostgreSQL in a container and applies the migrations.
// Set TEST_INTEGRATION to run.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		postgres.WithDatabase("nfpharmacy_test"),
		postgres.WithUsername("nfpharmacy"),
		postgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, db.Migrate(dsn, logger))
	// second run is a no-op
	require.NoError(t, db.Migrate(dsn, logger))

	pool, err := db.Connect(ctx, &types.Config{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func strPtr(s string) *string {
	return &s
}

func TestProfileRepository(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()
	repo := NewProfileRepository(pool)

	older := &types.Profile{ID: "p-old", AccountNumber: "B-2040", FirstName: strPtr("Edith"), CreatedAt: time.Now().Add(-time.Hour)}
	newer := &types.Profile{ID: "p-new", AccountNumber: "B-2040", FirstName: strPtr("Ruth"), Email: strPtr("ruth@example.com")}
	require.NoError(t, repo.UpsertProfile(ctx, older))
	require.NoError(t, repo.UpsertProfile(ctx, newer))

	profiles, err := repo.ProfilesByAccountNumber(ctx, "B-2040", 2)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "p-new", profiles[0].ID)
	assert.Equal(t, "ruth@example.com", *profiles[0].Email)

	none, err := repo.ProfilesByAccountNumber(ctx, "Z-0", 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	newer.Email = strPtr("ruth.marsh@example.com")
	require.NoError(t, repo.UpsertProfile(ctx, newer))
	profiles, err = repo.ProfilesByAccountNumber(ctx, "B-2040", 1)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "ruth.marsh@example.com", *profiles[0].Email)
}

func TestStatementLifecycle(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()
	profiles := NewProfileRepository(pool)
	repo := NewStatementRepository(pool)

	require.NoError(t, profiles.UpsertProfile(ctx, &types.Profile{ID: "p-jane", AccountNumber: "A-1023"}))

	statement := &types.Statement{
		OriginalFilename: "jane.pdf",
		StoragePath:      "statements/2025/03/x-jane.pdf",
		AccountNumber:    strPtr("A-1023"),
	}
	require.NoError(t, repo.CreateStatement(ctx, statement))
	require.NotEmpty(t, statement.ID)

	got, err := repo.Statement(ctx, statement.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatementStatusUploaded, got.Status)
	assert.False(t, got.HasPasscode())

	_, err = repo.Statement(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrStatementNotFound)

	assert.ErrorIs(t, repo.IssuePasscode(ctx, "missing", "p-jane", "123456", time.Now()), types.ErrStatementNotFound)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.IssuePasscode(ctx, statement.ID, "p-jane", "123456", now.Add(10*time.Minute)))

	got, err = repo.Statement(ctx, statement.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatementStatusSent, got.Status)
	assert.Equal(t, "p-jane", *got.ProfileID)
	assert.True(t, got.HasPasscode())
	assert.NotNil(t, got.SentAt)

	claimed, err := repo.ClaimPasscode(ctx, statement.ID, "000000", now)
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = repo.ClaimPasscode(ctx, statement.ID, "123456", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed, "a code is not claimable at its expiry instant")

	claimed, err = repo.ClaimPasscode(ctx, statement.ID, "123456", now)
	require.NoError(t, err)
	assert.True(t, claimed)

	got, err = repo.Statement(ctx, statement.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatementStatusDownloaded, got.Status)
	assert.Nil(t, got.OTPCode)
	assert.Nil(t, got.OTPExpiresAt)
	assert.NotNil(t, got.DownloadedAt)

	byIDs, err := repo.StatementsByIDs(ctx, []string{statement.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	recent, err := repo.RecentStatements(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestClaimPasscodeIsSingleUse(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()
	repo := NewStatementRepository(pool)

	require.NoError(t, NewProfileRepository(pool).UpsertProfile(ctx, &types.Profile{ID: "p-race", AccountNumber: "R-1"}))

	statement := &types.Statement{OriginalFilename: "race.pdf", StoragePath: "statements/race.pdf"}
	require.NoError(t, repo.CreateStatement(ctx, statement))

	now := time.Now()
	require.NoError(t, repo.IssuePasscode(ctx, statement.ID, "p-race", "654321", now.Add(time.Minute)))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ClaimPasscode(ctx, statement.ID, "654321", now)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
