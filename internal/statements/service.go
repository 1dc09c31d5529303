// Package statements implements the resident statement pipeline: field
// extraction and matching at intake, storage, passcode delivery and
// passcode-gated download.
package statements

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"io"
	"time"

	"nfpharmacy/internal/mailer"
	"nfpharmacy/internal/metrics"
	"nfpharmacy/internal/ocr"
	"nfpharmacy/pkg/types"

	"github.com/sirupsen/logrus"
)

type StatementStore interface {
	Statement(ctx context.Context, id string) (*types.Statement, error)
	StatementsByIDs(ctx context.Context, ids []string) ([]*types.Statement, error)
	RecentStatements(ctx context.Context, limit uint64) ([]*types.Statement, error)
	CreateStatement(ctx context.Context, statement *types.Statement) error
	IssuePasscode(ctx context.Context, id, profileID, code string, expiresAt time.Time) error
	ClaimPasscode(ctx context.Context, id, code string, now time.Time) (bool, error)
}

type ProfileFinder interface {
	ProfilesByAccountNumber(ctx context.Context, accountNumber string, limit uint64) ([]*types.Profile, error)
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, fileName string, content []byte) (*ocr.Fields, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type Config struct {
	// SiteURL is the public base URL the verification link points at
	SiteURL           string
	OTPTTL            time.Duration
	SignedURLTTL      time.Duration
	MaxAttempts       int
	NotifyConcurrency int
}

type Service struct {
	statements StatementStore
	profiles   ProfileFinder
	objects    ObjectStore
	extractor  Extractor
	mailer     Mailer

	cfg         Config
	logger      *logrus.Logger
	metrics     *metrics.Metrics
	attempts    *attemptLimiter
	now         func() time.Time
	newPasscode func() (string, error)
}

type Option func(*Service)

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithPasscodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		s.newPasscode = gen
	}
}

func New(
	statements StatementStore,
	profiles ProfileFinder,
	objects ObjectStore,
	extractor Extractor,
	mailer Mailer,
	cfg Config,
	opts ...Option,
) (*Service, error) {
	if statements == nil || profiles == nil || objects == nil || extractor == nil || mailer == nil {
		return nil, errors.New("statements: all dependencies are required")
	}

	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.NotifyConcurrency <= 0 {
		cfg.NotifyConcurrency = 4
	}

	s := &Service{
		statements:  statements,
		profiles:    profiles,
		objects:     objects,
		extractor:   extractor,
		mailer:      mailer,
		cfg:         cfg,
		now:         time.Now,
		newPasscode: newPasscode,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logrus.New()
		s.logger.SetOutput(io.Discard)
	}

	s.attempts = newAttemptLimiter(cfg.MaxAttempts, cfg.OTPTTL)

	return s, nil
}

// Recent lists the newest statements for the back office.
func (s *Service) Recent(ctx context.Context, limit uint64) ([]*types.Statement, error) {
	if limit == 0 || limit > 500 {
		limit = 50
	}
	return s.statements.RecentStatements(ctx, limit)
}
