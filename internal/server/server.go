package server

//go:generate mockgen -source=server.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"nfpharmacy/internal/auth"
	"nfpharmacy/internal/statements"
	"nfpharmacy/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

//go:embed templates
var uiFS embed.FS
var decoder = form.NewDecoder()

type StatementService interface {
	Process(ctx context.Context, upload statements.Upload) (*statements.ProcessResult, error)
	Import(ctx context.Context, uploads []statements.Upload) []statements.ImportResult
	Save(ctx context.Context, in statements.SaveInput) (*types.Statement, error)
	Notify(ctx context.Context, ids []string) ([]statements.SendResult, error)
	Verify(ctx context.Context, id, code string) (string, error)
	Recent(ctx context.Context, limit uint64) ([]*types.Statement, error)
}

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Verify(ctx context.Context, accessToken string) (*auth.Claims, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Service struct {
	logger     *logrus.Logger
	config     *types.Config
	statements StatementService
	auth       Authenticator
	db         Pinger
	gatherer   prometheus.Gatherer
	templates  *template.Template

	cookie *securecookie.SecureCookie

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	statementService StatementService,
	authenticator Authenticator,
	db Pinger,
	gatherer prometheus.Gatherer,
) (*Service, error) {
	mux := flow.New()

	cookie, err := newSecureCookie(config, logger)
	if err != nil {
		return nil, err
	}

	s := &Service{
		logger:     logger,
		config:     config,
		statements: statementService,
		auth:       authenticator,
		db:         db,
		gatherer:   gatherer,
		cookie:     cookie,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)

	// trailing slash redirects run ahead of route matching
	s.server.Handler = s.StripTrailingSlash(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}), http.MethodGet)

	r.HandleFunc("/api/admin/login", s.handleLogin, http.MethodPost)
	r.HandleFunc("/api/admin/logout", s.handleLogout, http.MethodPost)

	// Resident-facing: the emailed link lands here and the passcode is the credential.
	r.HandleFunc("/statements/verify", s.handleGetVerifyPage, http.MethodGet)
	r.HandleFunc("/statements/verify", s.handlePostVerifyPage, http.MethodPost)
	r.HandleFunc("/api/statements/verify", s.handleVerify, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/api/statements", s.handleRecent, http.MethodGet)
		r.HandleFunc("/api/statements/process", s.handleProcess, http.MethodPost)
		r.HandleFunc("/api/statements/upload", s.handleUpload, http.MethodPost)
		r.HandleFunc("/api/statements/save", s.handleSave, http.MethodPost)
		r.HandleFunc("/api/statements/send", s.handleSend, http.MethodPost)
	})
}

func newSecureCookie(config *types.Config, logger *logrus.Logger) (*securecookie.SecureCookie, error) {
	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode COOKIE_HASH_KEY: %w", err)
	}

	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode COOKIE_BLOCK_KEY: %w", err)
	}

	if len(hashKey) == 0 || len(blockKey) == 0 {
		logger.Warn("cookie keys not set, generating ephemeral keys; admin sessions will not survive a restart")
		hashKey = securecookie.GenerateRandomKey(64)
		blockKey = securecookie.GenerateRandomKey(32)
	}

	return securecookie.New(hashKey, blockKey), nil
}

func loadTemplates() (*template.Template, error) {
	t := template.New("")
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
