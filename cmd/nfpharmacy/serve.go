package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nfpharmacy/internal/auth"
	"nfpharmacy/internal/db"
	"nfpharmacy/internal/mailer"
	"nfpharmacy/internal/metrics"
	"nfpharmacy/internal/ocr"
	"nfpharmacy/internal/server"
	"nfpharmacy/internal/statements"
	"nfpharmacy/internal/storage"
	"nfpharmacy/internal/store"
	"nfpharmacy/pkg/types"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply pending migrations before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	logger := newLogger(config)

	if cCtx.Bool("migrate") {
		if err := db.Migrate(config.DatabaseURL, logger); err != nil {
			return err
		}
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	objects, err := storage.New(config, awsConfig)
	if err != nil {
		return err
	}

	extractor, err := newExtractor(config)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	statementService, err := statements.New(
		store.NewStatementRepository(pool),
		store.NewProfileRepository(pool),
		objects,
		extractor,
		mailer.NewResend(config.ResendAPIKey, config.FromEmail),
		statements.Config{
			SiteURL:           config.SiteURL,
			OTPTTL:            time.Duration(config.OTPTTLSec) * time.Second,
			SignedURLTTL:      time.Duration(config.SignedURLTTLSec) * time.Second,
			MaxAttempts:       config.OTPMaxAttempts,
			NotifyConcurrency: config.NotifyConcurrency,
		},
		statements.WithLogger(logger),
		statements.WithMetrics(metrics.New(registry)),
	)
	if err != nil {
		return err
	}

	jwkCache, jwksURL, err := auth.NewJWKSCache(ctx, config.CognitoIssuerURL)
	if err != nil {
		return err
	}
	if jwkCache == nil {
		logger.Warn("COGNITO_ISSUER_URL not set, admin routes will reject every request")
	}

	authenticator := auth.NewCognito(
		cognitoidentityprovider.NewFromConfig(awsConfig),
		config.CognitoClientID,
		jwkCache,
		jwksURL,
	)

	srv, err := server.New(
		config,
		logger,
		statementService,
		authenticator,
		pool,
		registry,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func newExtractor(config *types.Config) (statements.Extractor, error) {
	switch config.Extractor {
	case "", "ocr":
		return ocr.NewClient(config.OCRServiceURL, &http.Client{Timeout: 60 * time.Second}), nil
	case "textlayer":
		return ocr.NewTextLayer(), nil
	default:
		return nil, fmt.Errorf("unknown EXTRACTOR %q, expected ocr or textlayer", config.Extractor)
	}
}
