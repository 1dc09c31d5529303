package main

import (
	"context"
	"fmt"

	"nfpharmacy/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func loadConfig(cCtx *cli.Context) (*types.Config, error) {
	c := new(types.Config)
	if err := envconfig.Process(cCtx.String("env-prefix"), c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 25
	}

	return c, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

func newLogger(c *types.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("unknown LOG_LEVEL %q, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
