package main

import (
	"context"
	"fmt"
	"os"

	"upbit-gpt-trader/internal/advisor"
	"upbit-gpt-trader/internal/advisor/advisorobs"
	"upbit-gpt-trader/internal/interfaces"
	"upbit-gpt-trader/internal/logger"
	"upbit-gpt-trader/internal/store"
	"upbit-gpt-trader/internal/trace"
	"upbit-gpt-trader/internal/tradelog"
	"upbit-gpt-trader/internal/upbit"

	"github.com/joho/godotenv"
)

// initializeSystem initializes environment, logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadCredentials loads the exchange and advisory credentials; a missing one
// is fatal before any request is served.
func loadCredentials(ctx context.Context) (*store.Credentials, error) {
	creds, err := store.LoadCredentials()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load credentials", err)
		return nil, err
	}
	return creds, nil
}

// loadConfig loads tunables from the config file, falling back to defaults
// when no file exists.
func loadConfig(ctx context.Context) (*store.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "No config file found, using defaults", "path", path)
		return store.DefaultConfig(), nil
	}

	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old tradelog files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeExchange builds the signed exchange client
func initializeExchange(creds *store.Credentials, cfg *store.Config) interfaces.Exchange {
	signer := upbit.NewSigner(creds.AccessKey, creds.SecretKey)
	return upbit.NewClient(signer, creds.ServerURL, cfg.PublicAPIURL,
		upbit.WithTimeout(cfg.HTTPTimeout.Std()),
		upbit.WithLogging(logger.IsDebugEnabled()),
	)
}

// initializeAdvisor builds the advisory client with observability
func initializeAdvisor(ctx context.Context, cfg *store.Config, creds *store.Credentials) interfaces.Advisor {
	var adv interfaces.Advisor

	switch cfg.LLM.Provider {
	case "OPENAI":
		adv = advisor.NewOpenAIAdvisor(cfg, creds.OpenAIKey)
	default:
		adv = advisor.NewNoopAdvisor()
		logger.Warn(ctx, "No advisory provider configured - every consultation returns HOLD")
	}

	return advisorobs.Wrap(adv)
}
