package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"upbit-gpt-trader/internal/engine"
	"upbit-gpt-trader/internal/logger"
	"upbit-gpt-trader/internal/market"
	"upbit-gpt-trader/internal/server"
	"upbit-gpt-trader/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	creds, err := loadCredentials(ctx)
	must(err)
	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx)

	exchange := initializeExchange(creds, cfg)
	advisor := initializeAdvisor(ctx, cfg, creds)
	reader := market.NewReader(exchange, cfg.CandleCount, cfg.DepthLevel)
	eng := engine.New(reader, advisor, exchange)

	srv := server.New(cfg.Listen, eng)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	logger.Info(ctx, "Relay started", "listen", cfg.Listen, "llm_provider", cfg.LLM.Provider)

	select {
	case <-sigc:
		logger.Info(ctx, "Shutting down...")
	case err := <-errc:
		if err != nil {
			logger.ErrorWithErr(ctx, "Server failed", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(ctx, "Server shutdown failed", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(ctx, "Tracer shutdown failed", err)
	}
}
