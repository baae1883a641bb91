package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammadpnp/data-import/internal/bootstrap"
)

func main() {
	if err := bootstrap.LoadEnv(".env", ".env.local"); err != nil {
		log.Fatalf("failed to load env files: %v", err)
	}
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := bootstrap.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to start: %v", err)
	}
	defer application.Close()

	if cfg.InitialDataEnabled {
		n, err := application.InitialData.Run(ctx)
		if err != nil {
			logger.Errorf("initial data import failed: %v", err)
		} else {
			logger.Infof("initial data imported, %d files", n)
		}
	}

	if cfg.PollEnabled {
		if err := application.Poller.Start(ctx); err != nil {
			logger.Fatalf("failed to start poller: %v", err)
		}
	}

	go func() {
		if err := application.Server.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
