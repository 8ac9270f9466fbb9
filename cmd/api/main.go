// Command api serves the trip planner over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jacentio/tripdb/httpapi"
	"github.com/jacentio/tripdb/internal/config"
	"github.com/jacentio/tripdb/planner"
	"github.com/jacentio/tripdb/store"
	"github.com/jacentio/tripdb/tripapi"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := config.NewDynamoDBClient(ctx, cfg)
	if err != nil {
		logger.Error("create dynamodb client", "error", err)
		os.Exit(1)
	}

	svc := planner.New(store.New(client, cfg.Store()), logger)
	handler := httpapi.NewRouter(tripapi.New(svc, logger), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.Port, "table", cfg.TableName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
