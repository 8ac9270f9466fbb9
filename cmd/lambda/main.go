// Command lambda serves the trip planner behind an API Gateway proxy integration.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

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

	client, err := config.NewDynamoDBClient(context.Background(), cfg)
	if err != nil {
		logger.Error("create dynamodb client", "error", err)
		os.Exit(1)
	}

	svc := planner.New(store.New(client, cfg.Store()), logger)
	router := httpapi.NewRouter(tripapi.New(svc, logger), logger)

	lambda.Start(httpapi.NewProxyHandler(router))
}
