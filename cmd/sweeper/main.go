// Command sweeper consumes the table's stream and removes records left
// behind by deleted trips.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/tripdb/internal/config"
	"github.com/jacentio/tripdb/store"
	"github.com/jacentio/tripdb/stream"
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

	h := stream.NewHandler(store.New(client, cfg.Store()), logger)
	lambda.Start(h.HandleTripRemoved)
}
