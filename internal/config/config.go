// Package config loads process configuration from the environment and
// builds the DynamoDB client.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/tripdb/store"
)

// Config is the environment-provided configuration shared by every entry point.
type Config struct {
	TableName       string
	TripsUsersIndex string
	UsersTripsIndex string
	Transactional   bool
	MaxConcurrency  int

	// Endpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	Endpoint string
	// Profile selects a shared config profile.
	Profile string

	Port     string
	LogLevel slog.Level
}

// LoadFromEnv reads the configuration. DYNAMODB_TABLE_NAME is required.
func LoadFromEnv() (Config, error) {
	def := store.DefaultConfig()
	cfg := Config{
		TableName:       os.Getenv("DYNAMODB_TABLE_NAME"),
		TripsUsersIndex: getenv("TRIPS_USERS_INDEX", def.TripChildrenIndex),
		UsersTripsIndex: getenv("USERS_TRIPS_INDEX", def.UserTripsIndex),
		Transactional:   def.Transactional,
		MaxConcurrency:  def.MaxConcurrency,
		Endpoint:        os.Getenv("DYNAMODB_ENDPOINT"),
		Profile:         os.Getenv("AWS_PROFILE"),
		Port:            getenv("PORT", "8080"),
		LogLevel:        slog.LevelInfo,
	}
	if cfg.TableName == "" {
		return Config{}, fmt.Errorf("missing required env var: DYNAMODB_TABLE_NAME")
	}

	if v := os.Getenv("TRANSACTIONAL_WRITES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("TRANSACTIONAL_WRITES must be a boolean: %w", err)
		}
		cfg.Transactional = b
	}
	if v := os.Getenv("MAX_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("MAX_CONCURRENCY must be a positive integer, got %q", v)
		}
		cfg.MaxConcurrency = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

// Store returns the store configuration.
func (c Config) Store() store.Config {
	return store.Config{
		TableName:         c.TableName,
		TripChildrenIndex: c.TripsUsersIndex,
		UserTripsIndex:    c.UsersTripsIndex,
		Transactional:     c.Transactional,
		MaxConcurrency:    c.MaxConcurrency,
	}
}

// NewLogger returns a JSON logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

// NewDynamoDBClient builds a client from the default AWS configuration
// chain, honoring Profile and Endpoint.
func NewDynamoDBClient(ctx context.Context, c Config) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
	}), nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
