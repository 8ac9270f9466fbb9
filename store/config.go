package store

import "github.com/jacentio/tripdb/internal/keys"

// Limits imposed by DynamoDB on multi-item calls.
const (
	MaxBatchWriteSize  = 25
	MaxBatchGetSize    = 100
	MaxTransactionSize = 100
)

// Config holds configuration for the Store.
type Config struct {
	// TableName is the single table holding every entity kind.
	TableName string

	// TripChildrenIndex is the GSI keyed by GSI1.
	// Default: "Trips-Users-view"
	TripChildrenIndex string

	// UserTripsIndex is the GSI keyed by GSI2.
	// Default: "Users-Trips-view"
	UserTripsIndex string

	// Transactional makes multi-item writes (trip creation, cascade delete)
	// use TransactWriteItems. When false they use BatchWriteItem and parallel
	// DeleteItem calls, which can partially apply.
	Transactional bool

	// MaxConcurrency bounds parallel calls issued by one operation.
	// Default: 16
	MaxConcurrency int
}

// DefaultConfig returns the index names of the deployed table and enables transactions.
func DefaultConfig() Config {
	return Config{
		TableName:         "trips",
		TripChildrenIndex: "Trips-Users-view",
		UserTripsIndex:    "Users-Trips-view",
		Transactional:     true,
		MaxConcurrency:    16,
	}
}

// validate fills in defaults for unset values.
func (c *Config) validate() {
	def := DefaultConfig()
	if c.TableName == "" {
		c.TableName = def.TableName
	}
	if c.TripChildrenIndex == "" {
		c.TripChildrenIndex = def.TripChildrenIndex
	}
	if c.UserTripsIndex == "" {
		c.UserTripsIndex = def.UserTripsIndex
	}
	if c.MaxConcurrency < 1 {
		c.MaxConcurrency = def.MaxConcurrency
	}
}

// IndexName returns the physical index name for a logical index, or "" for the table.
func (c Config) IndexName(idx keys.Index) string {
	switch idx {
	case keys.IndexTripChildren:
		return c.TripChildrenIndex
	case keys.IndexUserTrips:
		return c.UserTripsIndex
	default:
		return ""
	}
}
