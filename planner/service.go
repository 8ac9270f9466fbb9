// Package planner implements the trip planner access layer over the single
// table: trips and their memberships, tasks, expenses and user lookups.
//
// Operations validate caller ids, issue store calls through the key scheme
// in internal/keys and return typed results. Failures are reported as
// ErrNotFound, *ValidationError, *StoreError or *CascadeError.
package planner

import (
	"context"
	"log/slog"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

// Service runs planner operations against a Store.
type Service struct {
	store  *store.Store
	logger *slog.Logger

	newID func() string
}

// New creates a Service. A nil logger uses slog.Default().
func New(s *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		logger: logger,
		newID:  keys.NewID,
	}
}

// SetNewIDForTest overrides id generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewIDForTest(fn func() string) {
	if fn != nil {
		s.newID = fn
	}
}

// tripChildren queries the trip's children of one kind through the
// store's relationship registry.
func (s *Service) tripChildren(ctx context.Context, tripID string, kind keys.Kind, attrs ...string) ([]store.Item, error) {
	q, err := s.store.Registry().ChildQuery(keys.KindTrip, tripID, kind)
	if err != nil {
		return nil, err
	}
	return s.store.Query(ctx, q, attrs...)
}

// documents converts raw items to plain values for JSON bodies.
func documents(op string, items []store.Item) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		doc, err := item.Document()
		if err != nil {
			return nil, storeErr(op, err)
		}
		out = append(out, doc)
	}
	return out, nil
}
