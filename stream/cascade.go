// Package stream provides DynamoDB Streams handlers that finish trip
// cascades.
//
// A trip delete that fails part way leaves tasks, expenses or memberships
// pointing at a trip that no longer exists. The canonical record's REMOVE
// event is the signal to sweep them.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

// Handler processes DynamoDB stream events for trip cascades.
type Handler struct {
	store  *store.Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s *store.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleTripRemoved deletes the records left behind by removed trips.
// It is used as the Lambda handler; a returned error makes Lambda retry
// the batch.
func (h *Handler) HandleTripRemoved(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// processRecord sweeps one REMOVE of a canonical trip record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != string(events.DynamoDBOperationTypeRemove) {
		return nil
	}

	key, ok := ConvertStreamKey(record.Change.Keys)
	if !ok {
		key, ok = ConvertStreamKey(record.Change.OldImage)
	}
	if !ok {
		return nil
	}
	tripID, ok := canonicalTrip(key)
	if !ok {
		return nil
	}

	// another canonical record keeps the trip alive
	remaining, err := h.store.Query(ctx, keys.TripRecordsQuery(tripID), keys.AttrPK)
	if err != nil {
		return fmt.Errorf("query trip records: %w", err)
	}
	if len(remaining) > 0 {
		h.logger.Info("trip still has canonical records", "tripId", tripID, "records", len(remaining))
		return nil
	}

	children, err := h.store.Query(ctx, keys.AllChildrenQuery(tripID), keys.AttrPK, keys.AttrSK)
	if err != nil {
		return fmt.Errorf("query children: %w", err)
	}
	if len(children) == 0 {
		return nil
	}

	h.logger.Info("sweeping orphaned trip records",
		"tripId", tripID,
		"childCount", len(children),
	)

	errs := make([]error, len(children))
	var g errgroup.Group
	g.SetLimit(h.store.Config().MaxConcurrency)
	for i, child := range children {
		kind, _ := h.store.Registry().Classify(keys.KindTrip, child)
		g.Go(func() error {
			if err := h.store.Delete(ctx, child.Key()); err != nil {
				h.logger.Warn("failed to delete orphan",
					"tripId", tripID,
					"kind", kind,
					"key", child.Key().String(),
					"error", err,
				)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("sweep trip %s: %w", tripID, err)
	}

	h.logger.Info("trip sweep completed",
		"tripId", tripID,
		"childrenProcessed", len(children),
	)
	return nil
}

// canonicalTrip reports the trip id of a canonical trip record key
// (PK=Trip<id>, SK=Trip<id>#User<owner>).
func canonicalTrip(key keys.Key) (string, bool) {
	kind, tripID, err := keys.Parse(key.PK)
	if err != nil || kind != keys.KindTrip {
		return "", false
	}
	if key.SK != key.PK && !strings.HasPrefix(key.SK, key.PK+keys.Separator) {
		return "", false
	}
	return tripID, true
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// ConvertStreamKey reads the table key from a stream key map or image.
// It reports false when either key attribute is missing.
func ConvertStreamKey(streamKey map[string]events.DynamoDBAttributeValue) (keys.Key, bool) {
	k := keys.Key{
		PK: getStringAttr(streamKey, keys.AttrPK),
		SK: getStringAttr(streamKey, keys.AttrSK),
	}
	return k, k.PK != "" && k.SK != ""
}
