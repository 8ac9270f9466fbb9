package planner

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

// TripSummary is one trip owned by a user.
type TripSummary struct {
	ID     string `json:"PK"`
	Name   string `json:"tripName"`
	Status string `json:"status"`
}

// Trip is the canonical trip record's payload.
type Trip struct {
	Name   string `json:"trip_name" dynamodbav:"trip_name"`
	Status string `json:"trip_status" dynamodbav:"trip_status"`
}

// CreatedTrip is returned by CreateTrip.
type CreatedTrip struct {
	TripID string `json:"tripId"`
	UserID string `json:"userId"`
	Name   string `json:"trip_name"`
	Status string `json:"trip_status"`
}

// TripChanges holds the trip fields to update. Nil fields are left as is.
type TripChanges struct {
	Name   *string
	Status *string
}

func (c TripChanges) changes() store.Changes {
	var ch store.Changes
	if c.Name != nil {
		ch = ch.Set(attrTripName, *c.Name)
	}
	if c.Status != nil {
		ch = ch.Set(attrTripStatus, *c.Status)
	}
	return ch
}

// TripsForUser lists the trips owned by userID. No trips is an empty list.
func (s *Service) TripsForUser(ctx context.Context, userID string) ([]TripSummary, error) {
	if err := validateID("userId", keys.KindUser, userID); err != nil {
		return nil, err
	}

	items, err := s.store.Query(ctx, keys.OwnerQuery(userID), keys.AttrPK, attrTripName, attrTripStatus)
	if err != nil {
		return nil, storeErr("getTripsForUser", err)
	}

	trips := make([]TripSummary, 0, len(items))
	for _, item := range items {
		var t Trip
		if err := item.Unmarshal(&t); err != nil {
			return nil, storeErr("getTripsForUser", err)
		}
		id, _ := keys.KindTrip.Strip(item.String(keys.AttrPK))
		trips = append(trips, TripSummary{ID: id, Name: t.Name, Status: t.Status})
	}
	return trips, nil
}

// GetTrip returns the trip's name and status.
func (s *Service) GetTrip(ctx context.Context, tripID string) (Trip, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return Trip{}, err
	}

	items, err := s.store.Query(ctx, keys.EntityQuery(keys.KindTrip, tripID), attrTripName, attrTripStatus)
	if err != nil {
		return Trip{}, storeErr("getTrip", err)
	}
	if len(items) == 0 {
		return Trip{}, ErrNotFound
	}

	var t Trip
	if err := items[0].Unmarshal(&t); err != nil {
		return Trip{}, storeErr("getTrip", err)
	}
	return t, nil
}

// CreateTrip creates a trip owned by userID together with the owner's
// membership. In transactional mode both records are written atomically.
func (s *Service) CreateTrip(ctx context.Context, userID, name string) (CreatedTrip, error) {
	if err := validateID("userId", keys.KindUser, userID); err != nil {
		return CreatedTrip{}, err
	}

	tripID := s.newID()
	trip := newTripRecord(tripID, userID, name)
	membership := newMembershipRecord(userID, tripID)

	var err error
	if s.store.Config().Transactional {
		err = s.store.TransactCreate(ctx, trip, membership)
	} else {
		err = s.store.BatchPut(ctx, trip, membership)
	}
	if err != nil {
		return CreatedTrip{}, storeErr("createTripForUser", err)
	}

	s.logger.Debug("trip created", "tripId", tripID, "userId", userID)
	return CreatedTrip{
		TripID: tripID,
		UserID: userID,
		Name:   trip.TripName,
		Status: trip.TripStatus,
	}, nil
}

// ModifyTrip applies changes to every canonical record of the trip and
// returns the records as they are after the update. Without changes it
// returns the current records and writes nothing.
func (s *Service) ModifyTrip(ctx context.Context, tripID string, c TripChanges) ([]map[string]any, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return nil, err
	}

	items, err := s.store.Query(ctx, keys.TripRecordsQuery(tripID))
	if err != nil {
		return nil, storeErr("modifyTrip", err)
	}

	changes := c.changes()
	if changes.Empty() {
		return documents("modifyTrip", items)
	}

	updated := make([]store.Item, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.store.Config().MaxConcurrency)
	for i, item := range items {
		g.Go(func() error {
			out, err := s.store.Update(gctx, item.Key(), changes)
			if errors.Is(err, store.ErrNotFound) {
				// deleted since the query
				return nil
			}
			if err != nil {
				return err
			}
			updated[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeErr("modifyTrip", err)
	}

	kept := updated[:0]
	for _, item := range updated {
		if item != nil {
			kept = append(kept, item)
		}
	}
	return documents("modifyTrip", kept)
}
