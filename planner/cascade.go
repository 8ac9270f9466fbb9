package planner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

// CascadeResult counts the records removed by DeleteTrip.
type CascadeResult struct {
	Trips       int
	Memberships int
	Tasks       int
	Expenses    int
}

// Total returns the number of records removed.
func (r CascadeResult) Total() int {
	return r.Trips + r.Memberships + r.Tasks + r.Expenses
}

func (r *CascadeResult) count(kind keys.Kind) {
	switch kind {
	case keys.KindTrip:
		r.Trips++
	case keys.KindUser:
		r.Memberships++
	case keys.KindTask:
		r.Tasks++
	case keys.KindExpense:
		r.Expenses++
	}
}

// target is one record found by cascade discovery.
type target struct {
	key  keys.Key
	kind keys.Kind
}

// DeleteTrip removes the trip's canonical record(s) and every record that
// points at the trip through GSI1. Deleting an absent trip succeeds with
// nothing removed.
//
// In transactional mode a cascade of at most store.MaxTransactionSize
// records is deleted atomically. Otherwise each record is deleted on its
// own; if some deletes fail the error is a *CascadeError listing both sides.
func (s *Service) DeleteTrip(ctx context.Context, tripID string) (CascadeResult, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return CascadeResult{}, err
	}

	targets, err := s.discover(ctx, tripID)
	if err != nil {
		return CascadeResult{}, storeErr("deleteTrip", err)
	}
	if len(targets) == 0 {
		return CascadeResult{}, nil
	}

	s.logger.Info("deleting trip", "tripId", tripID, "records", len(targets))

	if s.store.Config().Transactional && len(targets) <= store.MaxTransactionSize {
		ks := make([]keys.Key, len(targets))
		for i, t := range targets {
			ks[i] = t.key
		}
		if err := s.store.TransactDelete(ctx, ks); err != nil {
			return CascadeResult{}, storeErr("deleteTrip", err)
		}
		var res CascadeResult
		for _, t := range targets {
			res.count(t.kind)
		}
		return res, nil
	}

	return s.deleteEach(ctx, tripID, targets)
}

// discover runs the child and canonical record queries concurrently.
func (s *Service) discover(ctx context.Context, tripID string) ([]target, error) {
	var children, canonical []store.Item

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		children, err = s.store.Query(gctx, keys.AllChildrenQuery(tripID), keys.AttrPK, keys.AttrSK)
		return err
	})
	g.Go(func() error {
		var err error
		canonical, err = s.store.Query(gctx, keys.EntityQuery(keys.KindTrip, tripID), keys.AttrPK, keys.AttrSK)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	targets := make([]target, 0, len(children)+len(canonical))
	for _, item := range children {
		kind, ok := s.store.Registry().Classify(keys.KindTrip, item)
		if !ok {
			s.logger.Warn("unclassified trip record", "tripId", tripID, "key", item.Key().String())
		}
		targets = append(targets, target{key: item.Key(), kind: kind})
	}
	for _, item := range canonical {
		targets = append(targets, target{key: item.Key(), kind: keys.KindTrip})
	}
	return targets, nil
}

// deleteEach issues one delete per record, waiting for all of them.
func (s *Service) deleteEach(ctx context.Context, tripID string, targets []target) (CascadeResult, error) {
	errs := make([]error, len(targets))

	var g errgroup.Group
	g.SetLimit(s.store.Config().MaxConcurrency)
	for i, t := range targets {
		g.Go(func() error {
			errs[i] = s.store.Delete(ctx, t.key)
			return nil
		})
	}
	_ = g.Wait()

	var res CascadeResult
	cerr := &CascadeError{TripID: tripID}
	for i, t := range targets {
		if errs[i] != nil {
			cerr.Failed = append(cerr.Failed, FailedDelete{Key: t.key, Err: errs[i]})
			continue
		}
		cerr.Deleted = append(cerr.Deleted, t.key)
		res.count(t.kind)
	}

	if len(cerr.Failed) > 0 {
		s.logger.Error("trip cascade partially failed",
			"tripId", tripID,
			"deleted", len(cerr.Deleted),
			"failed", len(cerr.Failed),
		)
		return res, cerr
	}
	return res, nil
}
