package planner

import (
	"context"
	"errors"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/store"
)

// Member is a user belonging to a trip.
type Member struct {
	UserID   string `json:"userId"`
	UserData any    `json:"userData"`
}

// Profile returns the user's raw profile item.
func (s *Service) Profile(ctx context.Context, userID string) (map[string]any, error) {
	if err := validateID("userId", keys.KindUser, userID); err != nil {
		return nil, err
	}

	item, err := s.store.Get(ctx, keys.EntityKey(keys.KindUser, userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("getProfile", err)
	}

	doc, err := item.Document()
	if err != nil {
		return nil, storeErr("getProfile", err)
	}
	return doc, nil
}

// UsersForTrip lists the trip's members with their user data, in
// membership order. A trip without memberships is ErrNotFound; members
// whose profile item is missing are skipped.
func (s *Service) UsersForTrip(ctx context.Context, tripID string) ([]Member, error) {
	if err := validateID("tripId", keys.KindTrip, tripID); err != nil {
		return nil, err
	}

	memberships, err := s.tripChildren(ctx, tripID, keys.KindUser, keys.AttrPK)
	if err != nil {
		return nil, storeErr("getUsersForTrip", err)
	}
	if len(memberships) == 0 {
		return nil, ErrNotFound
	}

	refs := make([]string, 0, len(memberships))
	ks := make([]keys.Key, 0, len(memberships))
	for _, m := range memberships {
		ref := m.String(keys.AttrPK)
		refs = append(refs, ref)
		ks = append(ks, keys.Key{PK: ref, SK: ref})
	}

	users, err := s.store.BatchGet(ctx, ks, keys.AttrPK, attrUserData)
	if err != nil {
		return nil, storeErr("getUsersForTrip", err)
	}

	byRef := make(map[string]store.Item, len(users))
	for _, u := range users {
		byRef[u.String(keys.AttrPK)] = u
	}

	members := make([]Member, 0, len(refs))
	for _, ref := range refs {
		u, ok := byRef[ref]
		if !ok {
			s.logger.Warn("membership without user profile", "tripId", tripID, "user", ref)
			continue
		}
		doc, err := u.Document()
		if err != nil {
			return nil, storeErr("getUsersForTrip", err)
		}
		id, _ := keys.KindUser.Strip(ref)
		members = append(members, Member{UserID: id, UserData: doc[attrUserData]})
	}
	return members, nil
}
