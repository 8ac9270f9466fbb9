package planner_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tripdb/internal/memddb"
	"github.com/jacentio/tripdb/planner"
)

func TestProfile(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Profile(ctx, "u1")
	assert.ErrorIs(t, err, planner.ErrNotFound)

	f.seedUser(t, "u1", "Ana")
	profile, err := f.svc.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Useru1", profile["PK"])
	assert.Equal(t, map[string]any{"name": "Ana"}, profile["user_data"])
}

func TestProfile_StoreFailure(t *testing.T) {
	f := newFixture(t, true)
	f.table.SetHook(failOp(memddb.OpGetItem, errors.New("unavailable")))

	_, err := f.svc.Profile(context.Background(), "u1")
	var storeErr *planner.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "getProfile", storeErr.Op)
}

func TestUsersForTrip_NoMembers(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.UsersForTrip(context.Background(), "t1")
	assert.ErrorIs(t, err, planner.ErrNotFound)
	assert.Equal(t, 0, f.table.Calls(memddb.OpBatchGetItem))
}

func TestUsersForTrip(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.seedUser(t, "owner", "Olga")
	f.seedUser(t, "guest", "Gil")
	created, err := f.svc.CreateTrip(ctx, "owner", "Lisbon")
	require.NoError(t, err)
	f.join(t, "guest", created.TripID)

	members, err := f.svc.UsersForTrip(ctx, created.TripID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []planner.Member{
		{UserID: "owner", UserData: map[string]any{"name": "Olga"}},
		{UserID: "guest", UserData: map[string]any{"name": "Gil"}},
	}, members)
}

func TestUsersForTrip_SkipsMissingProfiles(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.seedUser(t, "owner", "Olga")
	created, err := f.svc.CreateTrip(ctx, "owner", "Lisbon")
	require.NoError(t, err)
	f.join(t, "ghost", created.TripID)

	members, err := f.svc.UsersForTrip(ctx, created.TripID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "owner", members[0].UserID)
}

func TestUsersForTrip_ManyMembers(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	const n = 150
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("user%03d", i)
		f.seedUser(t, id, id)
		f.join(t, id, "t1")
	}

	members, err := f.svc.UsersForTrip(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, members, n)
	// membership order follows the GSI1 query, which memddb returns by PK
	for i, m := range members {
		assert.Equal(t, fmt.Sprintf("user%03d", i), m.UserID)
	}
	assert.Equal(t, 2, f.table.Calls(memddb.OpBatchGetItem))
}

func TestUsersForTrip_BatchFailure(t *testing.T) {
	f := newFixture(t, true)
	f.join(t, "u1", "t1")
	f.table.SetHook(failOp(memddb.OpBatchGetItem, errors.New("throttled")))

	_, err := f.svc.UsersForTrip(context.Background(), "t1")
	var storeErr *planner.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "getUsersForTrip", storeErr.Op)
}
