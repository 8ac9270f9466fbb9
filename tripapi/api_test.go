package tripapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/oapi-codegen/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/internal/memddb"
	"github.com/jacentio/tripdb/planner"
	"github.com/jacentio/tripdb/store"
	"github.com/jacentio/tripdb/tripapi"
)

type fixture struct {
	api   *tripapi.API
	table *memddb.Table
	store *store.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := store.DefaultConfig()
	table := memddb.New(cfg.TableName,
		memddb.WithIndex(cfg.TripChildrenIndex, keys.AttrGSI1),
		memddb.WithIndex(cfg.UserTripsIndex, keys.AttrGSI2),
	)
	st := store.New(table, cfg)
	svc := planner.New(st, nil)
	var n int
	svc.SetNewIDForTest(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	return fixture{api: tripapi.New(svc, nil), table: table, store: st}
}

func decode[T any](t *testing.T, resp tripapi.Response) T {
	t.Helper()
	require.Equal(t, tripapi.ContentTypeJSON, resp.ContentType)
	var v T
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &v), "body %s", resp.Body)
	return v
}

func messageOf(t *testing.T, resp tripapi.Response) string {
	t.Helper()
	return decode[map[string]any](t, resp)["message"].(string)
}

func failAll(op string) memddb.Hook {
	return func(got string, _ any) error {
		if got == op {
			return errors.New("unavailable")
		}
		return nil
	}
}

func TestTripLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.api.CreateTripForUser(ctx, "u1", "Lisbon")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"tripId":"id-1","userId":"u1","trip_name":"Lisbon","trip_status":"Progress"}`, resp.Body)

	resp = f.api.GetTrip(ctx, "id-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"trip_name":"Lisbon","trip_status":"Progress"}`, resp.Body)

	resp = f.api.GetTripsForUser(ctx, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"PK":"id-1","tripName":"Lisbon","status":"Progress"}]`, resp.Body)

	resp = f.api.DeleteTrip(ctx, "id-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tripapi.ContentTypeText, resp.ContentType)
	assert.Equal(t, tripapi.MsgTripDeleted, resp.Body)

	resp = f.api.GetTrip(ctx, "id-1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, tripapi.MsgTripNotFound, messageOf(t, resp))

	resp = f.api.DeleteTrip(ctx, "id-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "second delete is a no-op")
}

func TestGetTripsForUser_Empty(t *testing.T) {
	f := newFixture(t)

	resp := f.api.GetTripsForUser(context.Background(), "nobody")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", resp.Body)
}

func TestModifyTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.Equal(t, http.StatusCreated, f.api.CreateTripForUser(ctx, "u1", "Lisbon").StatusCode)

	resp := f.api.ModifyTrip(ctx, "id-1", nullable.Nullable[string]{}, nullable.NewNullableWithValue("Done"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decode[[]map[string]any](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "Lisbon", items[0]["trip_name"])
	assert.Equal(t, "Done", items[0]["trip_status"])

	resp = f.api.ModifyTrip(ctx, "id-1", nullable.NewNullNullable[string](), nullable.Nullable[string]{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, f.table.Calls(memddb.OpUpdateItem), "null fields are not applied")
}

func TestDeleteTrip_PartialFailure(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.Transactional = false
	table := memddb.New(cfg.TableName,
		memddb.WithIndex(cfg.TripChildrenIndex, keys.AttrGSI1),
		memddb.WithIndex(cfg.UserTripsIndex, keys.AttrGSI2),
	)
	api := tripapi.New(planner.New(store.New(table, cfg), nil), nil)
	ctx := context.Background()

	created := decode[map[string]any](t, api.CreateTripForUser(ctx, "u1", "Lisbon"))
	tripID := created["tripId"].(string)
	require.Equal(t, http.StatusCreated, api.CreateTaskForTrip(ctx, tripID, "pack").StatusCode)

	// the hook runs under the table lock, so the counter needs no guard
	var deletes int
	table.SetHook(func(op string, _ any) error {
		if op != memddb.OpDeleteItem {
			return nil
		}
		deletes++
		if deletes == 1 {
			return errors.New("throttled")
		}
		return nil
	})

	resp := api.DeleteTrip(ctx, tripID)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Error deleting trip", body["message"])
	assert.Equal(t, float64(2), body["deleted"])
	assert.Equal(t, float64(1), body["failed"])
}

func TestCreateTrip_StoreFailure(t *testing.T) {
	f := newFixture(t)
	f.table.SetHook(failAll(memddb.OpTransactWriteItems))

	resp := f.api.CreateTripForUser(context.Background(), "u1", "Lisbon")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error creating trip", messageOf(t, resp))
}

func TestInvalidID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		resp tripapi.Response
		msg  string
	}{
		{"empty trip", f.api.GetTrip(ctx, ""), "Invalid tripId: must not be empty"},
		{"prefixed trip", f.api.DeleteTrip(ctx, "Trip1"), "Invalid tripId: must not start with Trip"},
		{"prefixed user", f.api.GetTripsForUser(ctx, "User1"), "Invalid userId: must not start with User"},
		{"empty task", f.api.GetTaskDetails(ctx, ""), "Invalid taskId: must not be empty"},
	}
	for _, tt := range tests {
		assert.Equal(t, http.StatusBadRequest, tt.resp.StatusCode, tt.name)
		assert.Equal(t, tt.msg, messageOf(t, tt.resp), tt.name)
		assert.NotContains(t, tt.resp.Body, "keys:", tt.name)
	}
	assert.Equal(t, 0, f.table.Len())
}

func TestTaskOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.api.CreateTaskForTrip(ctx, "t1", "pack")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"taskId":"id-1","tripId":"t1","taskName":"pack","task_status":"incomplete"}`, resp.Body)

	resp = f.api.GetTasksForTrip(ctx, "t1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"taskId":"id-1","taskName":"pack","taskStatus":"incomplete"}]`, resp.Body)

	resp = f.api.GetTaskDetails(ctx, "id-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"task_object":{"task_name":"pack","task_status":"incomplete"}}]`, resp.Body)

	resp = f.api.UpdateTaskForTrip(ctx, "id-1", nullable.Nullable[string]{}, nullable.NewNullableWithValue("complete"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"taskId":"id-1","taskName":"pack","taskStatus":"complete"}`, resp.Body)

	resp = f.api.UpdateTaskForTrip(ctx, "id-1", nullable.Nullable[string]{}, nullable.Nullable[string]{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, f.table.Calls(memddb.OpUpdateItem))

	resp = f.api.DeleteTaskForTrip(ctx, "id-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tripapi.MsgTaskDeleted, messageOf(t, resp))

	resp = f.api.GetTaskDetails(ctx, "id-1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, tripapi.MsgTasksNotFound, messageOf(t, resp))

	resp = f.api.UpdateTaskForTrip(ctx, "id-1", nullable.NewNullableWithValue("x"), nullable.Nullable[string]{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, tripapi.MsgTaskNotFound, messageOf(t, resp))
}

func TestTaskStoreFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.table.SetHook(failAll(memddb.OpQuery))
	resp := f.api.GetTasksForTrip(ctx, "t1")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, tripapi.MsgInternal, messageOf(t, resp))

	f.table.SetHook(failAll(memddb.OpPutItem))
	resp = f.api.CreateTaskForTrip(ctx, "t1", "pack")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error creating task", messageOf(t, resp))

	f.table.SetHook(failAll(memddb.OpDeleteItem))
	resp = f.api.DeleteTaskForTrip(ctx, "k1")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Error deleting task", messageOf(t, resp))
}

func TestCreateExpense_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, amount := range []any{3.5, "10", true, nil} {
		resp := f.api.CreateExpenseForTrip(ctx, "t1", "hotel", amount)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "amount %#v", amount)
		assert.Equal(t, "Amount must be an integer", messageOf(t, resp))
	}
	assert.Equal(t, 0, f.table.Len(), "no expense persisted")
}

func TestExpenseOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.api.CreateExpenseForTrip(ctx, "t1", "hotel", json.Number("120"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"expenseId":"id-1","tripId":"t1","expense_object":{"expense_name":"hotel","amount":120}}`, resp.Body)

	resp = f.api.GetExpensesForTrip(ctx, "t1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"expenseId":"id-1","expenseName":"hotel","amount":120}]`, resp.Body)

	resp = f.api.GetExpenseDetails(ctx, "id-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"expense_object":{"expense_name":"hotel","amount":120}}]`, resp.Body)

	resp = f.api.UpdateExpenseForTrip(ctx, "id-1", nullable.Nullable[string]{}, nullable.NewNullableWithValue[any](float64(0)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"expenseId":"id-1","expenseName":"hotel","amount":0}`, resp.Body)

	resp = f.api.UpdateExpenseForTrip(ctx, "id-1", nullable.Nullable[string]{}, nullable.NewNullableWithValue[any](2.5))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.api.DeleteExpenseForTrip(ctx, "id-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tripapi.MsgExpenseDeleted, messageOf(t, resp))

	resp = f.api.GetExpenseDetails(ctx, "id-1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, tripapi.MsgExpenseNotFound, messageOf(t, resp))

	resp = f.api.UpdateExpenseForTrip(ctx, "id-1", nullable.NewNullableWithValue("x"), nullable.Nullable[any]{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type profile struct {
	PK       string         `dynamodbav:"PK"`
	SK       string         `dynamodbav:"SK"`
	UserData map[string]any `dynamodbav:"user_data"`
}

func (p profile) EntityKey() keys.Key { return keys.Key{PK: p.PK, SK: p.SK} }

func TestUserOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.api.GetProfile(ctx, "u1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, tripapi.MsgUserNotFound, messageOf(t, resp))

	l := keys.UserLayout("u1")
	require.NoError(t, f.store.Put(ctx, profile{PK: l.PK, SK: l.SK, UserData: map[string]any{"name": "Ana"}}))

	resp = f.api.GetProfile(ctx, "u1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"PK":"Useru1","SK":"Useru1","user_data":{"name":"Ana"}}`, resp.Body)

	resp = f.api.GetUsersForTrip(ctx, "id-1")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, tripapi.MsgTripNotFound, messageOf(t, resp))

	require.Equal(t, http.StatusCreated, f.api.CreateTripForUser(ctx, "u1", "Lisbon").StatusCode)
	resp = f.api.GetUsersForTrip(ctx, "id-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"userId":"u1","userData":{"name":"Ana"}}]`, resp.Body)

	f.table.SetHook(failAll(memddb.OpGetItem))
	resp = f.api.GetProfile(ctx, "u1")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to fetch user details", messageOf(t, resp))
}
