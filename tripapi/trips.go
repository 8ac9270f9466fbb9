package tripapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/jacentio/tripdb/planner"
)

// Messages returned by the trip operations.
const (
	MsgTripNotFound     = "Trip not found"
	MsgTripDeleted      = "Trip and associated records deleted successfully"
	MsgInternal         = "Internal Server Error"
	msgCreateTripFailed = "Error creating trip"
	msgUpdateTripFailed = "Error updating trip"
	msgDeleteTripFailed = "Error deleting trip"
)

// GetTripsForUser lists the trips the user owns.
func (a *API) GetTripsForUser(ctx context.Context, userID string) Response {
	trips, err := a.svc.TripsForUser(ctx, userID)
	if err != nil {
		return a.fail(failure{op: "getTripsForUser", internal: MsgInternal}, err)
	}
	return jsonResponse(http.StatusOK, trips)
}

// GetTrip returns the trip's name and status.
func (a *API) GetTrip(ctx context.Context, tripID string) Response {
	trip, err := a.svc.GetTrip(ctx, tripID)
	if err != nil {
		return a.fail(failure{op: "getTrip", notFound: MsgTripNotFound, internal: MsgInternal}, err)
	}
	return jsonResponse(http.StatusOK, trip)
}

// CreateTripForUser creates a trip owned by the user.
func (a *API) CreateTripForUser(ctx context.Context, userID, tripName string) Response {
	created, err := a.svc.CreateTrip(ctx, userID, tripName)
	if err != nil {
		return a.fail(failure{op: "createTripForUser", internal: msgCreateTripFailed}, err)
	}
	return jsonResponse(http.StatusCreated, created)
}

// ModifyTrip updates the supplied trip fields. Absent and null fields are
// left unchanged.
func (a *API) ModifyTrip(ctx context.Context, tripID string, tripName, tripStatus nullable.Nullable[string]) Response {
	items, err := a.svc.ModifyTrip(ctx, tripID, planner.TripChanges{
		Name:   value(tripName),
		Status: value(tripStatus),
	})
	if err != nil {
		return a.fail(failure{op: "modifyTrip", internal: msgUpdateTripFailed}, err)
	}
	return jsonResponse(http.StatusOK, items)
}

// cascadeFailure is the body of a partially applied trip delete.
type cascadeFailure struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
}

// DeleteTrip removes the trip and everything that belongs to it.
func (a *API) DeleteTrip(ctx context.Context, tripID string) Response {
	res, err := a.svc.DeleteTrip(ctx, tripID)

	var cerr *planner.CascadeError
	if errors.As(err, &cerr) {
		a.logger.Error("operation failed", "op", "deleteTrip", "tripId", tripID, "error", err)
		return jsonResponse(http.StatusInternalServerError, cascadeFailure{
			Message: msgDeleteTripFailed,
			Deleted: len(cerr.Deleted),
			Failed:  len(cerr.Failed),
		})
	}
	if err != nil {
		return a.fail(failure{op: "deleteTrip", internal: msgDeleteTripFailed}, err)
	}

	a.logger.Debug("trip deleted", "tripId", tripID, "records", res.Total())
	return textResponse(http.StatusOK, MsgTripDeleted)
}
