package tripapi

import (
	"context"
	"net/http"
)

// Messages returned by the user operations.
const (
	MsgUserNotFound  = "User not found"
	msgProfileFailed = "Failed to fetch user details"
)

// GetProfile returns the user's stored profile item.
func (a *API) GetProfile(ctx context.Context, userID string) Response {
	profile, err := a.svc.Profile(ctx, userID)
	if err != nil {
		return a.fail(failure{op: "getProfile", notFound: MsgUserNotFound, internal: msgProfileFailed}, err)
	}
	return jsonResponse(http.StatusOK, profile)
}

// GetUsersForTrip lists the trip's members with their user data. A trip
// without members is reported as not found.
func (a *API) GetUsersForTrip(ctx context.Context, tripID string) Response {
	members, err := a.svc.UsersForTrip(ctx, tripID)
	if err != nil {
		return a.fail(failure{op: "getUsersForTrip", notFound: MsgTripNotFound, internal: MsgInternal}, err)
	}
	return jsonResponse(http.StatusOK, members)
}
