// Package tripapi exposes the planner operations under their public names,
// each returning a status code and a serialized body.
//
// Errors never escape this package: validation failures become 400, missing
// entities 404 and everything else a logged 500 with a generic message.
package tripapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/nullable"

	"github.com/jacentio/tripdb/planner"
)

// Content types set on Response.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Response is the result of one operation.
type Response struct {
	StatusCode  int
	Body        string
	ContentType string
}

// message is the body shape of every non-payload response.
type message struct {
	Message string `json:"message"`
}

// API maps planner results to responses.
type API struct {
	svc    *planner.Service
	logger *slog.Logger
}

// New creates an API over svc. A nil logger uses slog.Default().
func New(svc *planner.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{svc: svc, logger: logger}
}

// failure holds the caller-facing messages for one operation.
type failure struct {
	op       string
	notFound string
	internal string
}

func (a *API) fail(f failure, err error) Response {
	var verr *planner.ValidationError
	switch {
	case errors.As(err, &verr):
		return jsonResponse(http.StatusBadRequest, message{Message: validationMessage(verr)})
	case errors.Is(err, planner.ErrNotFound) && f.notFound != "":
		return jsonResponse(http.StatusNotFound, message{Message: f.notFound})
	}

	a.logger.Error("operation failed", "op", f.op, "error", err)
	return jsonResponse(http.StatusInternalServerError, message{Message: f.internal})
}

func validationMessage(err *planner.ValidationError) string {
	if err.Field == "amount" {
		return "Amount must be an integer"
	}
	return "Invalid " + err.Field + ": " + err.Reason
}

func jsonResponse(status int, v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Default().Error("encode response", "error", err)
		return Response{
			StatusCode:  http.StatusInternalServerError,
			Body:        `{"message":"Internal Server Error"}`,
			ContentType: ContentTypeJSON,
		}
	}
	return Response{StatusCode: status, Body: string(b), ContentType: ContentTypeJSON}
}

func textResponse(status int, body string) Response {
	return Response{StatusCode: status, Body: body, ContentType: ContentTypeText}
}

// value returns the supplied value of n, or nil when n is absent or null.
func value[T any](n nullable.Nullable[T]) *T {
	if !n.IsSpecified() || n.IsNull() {
		return nil
	}
	v, err := n.Get()
	if err != nil {
		return nil
	}
	return &v
}
