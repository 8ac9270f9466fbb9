package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/jacentio/tripdb/tripapi"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type handlers struct {
	api    *tripapi.API
	logger *slog.Logger
}

type tripBody struct {
	TripName   nullable.Nullable[string] `json:"trip_name"`
	TripStatus nullable.Nullable[string] `json:"trip_status"`
}

type taskBody struct {
	TaskName   nullable.Nullable[string] `json:"task_name"`
	TaskStatus nullable.Nullable[string] `json:"task_status"`
}

// expenseBody keeps amount raw so it can be decoded with UseNumber.
type expenseBody struct {
	ExpenseName nullable.Nullable[string]          `json:"expense_name"`
	Amount      nullable.Nullable[json.RawMessage] `json:"amount"`
}

func (b expenseBody) amount() (nullable.Nullable[any], error) {
	var out nullable.Nullable[any]
	switch {
	case !b.Amount.IsSpecified():
		return out, nil
	case b.Amount.IsNull():
		out.SetNull()
		return out, nil
	}

	raw, err := b.Amount.Get()
	if err != nil {
		return out, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return out, err
	}
	out.Set(v)
	return out, nil
}

// orEmpty returns the supplied string or "".
func orEmpty(n nullable.Nullable[string]) string {
	if !n.IsSpecified() || n.IsNull() {
		return ""
	}
	v, _ := n.Get()
	return v
}

// decodeBody reads an optional JSON object body into dst. An empty body
// leaves dst untouched.
func (h *handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil && len(bytes.TrimSpace(b)) > 0 {
		err = json.Unmarshal(b, dst)
	}
	if err != nil {
		h.logger.Warn("invalid request body",
			"requestID", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeMessage(w, status, "Invalid request body")
		return false
	}
	return true
}

func write(w http.ResponseWriter, resp tripapi.Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	b, _ := json.Marshal(map[string]string{"message": msg})
	w.Header().Set("Content-Type", tripapi.ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func id(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func (h *handlers) getTripsForUser(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetTripsForUser(r.Context(), id(r)))
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetProfile(r.Context(), id(r)))
}

func (h *handlers) createTripForUser(w http.ResponseWriter, r *http.Request) {
	var body tripBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	write(w, h.api.CreateTripForUser(r.Context(), id(r), orEmpty(body.TripName)))
}

func (h *handlers) getTrip(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetTrip(r.Context(), id(r)))
}

func (h *handlers) modifyTrip(w http.ResponseWriter, r *http.Request) {
	var body tripBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	write(w, h.api.ModifyTrip(r.Context(), id(r), body.TripName, body.TripStatus))
}

func (h *handlers) deleteTrip(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.DeleteTrip(r.Context(), id(r)))
}

func (h *handlers) getUsersForTrip(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetUsersForTrip(r.Context(), id(r)))
}

func (h *handlers) getTasksForTrip(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetTasksForTrip(r.Context(), id(r)))
}

func (h *handlers) createTaskForTrip(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	write(w, h.api.CreateTaskForTrip(r.Context(), id(r), orEmpty(body.TaskName)))
}

func (h *handlers) getTaskDetails(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetTaskDetails(r.Context(), id(r)))
}

func (h *handlers) updateTaskForTrip(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	write(w, h.api.UpdateTaskForTrip(r.Context(), id(r), body.TaskName, body.TaskStatus))
}

func (h *handlers) deleteTaskForTrip(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.DeleteTaskForTrip(r.Context(), id(r)))
}

func (h *handlers) getExpensesForTrip(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetExpensesForTrip(r.Context(), id(r)))
}

func (h *handlers) createExpenseForTrip(w http.ResponseWriter, r *http.Request) {
	var body expenseBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	amount, err := body.amount()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var v any
	if amount.IsSpecified() && !amount.IsNull() {
		v, _ = amount.Get()
	}
	write(w, h.api.CreateExpenseForTrip(r.Context(), id(r), orEmpty(body.ExpenseName), v))
}

func (h *handlers) getExpenseDetails(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.GetExpenseDetails(r.Context(), id(r)))
}

func (h *handlers) updateExpenseForTrip(w http.ResponseWriter, r *http.Request) {
	var body expenseBody
	if !h.decodeBody(w, r, &body) {
		return
	}
	amount, err := body.amount()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	write(w, h.api.UpdateExpenseForTrip(r.Context(), id(r), body.ExpenseName, amount))
}

func (h *handlers) deleteExpenseForTrip(w http.ResponseWriter, r *http.Request) {
	write(w, h.api.DeleteExpenseForTrip(r.Context(), id(r)))
}
