// Package httpapi routes HTTP requests to the trip planner operations.
//
// The router only matches routes, decodes bodies and writes the operation's
// response; every response carries the permissive CORS headers the browser
// client expects.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jacentio/tripdb/tripapi"
)

// CORS header values set on every response.
const (
	AllowOrigin  = "*"
	AllowHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"
	AllowMethods = "DELETE,GET,HEAD,OPTIONS,PATCH,POST,PUT"
)

// NewRouter constructs the HTTP router over api. A nil logger uses
// slog.Default().
func NewRouter(api *tripapi.API, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handlers{api: api, logger: logger}

	r := chi.NewRouter()
	r.Use(cors)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(recoverer(logger))

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/users/{id}", func(r chi.Router) {
		r.Get("/trips", h.getTripsForUser)
		r.Post("/trips", h.createTripForUser)
		r.Get("/profile", h.getProfile)
	})

	r.Route("/trips/{id}", func(r chi.Router) {
		r.Get("/", h.getTrip)
		r.Patch("/", h.modifyTrip)
		r.Delete("/", h.deleteTrip)
		r.Get("/users", h.getUsersForTrip)
		r.Get("/tasks", h.getTasksForTrip)
		r.Post("/tasks", h.createTaskForTrip)
		r.Get("/expenses", h.getExpensesForTrip)
		r.Post("/expenses", h.createExpenseForTrip)
	})

	r.Route("/tasks/{id}", func(r chi.Router) {
		r.Get("/", h.getTaskDetails)
		r.Patch("/", h.updateTaskForTrip)
		r.Delete("/", h.deleteTaskForTrip)
	})

	r.Route("/expenses/{id}", func(r chi.Router) {
		r.Get("/", h.getExpenseDetails)
		r.Patch("/", h.updateExpenseForTrip)
		r.Delete("/", h.deleteExpenseForTrip)
	})

	return r
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", AllowOrigin)
		h.Set("Access-Control-Allow-Headers", AllowHeaders)
		h.Set("Access-Control-Allow-Methods", AllowMethods)
		next.ServeHTTP(w, r)
	})
}

// recoverer turns a panic into the generic 500 body. A response whose
// status was already written is left as is.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic serving request",
					"requestID", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
					"status", ww.Status(),
				)
				if ww.Status() != 0 {
					return
				}
				writeMessage(ww, http.StatusInternalServerError, tripapi.MsgInternal)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not Found")
}
