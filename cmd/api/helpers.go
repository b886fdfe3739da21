package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/flintspark/civicflow/internal/errors"
)

// errorPayload is the service's well-formed failure shape. Clients use the
// presence of this shape (any non-2xx status) to classify a failure as
// logical rather than transport-level.
type errorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "encode response", errors.SlogError(err))
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorPayload{
		Error:   "internal_error",
		Message: http.StatusText(http.StatusInternalServerError),
	})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.logger.Debug(message, "method", r.Method, "uri", r.URL.RequestURI(), "status", status)
	app.writeJSON(w, r, status, errorPayload{
		Error:   "bad_request",
		Message: message,
	})
}

// decodeJSON reads the request body into v, reporting a client error on
// malformed input.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
