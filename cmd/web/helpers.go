package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/flow"
)

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

// flowError maps controller failures onto HTTP statuses: transitions the
// flow forbids are conflicts, everything else is a server fault.
func (app *application) flowError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, flow.ErrStepIncomplete),
		errors.Is(err, flow.ErrDecisionRequired),
		errors.Is(err, flow.ErrFlowComplete),
		errors.Is(err, flow.ErrNotAtReadiness),
		errors.Is(err, flow.ErrUnknownBranch):
		app.logger.Debug("rejected transition", "method", r.Method, "uri", r.URL.RequestURI(),
			slog.Any("error", err.Error()))
		app.writeJSON(w, r, http.StatusConflict, errorPayload{
			Error:   "invalid_transition",
			Message: err.Error(),
		})
	default:
		app.serverError(w, r, err)
	}
}

func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
