package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/models"
)

func (app *application) starCandidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CandidateID string `json:"candidate_id"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.CandidateID == "" {
		app.clientError(w, r, http.StatusBadRequest, "candidate_id is required")
		return
	}
	sess, err := app.flow.ToggleStarredCandidate(r.Context(), req.CandidateID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.renderSession(w, r, sess)
}

func (app *application) starMeasure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MeasureID string `json:"measure_id"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.MeasureID == "" {
		app.clientError(w, r, http.StatusBadRequest, "measure_id is required")
		return
	}
	sess, err := app.flow.ToggleStarredMeasure(r.Context(), req.MeasureID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.renderSession(w, r, sess)
}

// signup forwards an email signup to the data store. Fire-and-forget: the
// user gets an immediate acknowledgement and a delivery failure is only
// logged.
func (app *application) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		WantsUpdates bool   `json:"wants_updates"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		app.clientError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	sess, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	signup := models.Signup{
		Email:        req.Email,
		Source:       string(sess.Terminal),
		WantsUpdates: req.WantsUpdates,
		SessionID:    app.sessionManager.Token(r.Context()),
		Timestamp:    time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
		defer cancel()
		if err := app.civic.StoreSignup(ctx, signup); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "store signup", errors.SlogError(err))
		}
	}()
	app.writeJSON(w, r, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
