package main

import (
	"net/http"

	"github.com/flintspark/civicflow/internal/models"
)

type incrementRequest struct {
	IssueIDs     []string `json:"issue_ids"`
	SessionToken string   `json:"session_token"`
}

// incrementIssues bumps the engagement counter of each known issue. Unknown
// identifiers are skipped, not errors: the caller's view of the catalog may
// be stale.
func (app *application) incrementIssues(w http.ResponseWriter, r *http.Request) {
	var req incrementRequest
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if len(req.IssueIDs) == 0 {
		app.clientError(w, r, http.StatusBadRequest, "issue_ids is required")
		return
	}
	updated, err := app.issues.Increment(r.Context(), req.IssueIDs)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Success bool     `json:"success"`
		Updated []string `json:"updated"`
	}{Success: true, Updated: updated})
}

func (app *application) storeCompletion(w http.ResponseWriter, r *http.Request) {
	var completion models.Completion
	if !app.decodeJSON(w, r, &completion) {
		return
	}
	if err := app.engagement.StoreCompletion(r.Context(), completion); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}

func (app *application) storeSignup(w http.ResponseWriter, r *http.Request) {
	var signup models.Signup
	if !app.decodeJSON(w, r, &signup) {
		return
	}
	if signup.Email == "" {
		app.clientError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	if err := app.engagement.StoreSignup(r.Context(), signup); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Success bool `json:"success"`
	}{Success: true})
}
