package main

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/flow"
	"github.com/flintspark/civicflow/internal/models"
	"github.com/justinas/nosurf"
)

// bestEffortTimeout bounds the analytics calls fired after navigation. Their
// failures are logged, never surfaced to the user.
const bestEffortTimeout = 10 * time.Second

type sessionView struct {
	Step              int              `json:"step"`
	TotalSteps        int              `json:"total_steps"`
	Terminal          models.Terminal  `json:"terminal"`
	Readiness         models.Readiness `json:"readiness"`
	SelectedIssues    []string         `json:"selected_issues"`
	AgeBracket        string           `json:"age_bracket"`
	CommunityRoles    []string         `json:"community_roles"`
	ZipCode           string           `json:"zip_code"`
	StarredCandidates []string         `json:"starred_candidates"`
	StarredMeasures   []string         `json:"starred_measures"`
	Feedback          string           `json:"feedback"`
	CSRFToken         string           `json:"csrf_token"`
}

func (app *application) renderSession(w http.ResponseWriter, r *http.Request, sess models.Session) {
	app.writeJSON(w, r, http.StatusOK, sessionView{
		Step:              sess.Step,
		TotalSteps:        flow.TotalSteps,
		Terminal:          sess.Terminal,
		Readiness:         sess.Readiness,
		SelectedIssues:    sess.SelectedIssues,
		AgeBracket:        sess.AgeBracket,
		CommunityRoles:    sess.CommunityRoles,
		ZipCode:           sess.ZipCode,
		StarredCandidates: sess.StarredCandidates,
		StarredMeasures:   sess.StarredMeasures,
		Feedback:          sess.Feedback,
		CSRFToken:         nosurf.Token(r),
	})
}

func (app *application) showSession(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.renderSession(w, r, sess)
}

func (app *application) advanceSession(w http.ResponseWriter, r *http.Request) {
	before, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	sess, err := app.flow.Advance(r.Context())
	if err != nil {
		app.flowError(w, r, err)
		return
	}
	if before.Step == flow.StepIssues {
		app.incrementIssueCounts(r, sess)
	}
	if sess.Step == flow.StepFinal {
		app.recordCompletion(r, sess)
	}
	app.renderSession(w, r, sess)
}

func (app *application) backSession(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.GoBack(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.renderSession(w, r, sess)
}

func (app *application) restartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.Restart(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.registry.Drop(app.sessionManager.Token(r.Context()))
	app.renderSession(w, r, sess)
}

func (app *application) decideSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer models.Readiness `json:"answer"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	sess, err := app.flow.Decide(r.Context(), req.Answer)
	if err != nil {
		app.flowError(w, r, err)
		return
	}
	if sess.Step == flow.StepFinal {
		app.recordCompletion(r, sess)
	}
	app.renderSession(w, r, sess)
}

func (app *application) selectIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IssueID string `json:"issue_id"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	if req.IssueID == "" {
		app.clientError(w, r, http.StatusBadRequest, "issue_id is required")
		return
	}
	sess, err := app.flow.SelectIssue(r.Context(), req.IssueID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	// The filtered collections are keyed to the selection; loaded groupings
	// would be stale now.
	app.registry.For(app.sessionManager.Token(r.Context())).ResetFiltered()
	app.renderSession(w, r, sess)
}

func (app *application) deselectIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IssueID string `json:"issue_id"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	sess, err := app.flow.DeselectIssue(r.Context(), req.IssueID)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.registry.For(app.sessionManager.Token(r.Context())).ResetFiltered()
	app.renderSession(w, r, sess)
}

func (app *application) setProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgeBracket     string   `json:"age_bracket"`
		CommunityRoles []string `json:"community_roles"`
		ZipCode        string   `json:"zip_code"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	sess, err := app.flow.SetProfile(r.Context(), req.AgeBracket, req.CommunityRoles, req.ZipCode)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.renderSession(w, r, sess)
}

func (app *application) setFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Feedback string `json:"feedback"`
	}
	if !app.decodeJSON(w, r, &req) {
		return
	}
	sess, err := app.flow.SetFeedback(r.Context(), req.Feedback)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.renderSession(w, r, sess)
}

// incrementIssueCounts bumps the engagement counters for the selected issues
// in the background once the user commits their selection.
func (app *application) incrementIssueCounts(r *http.Request, sess models.Session) {
	token := app.sessionManager.Token(r.Context())
	issueIDs := slices.Clone(sess.SelectedIssues)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
		defer cancel()
		if err := app.civic.IncrementIssueCounts(ctx, issueIDs, token); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "increment issue counts", errors.SlogError(err))
		}
	}()
}

// recordCompletion ships the finished journey snapshot in the background when
// the session reaches either terminal screen.
func (app *application) recordCompletion(r *http.Request, sess models.Session) {
	completion := models.Completion{
		SessionID:         app.sessionManager.Token(r.Context()),
		SelectedIssues:    slices.Clone(sess.SelectedIssues),
		AgeBracket:        sess.AgeBracket,
		CommunityRoles:    slices.Clone(sess.CommunityRoles),
		ZipCode:           sess.ZipCode,
		StarredCandidates: slices.Clone(sess.StarredCandidates),
		StarredMeasures:   slices.Clone(sess.StarredMeasures),
		ReadinessResponse: string(sess.Readiness),
		Feedback:          sess.Feedback,
		CompletedAt:       time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), bestEffortTimeout)
		defer cancel()
		if err := app.civic.StoreCompletion(ctx, completion); err != nil {
			app.logger.LogAttrs(ctx, slog.LevelWarn, "store completion", errors.SlogError(err))
		}
	}()
}
