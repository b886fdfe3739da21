package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/flintspark/civicflow/internal/models"
)

// issueFilter parses the optional comma-separated issues query parameter.
// An absent or empty parameter means no filter.
func issueFilter(r *http.Request) []string {
	raw := r.URL.Query().Get("issues")
	filter := []string{}
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			filter = append(filter, id)
		}
	}
	return filter
}

func (app *application) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := app.issues.All(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	totalUsers, err := app.issues.TotalUsers(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Issues     []models.Issue `json:"issues"`
		TotalUsers int64          `json:"total_users"`
		Timestamp  time.Time      `json:"timestamp"`
	}{Issues: issues, TotalUsers: totalUsers, Timestamp: time.Now().UTC()})
}

func (app *application) listOffices(w http.ResponseWriter, r *http.Request) {
	filter := issueFilter(r)
	var (
		offices []models.Office
		err     error
	)
	if len(filter) == 0 {
		offices, err = app.offices.All(r.Context())
	} else {
		offices, err = app.offices.ByIssues(r.Context(), filter)
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Offices    []models.Office `json:"offices"`
		Count      int             `json:"count"`
		FilteredBy []string        `json:"filtered_by"`
		Timestamp  time.Time       `json:"timestamp"`
	}{Offices: offices, Count: len(offices), FilteredBy: filter, Timestamp: time.Now().UTC()})
}

func (app *application) listMeasures(w http.ResponseWriter, r *http.Request) {
	filter := issueFilter(r)
	var (
		measures []models.BallotMeasure
		err      error
	)
	if len(filter) == 0 {
		measures, err = app.measures.All(r.Context())
	} else {
		measures, err = app.measures.ByIssues(r.Context(), filter)
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Measures   []models.BallotMeasure `json:"measures"`
		Count      int                    `json:"count"`
		FilteredBy []string               `json:"filtered_by"`
		Timestamp  time.Time              `json:"timestamp"`
	}{Measures: measures, Count: len(measures), FilteredBy: filter, Timestamp: time.Now().UTC()})
}

func (app *application) listCandidates(w http.ResponseWriter, r *http.Request) {
	filter := issueFilter(r)
	var (
		candidates []models.Candidate
		err        error
	)
	if len(filter) == 0 {
		candidates, err = app.candidates.All(r.Context())
	} else {
		// Union of candidates whose platform addresses the issues and
		// candidates running for an office linked to them.
		candidates, err = app.candidates.ByIssues(r.Context(), filter)
	}
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Candidates []models.Candidate `json:"candidates"`
		Count      int                `json:"count"`
		FilteredBy []string           `json:"filtered_by"`
		Timestamp  time.Time          `json:"timestamp"`
	}{Candidates: candidates, Count: len(candidates), FilteredBy: filter, Timestamp: time.Now().UTC()})
}
