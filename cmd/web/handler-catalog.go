package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/flintspark/civicflow/internal/filter"
	"github.com/flintspark/civicflow/internal/loader"
	"github.com/flintspark/civicflow/internal/models"
)

type collectionView[T any] struct {
	Status loader.Status `json:"status"`
	Error  string        `json:"error,omitempty"`
	Items  []T           `json:"items"`
}

type groupedView[T any] struct {
	Status loader.Status     `json:"status"`
	Error  string            `json:"error,omitempty"`
	Groups []filter.Group[T] `json:"groups"`
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (app *application) ballotFor(r *http.Request) *loader.Ballot {
	return app.registry.For(app.sessionManager.Token(r.Context()))
}

func (app *application) fetchIssues(ctx context.Context) ([]models.Issue, error) {
	resp, err := app.civic.Issues(ctx)
	return resp.Issues, err
}

// showBallot serves the per-issue office and measure groupings for the ballot
// step. The two filtered collections load concurrently and fail
// independently; a failure in one never hides the other's result.
func (app *application) showBallot(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	ballot := app.ballotFor(r)
	selected := sess.SelectedIssues

	ctx := r.Context()
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		ballot.Issues.Ensure(ctx, app.fetchIssues)
	}()
	go func() {
		defer wg.Done()
		ballot.Offices.Ensure(ctx, func(ctx context.Context) ([]models.Office, error) {
			resp, err := app.civic.Offices(ctx, selected)
			return resp.Offices, err
		})
	}()
	go func() {
		defer wg.Done()
		ballot.Measures.Ensure(ctx, func(ctx context.Context) ([]models.BallotMeasure, error) {
			resp, err := app.civic.Measures(ctx, selected)
			return resp.Measures, err
		})
	}()
	wg.Wait()

	app.renderBallot(w, r, selected, ballot)
}

// reloadBallot is the manual retry action behind the error state: it forces
// fresh loads instead of reusing whatever state the collections are in.
func (app *application) reloadBallot(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	ballot := app.ballotFor(r)
	selected := sess.SelectedIssues

	ctx := r.Context()
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		ballot.Issues.Load(ctx, app.fetchIssues)
	}()
	go func() {
		defer wg.Done()
		ballot.Offices.Load(ctx, func(ctx context.Context) ([]models.Office, error) {
			resp, err := app.civic.Offices(ctx, selected)
			return resp.Offices, err
		})
	}()
	go func() {
		defer wg.Done()
		ballot.Measures.Load(ctx, func(ctx context.Context) ([]models.BallotMeasure, error) {
			resp, err := app.civic.Measures(ctx, selected)
			return resp.Measures, err
		})
	}()
	wg.Wait()

	app.renderBallot(w, r, selected, ballot)
}

func (app *application) renderBallot(
	w http.ResponseWriter,
	r *http.Request,
	selected []string,
	ballot *loader.Ballot,
) {
	issues := ballot.Issues.Snapshot()
	offices := ballot.Offices.Snapshot()
	measures := ballot.Measures.Snapshot()

	officeGroups := []filter.Group[models.Office]{}
	if issues.Status == loader.StatusReady && offices.Status == loader.StatusReady {
		officeGroups = filter.NewOfficeIndex(issues.Items, offices.Items).Group(selected)
	}
	measureGroups := []filter.Group[models.BallotMeasure]{}
	if issues.Status == loader.StatusReady && measures.Status == loader.StatusReady {
		measureGroups = filter.NewMeasureIndex(issues.Items, measures.Items).Group(selected)
	}

	app.writeJSON(w, r, http.StatusOK, struct {
		Issues   collectionView[models.Issue]      `json:"issues"`
		Offices  groupedView[models.Office]        `json:"offices"`
		Measures groupedView[models.BallotMeasure] `json:"measures"`
	}{
		Issues: collectionView[models.Issue]{
			Status: issues.Status, Error: errText(issues.Err), Items: issues.Items,
		},
		Offices: groupedView[models.Office]{
			Status: offices.Status, Error: errText(offices.Err), Groups: officeGroups,
		},
		Measures: groupedView[models.BallotMeasure]{
			Status: measures.Status, Error: errText(measures.Err), Groups: measureGroups,
		},
	})
}

// showCandidates serves the per-issue candidate groupings. Candidate
// relevance unions direct platform matches with office-pathway matches, so
// the office collection rides along.
func (app *application) showCandidates(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	ballot := app.ballotFor(r)
	selected := sess.SelectedIssues

	ctx := r.Context()
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		ballot.Issues.Ensure(ctx, app.fetchIssues)
	}()
	go func() {
		defer wg.Done()
		ballot.Offices.Ensure(ctx, func(ctx context.Context) ([]models.Office, error) {
			resp, err := app.civic.Offices(ctx, selected)
			return resp.Offices, err
		})
	}()
	go func() {
		defer wg.Done()
		ballot.Candidates.Ensure(ctx, func(ctx context.Context) ([]models.Candidate, error) {
			resp, err := app.civic.Candidates(ctx, selected)
			return resp.Candidates, err
		})
	}()
	wg.Wait()

	app.renderCandidates(w, r, selected, ballot)
}

func (app *application) reloadCandidates(w http.ResponseWriter, r *http.Request) {
	sess, err := app.flow.Session(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	ballot := app.ballotFor(r)
	selected := sess.SelectedIssues

	ctx := r.Context()
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		ballot.Issues.Load(ctx, app.fetchIssues)
	}()
	go func() {
		defer wg.Done()
		ballot.Offices.Load(ctx, func(ctx context.Context) ([]models.Office, error) {
			resp, err := app.civic.Offices(ctx, selected)
			return resp.Offices, err
		})
	}()
	go func() {
		defer wg.Done()
		ballot.Candidates.Load(ctx, func(ctx context.Context) ([]models.Candidate, error) {
			resp, err := app.civic.Candidates(ctx, selected)
			return resp.Candidates, err
		})
	}()
	wg.Wait()

	app.renderCandidates(w, r, selected, ballot)
}

func (app *application) renderCandidates(
	w http.ResponseWriter,
	r *http.Request,
	selected []string,
	ballot *loader.Ballot,
) {
	issues := ballot.Issues.Snapshot()
	offices := ballot.Offices.Snapshot()
	candidates := ballot.Candidates.Snapshot()

	groups := []filter.Group[models.Candidate]{}
	if issues.Status == loader.StatusReady &&
		offices.Status == loader.StatusReady &&
		candidates.Status == loader.StatusReady {
		groups = filter.NewCandidateIndex(issues.Items, offices.Items, candidates.Items).Group(selected)
	}

	app.writeJSON(w, r, http.StatusOK, struct {
		Candidates groupedView[models.Candidate] `json:"candidates"`
	}{
		Candidates: groupedView[models.Candidate]{
			Status: candidates.Status, Error: errText(candidates.Err), Groups: groups,
		},
	})
}
