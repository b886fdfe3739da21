package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/flintspark/civicflow/internal/e2etest"
	"github.com/flintspark/civicflow/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeDataStore stands in for the data-store service. It serves a small
// catalog and can simulate both failure kinds the loader distinguishes:
// dropped connections (transient) and well-formed error responses (logical).
type fakeDataStore struct {
	mu sync.Mutex
	// transientLeft counts connection drops still to serve per path.
	transientLeft map[string]int
	// remoteFailing paths answer with a JSON error payload.
	remoteFailing map[string]bool
	completions   []models.Completion
	signups       []models.Signup
	increments    [][]string
	server        *httptest.Server
}

func newFakeDataStore(t *testing.T) *fakeDataStore {
	t.Helper()
	f := &fakeDataStore{
		transientLeft: map[string]int{},
		remoteFailing: map[string]bool{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeDataStore) URL() string { return f.server.URL }

func (f *fakeDataStore) failTransiently(path string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transientLeft[path] = times
}

func (f *fakeDataStore) setRemoteFailing(path string, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remoteFailing[path] = failing
}

func (f *fakeDataStore) completionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completions)
}

func (f *fakeDataStore) signupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.signups)
}

func (f *fakeDataStore) incrementCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.increments)
}

func testIssues() []models.Issue {
	return []models.Issue{
		{ID: "housing", Name: "Housing", Count: 1247, RelatedOffices: []string{"city-council"}, RelatedMeasures: []string{"measure-housing"}},
		{ID: "education", Name: "Education", Count: 900, RelatedMeasures: []string{"measure-education"}},
		{ID: "safety", Name: "Public Safety", Count: 800},
		{ID: "environment", Name: "Environment", Count: 700},
	}
}

func testOffices() []models.Office {
	return []models.Office{
		{ID: "city-council", Name: "City Council", Level: models.JurisdictionLocal, RelatedIssues: []string{"safety"}},
	}
}

func testMeasures() []models.BallotMeasure {
	return []models.BallotMeasure{
		{ID: "measure-housing", Title: "Housing Bond"},
		{ID: "measure-education", Title: "School Levy"},
	}
}

func testCandidates() []models.Candidate {
	return []models.Candidate{
		{ID: "candidate-1", Name: "Angie Thibodeaux", OfficeID: "city-council"},
		{ID: "candidate-2", Name: "Marcus Lee", OfficeID: "city-council", RelatedIssues: []string{"education"}},
	}
}

func (f *fakeDataStore) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	if f.transientLeft[r.URL.Path] > 0 {
		f.transientLeft[r.URL.Path]--
		f.mu.Unlock()
		hj, ok := w.(http.Hijacker)
		if ok {
			conn, _, err := hj.Hijack()
			if err == nil {
				_ = conn.Close()
			}
		}
		return
	}
	if f.remoteFailing[r.URL.Path] {
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "database_error",
			"message": "query failed",
		})
		return
	}
	f.mu.Unlock()

	now := time.Now().UTC()
	switch r.URL.Path {
	case "/api/issues":
		f.respond(w, map[string]any{"issues": testIssues(), "total_users": 1247, "timestamp": now})
	case "/api/offices":
		f.respond(w, map[string]any{"offices": testOffices(), "count": 1, "timestamp": now})
	case "/api/measures":
		f.respond(w, map[string]any{"measures": testMeasures(), "count": 2, "timestamp": now})
	case "/api/candidates":
		f.respond(w, map[string]any{"candidates": testCandidates(), "count": 2, "timestamp": now})
	case "/api/issues/increment":
		var req struct {
			IssueIDs []string `json:"issue_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.increments = append(f.increments, req.IssueIDs)
		f.mu.Unlock()
		f.respond(w, map[string]any{"success": true, "updated": req.IssueIDs})
	case "/api/completions":
		var completion models.Completion
		_ = json.NewDecoder(r.Body).Decode(&completion)
		f.mu.Lock()
		f.completions = append(f.completions, completion)
		f.mu.Unlock()
		f.respond(w, map[string]any{"success": true})
	case "/api/signups":
		var signup models.Signup
		_ = json.NewDecoder(r.Body).Decode(&signup)
		f.mu.Lock()
		f.signups = append(f.signups, signup)
		f.mu.Unlock()
		f.respond(w, map[string]any{"success": true})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "message": "no such endpoint"})
	}
}

func (f *fakeDataStore) respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testLookupEnv(dataAPIURL string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		switch key {
		case "CIVICFLOW_WEB_ADDR":
			return "localhost:0", true
		case "CIVICFLOW_WEB_PPROF_PORT":
			return ":0", true
		case "CIVICFLOW_WEB_SQLITE_URL":
			return ":memory:", true
		case "CIVICFLOW_DATA_API_URL":
			return dataAPIURL, true
		case "CIVICFLOW_WEB_RETRY_DELAY":
			return "1ms", true
		default:
			return "", false
		}
	}
}

// startTestServer boots the flow service against the given fake data store
// and returns a bootstrapped client holding a session cookie and CSRF token.
func startTestServer(t *testing.T, store *fakeDataStore) *e2etest.Client {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, testLookupEnv(store.URL()), run)
	require.NoError(t, err)
	client := server.Client()
	_, err = client.Bootstrap(ctx)
	require.NoError(t, err)
	return client
}
