package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/flintspark/civicflow/internal/e2etest"
	"github.com/flintspark/civicflow/internal/flow"
	"github.com/flintspark/civicflow/internal/loader"
	"github.com/flintspark/civicflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionPayload struct {
	Step              int      `json:"step"`
	TotalSteps        int      `json:"total_steps"`
	Terminal          string   `json:"terminal"`
	Readiness         string   `json:"readiness"`
	SelectedIssues    []string `json:"selected_issues"`
	AgeBracket        string   `json:"age_bracket"`
	CommunityRoles    []string `json:"community_roles"`
	ZipCode           string   `json:"zip_code"`
	StarredCandidates []string `json:"starred_candidates"`
	StarredMeasures   []string `json:"starred_measures"`
	Feedback          string   `json:"feedback"`
	CSRFToken         string   `json:"csrf_token"`
}

type groupPayload struct {
	Issue models.Issue      `json:"issue"`
	Items []json.RawMessage `json:"items"`
}

type ballotPayload struct {
	Issues struct {
		Status string         `json:"status"`
		Error  string         `json:"error"`
		Items  []models.Issue `json:"items"`
	} `json:"issues"`
	Offices struct {
		Status string         `json:"status"`
		Error  string         `json:"error"`
		Groups []groupPayload `json:"groups"`
	} `json:"offices"`
	Measures struct {
		Status string         `json:"status"`
		Error  string         `json:"error"`
		Groups []groupPayload `json:"groups"`
	} `json:"measures"`
}

func postOK(t *testing.T, client *e2etest.Client, urlPath string, payload any) sessionPayload {
	t.Helper()
	var sess sessionPayload
	status, err := client.PostJSON(context.Background(), urlPath, payload, &sess)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status, "POST %s", urlPath)
	return sess
}

// walkToBallot drives a fresh session to the ballot step.
func walkToBallot(t *testing.T, client *e2etest.Client) sessionPayload {
	t.Helper()
	sess := postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, flow.StepIssues, sess.Step)
	for _, id := range []string{"housing", "education", "safety"} {
		sess = postOK(t, client, "/api/issues/select", map[string]string{"issue_id": id})
	}
	sess = postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, flow.StepAboutYou, sess.Step)
	postOK(t, client, "/api/profile", map[string]any{
		"age_bracket":     "25-34",
		"community_roles": []string{"renter", "parent"},
		"zip_code":        "77002",
	})
	sess = postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, flow.StepBallot, sess.Step)
	return sess
}

func TestWeb_shell(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := startTestServer(t, newFakeDataStore(t))

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	token, ok := doc.Find("meta[name=csrf-token]").Attr("content")
	require.True(t, ok)
	assert.NotEmpty(t, token)
	step, ok := doc.Find("#app").Attr("data-step")
	require.True(t, ok)
	assert.Equal(t, "1", step)
}

func TestWeb_castBranch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeDataStore(t)
	client := startTestServer(t, store)

	sess := walkToBallot(t, client)
	assert.Equal(t, []string{"housing", "education", "safety"}, sess.SelectedIssues)

	// Committing the issue selection fires the engagement counter bump.
	require.Eventually(t, func() bool { return store.incrementCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	var ballot ballotPayload
	status, err := client.GetJSON(ctx, "/api/ballot", &ballot)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(loader.StatusReady), ballot.Issues.Status)
	assert.Equal(t, string(loader.StatusReady), ballot.Offices.Status)
	require.Len(t, ballot.Offices.Groups, 3)
	// Selection order, with empty groups kept.
	assert.Equal(t, "housing", ballot.Offices.Groups[0].Issue.ID)
	assert.Len(t, ballot.Offices.Groups[0].Items, 1)
	assert.Equal(t, "safety", ballot.Offices.Groups[2].Issue.ID)
	assert.Len(t, ballot.Offices.Groups[2].Items, 1)
	assert.Empty(t, ballot.Offices.Groups[1].Items)

	sess = postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, flow.StepCandidates, sess.Step)

	var candidates struct {
		Candidates struct {
			Status string         `json:"status"`
			Groups []groupPayload `json:"groups"`
		} `json:"candidates"`
	}
	status, err = client.GetJSON(ctx, "/api/candidates", &candidates)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, candidates.Candidates.Groups, 3)
	// Both candidates run for the office linked to housing.
	assert.Len(t, candidates.Candidates.Groups[0].Items, 2)

	// Star toggle round-trip.
	sess = postOK(t, client, "/api/candidates/star", map[string]string{"candidate_id": "candidate-2"})
	assert.Equal(t, []string{"candidate-2"}, sess.StarredCandidates)
	sess = postOK(t, client, "/api/candidates/star", map[string]string{"candidate_id": "candidate-2"})
	assert.Empty(t, sess.StarredCandidates)
	postOK(t, client, "/api/candidates/star", map[string]string{"candidate_id": "candidate-1"})
	postOK(t, client, "/api/measures/star", map[string]string{"measure_id": "measure-housing"})

	sess = postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, flow.StepReadiness, sess.Step)

	sess = postOK(t, client, "/api/session/decide", map[string]string{"answer": "yes"})
	assert.Equal(t, flow.StepFinal, sess.Step)
	assert.Equal(t, string(models.TerminalCast), sess.Terminal)

	// The completion snapshot ships in the background.
	require.Eventually(t, func() bool { return store.completionCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	var signupResp struct {
		Success bool `json:"success"`
	}
	status, err = client.PostJSON(ctx, "/api/signup", map[string]any{
		"email": "voter@example.com", "wants_updates": true,
	}, &signupResp)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, signupResp.Success)
	require.Eventually(t, func() bool { return store.signupCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestWeb_thankYouBranch(t *testing.T) {
	t.Parallel()
	store := newFakeDataStore(t)
	client := startTestServer(t, store)

	walkToBallot(t, client)
	sess := postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, flow.StepCandidates, sess.Step)
	sess = postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, flow.StepReadiness, sess.Step)

	sess = postOK(t, client, "/api/session/decide", map[string]string{"answer": "still-thinking"})
	require.Equal(t, flow.StepFeedback, sess.Step)
	assert.Equal(t, string(models.TerminalThankYou), sess.Terminal)

	postOK(t, client, "/api/feedback", map[string]string{"feedback": "wanted more local races"})
	sess = postOK(t, client, "/api/session/advance", nil)
	assert.Equal(t, flow.StepFinal, sess.Step)
	assert.Equal(t, string(models.TerminalThankYou), sess.Terminal)

	require.Eventually(t, func() bool { return store.completionCount() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestWeb_advanceRejectedUntilComplete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client := startTestServer(t, newFakeDataStore(t))

	postOK(t, client, "/api/session/advance", nil)
	postOK(t, client, "/api/issues/select", map[string]string{"issue_id": "housing"})

	var payload struct {
		Error string `json:"error"`
	}
	status, err := client.PostJSON(ctx, "/api/session/advance", nil, &payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "invalid_transition", payload.Error)
}

func TestWeb_goBackPreservesSession(t *testing.T) {
	t.Parallel()
	client := startTestServer(t, newFakeDataStore(t))

	walkToBallot(t, client)
	sess := postOK(t, client, "/api/session/back", nil)
	assert.Equal(t, flow.StepAboutYou, sess.Step)
	assert.Equal(t, []string{"housing", "education", "safety"}, sess.SelectedIssues)
	assert.Equal(t, "25-34", sess.AgeBracket)
	assert.Equal(t, "77002", sess.ZipCode)
}

func TestWeb_restart(t *testing.T) {
	t.Parallel()
	client := startTestServer(t, newFakeDataStore(t))

	walkToBallot(t, client)
	sess := postOK(t, client, "/api/session/restart", nil)
	assert.Equal(t, flow.StepWelcome, sess.Step)
	assert.Empty(t, sess.SelectedIssues)
	assert.Empty(t, sess.AgeBracket)
	assert.Empty(t, sess.Terminal)
}

func TestWeb_csrfRequired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeDataStore(t)

	ctxStart, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctxStart, io.Discard, testLookupEnv(store.URL()), run)
	require.NoError(t, err)

	// No Bootstrap: the client has no CSRF token to send.
	status, err := server.Client().PostJSON(ctx, "/api/session/advance", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}
