package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/flintspark/civicflow/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeb_ballotPartialFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeDataStore(t)
	client := startTestServer(t, store)

	walkToBallot(t, client)
	// A logical failure on measures must not hide the offices result.
	store.setRemoteFailing("/api/measures", true)

	var ballot ballotPayload
	status, err := client.GetJSON(ctx, "/api/ballot", &ballot)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, string(loader.StatusReady), ballot.Offices.Status)
	assert.Len(t, ballot.Offices.Groups, 3)
	assert.Equal(t, string(loader.StatusFailed), ballot.Measures.Status)
	assert.NotEmpty(t, ballot.Measures.Error)
	assert.Empty(t, ballot.Measures.Groups)

	// Manual retry once the store recovers.
	store.setRemoteFailing("/api/measures", false)
	status, err = client.PostJSON(ctx, "/api/ballot/reload", nil, &ballot)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(loader.StatusReady), ballot.Measures.Status)
	assert.Empty(t, ballot.Measures.Error)
	require.Len(t, ballot.Measures.Groups, 3)
	assert.Len(t, ballot.Measures.Groups[0].Items, 1)
	assert.Len(t, ballot.Measures.Groups[1].Items, 1)
	assert.Empty(t, ballot.Measures.Groups[2].Items)
}

func TestWeb_transientFailuresRetriedSilently(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeDataStore(t)
	client := startTestServer(t, store)

	walkToBallot(t, client)
	// Two dropped connections are inside the retry budget; the user never
	// sees an error state.
	store.failTransiently("/api/offices", 2)

	var ballot ballotPayload
	status, err := client.GetJSON(ctx, "/api/ballot", &ballot)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(loader.StatusReady), ballot.Offices.Status)
	assert.Empty(t, ballot.Offices.Error)
}

func TestWeb_selectionChangeInvalidatesGroups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newFakeDataStore(t)
	client := startTestServer(t, store)

	walkToBallot(t, client)
	var ballot ballotPayload
	_, err := client.GetJSON(ctx, "/api/ballot", &ballot)
	require.NoError(t, err)
	require.Len(t, ballot.Offices.Groups, 3)

	// Go back and swap an issue; the regrouped ballot follows the new
	// selection.
	postOK(t, client, "/api/session/back", nil)
	postOK(t, client, "/api/session/back", nil)
	postOK(t, client, "/api/issues/deselect", map[string]string{"issue_id": "education"})
	postOK(t, client, "/api/issues/select", map[string]string{"issue_id": "environment"})
	postOK(t, client, "/api/session/advance", nil)
	sess := postOK(t, client, "/api/session/advance", nil)
	require.Equal(t, []string{"housing", "safety", "environment"}, sess.SelectedIssues)

	status, err := client.GetJSON(ctx, "/api/ballot", &ballot)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, ballot.Offices.Groups, 3)
	assert.Equal(t, "environment", ballot.Offices.Groups[2].Issue.ID)
}
