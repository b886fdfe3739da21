package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/flintspark/civicflow/internal/repositories"
	"github.com/flintspark/civicflow/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueRepository_All(t *testing.T) {
	db := newTestDB(t)
	logger := testhelpers.NewLogger(io.Discard)
	repo := repositories.NewIssueRepository(db, logger)

	issues, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, issues, 8)

	// Ordered by engagement count, highest first.
	assert.Equal(t, "economy", issues[0].ID)
	assert.Equal(t, int64(1567), issues[0].Count)

	// Relation lists decode from their JSON columns.
	byID := make(map[string][]string)
	for _, issue := range issues {
		byID[issue.ID] = issue.RelatedMeasures
	}
	assert.Equal(t, []string{"measure-housing-1", "measure-housing-2", "measure-disaster-1"}, byID["housing"])
	assert.Empty(t, byID["public-safety"])
}

func TestIssueRepository_Increment(t *testing.T) {
	db := newTestDB(t)
	logger := testhelpers.NewLogger(io.Discard)
	repo := repositories.NewIssueRepository(db, logger)
	ctx := context.Background()

	updated, err := repo.Increment(ctx, []string{"housing", "no-such-issue", "economy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"housing", "economy"}, updated)

	issues, err := repo.All(ctx)
	require.NoError(t, err)
	for _, issue := range issues {
		switch issue.ID {
		case "housing":
			assert.Equal(t, int64(1248), issue.Count)
		case "economy":
			assert.Equal(t, int64(1568), issue.Count)
		}
	}
}

func TestIssueRepository_TotalUsers(t *testing.T) {
	db := newTestDB(t)
	logger := testhelpers.NewLogger(io.Discard)
	repo := repositories.NewIssueRepository(db, logger)

	total, err := repo.TotalUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1567), total)
}
