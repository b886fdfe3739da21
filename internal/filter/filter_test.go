package filter_test

import (
	"testing"

	"github.com/flintspark/civicflow/internal/filter"
	"github.com/flintspark/civicflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIssues() []models.Issue {
	return []models.Issue{
		{ID: "housing", Name: "Housing", RelatedOffices: []string{"city-council"}, RelatedMeasures: []string{"measure-a", "measure-b"}},
		{ID: "environment", Name: "Environment", RelatedMeasures: []string{"measure-c"}},
		{ID: "transportation", Name: "Transportation"},
	}
}

func TestIndex_Group_measures(t *testing.T) {
	t.Parallel()

	measures := []models.BallotMeasure{
		{ID: "measure-a", Title: "Measure A"},
		{ID: "measure-b", Title: "Measure B"},
		// Linked from its own side only.
		{ID: "measure-d", Title: "Measure D", RelatedIssues: []string{"housing"}},
		{ID: "measure-c", Title: "Measure C"},
	}
	idx := filter.NewMeasureIndex(testIssues(), measures)

	groups := idx.Group([]string{"environment", "housing", "transportation"})
	require.Len(t, groups, 3)

	// Selection order, not collection order.
	assert.Equal(t, "environment", groups[0].Issue.ID)
	assert.Equal(t, "housing", groups[1].Issue.ID)
	assert.Equal(t, "transportation", groups[2].Issue.ID)

	// Forward relation-list order first, reverse matches after.
	require.Len(t, groups[1].Items, 3)
	assert.Equal(t, "measure-a", groups[1].Items[0].ID)
	assert.Equal(t, "measure-b", groups[1].Items[1].ID)
	assert.Equal(t, "measure-d", groups[1].Items[2].ID)

	// An issue with no matches still gets a group, with an empty list.
	assert.NotNil(t, groups[2].Items)
	assert.Empty(t, groups[2].Items)
}

func TestIndex_Group_danglingReferences(t *testing.T) {
	t.Parallel()

	issues := []models.Issue{
		{ID: "housing", RelatedMeasures: []string{"measure-gone", "measure-a"}},
	}
	measures := []models.BallotMeasure{
		{ID: "measure-a", Title: "Measure A"},
		{ID: "measure-b", RelatedIssues: []string{"issue-gone"}},
	}
	idx := filter.NewMeasureIndex(issues, measures)

	groups := idx.Group([]string{"housing"})
	require.Len(t, groups, 1)
	// The dangling measure id yields nothing, never a hole in the list.
	require.Len(t, groups[0].Items, 1)
	assert.Equal(t, "measure-a", groups[0].Items[0].ID)
}

func TestIndex_Group_unknownSelectedIssueDropped(t *testing.T) {
	t.Parallel()

	idx := filter.NewOfficeIndex(testIssues(), []models.Office{{ID: "city-council"}})

	groups := idx.Group([]string{"housing", "no-such-issue"})
	require.Len(t, groups, 1)
	assert.Equal(t, "housing", groups[0].Issue.ID)
}

func TestIndex_Group_bothDirectionsDeduplicated(t *testing.T) {
	t.Parallel()

	issues := []models.Issue{
		{ID: "housing", RelatedOffices: []string{"city-council", "city-council"}},
	}
	offices := []models.Office{
		// Linked from both sides at once.
		{ID: "city-council", RelatedIssues: []string{"housing"}},
	}
	idx := filter.NewOfficeIndex(issues, offices)

	groups := idx.Group([]string{"housing"})
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Items, 1)
	assert.Equal(t, "city-council", groups[0].Items[0].ID)
}

func TestNewCandidateIndex_unionOfPathways(t *testing.T) {
	t.Parallel()

	issues := testIssues()
	offices := []models.Office{
		{ID: "city-council", RelatedIssues: []string{"transportation"}},
	}
	candidates := []models.Candidate{
		// Office pathway only: city-council is linked to housing (issue side)
		// and transportation (office side).
		{ID: "candidate-1", OfficeID: "city-council"},
		// Direct pathway only.
		{ID: "candidate-2", OfficeID: "mayor", RelatedIssues: []string{"housing"}},
		// Both pathways: must appear exactly once.
		{ID: "candidate-3", OfficeID: "city-council", RelatedIssues: []string{"housing", "environment"}},
	}
	idx := filter.NewCandidateIndex(issues, offices, candidates)

	groups := idx.Group([]string{"housing", "environment", "transportation"})
	require.Len(t, groups, 3)

	housing := groups[0]
	require.Len(t, housing.Items, 3)
	// No forward links exist for candidates, so collection order holds.
	assert.Equal(t, "candidate-1", housing.Items[0].ID)
	assert.Equal(t, "candidate-2", housing.Items[1].ID)
	assert.Equal(t, "candidate-3", housing.Items[2].ID)

	environment := groups[1]
	require.Len(t, environment.Items, 1)
	assert.Equal(t, "candidate-3", environment.Items[0].ID)

	transportation := groups[2]
	require.Len(t, transportation.Items, 2)
	assert.Equal(t, "candidate-1", transportation.Items[0].ID)
	assert.Equal(t, "candidate-3", transportation.Items[1].ID)
}

func TestIndex_symmetricQueries(t *testing.T) {
	t.Parallel()

	idx := filter.NewMeasureIndex(testIssues(), []models.BallotMeasure{
		{ID: "measure-a"},
		{ID: "measure-c", RelatedIssues: []string{"transportation"}},
	})

	assert.Equal(t, []string{"housing"}, idx.IssuesFor("measure-a"))
	assert.ElementsMatch(t, []string{"environment", "transportation"}, idx.IssuesFor("measure-c"))

	measures := idx.EntitiesFor("environment")
	require.Len(t, measures, 1)
	assert.Equal(t, "measure-c", measures[0].ID)

	assert.Empty(t, idx.EntitiesFor("no-such-issue"))
	assert.Empty(t, idx.IssuesFor("no-such-measure"))
}
