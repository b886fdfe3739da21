// Package filter projects many-to-many related civic collections into
// per-issue groupings.
//
// Relation lists are not referentially intact: an identifier may point at an
// entity missing from the loaded collection. Dangling identifiers are dropped
// silently, never surfaced as errors.
package filter

import (
	"slices"

	"github.com/flintspark/civicflow/internal/models"
)

// Group pairs a selected issue with the entities relevant to it. A group with
// zero entities is still emitted so the caller can render an explicit
// "nothing found" state instead of silently omitting the issue.
type Group[T any] struct {
	Issue models.Issue `json:"issue"`
	Items []T          `json:"items"`
}

// Index is a bidirectional issue<->entity index built once per fetched
// collection. Both directions are assembled up front so lookups never branch
// on which side carries the relation list.
type Index[T any] struct {
	issues   map[string]models.Issue
	entities map[string]T
	forward  map[string][]string // issue id -> entity ids
	reverse  map[string][]string // entity id -> issue ids
}

// NewOfficeIndex links issues to offices through the relation lists on both
// sides: the issue's related offices and the office's related issues.
func NewOfficeIndex(issues []models.Issue, offices []models.Office) *Index[models.Office] {
	return newIndex(issues, offices,
		func(office models.Office) string { return office.ID },
		func(issue models.Issue) []string { return issue.RelatedOffices },
		func(office models.Office) []string { return office.RelatedIssues },
	)
}

// NewMeasureIndex links issues to ballot measures.
func NewMeasureIndex(issues []models.Issue, measures []models.BallotMeasure) *Index[models.BallotMeasure] {
	return newIndex(issues, measures,
		func(measure models.BallotMeasure) string { return measure.ID },
		func(issue models.Issue) []string { return issue.RelatedMeasures },
		func(measure models.BallotMeasure) []string { return measure.RelatedIssues },
	)
}

// NewCandidateIndex links issues to candidates as a set union of two
// pathways: the candidate's own platform addresses the issue, or the
// candidate runs for an office linked to the issue. A candidate matching
// through both pathways appears once; within a group candidates keep
// collection order.
func NewCandidateIndex(
	issues []models.Issue,
	offices []models.Office,
	candidates []models.Candidate,
) *Index[models.Candidate] {
	// Office->issues links come from both sides as well.
	officeIssues := make(map[string][]string, len(offices))
	for _, office := range offices {
		officeIssues[office.ID] = slices.Clone(office.RelatedIssues)
	}
	for _, issue := range issues {
		for _, officeID := range issue.RelatedOffices {
			if !slices.Contains(officeIssues[officeID], issue.ID) {
				officeIssues[officeID] = append(officeIssues[officeID], issue.ID)
			}
		}
	}

	return newIndex(issues, candidates,
		func(candidate models.Candidate) string { return candidate.ID },
		// Issues do not carry candidate relation lists; all links come from
		// the candidate side.
		func(models.Issue) []string { return nil },
		func(candidate models.Candidate) []string {
			linked := slices.Clone(candidate.RelatedIssues)
			for _, issueID := range officeIssues[candidate.OfficeID] {
				if !slices.Contains(linked, issueID) {
					linked = append(linked, issueID)
				}
			}
			return linked
		},
	)
}

func newIndex[T any](
	issues []models.Issue,
	entities []T,
	entityID func(T) string,
	forwardIDs func(models.Issue) []string,
	reverseIDs func(T) []string,
) *Index[T] {
	idx := &Index[T]{
		issues:   make(map[string]models.Issue, len(issues)),
		entities: make(map[string]T, len(entities)),
		forward:  make(map[string][]string, len(issues)),
		reverse:  make(map[string][]string, len(entities)),
	}

	entityOrder := make([]string, 0, len(entities))
	for _, entity := range entities {
		id := entityID(entity)
		if _, dup := idx.entities[id]; dup {
			continue
		}
		idx.entities[id] = entity
		entityOrder = append(entityOrder, id)
	}

	for _, issue := range issues {
		if _, dup := idx.issues[issue.ID]; dup {
			continue
		}
		idx.issues[issue.ID] = issue

		linked := make(map[string]bool)
		// Forward links first: within a group, entity order follows the order
		// identifiers appear in the issue's relation list.
		for _, id := range forwardIDs(issue) {
			if linked[id] {
				continue
			}
			if _, ok := idx.entities[id]; !ok {
				// Dangling reference, dropped.
				continue
			}
			linked[id] = true
			idx.link(issue.ID, id)
		}
		// Then reverse links in collection order.
		for _, id := range entityOrder {
			if linked[id] {
				continue
			}
			if slices.Contains(reverseIDs(idx.entities[id]), issue.ID) {
				linked[id] = true
				idx.link(issue.ID, id)
			}
		}
	}

	return idx
}

func (idx *Index[T]) link(issueID, entityID string) {
	idx.forward[issueID] = append(idx.forward[issueID], entityID)
	idx.reverse[entityID] = append(idx.reverse[entityID], issueID)
}

// Group emits one group per selected issue, preserving selection order.
// Selected issues missing from the loaded Issue collection are dropped
// entirely; issues with no matching entities appear with an empty list.
func (idx *Index[T]) Group(selectedIssueIDs []string) []Group[T] {
	groups := make([]Group[T], 0, len(selectedIssueIDs))
	seen := make(map[string]bool, len(selectedIssueIDs))
	for _, issueID := range selectedIssueIDs {
		if seen[issueID] {
			continue
		}
		seen[issueID] = true
		issue, ok := idx.issues[issueID]
		if !ok {
			// Cannot group by an issue that does not exist.
			continue
		}
		entityIDs := idx.forward[issueID]
		items := make([]T, 0, len(entityIDs))
		for _, id := range entityIDs {
			items = append(items, idx.entities[id])
		}
		groups = append(groups, Group[T]{Issue: issue, Items: items})
	}
	return groups
}

// EntitiesFor returns the entities linked to one issue, forward-list order
// first.
func (idx *Index[T]) EntitiesFor(issueID string) []T {
	entityIDs := idx.forward[issueID]
	items := make([]T, 0, len(entityIDs))
	for _, id := range entityIDs {
		items = append(items, idx.entities[id])
	}
	return items
}

// IssuesFor returns the issue identifiers linked to one entity, the symmetric
// query of [Index.EntitiesFor].
func (idx *Index[T]) IssuesFor(entityID string) []string {
	return slices.Clone(idx.reverse[entityID])
}
