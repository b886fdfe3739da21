package repositories

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/models"
	"github.com/flintspark/civicflow/internal/sqlite"
	"github.com/jmoiron/sqlx"
)

type CandidateRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewCandidateRepository(db *sqlite.Database, logger *slog.Logger) *CandidateRepository {
	return &CandidateRepository{
		db:     db,
		logger: logger.With("source", "CandidateRepository"),
	}
}

type candidateRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Party         string `db:"party"`
	Positions     string `db:"positions"`
	OfficeID      string `db:"office_id"`
	RelatedIssues string `db:"related_issues"`
}

func (row candidateRow) toModel() (models.Candidate, error) {
	candidate := models.Candidate{
		ID:       row.ID,
		Name:     row.Name,
		Party:    row.Party,
		OfficeID: row.OfficeID,
	}
	if err := json.Unmarshal([]byte(row.Positions), &candidate.Positions); err != nil {
		return candidate, errors.Wrap(err, "decode positions", slog.String("candidate_id", row.ID))
	}
	if err := json.Unmarshal([]byte(row.RelatedIssues), &candidate.RelatedIssues); err != nil {
		return candidate, errors.Wrap(err, "decode related issues", slog.String("candidate_id", row.ID))
	}
	return candidate, nil
}

const selectCandidates = `SELECT id, name, party, positions, office_id, related_issues FROM candidates`

// All returns every candidate in the catalog.
func (r *CandidateRepository) All(ctx context.Context) ([]models.Candidate, error) {
	var rows []candidateRow
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, selectCandidates+` ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "select candidates")
	}
	return candidateRowsToModels(rows)
}

// ByIssues returns candidates relevant to the given issues: either the
// candidate's own platform addresses one of them, or the candidate runs for an
// office whose relation list does. An empty filter returns no candidates.
func (r *CandidateRepository) ByIssues(ctx context.Context, issueIDs []string) ([]models.Candidate, error) {
	if len(issueIDs) == 0 {
		return []models.Candidate{}, nil
	}

	stmt := selectCandidates + `
	WHERE EXISTS (SELECT 1 FROM json_each(candidates.related_issues) WHERE json_each.value IN (?))
	   OR office_id IN (SELECT offices.id
	                    FROM offices
	                    WHERE EXISTS (SELECT 1 FROM json_each(offices.related_issues) WHERE json_each.value IN (?)))
	ORDER BY id`
	query, args, err := sqlx.In(stmt, issueIDs, issueIDs)
	if err != nil {
		return nil, errors.Wrap(err, "expand issue filter")
	}

	var rows []candidateRow
	if err = r.db.ReadOnly.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select candidates by issues")
	}
	return candidateRowsToModels(rows)
}

// ByOffices returns candidates running for any of the given offices.
func (r *CandidateRepository) ByOffices(ctx context.Context, officeIDs []string) ([]models.Candidate, error) {
	if len(officeIDs) == 0 {
		return []models.Candidate{}, nil
	}

	query, args, err := sqlx.In(selectCandidates+` WHERE office_id IN (?) ORDER BY id`, officeIDs)
	if err != nil {
		return nil, errors.Wrap(err, "expand office filter")
	}

	var rows []candidateRow
	if err = r.db.ReadOnly.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select candidates by offices")
	}
	return candidateRowsToModels(rows)
}

func candidateRowsToModels(rows []candidateRow) ([]models.Candidate, error) {
	candidates := make([]models.Candidate, 0, len(rows))
	for _, row := range rows {
		candidate, err := row.toModel()
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}
