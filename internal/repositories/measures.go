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

type MeasureRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewMeasureRepository(db *sqlite.Database, logger *slog.Logger) *MeasureRepository {
	return &MeasureRepository{
		db:     db,
		logger: logger.With("source", "MeasureRepository"),
	}
}

type measureRow struct {
	ID            string `db:"id"`
	Title         string `db:"title"`
	Description   string `db:"description"`
	Category      string `db:"category"`
	Impact        string `db:"impact"`
	RelatedIssues string `db:"related_issues"`
}

func (row measureRow) toModel() (models.BallotMeasure, error) {
	measure := models.BallotMeasure{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Category:    row.Category,
		Impact:      row.Impact,
	}
	if err := json.Unmarshal([]byte(row.RelatedIssues), &measure.RelatedIssues); err != nil {
		return measure, errors.Wrap(err, "decode related issues", slog.String("measure_id", row.ID))
	}
	return measure, nil
}

const selectMeasures = `SELECT id, title, description, category, impact, related_issues FROM ballot_measures`

// All returns every ballot measure in the catalog.
func (r *MeasureRepository) All(ctx context.Context) ([]models.BallotMeasure, error) {
	var rows []measureRow
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, selectMeasures+` ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "select ballot measures")
	}
	return measureRowsToModels(rows)
}

// ByIssues returns the ballot measures whose relation list overlaps the given
// issues. An empty filter returns no measures.
func (r *MeasureRepository) ByIssues(ctx context.Context, issueIDs []string) ([]models.BallotMeasure, error) {
	if len(issueIDs) == 0 {
		return []models.BallotMeasure{}, nil
	}

	stmt := selectMeasures + `
	WHERE EXISTS (SELECT 1 FROM json_each(ballot_measures.related_issues) WHERE json_each.value IN (?))
	ORDER BY id`
	query, args, err := sqlx.In(stmt, issueIDs)
	if err != nil {
		return nil, errors.Wrap(err, "expand issue filter")
	}

	var rows []measureRow
	if err = r.db.ReadOnly.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select ballot measures by issues")
	}
	return measureRowsToModels(rows)
}

func measureRowsToModels(rows []measureRow) ([]models.BallotMeasure, error) {
	measures := make([]models.BallotMeasure, 0, len(rows))
	for _, row := range rows {
		measure, err := row.toModel()
		if err != nil {
			return nil, err
		}
		measures = append(measures, measure)
	}
	return measures, nil
}
