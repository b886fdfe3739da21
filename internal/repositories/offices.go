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

type OfficeRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewOfficeRepository(db *sqlite.Database, logger *slog.Logger) *OfficeRepository {
	return &OfficeRepository{
		db:     db,
		logger: logger.With("source", "OfficeRepository"),
	}
}

type officeRow struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	Description   string `db:"description"`
	Explanation   string `db:"explanation"`
	Level         string `db:"level"`
	RelatedIssues string `db:"related_issues"`
}

func (row officeRow) toModel() (models.Office, error) {
	office := models.Office{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Explanation: row.Explanation,
		Level:       models.JurisdictionLevel(row.Level),
	}
	if err := json.Unmarshal([]byte(row.RelatedIssues), &office.RelatedIssues); err != nil {
		return office, errors.Wrap(err, "decode related issues", slog.String("office_id", row.ID))
	}
	return office, nil
}

const selectOffices = `SELECT id, name, description, explanation, level, related_issues FROM offices`

// All returns every office in the catalog.
func (r *OfficeRepository) All(ctx context.Context) ([]models.Office, error) {
	var rows []officeRow
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, selectOffices+` ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "select offices")
	}
	return officeRowsToModels(rows)
}

// ByIssues returns the offices whose relation list overlaps the given issues.
// An empty filter returns no offices.
func (r *OfficeRepository) ByIssues(ctx context.Context, issueIDs []string) ([]models.Office, error) {
	if len(issueIDs) == 0 {
		return []models.Office{}, nil
	}

	stmt := selectOffices + `
	WHERE EXISTS (SELECT 1 FROM json_each(offices.related_issues) WHERE json_each.value IN (?))
	ORDER BY id`
	query, args, err := sqlx.In(stmt, issueIDs)
	if err != nil {
		return nil, errors.Wrap(err, "expand issue filter")
	}

	var rows []officeRow
	if err = r.db.ReadOnly.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select offices by issues")
	}
	return officeRowsToModels(rows)
}

func officeRowsToModels(rows []officeRow) ([]models.Office, error) {
	offices := make([]models.Office, 0, len(rows))
	for _, row := range rows {
		office, err := row.toModel()
		if err != nil {
			return nil, err
		}
		offices = append(offices, office)
	}
	return offices, nil
}
