package repositories

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/models"
	"github.com/flintspark/civicflow/internal/sqlite"
)

type IssueRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewIssueRepository(db *sqlite.Database, logger *slog.Logger) *IssueRepository {
	return &IssueRepository{
		db:     db,
		logger: logger.With("source", "IssueRepository"),
	}
}

type issueRow struct {
	ID              string `db:"id"`
	Name            string `db:"name"`
	Description     string `db:"description"`
	Icon            string `db:"icon"`
	Count           int64  `db:"count"`
	RelatedOffices  string `db:"related_offices"`
	RelatedMeasures string `db:"related_measures"`
}

func (row issueRow) toModel() (models.Issue, error) {
	issue := models.Issue{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Icon:        row.Icon,
		Count:       row.Count,
	}
	if err := json.Unmarshal([]byte(row.RelatedOffices), &issue.RelatedOffices); err != nil {
		return issue, errors.Wrap(err, "decode related offices", slog.String("issue_id", row.ID))
	}
	if err := json.Unmarshal([]byte(row.RelatedMeasures), &issue.RelatedMeasures); err != nil {
		return issue, errors.Wrap(err, "decode related measures", slog.String("issue_id", row.ID))
	}
	return issue, nil
}

// All returns every issue in the catalog ordered by engagement count.
func (r *IssueRepository) All(ctx context.Context) ([]models.Issue, error) {
	var rows []issueRow
	stmt := `SELECT id, name, description, icon, count, related_offices, related_measures
	FROM issues
	ORDER BY count DESC, id`
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, stmt); err != nil {
		return nil, errors.Wrap(err, "select issues")
	}

	issues := make([]models.Issue, 0, len(rows))
	for _, row := range rows {
		issue, err := row.toModel()
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// Increment bumps the engagement count for the given issues and returns the
// identifiers that were actually found. Unknown identifiers are skipped.
func (r *IssueRepository) Increment(ctx context.Context, issueIDs []string) ([]string, error) {
	updated := make([]string, 0, len(issueIDs))
	stmt := `UPDATE issues SET count = count + 1 WHERE id = ?`
	for _, id := range issueIDs {
		result, err := r.db.ReadWrite.ExecContext(ctx, stmt, id)
		if err != nil {
			return updated, errors.Wrap(err, "increment issue count", slog.String("issue_id", id))
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return updated, errors.Wrap(err, "rows affected", slog.String("issue_id", id))
		}
		if affected == 0 {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "unknown issue skipped", slog.String("issue_id", id))
			continue
		}
		updated = append(updated, id)
	}
	return updated, nil
}

// TotalUsers approximates the participant count. Users typically select
// several issues, so the maximum single count is a better estimate than the
// sum.
func (r *IssueRepository) TotalUsers(ctx context.Context) (int64, error) {
	var total int64
	stmt := `SELECT COALESCE(MAX(count), 0) FROM issues`
	if err := r.db.ReadOnly.GetContext(ctx, &total, stmt); err != nil {
		return 0, errors.Wrap(err, "select total users")
	}
	return total, nil
}
