package repositories

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/models"
	"github.com/flintspark/civicflow/internal/sqlite"
)

// EngagementRepository stores completed journeys and email signups. These
// writes are analytics, not correctness-critical for the flow itself.
type EngagementRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewEngagementRepository(db *sqlite.Database, logger *slog.Logger) *EngagementRepository {
	return &EngagementRepository{
		db:     db,
		logger: logger.With("source", "EngagementRepository"),
	}
}

// StoreCompletion persists the snapshot of a finished user journey.
func (r *EngagementRepository) StoreCompletion(ctx context.Context, completion models.Completion) error {
	selectedIssues, err := json.Marshal(completion.SelectedIssues)
	if err != nil {
		return errors.Wrap(err, "encode selected issues")
	}
	communityRoles, err := json.Marshal(completion.CommunityRoles)
	if err != nil {
		return errors.Wrap(err, "encode community roles")
	}
	starredCandidates, err := json.Marshal(completion.StarredCandidates)
	if err != nil {
		return errors.Wrap(err, "encode starred candidates")
	}
	starredMeasures, err := json.Marshal(completion.StarredMeasures)
	if err != nil {
		return errors.Wrap(err, "encode starred measures")
	}

	completedAt := completion.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	stmt := `INSERT INTO user_completions
	(session_id, selected_issues, age_bracket, community_roles, zip_code,
	 starred_candidates, starred_measures, readiness_response, feedback, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err = r.db.ReadWrite.ExecContext(ctx, stmt,
		completion.SessionID, string(selectedIssues), completion.AgeBracket, string(communityRoles),
		completion.ZipCode, string(starredCandidates), string(starredMeasures),
		completion.ReadinessResponse, completion.Feedback, completedAt.Format(time.RFC3339),
	); err != nil {
		return errors.Wrap(err, "insert completion")
	}
	return nil
}

// StoreSignup persists an email signup from one of the final screens.
func (r *EngagementRepository) StoreSignup(ctx context.Context, signup models.Signup) error {
	stmt := `INSERT INTO email_signups (email, source, wants_updates, session_id)
	VALUES (?, ?, ?, ?)`
	if _, err := r.db.ReadWrite.ExecContext(ctx, stmt,
		signup.Email, signup.Source, signup.WantsUpdates, signup.SessionID,
	); err != nil {
		return errors.Wrap(err, "insert signup")
	}
	return nil
}

// ReadinessStats counts stored completions per readiness response.
func (r *EngagementRepository) ReadinessStats(ctx context.Context) (map[string]int64, error) {
	stats := map[string]int64{
		string(models.ReadinessYes):           0,
		string(models.ReadinessNo):            0,
		string(models.ReadinessStillThinking): 0,
	}

	type statRow struct {
		Response string `db:"readiness_response"`
		Total    int64  `db:"total"`
	}
	var rows []statRow
	stmt := `SELECT readiness_response, COUNT(*) AS total
	FROM user_completions
	WHERE readiness_response != ''
	GROUP BY readiness_response`
	if err := r.db.ReadOnly.SelectContext(ctx, &rows, stmt); err != nil {
		return nil, errors.Wrap(err, "select readiness stats")
	}
	for _, row := range rows {
		stats[row.Response] = row.Total
	}
	return stats, nil
}
