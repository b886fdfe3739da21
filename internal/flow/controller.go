package flow

import (
	"context"
	"log/slog"
	"slices"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/models"
)

// Step numbers of the questionnaire. The sequence is linear except at the
// readiness step, where the answer routes either straight to the final step
// or through feedback first. Both final screens share StepFinal; the branch
// is carried in the session's terminal marker.
const (
	StepWelcome    = 1
	StepIssues     = 2
	StepAboutYou   = 3
	StepBallot     = 4
	StepCandidates = 5
	StepReadiness  = 6
	StepFeedback   = 7
	StepFinal      = 8

	TotalSteps = 8
)

var (
	// ErrStepIncomplete means the current step's completion precondition does
	// not hold yet.
	ErrStepIncomplete = errors.NewSentinel("step incomplete")
	// ErrDecisionRequired means the readiness step can only be left through
	// [Controller.Decide].
	ErrDecisionRequired = errors.NewSentinel("readiness decision required")
	// ErrFlowComplete means the session is already on its final step.
	ErrFlowComplete = errors.NewSentinel("flow complete")
	// ErrNotAtReadiness means Decide was called away from the readiness step.
	ErrNotAtReadiness = errors.NewSentinel("not at readiness step")
	// ErrUnknownBranch means the readiness answer is not one of the three
	// recognized values.
	ErrUnknownBranch = errors.NewSentinel("unknown readiness branch")
)

// Controller decides legal step transitions and applies session mutations,
// persisting after every change.
type Controller struct {
	store  *SessionStore
	logger *slog.Logger
}

func NewController(store *SessionStore, logger *slog.Logger) *Controller {
	return &Controller{
		store:  store,
		logger: logger.With(slog.String("source", "flow")),
	}
}

// Session restores the current session without mutating it.
func (c *Controller) Session(ctx context.Context) (models.Session, error) {
	return c.store.Load(ctx)
}

func (c *Controller) mutate(
	ctx context.Context,
	apply func(sess *models.Session) error,
) (models.Session, error) {
	sess, err := c.store.Load(ctx)
	if err != nil {
		return models.Session{}, err
	}
	if err := apply(&sess); err != nil {
		return sess, err
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return sess, err
	}
	return sess, nil
}

// Advance moves to the next step once the current step's completion
// precondition holds, recording the departed step in history.
func (c *Controller) Advance(ctx context.Context) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		switch sess.Step {
		case StepIssues:
			if len(sess.SelectedIssues) != models.MaxSelectedIssues {
				return errors.Wrap(ErrStepIncomplete, "issue selection incomplete",
					slog.Int("selected", len(sess.SelectedIssues)),
					slog.Int("required", models.MaxSelectedIssues))
			}
		case StepAboutYou:
			if sess.AgeBracket == "" || sess.ZipCode == "" {
				return errors.Wrap(ErrStepIncomplete, "profile incomplete")
			}
		case StepReadiness:
			return ErrDecisionRequired
		case StepFinal:
			return ErrFlowComplete
		}
		sess.History = append(sess.History, sess.Step)
		sess.Step++
		return nil
	})
}

// Decide answers the readiness step. "yes" routes straight to the final step
// with the cast terminal; "no" and "still-thinking" route through feedback to
// the thank-you terminal.
func (c *Controller) Decide(ctx context.Context, answer models.Readiness) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		if sess.Step != StepReadiness {
			return errors.Wrap(ErrNotAtReadiness, "decide outside readiness step",
				slog.Int("step", sess.Step))
		}
		sess.History = append(sess.History, sess.Step)
		sess.Readiness = answer
		switch answer {
		case models.ReadinessYes:
			sess.Terminal = models.TerminalCast
			sess.Step = StepFinal
		case models.ReadinessNo, models.ReadinessStillThinking:
			sess.Terminal = models.TerminalThankYou
			sess.Step = StepFeedback
		default:
			return errors.Wrap(ErrUnknownBranch, "unrecognized readiness answer",
				slog.String("answer", string(answer)))
		}
		return nil
	})
}

// GoBack restores the most recently visited step, falling back to a plain
// decrement when history is empty. The first step is the floor.
func (c *Controller) GoBack(ctx context.Context) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		if n := len(sess.History); n > 0 {
			sess.Step = sess.History[n-1]
			sess.History = sess.History[:n-1]
			return nil
		}
		if sess.Step > StepWelcome {
			sess.Step--
		}
		return nil
	})
}

// Restart discards the session and its persisted blob, returning a fresh
// session at the first step.
func (c *Controller) Restart(ctx context.Context) (models.Session, error) {
	if err := c.store.Clear(ctx); err != nil {
		return models.Session{}, err
	}
	return models.NewSession(), nil
}

// SelectIssue adds an issue to the selection. Selecting an already-selected
// issue or selecting beyond the cap is a no-op, not an error.
func (c *Controller) SelectIssue(ctx context.Context, issueID string) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		if slices.Contains(sess.SelectedIssues, issueID) {
			return nil
		}
		if len(sess.SelectedIssues) >= models.MaxSelectedIssues {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "issue selection at cap",
				slog.String("issue_id", issueID))
			return nil
		}
		sess.SelectedIssues = append(sess.SelectedIssues, issueID)
		return nil
	})
}

// DeselectIssue removes an issue from the selection if present.
func (c *Controller) DeselectIssue(ctx context.Context, issueID string) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		sess.SelectedIssues = slices.DeleteFunc(sess.SelectedIssues, func(id string) bool {
			return id == issueID
		})
		return nil
	})
}

// ToggleStarredCandidate stars the candidate if absent and unstars it if
// present.
func (c *Controller) ToggleStarredCandidate(ctx context.Context, candidateID string) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		sess.StarredCandidates = toggle(sess.StarredCandidates, candidateID)
		return nil
	})
}

// ToggleStarredMeasure stars the measure if absent and unstars it if present.
func (c *Controller) ToggleStarredMeasure(ctx context.Context, measureID string) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		sess.StarredMeasures = toggle(sess.StarredMeasures, measureID)
		return nil
	})
}

// SetProfile records the demographic fields gathered on the about-you step.
func (c *Controller) SetProfile(
	ctx context.Context,
	ageBracket string,
	communityRoles []string,
	zipCode string,
) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		sess.AgeBracket = ageBracket
		sess.CommunityRoles = slices.Clone(communityRoles)
		if sess.CommunityRoles == nil {
			sess.CommunityRoles = []string{}
		}
		sess.ZipCode = zipCode
		return nil
	})
}

// SetFeedback records the free-text feedback gathered on the feedback step.
func (c *Controller) SetFeedback(ctx context.Context, text string) (models.Session, error) {
	return c.mutate(ctx, func(sess *models.Session) error {
		sess.Feedback = text
		return nil
	})
}

func toggle(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return slices.DeleteFunc(ids, func(existing string) bool {
			return existing == id
		})
	}
	return append(ids, id)
}
