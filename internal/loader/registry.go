package loader

import (
	"log/slog"
	"sync"

	"github.com/flintspark/civicflow/internal/models"
)

// Ballot is one session's view of the civic catalog. The collections are
// never persisted: a restored session starts from an empty Ballot and the
// defensive-load rule repopulates it.
type Ballot struct {
	Issues     *Collection[models.Issue]
	Offices    *Collection[models.Office]
	Measures   *Collection[models.BallotMeasure]
	Candidates *Collection[models.Candidate]
}

func NewBallot(policy Policy, logger *slog.Logger) *Ballot {
	return &Ballot{
		Issues:     NewCollection[models.Issue]("issues", policy, logger),
		Offices:    NewCollection[models.Office]("offices", policy, logger),
		Measures:   NewCollection[models.BallotMeasure]("measures", policy, logger),
		Candidates: NewCollection[models.Candidate]("candidates", policy, logger),
	}
}

// ResetFiltered empties the collections that depend on the selected issues.
// Called when the selection changes so stale groupings cannot leak through.
func (b *Ballot) ResetFiltered() {
	b.Offices.Reset()
	b.Measures.Reset()
	b.Candidates.Reset()
}

// Registry hands out per-session Ballots keyed by session token.
type Registry struct {
	mu      sync.Mutex
	policy  Policy
	logger  *slog.Logger
	ballots map[string]*Ballot
}

func NewRegistry(policy Policy, logger *slog.Logger) *Registry {
	return &Registry{
		policy:  policy,
		logger:  logger,
		ballots: make(map[string]*Ballot),
	}
}

// For returns the Ballot for the given session token, creating it on first use.
func (r *Registry) For(token string) *Ballot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ballot, ok := r.ballots[token]
	if !ok {
		ballot = NewBallot(r.policy, r.logger)
		r.ballots[token] = ballot
	}
	return ballot
}

// Drop discards a session's Ballot, e.g. on restart.
func (r *Registry) Drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ballots, token)
}
