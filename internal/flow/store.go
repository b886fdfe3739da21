// Package flow owns the authoritative questionnaire session: which step the
// user is on, what they have selected and starred, and which terminal branch
// they reached. All session mutations go through [Controller] so restores,
// back-navigation, and restarts stay consistent.
package flow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/flintspark/civicflow/internal/errors"
	"github.com/flintspark/civicflow/internal/models"
)

// Storage persists a single session blob. Implementations scope the blob to
// one user, typically through the session token carried in the context.
type Storage interface {
	// Get returns the persisted blob, or found=false when nothing is stored.
	Get(ctx context.Context) (blob []byte, found bool, err error)
	Set(ctx context.Context, blob []byte) error
	Clear(ctx context.Context) error
}

// SessionStore serializes sessions in and out of a [Storage]. A blob that
// fails to parse is treated as absent: the user gets a fresh session and the
// corruption is logged, never surfaced.
type SessionStore struct {
	storage Storage
	logger  *slog.Logger
}

func NewSessionStore(storage Storage, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		storage: storage,
		logger:  logger.With(slog.String("source", "sessionstore")),
	}
}

// Load restores the persisted session, falling back to a fresh one when
// nothing is stored or the blob is unreadable. A storage read failure is the
// only error returned.
func (s *SessionStore) Load(ctx context.Context) (models.Session, error) {
	blob, found, err := s.storage.Get(ctx)
	if err != nil {
		return models.Session{}, errors.Wrap(err, "get session blob")
	}
	if !found {
		return models.NewSession(), nil
	}
	var sess models.Session
	if err := json.Unmarshal(blob, &sess); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "discarding unreadable session blob",
			errors.SlogError(err))
		return models.NewSession(), nil
	}
	return sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess models.Session) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}
	if err := s.storage.Set(ctx, blob); err != nil {
		return errors.Wrap(err, "set session blob")
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.storage.Clear(ctx); err != nil {
		return errors.Wrap(err, "clear session blob")
	}
	return nil
}

// MemoryStorage is a process-local Storage for tests and tooling. It holds a
// single blob and is not safe for concurrent use.
type MemoryStorage struct {
	blob  []byte
	found bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Get(context.Context) ([]byte, bool, error) {
	return m.blob, m.found, nil
}

func (m *MemoryStorage) Set(_ context.Context, blob []byte) error {
	m.blob = blob
	m.found = true
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.blob = nil
	m.found = false
	return nil
}
