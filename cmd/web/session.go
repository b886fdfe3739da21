package main

import (
	"context"

	"github.com/alexedwards/scs/v2"
)

// flowSessionKey is the scs key holding the serialized flow session. Entity
// collections are never part of the blob; they live in the loader registry
// and are re-fetched after a restore.
const flowSessionKey = "flowSession"

// scsStorage adapts the scs session manager to the flow storage interface.
// The blob is scoped to the caller through the session token scs carries in
// the request context.
type scsStorage struct {
	sessions *scs.SessionManager
}

func (s scsStorage) Get(ctx context.Context) ([]byte, bool, error) {
	blob := s.sessions.GetBytes(ctx, flowSessionKey)
	if blob == nil {
		return nil, false, nil
	}
	return blob, true, nil
}

func (s scsStorage) Set(ctx context.Context, blob []byte) error {
	s.sessions.Put(ctx, flowSessionKey, blob)
	return nil
}

func (s scsStorage) Clear(ctx context.Context) error {
	s.sessions.Remove(ctx, flowSessionKey)
	return nil
}
