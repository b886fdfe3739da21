package repositories_test

import (
	"context"
	"io"
	"testing"

	"github.com/flintspark/civicflow/internal/sqlite"
	"github.com/flintspark/civicflow/internal/testhelpers"
)

// newTestDB creates a new in-memory database seeded with the demo catalog.
func newTestDB(t *testing.T) *sqlite.Database {
	t.Helper()

	ctx := context.Background()
	logger := testhelpers.NewLogger(io.Discard)

	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatal(err)
	}
	if err = db.Seed(ctx); err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatal(err)
		}
	})

	return db
}
