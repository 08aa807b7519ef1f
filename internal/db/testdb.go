package db

import (
	"database/sql"
	"testing"
)

// NewTestDB opens a fresh in-memory database with the full EVDMS schema and
// registers its cleanup with t. Every test gets its own isolated store.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := EnsureSchema(db); err != nil {
		t.Fatalf("creating test database schema: %v", err)
	}

	return db
}
