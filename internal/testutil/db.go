package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/estrellaangel/VolleyTech/internal/db"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// FixedClock reports a constant time.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }
