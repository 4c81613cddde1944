package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

func TestOpenSQLite_ErrorOnMissingParentDir(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	// The schema is usable end-to-end after migration.
	for _, table := range []string{"conversations", "messages", "insights", "insight_feedback"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table %q missing after migration", table)
		}
	}
	if !db.Migrator().HasIndex(&domain.InsightFeedback{}, "ux_insight_feedback") {
		t.Fatalf("feedback unique index missing")
	}
}
