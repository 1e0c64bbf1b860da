package repository

import (
	"os"
	"strings"
	"testing"
)

// The queries in this package and the migration that creates the table must
// agree on column names; a rename on one side only surfaces against a live
// database, so pin the names here.
func TestQueriesMatchMigrationColumns(t *testing.T) {
	migration, err := os.ReadFile("../../../migrations/00004_create_commission_settings.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	schema := string(migration)

	for _, column := range []string{"singleton", "rate", "commission_type", "updated_at"} {
		if !strings.Contains(schema, column) {
			t.Fatalf("migration does not define column %q used by the repository", column)
		}
	}
	if strings.Contains(schema, "\n    type ") {
		t.Fatalf("migration defines a bare 'type' column; the repository queries commission_type")
	}
}
