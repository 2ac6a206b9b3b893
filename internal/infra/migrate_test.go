package infra

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestSplitSchema(t *testing.T) {
	stmts := splitSQL(stripSQLComments(schemaSQL))
	if len(stmts) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(stmts))
	}
	for _, s := range stmts {
		if strings.Contains(s, "--") {
			t.Errorf("comment left in statement: %q", s)
		}
	}
	if !strings.Contains(stmts[3], "conversation_states") {
		t.Errorf("unexpected statement order: %q", stmts[3])
	}
}

func TestMigrate(t *testing.T) {
	dsn := os.Getenv("RIDESAFE_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("RIDESAFE_TEST_DB_DSN not set; skipping migration test")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	// Twice: the schema must be re-runnable.
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}
}
