package database

import (
	"strings"
	"testing"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	if len(stmts) != 7 {
		t.Fatalf("len(Statements()) = %d, want 7", len(stmts))
	}
	for i, s := range stmts {
		if !strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS") {
			t.Errorf("statement %d is not an idempotent create: %.40q", i, s)
		}
		if strings.Contains(s, "--") {
			t.Errorf("statement %d still carries a comment", i)
		}
	}
}
