// Package sourcetest provides an in-memory sqlite copy of the IGSR schema for tests.
package sourcetest

import (
	"context"
	"database/sql"
	_ "embed"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/igsrindex/internal/db/sqldb"
)

//go:embed igsr.sql
var fixture string

// Open returns a fresh :memory: database loaded with the fixture. It is closed
// when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := sqldb.Open(context.Background(), sqldb.Config{Driver: sqldb.SQLite, Name: ":memory:"}, time.Second)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	for _, stmt := range strings.Split(fixture, ";\n") {
		if strings.TrimSpace(stripComments(stmt)) == "" {
			continue
		}
		if _, err := conn.Exec(stmt); err != nil {
			t.Fatalf("load fixture: %v\n%s", err, stmt)
		}
	}
	return conn
}

func stripComments(stmt string) string {
	var b strings.Builder
	for _, line := range strings.Split(stmt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
