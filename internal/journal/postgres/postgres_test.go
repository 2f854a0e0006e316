package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/plexus-ops/svclift/internal/journal"
)

func TestPostgresSink_EmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}

func TestPostgresSink_MalformedDSN(t *testing.T) {
	// pgx parses the DSN when the connector is built, so a bad port is
	// rejected without a server.
	if _, err := New("postgres://audit@localhost:notaport/journal"); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}

func TestPostgresSink_UnreachableServer(t *testing.T) {
	// Port 1 on loopback refuses immediately; schema creation must surface
	// the connection error instead of returning a half-built sink.
	dsn := "postgres://audit@127.0.0.1:1/journal?sslmode=disable&connect_timeout=1"
	if _, err := New(dsn); err == nil {
		t.Fatalf("expected error for unreachable server")
	}
}

// TestPostgresSink_Integration needs a reachable server; point
// SVCLIFT_TEST_POSTGRES_DSN at one to run it.
func TestPostgresSink_Integration(t *testing.T) {
	dsn := os.Getenv("SVCLIFT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SVCLIFT_TEST_POSTGRES_DSN not set")
	}

	sink, err := New(dsn)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	ctx := context.Background()
	e := journal.Event{
		OccurredAt: time.Now().UTC(),
		Service:    "plexus",
		Command:    "restart",
		Outcome:    journal.OutcomeSuccess,
		ExitCode:   0,
		Message:    "service restarted",
	}
	if err := sink.Send(ctx, e); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}

	var count int
	row := sink.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM lifecycle_journal WHERE service = $1 AND command = $2", e.Service, e.Command)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to scan count: %v", err)
	}
	if count < 1 {
		t.Errorf("Expected at least 1 journal row, got %d", count)
	}
}
