package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"lodegrid.ai/internal/persistence/snapshot"
	"lodegrid.ai/internal/sim/catalogs"
	"lodegrid.ai/internal/sim/colony"
	"lodegrid.ai/internal/sim/tuning"
)

func countRows(t *testing.T, path, table string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestSQLiteIndex_WritesLand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for i := uint64(1); i <= 10; i++ {
		if err := s.WriteTick(colony.TickLogEntry{Tick: i, Digest: "d", Commands: 0}); err != nil {
			t.Fatalf("write tick: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := s.WriteAudit(colony.AuditEntry{Tick: 5, Actor: "AG1", Action: "HEARTBEAT"}); err != nil {
			t.Fatalf("write audit: %v", err)
		}
	}
	s.RecordSnapshot("/data/snap-000000000005.bin.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, GridID: "g", Tick: 5},
		Seed:   7,
		Minted: 100,
		Burned: 20,
	})

	// Close drains the channel and commits the open transaction.
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if n := countRows(t, path, "ticks"); n != 10 {
		t.Fatalf("ticks: got %d want 10", n)
	}
	if n := countRows(t, path, "audits"); n != 3 {
		t.Fatalf("audits: got %d want 3", n)
	}
	if n := countRows(t, path, "snapshots"); n != 1 {
		t.Fatalf("snapshots: got %d want 1", n)
	}
}

func TestSQLiteIndex_AuditSeqPerTick(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// Same (tick, seq) pairs across ticks must not collide.
	for _, tick := range []uint64{1, 1, 2, 2} {
		if err := s.WriteAudit(colony.AuditEntry{Tick: tick, Action: "REGISTER"}); err != nil {
			t.Fatalf("write audit: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if n := countRows(t, path, "audits"); n != 4 {
		t.Fatalf("audits: got %d want 4", n)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}

	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.UpsertCatalogs("../../../configs", cats, tuning.Defaults()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Re-running is an upsert, not a duplicate insert.
	if err := s.UpsertCatalogs("../../../configs", cats, tuning.Defaults()); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Six catalogs plus the applied tuning.
	if n := countRows(t, path, "catalogs"); n != 7 {
		t.Fatalf("catalogs: got %d want 7", n)
	}
}

func TestSQLiteIndex_WriteAfterCloseIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.WriteTick(colony.TickLogEntry{Tick: 1}); err != nil {
		t.Fatalf("write after close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
