package snapshot

import (
	"path/filepath"
	"reflect"
	"testing"
)

func sample(tick uint64) SnapshotV1 {
	return SnapshotV1{
		Header: Header{Version: 1, GridID: "grid_1", Tick: tick},
		Seed:   7,
		Config: ConfigV1{
			TicksPerDay:     6000,
			HardCap:         1_000_000_000_000,
			BurnOnEarnPct:   50,
			MaxWearWindow:   250,
			PhaseThresholds: [4]int{50, 250, 1000, 2500},
		},
		Minted: 5000,
		Burned:      1000,
		Treasury:    200,
		Balances:    map[string]uint64{"op1": 4000},
		Agents: []AgentV1{{
			ID: "AG1", Operator: "op1", StableID: "sid-1", Zone: 3,
			PioneerPhase: 1, ResilienceBps: 2000, Hashrate: 16,
			Active: true, FacilityLevel: 1, FacilityCond: 10000,
			RigIDs: []string{"RIG1"},
		}},
		Rigs: []RigV1{{
			ID: "RIG1", AgentID: "AG1", Tier: 0, Durability: 9500,
			Active: true, Granted: true,
		}},
		Counters: CountersV1{NextAgent: 1, NextRig: 1},
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	path := PathFor(t.TempDir(), 42)
	want := sample(42)

	if err := WriteSnapshot(path, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("roundtrip mismatch:\n%+v\n%+v", got, want)
	}
}

func TestReadSnapshot_Missing(t *testing.T) {
	if _, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.bin.zst")); err == nil {
		t.Fatalf("read of missing file succeeded")
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	if got := Latest(dir); got != "" {
		t.Fatalf("latest in empty dir: %q", got)
	}

	for _, tick := range []uint64{3000, 12000, 6000} {
		if err := WriteSnapshot(PathFor(dir, tick), sample(tick)); err != nil {
			t.Fatalf("write %d: %v", tick, err)
		}
	}

	want := PathFor(dir, 12000)
	if got := Latest(dir); got != want {
		t.Fatalf("latest: got %q want %q", got, want)
	}

	snap, err := ReadSnapshot(Latest(dir))
	if err != nil {
		t.Fatalf("read latest: %v", err)
	}
	if snap.Header.Tick != 12000 {
		t.Fatalf("tick: got %d want 12000", snap.Header.Tick)
	}
}

func TestPathFor(t *testing.T) {
	got := PathFor("/data", 42)
	if got != "/data/snap-000000000042.bin.zst" {
		t.Fatalf("path: %q", got)
	}
}
