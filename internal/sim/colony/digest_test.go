package colony

import "testing"

// driveScenario runs the same mixed workload against a colony. Two colonies
// with the same seed must produce identical digests at every step.
func driveScenario(t *testing.T, c *Colony) []string {
	t.Helper()
	var digests []string

	v1 := mustRegister(t, c, "op1", 0)
	v2 := mustRegister(t, c, "op2", 3)
	digests = append(digests, c.StateDigest())

	c.AdvanceTo(150)
	if _, err := c.Heartbeat("op1", v1.ID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if _, err := c.Heartbeat("op2", v2.ID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	digests = append(digests, c.StateDigest())

	fund(c, "op1", 10000)
	r, err := c.PurchaseRig("op1", v1.ID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := c.EquipRig("op1", v1.ID, r.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}
	digests = append(digests, c.StateDigest())

	c.AdvanceTo(500)
	if _, err := c.FacilityRaid("op1", v1.ID, v2.ID); err != nil {
		t.Fatalf("raid: %v", err)
	}
	digests = append(digests, c.StateDigest())

	return digests
}

func TestStateDigest_Deterministic(t *testing.T) {
	cfg := ColonyConfig{Seed: 7}
	c1 := newTestColony(t, cfg)
	c2 := newTestColony(t, cfg)

	d1 := driveScenario(t, c1)
	d2 := driveScenario(t, c2)
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Fatalf("digest %d diverged:\n%s\n%s", i, d1[i], d2[i])
		}
	}
}

func TestStateDigest_ChangesWithState(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	before := c.StateDigest()
	mustRegister(t, c, "op1", 0)
	after := c.StateDigest()
	if before == after {
		t.Fatalf("digest did not change after registration")
	}
}

func TestAdvanceTo_LogEntry(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	mustRegister(t, c, "op1", 0)
	atClose := c.StateDigest()

	// AdvanceTo closes the current tick; the entry describes the closed one.
	entry := c.AdvanceTo(10)
	if entry.Tick != 0 {
		t.Fatalf("closed tick: got %d want 0", entry.Tick)
	}
	if entry.Commands != 1 {
		t.Fatalf("commands: got %d want 1", entry.Commands)
	}
	if entry.Digest != atClose {
		t.Fatalf("entry digest does not match state at close")
	}
	if c.Tick() != 10 {
		t.Fatalf("tick: got %d want 10", c.Tick())
	}

	// Idle window closes with zero commands.
	entry = c.AdvanceTo(20)
	if entry.Tick != 10 || entry.Commands != 0 {
		t.Fatalf("idle entry: %+v", entry)
	}

	// The clock never moves backwards.
	c.AdvanceTo(5)
	if c.Tick() != 20 {
		t.Fatalf("tick went backwards: %d", c.Tick())
	}
}
