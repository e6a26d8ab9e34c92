package colony

import (
	"testing"

	"lodegrid.ai/internal/protocol"
)

func TestFacilityRaid(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 5000)

	before := c.GetSupplyMetrics()
	sv, err := c.FacilityRaid("op1", att.ID, tgt.ID)
	if err != nil {
		t.Fatalf("raid: %v", err)
	}
	after := c.GetSupplyMetrics()

	// 20% of a pristine 10000 facility, nothing shields it.
	if sv.Damage != 2000 {
		t.Fatalf("damage: got %d want 2000", sv.Damage)
	}
	got, _ := c.GetAgent(tgt.ID)
	if got.Facility.Condition != 8000 {
		t.Fatalf("condition: got %d want 8000", got.Facility.Condition)
	}
	if burned := after.Burned - before.Burned; burned != 4000 {
		t.Fatalf("burned: got %d want 4000", burned)
	}
	if treas := after.Treasury - before.Treasury; treas != 1000 {
		t.Fatalf("treasury: got %d want 1000", treas)
	}
	checkSupplyInvariants(t, c)
}

func TestSabotage_PairCooldown(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 20000)

	if _, err := c.FacilityRaid("op1", att.ID, tgt.ID); err != nil {
		t.Fatalf("raid: %v", err)
	}

	// Raid and jam share the per-pair cooldown.
	_, err := c.FacilityRaid("op1", att.ID, tgt.ID)
	wantCode(t, err, protocol.ErrCooldown)
	_, err = c.RigJam("op1", att.ID, tgt.ID)
	wantCode(t, err, protocol.ErrCooldown)

	// Era 1 sabotage cooldown is 300 ticks.
	c.AdvanceTo(300)
	if _, err := c.RigJam("op1", att.ID, tgt.ID); err != nil {
		t.Fatalf("jam after cooldown: %v", err)
	}
}

func TestFacilityRaid_Rejections(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 0)

	_, err := c.FacilityRaid("op1", att.ID, att.ID)
	wantCode(t, err, protocol.ErrSelfAttack)

	_, err = c.FacilityRaid("op1", att.ID, "AGT-missing")
	wantCode(t, err, protocol.ErrNotFound)

	// Broke attacker pays nothing and leaves no mark.
	_, err = c.FacilityRaid("op1", att.ID, tgt.ID)
	wantCode(t, err, protocol.ErrInsufficientBalance)
	got, _ := c.GetAgent(tgt.ID)
	if got.Facility.Condition != 10000 {
		t.Fatalf("condition mutated on failed raid: %d", got.Facility.Condition)
	}
}

func TestFacilityRaid_HibernatedTarget(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 5000)

	c.AdvanceTo(901)
	if _, err := c.Heartbeat("op1", att.ID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if n := c.CheckLiveness(c.AgentIDs()); n != 1 {
		t.Fatalf("hibernated: got %d want 1", n)
	}

	_, err := c.FacilityRaid("op1", att.ID, tgt.ID)
	wantCode(t, err, protocol.ErrTargetInactive)
}

func TestRigJam(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 3000)

	sv, err := c.RigJam("op1", att.ID, tgt.ID)
	if err != nil {
		t.Fatalf("jam: %v", err)
	}
	// 15% of the starter's 10000 durability, shelter 10% knocks it to 1350.
	if sv.Damage != 1350 {
		t.Fatalf("damage: got %d want 1350", sv.Damage)
	}
	got, _ := c.GetAgent(tgt.ID)
	if got.Rigs[0].Durability != 8650 {
		t.Fatalf("durability: got %d want 8650", got.Rigs[0].Durability)
	}
	checkSupplyInvariants(t, c)
}

func TestRigJam_PicksHighestTier(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 3000)
	fund(c, "op2", 2000)

	r, err := c.PurchaseRig("op2", tgt.ID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := c.EquipRig("op2", tgt.ID, r.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}

	if _, err := c.RigJam("op1", att.ID, tgt.ID); err != nil {
		t.Fatalf("jam: %v", err)
	}

	got, _ := c.GetAgent(tgt.ID)
	for _, rv := range got.Rigs {
		switch rv.ID {
		case r.ID:
			if rv.Durability == rv.MaxDurability {
				t.Fatalf("highest tier rig untouched")
			}
		default:
			if rv.Durability != rv.MaxDurability {
				t.Fatalf("lower tier rig damaged: %+v", rv)
			}
		}
	}
}

func TestRigJam_NoActiveRigs(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 3000)

	if _, err := c.UnequipRig("op2", tgt.ID, tgt.Rigs[0].ID); err != nil {
		t.Fatalf("unequip: %v", err)
	}

	_, err := c.RigJam("op1", att.ID, tgt.ID)
	wantCode(t, err, protocol.ErrTargetInactive)
	// Nothing was charged for a jam with no valid victim.
	if bal := c.OperatorBalance("op1"); bal != 3000 {
		t.Fatalf("balance: got %d want 3000", bal)
	}
}

func TestGatherIntel(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	att := mustRegister(t, c, "op1", 0)
	tgt := mustRegister(t, c, "op2", 3)
	fund(c, "op1", 1000)

	iv, err := c.GatherIntel("op1", att.ID, tgt.ID)
	if err != nil {
		t.Fatalf("intel: %v", err)
	}
	if iv.Target != tgt.ID || iv.Zone != 3 {
		t.Fatalf("intel target: %+v", iv)
	}
	if iv.FacilityLevel != 1 || iv.FacilityCondition != 10000 || iv.ShelterPct != 10 {
		t.Fatalf("intel facility: %+v", iv)
	}
	if iv.ShieldActive || iv.ActiveRigs != 1 {
		t.Fatalf("intel defenses: %+v", iv)
	}
	if bal := c.OperatorBalance("op1"); bal != 500 {
		t.Fatalf("balance: got %d want 500", bal)
	}

	// No cooldown on intel.
	if _, err := c.GatherIntel("op1", att.ID, tgt.ID); err != nil {
		t.Fatalf("second intel: %v", err)
	}
	checkSupplyInvariants(t, c)
}
