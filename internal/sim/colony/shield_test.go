package colony

import (
	"testing"

	"lodegrid.ai/internal/protocol"
)

func TestPurchaseShield_PhaseGate(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)
	fund(c, "op1", 8000)

	_, err := c.PurchaseShield("op1", v.ID, 1)
	wantCode(t, err, protocol.ErrPhaseLocked)

	_, err = c.PurchaseShield("op1", v.ID, 3)
	wantCode(t, err, protocol.ErrInvalidTier)
}

func TestShield_PurchaseAndActivate(t *testing.T) {
	c := newTestColony(t, ColonyConfig{PhaseThresholds: [4]int{2, 3, 4, 5}})
	v := mustRegister(t, c, "op1", 0)
	mustRegister(t, c, "op2", 0)

	_, err := c.ActivateShield("op1", v.ID)
	wantCode(t, err, protocol.ErrNotFound)

	fund(c, "op1", 8000)
	got, err := c.PurchaseShield("op1", v.ID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	// Shields arrive charged but dormant.
	if got.Shield.Tier != 1 || got.Shield.Charges != 3 || got.Shield.Active {
		t.Fatalf("shield: %+v", got.Shield)
	}
	if bal := c.OperatorBalance("op1"); bal != 0 {
		t.Fatalf("balance: got %d want 0", bal)
	}

	got, err = c.ActivateShield("op1", v.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !got.Shield.Active || got.Shield.AbsorbPct != 25 {
		t.Fatalf("active shield: %+v", got.Shield)
	}

	_, err = c.ActivateShield("op1", v.ID)
	wantCode(t, err, protocol.ErrAlreadyActive)

	// A charged, active shield blocks a replacement purchase.
	fund(c, "op1", 8000)
	_, err = c.PurchaseShield("op1", v.ID, 1)
	wantCode(t, err, protocol.ErrAlreadyActive)
	checkSupplyInvariants(t, c)
}
