package colony

import (
	"testing"

	"lodegrid.ai/internal/protocol"
)

func TestListRig_Rejections(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)
	mustRegister(t, c, "op2", 0)
	fund(c, "op1", 2000)

	starterID := v.Rigs[0].ID

	_, err := c.ListRig("op1", v.ID, starterID, 99)
	wantCode(t, err, protocol.ErrPriceTooLow)

	// The starter is equipped.
	_, err = c.ListRig("op1", v.ID, starterID, 500)
	wantCode(t, err, protocol.ErrRigEquipped)

	r, err := c.PurchaseRig("op1", v.ID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := c.ListRig("op1", v.ID, r.ID, 500); err != nil {
		t.Fatalf("list: %v", err)
	}
	_, err = c.ListRig("op1", v.ID, r.ID, 800)
	wantCode(t, err, protocol.ErrAlreadyListed)

	// Someone else's rig.
	_, err = c.ListRig("op2", "AGT-missing", r.ID, 500)
	wantCode(t, err, protocol.ErrNotFound)
}

func TestBuyRig_SettlesSale(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	seller := mustRegister(t, c, "op1", 0)
	buyer := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 2000)
	fund(c, "op2", 1000)

	r, err := c.PurchaseRig("op1", seller.ID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	l, err := c.ListRig("op1", seller.ID, r.ID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	before := c.GetSupplyMetrics()
	got, err := c.BuyRig("op2", buyer.ID, l.ID)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	after := c.GetSupplyMetrics()

	if got.Status != ListingSold {
		t.Fatalf("status: %s", got.Status)
	}
	// 10% of the price burns, the seller keeps the rest.
	if burned := after.Burned - before.Burned; burned != 100 {
		t.Fatalf("burned: got %d want 100", burned)
	}
	if bal := c.OperatorBalance("op1"); bal != 900 {
		t.Fatalf("seller balance: got %d want 900", bal)
	}
	if bal := c.OperatorBalance("op2"); bal != 0 {
		t.Fatalf("buyer balance: got %d want 0", bal)
	}

	// Ownership moved and the rig is a tradable asset now, not a grant.
	sv, _ := c.GetAgent(seller.ID)
	bv, _ := c.GetAgent(buyer.ID)
	if len(sv.Rigs) != 1 {
		t.Fatalf("seller rigs: %+v", sv.Rigs)
	}
	found := false
	for _, rv := range bv.Rigs {
		if rv.ID == r.ID {
			found = true
			if rv.Active {
				t.Fatalf("bought rig arrived equipped")
			}
		}
	}
	if !found {
		t.Fatalf("buyer never received rig %s", r.ID)
	}
	c.mu.RLock()
	granted := c.rigs[r.ID].Granted
	c.mu.RUnlock()
	if granted {
		t.Fatalf("sold rig still flagged as granted")
	}
	checkSupplyInvariants(t, c)
}

func TestBuyRig_Rejections(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	seller := mustRegister(t, c, "op1", 0)
	buyer := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 2000)

	r, err := c.PurchaseRig("op1", seller.ID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	l, err := c.ListRig("op1", seller.ID, r.ID, 1000)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	_, err = c.BuyRig("op1", seller.ID, l.ID)
	wantCode(t, err, protocol.ErrSelfPurchase)

	_, err = c.BuyRig("op2", buyer.ID, "LST-missing")
	wantCode(t, err, protocol.ErrNotFound)

	// Broke buyer leaves the listing open.
	_, err = c.BuyRig("op2", buyer.ID, l.ID)
	wantCode(t, err, protocol.ErrInsufficientBalance)

	fund(c, "op2", 1000)
	if _, err := c.BuyRig("op2", buyer.ID, l.ID); err != nil {
		t.Fatalf("buy: %v", err)
	}
	_, err = c.BuyRig("op2", buyer.ID, l.ID)
	wantCode(t, err, protocol.ErrListingClosed)
}

func TestCancelListing(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	seller := mustRegister(t, c, "op1", 0)
	other := mustRegister(t, c, "op2", 0)
	fund(c, "op1", 2000)

	r, err := c.PurchaseRig("op1", seller.ID, 1)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	l, err := c.ListRig("op1", seller.ID, r.ID, 500)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	_, err = c.CancelListing("op2", other.ID, l.ID)
	wantCode(t, err, protocol.ErrNotOwner)

	got, err := c.CancelListing("op1", seller.ID, l.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != ListingCancelled {
		t.Fatalf("status: %s", got.Status)
	}

	_, err = c.CancelListing("op1", seller.ID, l.ID)
	wantCode(t, err, protocol.ErrListingClosed)

	// The rig is free to list again.
	if _, err := c.ListRig("op1", seller.ID, r.ID, 600); err != nil {
		t.Fatalf("relist: %v", err)
	}
}
