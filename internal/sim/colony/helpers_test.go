package colony

import (
	"testing"

	"lodegrid.ai/internal/protocol"
	"lodegrid.ai/internal/sim/catalogs"
)

func testCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return cats
}

func newTestColony(t *testing.T, cfg ColonyConfig) *Colony {
	t.Helper()
	if cfg.ID == "" {
		cfg.ID = "test"
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	c, err := New(cfg, testCatalogs(t))
	if err != nil {
		t.Fatalf("colony: %v", err)
	}
	return c
}

func mustRegister(t *testing.T, c *Colony, operator string, zone int) AgentView {
	t.Helper()
	v, err := c.Register(operator, operator+"-sid", zone)
	if err != nil {
		t.Fatalf("register %s: %v", operator, err)
	}
	return v
}

// fund mints directly into an operator balance so supply invariants stay
// intact while tests exercise paid actions.
func fund(c *Colony, operator string, amount uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	minted := c.ledger.Mint(amount)
	c.ledger.Credit(operator, minted)
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error %s, got nil", code)
	}
	if got := protocol.CodeOf(err); got != code {
		t.Fatalf("want code %s, got %s (%v)", code, got, err)
	}
}

// checkSupplyInvariants asserts the global accounting identities that must
// hold after any sequence of operations.
func checkSupplyInvariants(t *testing.T, c *Colony) {
	t.Helper()
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ledger.Minted() > c.ledger.Cap() {
		t.Fatalf("minted %d > cap %d", c.ledger.Minted(), c.ledger.Cap())
	}
	if c.ledger.Burned() > c.ledger.Minted() {
		t.Fatalf("burned %d > minted %d", c.ledger.Burned(), c.ledger.Minted())
	}

	var sum uint64
	for _, a := range c.agents {
		sum += a.Hashrate
	}
	if sum != c.totalHashrate {
		t.Fatalf("hashrate sum %d != total %d", sum, c.totalHashrate)
	}
}
