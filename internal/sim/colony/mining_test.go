package colony

import (
	"testing"

	"lodegrid.ai/internal/protocol"
)

func TestEmissionRate_GenesisBoost(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	mustRegister(t, c, "op1", 0)

	// base = 600000 * 1 / 6000 = 100
	// genesis bps = 20 * 2499^2 * 10000 / 2500^2 = 199840
	// rate = 100 * 199840 / 10000 = 1998
	c.mu.RLock()
	got := c.emissionRateLocked()
	c.mu.RUnlock()
	if got != 1998 {
		t.Fatalf("emission rate: got %d want 1998", got)
	}
}

func TestEmissionRate_NoAgents(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	c.mu.RLock()
	got := c.emissionRateLocked()
	c.mu.RUnlock()
	if got != 0 {
		t.Fatalf("emission with no agents: got %d want 0", got)
	}
}

func TestHeartbeat_DistributesWithBurnFloor(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	c.AdvanceTo(150)
	hv, err := c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if hv.RewardNet == 0 {
		t.Fatalf("expected nonzero reward")
	}

	minted := hv.RewardNet + hv.RewardBurned
	if want := minted * 20 / 100; hv.RewardBurned != want {
		t.Fatalf("burn: got %d want %d (minted %d)", hv.RewardBurned, want, minted)
	}
	if bal := c.OperatorBalance("op1"); bal != hv.RewardNet {
		t.Fatalf("balance: got %d want %d", bal, hv.RewardNet)
	}

	s := c.GetSupplyMetrics()
	if s.Minted != minted || s.Burned != hv.RewardBurned {
		t.Fatalf("supply: %+v vs minted=%d burned=%d", s, minted, hv.RewardBurned)
	}
	checkSupplyInvariants(t, c)
}

func TestHeartbeat_SameTickAccruesNothing(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	c.AdvanceTo(150)
	first, err := c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if first.RewardNet == 0 {
		t.Fatalf("expected reward on first heartbeat")
	}

	second, err := c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("repeat heartbeat: %v", err)
	}
	if second.RewardNet != 0 || second.RewardBurned != 0 {
		t.Fatalf("same-tick heartbeat paid out: %+v", second)
	}
}

func TestHeartbeat_WarmupPaysNothing(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	c.AdvanceTo(99)
	hv, err := c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if hv.RewardNet != 0 || hv.RewardBurned != 0 {
		t.Fatalf("reward during warm-up: %+v", hv)
	}
}

func TestHeartbeat_WearWindowCapped(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	// Hand the agent an equipped WORKHORSE (wear rate 1/tick).
	c.mu.Lock()
	a := c.agents[v.ID]
	r := c.mintRigLocked(a, 2, false, false)
	r.Active = true
	c.recomputeHashrateLocked(a)
	c.mu.Unlock()

	c.AdvanceTo(10000)
	if _, err := c.Heartbeat("op1", v.ID); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	// 10000 elapsed ticks wear only the capped 500-tick window.
	c.mu.RLock()
	dur := c.rigs[r.ID].Durability
	cond := a.Facility.Condition
	c.mu.RUnlock()
	if dur != 24500 {
		t.Fatalf("durability: got %d want 24500", dur)
	}
	if cond != 9500 {
		t.Fatalf("facility condition: got %d want 9500", cond)
	}
	checkSupplyInvariants(t, c)
}

func TestDistribute_HonorsHardCap(t *testing.T) {
	c := newTestColony(t, ColonyConfig{HardCap: 1000})
	v := mustRegister(t, c, "op1", 0)

	c.AdvanceTo(500)
	hv, err := c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	minted := hv.RewardNet + hv.RewardBurned
	if minted != 1000 {
		t.Fatalf("minted: got %d want the full 1000 cap", minted)
	}

	s := c.GetSupplyMetrics()
	if s.Minted != s.Cap {
		t.Fatalf("supply not exhausted: %+v", s)
	}

	// Nothing left to mint.
	c.AdvanceTo(1000)
	hv, err = c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if hv.RewardNet != 0 || hv.RewardBurned != 0 {
		t.Fatalf("minted past cap: %+v", hv)
	}
	checkSupplyInvariants(t, c)
}

func TestClaim(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	_, err := c.Claim("op1", v.ID)
	wantCode(t, err, protocol.ErrTooEarly)

	c.AdvanceTo(150)
	_, err = c.Claim("op1", v.ID)
	wantCode(t, err, protocol.ErrNothingToClaim)

	c.mu.Lock()
	c.agents[v.ID].Buffered = 500
	c.mu.Unlock()

	amount, err := c.Claim("op1", v.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if amount != 500 {
		t.Fatalf("claim amount: got %d want 500", amount)
	}
	if bal := c.OperatorBalance("op1"); bal != 500 {
		t.Fatalf("balance: got %d want 500", bal)
	}

	_, err = c.Claim("op1", v.ID)
	wantCode(t, err, protocol.ErrNothingToClaim)
}

func TestCheckLiveness_SettlesMissedWindowIntoBuffer(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	// Miss the liveness window entirely. The sweep hibernates the agent and
	// parks the reward for the capped window in the buffer.
	c.AdvanceTo(1000)
	if n := c.CheckLiveness(c.AgentIDs()); n != 1 {
		t.Fatalf("hibernated: got %d want 1", n)
	}

	// 500 capped blocks x 1998 emission, sole agent, minus the 20% burn.
	amount, err := c.Claim("op1", v.ID)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if amount != 799200 {
		t.Fatalf("claim amount: got %d want 799200", amount)
	}
	if bal := c.OperatorBalance("op1"); bal != 799200 {
		t.Fatalf("balance: got %d want 799200", bal)
	}

	_, err = c.Claim("op1", v.ID)
	wantCode(t, err, protocol.ErrNothingToClaim)

	// The settled window is not paid twice: the reactivating heartbeat at
	// the same tick accrues nothing.
	hv, err := c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if hv.RewardNet != 0 || hv.RewardBurned != 0 {
		t.Fatalf("settled window paid again: %+v", hv)
	}
	checkSupplyInvariants(t, c)
}

func TestHeartbeat_FlushesBuffered(t *testing.T) {
	c := newTestColony(t, ColonyConfig{})
	v := mustRegister(t, c, "op1", 0)

	c.mu.Lock()
	c.agents[v.ID].Buffered = 300
	c.mu.Unlock()

	c.AdvanceTo(150)
	hv, err := c.Heartbeat("op1", v.ID)
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	minted := hv.RewardNet + hv.RewardBurned - 300
	if hv.RewardNet != minted-minted*20/100+300 {
		t.Fatalf("buffered not flushed: %+v", hv)
	}
	c.mu.RLock()
	buffered := c.agents[v.ID].Buffered
	c.mu.RUnlock()
	if buffered != 0 {
		t.Fatalf("buffered remains: %d", buffered)
	}
}
