package colony

import "lodegrid.ai/internal/protocol"

// setAgentHashrateLocked is the only place an agent's cached hashrate or the
// global total changes. Keeping both in one mutator is what holds the
// sum(agents) == total invariant together.
func (c *Colony) setAgentHashrateLocked(a *Agent, hashrate uint64) {
	c.totalHashrate = c.totalHashrate - a.Hashrate + hashrate
	a.Hashrate = hashrate
}

// emissionRateLocked computes the adaptive per-tick emission for the whole
// population, in token base units.
//
// target scales with active agents; a genesis boost up to 20x applies while
// the population is below the threshold; the era multiplier applies
// otherwise. The two never stack: the larger one wins. A halving right-shift
// and the remaining-supply clamp come last.
func (c *Colony) emissionRateLocked() uint64 {
	active := uint64(c.activeCount)
	if active == 0 {
		return 0
	}
	rate := c.cfg.PerAgentDailyTarget * active / uint64(c.cfg.TicksPerDay)

	genesisBps := uint64(10000)
	th := uint64(c.cfg.GenesisThreshold)
	if active < th {
		d := th - active
		if bps := 20 * d * d * 10000 / (th * th); bps > genesisBps {
			genesisBps = bps
		}
	}
	eraBps := uint64(c.cats.Eras.EraAt(c.tick).RewardMultiplierBps)

	effBps := genesisBps
	if eraBps > effBps {
		effBps = eraBps
	}
	rate = rate * effBps / 10000

	if halvings := c.tick / c.cfg.HalvingEpochTicks; halvings >= 64 {
		rate = 0
	} else {
		rate >>= halvings
	}

	if rem := c.ledger.Remaining(); rate > rem {
		rate = rem
	}
	return rate
}

// mintWindowLocked mints the agent's share of the emission over the elapsed
// (capped) window since its last heartbeat and burns the earn fraction at
// source. It returns the net amount; where the net goes is the caller's
// decision. A same-tick repeat accrues nothing.
func (c *Colony) mintWindowLocked(a *Agent) (net, burned uint64) {
	if c.tick < a.RegisteredTick+c.cfg.FirstMineDelayTicks {
		return 0, 0
	}

	blocks := c.tick - a.LastHeartbeat
	if blocks > c.cfg.MaxWearWindow {
		blocks = c.cfg.MaxWearWindow
	}

	var gross uint64
	if blocks > 0 && a.Hashrate > 0 && c.totalHashrate > 0 {
		gross = blocks * c.emissionRateLocked() * a.Hashrate / c.totalHashrate
		if rem := c.ledger.Remaining(); gross > rem {
			gross = rem
		}
	}

	minted := c.ledger.Mint(gross)
	burned = minted * uint64(c.cfg.BurnOnEarnPct) / 100
	c.ledger.Burn(burned)
	return minted - burned, burned
}

// distributeLocked mints the heartbeat reward for the agent and credits the
// net plus any previously buffered amount to the operator.
func (c *Colony) distributeLocked(a *Agent) (net, burned uint64, err error) {
	if c.tick < a.RegisteredTick+c.cfg.FirstMineDelayTicks {
		return 0, 0, nil
	}

	net, burned = c.mintWindowLocked(a)
	net += a.Buffered
	a.Buffered = 0
	c.ledger.Credit(a.Operator, net)
	a.TotalRewards += net
	return net, burned, nil
}

// Claim pays out only buffered (already computed, not yet credited) reward.
// It never triggers new accrual.
func (c *Colony) Claim(operator, agentID string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return 0, serr
	}
	if c.tick < a.RegisteredTick+c.cfg.FirstMineDelayTicks {
		return 0, errf(protocol.ErrTooEarly, "warm-up until tick %d", a.RegisteredTick+c.cfg.FirstMineDelayTicks)
	}
	if a.Buffered == 0 {
		return 0, errf(protocol.ErrNothingToClaim, "agent %s", agentID)
	}

	amount := a.Buffered
	a.Buffered = 0
	c.ledger.Credit(a.Operator, amount)
	a.TotalRewards += amount
	c.auditLocked(a.ID, "CLAIM", map[string]any{"amount": amount})
	return amount, nil
}
