package colony

import (
	"sort"

	"lodegrid.ai/internal/protocol"
)

type Agent struct {
	ID       string
	Operator string
	StableID string

	Zone          int
	PioneerPhase  int // fixed at registration
	ResilienceBps int

	// Cached share weight. Recomputed from equipment on every change and
	// mirrored into the colony-wide total.
	Hashrate uint64

	LastHeartbeat  uint64
	RegisteredTick uint64
	TotalRewards   uint64
	Buffered       uint64 // computed but not yet paid out
	Active         bool

	Facility Facility
	Shield   Shield

	RigIDs []string // owned rigs, stable order
}

type Facility struct {
	Level     int
	Condition int
}

type Shield struct {
	Tier    int
	Charges int
	Active  bool
}

// Register creates one agent per operator and per stable external identity.
func (c *Colony) Register(operator, stableID string, zone int) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	if operator == "" || stableID == "" {
		return AgentView{}, errf(protocol.ErrBadRequest, "missing operator or stable_id")
	}
	if zone < 0 || zone >= len(c.cats.Zones.Zones) {
		return AgentView{}, errf(protocol.ErrInvalidZone, "zone %d", zone)
	}
	if _, ok := c.byOperator[operator]; ok {
		return AgentView{}, errf(protocol.ErrAlreadyRegistered, "operator %s", operator)
	}
	if _, ok := c.byStableID[stableID]; ok {
		return AgentView{}, errf(protocol.ErrAlreadyRegistered, "stable_id %s", stableID)
	}

	phase := c.phaseForCount(c.activeCount)
	facDef := c.cats.Facilities.ByLevel[0]

	a := &Agent{
		ID:             c.nextID("AG", &c.nextAgent),
		Operator:       operator,
		StableID:       stableID,
		Zone:           zone,
		PioneerPhase:   phase,
		ResilienceBps:  c.cfg.ResilienceBps[phase],
		LastHeartbeat:  c.tick,
		RegisteredTick: c.tick,
		Active:         true,
		Facility:       Facility{Level: 1, Condition: facDef.MaxCondition},
	}
	c.agents[a.ID] = a
	c.byOperator[operator] = a.ID
	c.byStableID[stableID] = a.ID
	c.zoneMembers[zone][a.ID] = struct{}{}
	c.activeCount++

	// Starter rig: free tier-0, auto-equipped.
	c.mintRigLocked(a, 0, true, true)
	c.recomputeHashrateLocked(a)

	c.auditLocked(a.ID, "REGISTER", map[string]any{"zone": zone, "phase": phase})
	return c.agentViewLocked(a), nil
}

// Heartbeat proves liveness. Wear and reward distribution are best-effort:
// a failure there is audited and swallowed so liveness tracking always
// succeeds. LastHeartbeat moves last.
func (c *Colony) Heartbeat(operator, agentID string) (HeartbeatView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a := c.agents[agentID]
	if a == nil {
		return HeartbeatView{}, errf(protocol.ErrNotFound, "agent %s", agentID)
	}
	if a.Operator != operator {
		return HeartbeatView{}, errf(protocol.ErrNotOperator, "agent %s", agentID)
	}

	if !a.Active {
		a.Active = true
		c.activeCount++
	}

	elapsed := c.tick - a.LastHeartbeat

	c.bestEffortLocked(a.ID, "WEAR", func() error {
		c.applyWearLocked(a, elapsed)
		return nil
	})
	c.recomputeHashrateLocked(a)

	var net, burned uint64
	c.bestEffortLocked(a.ID, "DISTRIBUTE", func() error {
		var err error
		net, burned, err = c.distributeLocked(a)
		return err
	})

	a.LastHeartbeat = c.tick

	return HeartbeatView{
		AgentID:      a.ID,
		Tick:         c.tick,
		RewardNet:    net,
		RewardBurned: burned,
		Hashrate:     a.Hashrate,
		Active:       a.Active,
	}, nil
}

// CheckLiveness hibernates every listed active agent whose heartbeat is
// older than interval x timeout_count. Hibernation settles the missed window
// like the heartbeat the agent failed to send: wear applies, the net reward
// is minted into the agent's buffer, and payout waits for an explicit claim
// (or the flush on the reactivating heartbeat). Idempotent: already-inactive
// agents are untouched, so the active counter cannot underflow.
func (c *Colony) CheckLiveness(agentIDs []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	limit := c.cfg.HeartbeatIntervalTicks * c.cfg.HeartbeatTimeoutCount
	hibernated := 0
	for _, id := range agentIDs {
		a := c.agents[id]
		if a == nil || !a.Active {
			continue
		}
		if c.tick-a.LastHeartbeat <= limit {
			continue
		}

		last := a.LastHeartbeat
		c.applyWearLocked(a, c.tick-last)
		c.recomputeHashrateLocked(a)
		net, _ := c.mintWindowLocked(a)
		a.Buffered += net
		a.LastHeartbeat = c.tick

		a.Active = false
		c.activeCount--
		c.setAgentHashrateLocked(a, 0)
		hibernated++
		c.auditLocked(a.ID, "HIBERNATE", map[string]any{"last_heartbeat": last, "buffered": net})
	}
	return hibernated
}

// AgentIDs returns every agent id, sorted. Used by liveness sweeps.
func (c *Colony) AgentIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.agents))
	for id := range c.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MigrateZone moves the agent to another zone for a fee, on a per-agent
// cooldown. The cached hashrate is recomputed for the new zone modifier.
func (c *Colony) MigrateZone(operator, agentID string, zone int) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return AgentView{}, serr
	}
	if zone < 0 || zone >= len(c.cats.Zones.Zones) {
		return AgentView{}, errf(protocol.ErrInvalidZone, "zone %d", zone)
	}
	if zone == a.Zone {
		return AgentView{}, errf(protocol.ErrBadRequest, "already in zone %d", zone)
	}
	if last, ok := c.migrateLast[a.ID]; ok && c.tick-last < c.cfg.MigrationCooldownTicks {
		return AgentView{}, errf(protocol.ErrCooldown, "migration until tick %d", last+c.cfg.MigrationCooldownTicks)
	}
	if err := c.spend(operator, c.cfg.MigrationFee, c.cfg.PurchaseBurnPct); err != nil {
		return AgentView{}, err
	}

	delete(c.zoneMembers[a.Zone], a.ID)
	from := a.Zone
	a.Zone = zone
	c.zoneMembers[zone][a.ID] = struct{}{}
	c.migrateLast[a.ID] = c.tick
	c.recomputeHashrateLocked(a)

	c.auditLocked(a.ID, "MIGRATE", map[string]any{"from": from, "to": zone})
	return c.agentViewLocked(a), nil
}

func (c *Colony) agentByOperatorLocked(operator, agentID string) (*Agent, *protocol.SimError) {
	a := c.agents[agentID]
	if a == nil {
		return nil, errf(protocol.ErrNotFound, "agent %s", agentID)
	}
	if a.Operator != operator {
		return nil, errf(protocol.ErrNotOperator, "agent %s", agentID)
	}
	return a, nil
}

// zoneMemberIDsLocked returns the members of a zone in sorted order so event
// processing is deterministic.
func (c *Colony) zoneMemberIDsLocked(zone int) []string {
	ids := make([]string, 0, len(c.zoneMembers[zone]))
	for id := range c.zoneMembers[zone] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
