package colony

import "lodegrid.ai/internal/protocol"

// Read-side views. All queries return copies built under the read lock; no
// query mutates anything.

type AgentView struct {
	ID             string       `json:"id"`
	Operator       string       `json:"operator"`
	Zone           int          `json:"zone"`
	PioneerPhase   int          `json:"pioneer_phase"`
	ResilienceBps  int          `json:"resilience_bps"`
	Hashrate       uint64       `json:"hashrate"`
	Active         bool         `json:"active"`
	LastHeartbeat  uint64       `json:"last_heartbeat"`
	RegisteredTick uint64       `json:"registered_tick"`
	TotalRewards   uint64       `json:"total_rewards"`
	Buffered       uint64       `json:"buffered"`
	Facility       FacilityView `json:"facility"`
	Shield         ShieldView   `json:"shield"`
	Rigs           []RigView    `json:"rigs"`
}

type FacilityView struct {
	Level        int `json:"level"`
	Condition    int `json:"condition"`
	MaxCondition int `json:"max_condition"`
	Slots        int `json:"slots"`
	PowerOutput  int `json:"power_output"`
	ShelterPct   int `json:"shelter_pct"`
}

type ShieldView struct {
	Tier      int  `json:"tier"`
	Charges   int  `json:"charges"`
	Active    bool `json:"active"`
	AbsorbPct int  `json:"absorb_pct"`
}

type RigView struct {
	ID            string `json:"id"`
	Tier          int    `json:"tier"`
	Name          string `json:"name"`
	Durability    int    `json:"durability"`
	MaxDurability int    `json:"max_durability"`
	Active        bool   `json:"active"`
	ListingID     string `json:"listing_id,omitempty"`
}

type HeartbeatView struct {
	AgentID      string `json:"agent_id"`
	Tick         uint64 `json:"tick"`
	RewardNet    uint64 `json:"reward_net"`
	RewardBurned uint64 `json:"reward_burned"`
	Hashrate     uint64 `json:"hashrate"`
	Active       bool   `json:"active"`
}

type MiningStatusView struct {
	AgentID       string `json:"agent_id"`
	Hashrate      uint64 `json:"hashrate"`
	TotalHashrate uint64 `json:"total_hashrate"`
	ShareBps      uint64 `json:"share_bps"`
	EmissionRate  uint64 `json:"emission_rate"`
	LastHeartbeat uint64 `json:"last_heartbeat"`
	Buffered      uint64 `json:"buffered"`
	TotalRewards  uint64 `json:"total_rewards"`
	WarmupUntil   uint64 `json:"warmup_until"`
}

type SupplyView struct {
	Cap         uint64 `json:"cap"`
	Minted      uint64 `json:"minted"`
	Burned      uint64 `json:"burned"`
	Circulating uint64 `json:"circulating"`
	Treasury    uint64 `json:"treasury"`
}

type GameStateView struct {
	Tick          uint64     `json:"tick"`
	ActiveAgents  int        `json:"active_agents"`
	TotalAgents   int        `json:"total_agents"`
	GenesisPhase  int        `json:"genesis_phase"`
	Era           int        `json:"era"`
	EmissionRate  uint64     `json:"emission_rate"`
	TotalHashrate uint64     `json:"total_hashrate"`
	Supply        SupplyView `json:"supply"`
}

type ZoneCountView struct {
	Zone    int    `json:"zone"`
	Name    string `json:"name"`
	Members int    `json:"members"`
}

type EventView struct {
	ID          string `json:"id"`
	TemplateID  string `json:"template_id"`
	Title       string `json:"title"`
	Tier        int    `json:"tier"`
	BaseDamage  uint64 `json:"base_damage"`
	DamageKind  string `json:"damage_kind"`
	OriginZone  int    `json:"origin_zone"`
	ZoneMask    uint8  `json:"zone_mask"`
	TriggerTick uint64 `json:"trigger_tick"`
	Processed   bool   `json:"processed"`
	AgentsHit   int    `json:"agents_hit"`
}

type ListingView struct {
	ID          string `json:"id"`
	RigID       string `json:"rig_id"`
	Seller      string `json:"seller"`
	Price       uint64 `json:"price"`
	Status      string `json:"status"`
	CreatedTick uint64 `json:"created_tick"`
}

type SabotageView struct {
	Attacker string `json:"attacker"`
	Target   string `json:"target"`
	Action   string `json:"action"`
	Damage   int    `json:"damage"`
}

type IntelView struct {
	Target            string `json:"target"`
	Zone              int    `json:"zone"`
	Hashrate          uint64 `json:"hashrate"`
	FacilityLevel     int    `json:"facility_level"`
	FacilityCondition int    `json:"facility_condition"`
	ShelterPct        int    `json:"shelter_pct"`
	ShieldActive      bool   `json:"shield_active"`
	ShieldTier        int    `json:"shield_tier"`
	ActiveRigs        int    `json:"active_rigs"`
}

func (c *Colony) GetAgent(agentID string) (AgentView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a := c.agents[agentID]
	if a == nil {
		return AgentView{}, errf(protocol.ErrNotFound, "agent %s", agentID)
	}
	return c.agentViewLocked(a), nil
}

func (c *Colony) GetMiningStatus(agentID string) (MiningStatusView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a := c.agents[agentID]
	if a == nil {
		return MiningStatusView{}, errf(protocol.ErrNotFound, "agent %s", agentID)
	}
	var share uint64
	if c.totalHashrate > 0 {
		share = a.Hashrate * 10000 / c.totalHashrate
	}
	return MiningStatusView{
		AgentID:       a.ID,
		Hashrate:      a.Hashrate,
		TotalHashrate: c.totalHashrate,
		ShareBps:      share,
		EmissionRate:  c.emissionRateLocked(),
		LastHeartbeat: a.LastHeartbeat,
		Buffered:      a.Buffered,
		TotalRewards:  a.TotalRewards,
		WarmupUntil:   a.RegisteredTick + c.cfg.FirstMineDelayTicks,
	}, nil
}

func (c *Colony) GetGameState() GameStateView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return GameStateView{
		Tick:          c.tick,
		ActiveAgents:  c.activeCount,
		TotalAgents:   len(c.agents),
		GenesisPhase:  c.genesisPhaseLocked(),
		Era:           c.cats.Eras.EraAt(c.tick).Era,
		EmissionRate:  c.emissionRateLocked(),
		TotalHashrate: c.totalHashrate,
		Supply:        c.supplyViewLocked(),
	}
}

func (c *Colony) GetSupplyMetrics() SupplyView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.supplyViewLocked()
}

func (c *Colony) GetZoneCounts() []ZoneCountView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ZoneCountView, 0, len(c.zoneMembers))
	for z := range c.zoneMembers {
		out = append(out, ZoneCountView{
			Zone:    z,
			Name:    c.cats.Zones.Zones[z].Name,
			Members: len(c.zoneMembers[z]),
		})
	}
	return out
}

func (c *Colony) GetEvent(eventID string) (EventView, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ev := c.events[eventID]
	if ev == nil {
		return EventView{}, errf(protocol.ErrNotFound, "event %s", eventID)
	}
	return c.eventViewLocked(ev), nil
}

// OperatorBalance is a read helper for the façade and tests.
func (c *Colony) OperatorBalance(operator string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Balance(operator)
}

func (c *Colony) supplyViewLocked() SupplyView {
	return SupplyView{
		Cap:         c.ledger.Cap(),
		Minted:      c.ledger.Minted(),
		Burned:      c.ledger.Burned(),
		Circulating: c.ledger.Circulating(),
		Treasury:    c.ledger.Treasury(),
	}
}

func (c *Colony) agentViewLocked(a *Agent) AgentView {
	facDef := c.facilityDef(a.Facility.Level)
	slots, power := c.facilityBudgetLocked(a)
	v := AgentView{
		ID:             a.ID,
		Operator:       a.Operator,
		Zone:           a.Zone,
		PioneerPhase:   a.PioneerPhase,
		ResilienceBps:  a.ResilienceBps,
		Hashrate:       a.Hashrate,
		Active:         a.Active,
		LastHeartbeat:  a.LastHeartbeat,
		RegisteredTick: a.RegisteredTick,
		TotalRewards:   a.TotalRewards,
		Buffered:       a.Buffered,
		Facility: FacilityView{
			Level:        a.Facility.Level,
			Condition:    a.Facility.Condition,
			MaxCondition: facDef.MaxCondition,
			Slots:        slots,
			PowerOutput:  power,
			ShelterPct:   c.facilityShelterLocked(a),
		},
	}
	v.Shield = ShieldView{Tier: a.Shield.Tier, Charges: a.Shield.Charges, Active: a.Shield.Active}
	if a.Shield.Active {
		v.Shield.AbsorbPct = c.shieldAbsorbLocked(a)
	}
	for _, id := range a.RigIDs {
		if r := c.rigs[id]; r != nil {
			v.Rigs = append(v.Rigs, c.rigViewLocked(r))
		}
	}
	return v
}

func (c *Colony) rigViewLocked(r *Rig) RigView {
	def := c.rigDef(r.Tier)
	return RigView{
		ID:            r.ID,
		Tier:          r.Tier,
		Name:          def.Name,
		Durability:    r.Durability,
		MaxDurability: def.MaxDurability,
		Active:        r.Active,
		ListingID:     r.ListingID,
	}
}

func (c *Colony) eventViewLocked(ev *CosmicEvent) EventView {
	title := ""
	if tpl, ok := c.cats.Events.ByID[ev.TemplateID]; ok {
		title = tpl.Title
	}
	return EventView{
		ID:          ev.ID,
		TemplateID:  ev.TemplateID,
		Title:       title,
		Tier:        ev.Tier,
		BaseDamage:  ev.BaseDamage,
		DamageKind:  ev.DamageKind,
		OriginZone:  ev.OriginZone,
		ZoneMask:    ev.ZoneMask,
		TriggerTick: ev.TriggerTick,
		Processed:   ev.Processed,
		AgentsHit:   ev.AgentsHit,
	}
}

func (c *Colony) listingViewLocked(l *Listing) ListingView {
	return ListingView{
		ID:          l.ID,
		RigID:       l.RigID,
		Seller:      l.Seller,
		Price:       l.Price,
		Status:      l.Status,
		CreatedTick: l.CreatedTick,
	}
}
