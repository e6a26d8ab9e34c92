package colony

import (
	"lodegrid.ai/internal/protocol"
	"lodegrid.ai/internal/sim/catalogs"
)

type Rig struct {
	ID         string
	AgentID    string
	Tier       int
	Durability int
	Active     bool
	Granted    bool // starter rig, replaced for free if destroyed
	ListingID  string
}

func (c *Colony) rigDef(tier int) catalogs.RigDef {
	return c.cats.Rigs.ByTier[tier]
}

// mintRigLocked creates a rig at full durability for the agent. Equip is
// attempted only for granted starter rigs and silently skipped if the
// facility has no budget for it.
func (c *Colony) mintRigLocked(a *Agent, tier int, granted, tryEquip bool) *Rig {
	def := c.rigDef(tier)
	r := &Rig{
		ID:         c.nextID("RIG", &c.nextRig),
		AgentID:    a.ID,
		Tier:       tier,
		Durability: def.MaxDurability,
		Granted:    granted,
	}
	c.rigs[r.ID] = r
	a.RigIDs = append(a.RigIDs, r.ID)
	if tryEquip && c.equipBudgetOKLocked(a, def) {
		r.Active = true
	}
	return r
}

// applyWearLocked applies passive wear for the elapsed window, capped so a
// long absence cannot be gamed into one giant heartbeat.
func (c *Colony) applyWearLocked(a *Agent, elapsed uint64) {
	capped := elapsed
	if capped > c.cfg.MaxWearWindow {
		capped = c.cfg.MaxWearWindow
	}
	if capped == 0 {
		return
	}

	for _, id := range a.RigIDs {
		r := c.rigs[id]
		if r == nil || !r.Active {
			continue
		}
		wear := c.rigDef(r.Tier).WearRate * int(capped)
		if wear <= 0 {
			continue
		}
		r.Durability -= wear
		if r.Durability <= 0 {
			// Passive wear disables, it never destroys.
			r.Durability = 0
			r.Active = false
		}
	}

	a.Facility.Condition -= c.cfg.FacilityWearRate * int(capped)
	if a.Facility.Condition < 0 {
		a.Facility.Condition = 0
	}
}

// recomputeHashrateLocked rebuilds the agent's cached hashrate from owned
// equipment, pioneer bonus and zone modifier, and pushes the delta into the
// global total. Integer truncation happens at every step, in this order:
// quirk, durability fraction, efficiency, clamp, sum, pioneer, zone.
func (c *Colony) recomputeHashrateLocked(a *Agent) {
	if !a.Active {
		c.setAgentHashrateLocked(a, 0)
		return
	}

	activeRigs := 0
	for _, id := range a.RigIDs {
		if r := c.rigs[id]; r != nil && r.Active {
			activeRigs++
		}
	}

	var sum uint64
	for _, id := range a.RigIDs {
		r := c.rigs[id]
		if r == nil || !r.Active {
			continue
		}
		def := c.rigDef(r.Tier)

		quirkPct := uint64(100)
		switch {
		case r.Tier == 0 && activeRigs == 1:
			quirkPct = 150 // sympathy: the lone starter rig tries harder
		case r.Tier == 1 && a.Facility.Level <= 2:
			quirkPct = 110 // junkyard special thrives in a shack
		}

		h := def.BaseHashrate * quirkPct / 100
		h = h * uint64(r.Durability) / uint64(def.MaxDurability)
		h = h * uint64(10000+def.EfficiencyBps) / 10000
		if maxH := 10 * def.BaseHashrate; h > maxH {
			h = maxH
		}
		sum += h
	}

	sum = sum * uint64(10000+c.cfg.PioneerBonusBps[a.PioneerPhase]) / 10000

	mod := c.cats.Zones.Zones[a.Zone].MiningModifierBps
	v := int64(sum) * int64(10000+mod) / 10000
	if v < 0 {
		v = 0
	}
	c.setAgentHashrateLocked(a, uint64(v))
}

// PurchaseRig buys a new rig of the requested tier. The rig is minted
// inactive; equipping is a separate step.
func (c *Colony) PurchaseRig(operator, agentID string, tier int) (RigView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return RigView{}, serr
	}
	if tier < 0 || tier >= len(c.cats.Rigs.ByTier) {
		return RigView{}, errf(protocol.ErrInvalidTier, "tier %d", tier)
	}
	phase := c.genesisPhaseLocked()
	if tier > maxRigTierForPhase(phase) {
		return RigView{}, errf(protocol.ErrPhaseLocked, "tier %d locked at phase %d", tier, phase)
	}
	def := c.rigDef(tier)
	if err := c.spend(operator, def.Cost, c.cfg.PurchaseBurnPct); err != nil {
		return RigView{}, err
	}

	r := c.mintRigLocked(a, tier, false, false)
	c.auditLocked(a.ID, "PURCHASE_RIG", map[string]any{"rig": r.ID, "tier": tier, "cost": def.Cost})
	return c.rigViewLocked(r), nil
}

// EquipRig activates an owned rig within the facility's power and slot
// budgets and pushes the new cached hashrate.
func (c *Colony) EquipRig(operator, agentID, rigID string) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return AgentView{}, serr
	}
	r := c.rigs[rigID]
	if r == nil {
		return AgentView{}, errf(protocol.ErrNotFound, "rig %s", rigID)
	}
	if r.AgentID != a.ID {
		return AgentView{}, errf(protocol.ErrNotOwner, "rig %s", rigID)
	}
	if r.Active {
		return AgentView{}, errf(protocol.ErrAlreadyActive, "rig %s", rigID)
	}
	if r.ListingID != "" {
		return AgentView{}, errf(protocol.ErrAlreadyListed, "rig %s", rigID)
	}
	def := c.rigDef(r.Tier)
	if serr := c.checkEquipBudgetLocked(a, def); serr != nil {
		return AgentView{}, serr
	}

	r.Active = true
	c.recomputeHashrateLocked(a)
	return c.agentViewLocked(a), nil
}

func (c *Colony) UnequipRig(operator, agentID, rigID string) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return AgentView{}, serr
	}
	r := c.rigs[rigID]
	if r == nil || r.AgentID != a.ID {
		return AgentView{}, errf(protocol.ErrNotFound, "rig %s", rigID)
	}
	if !r.Active {
		return AgentView{}, errf(protocol.ErrNotActive, "rig %s", rigID)
	}

	r.Active = false
	c.recomputeHashrateLocked(a)
	return c.agentViewLocked(a), nil
}

// RepairRig restores durability to max for 30% of the tier's purchase cost
// (with a floor so the free tier is never repaired for nothing).
func (c *Colony) RepairRig(operator, agentID, rigID string) (RigView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return RigView{}, serr
	}
	r := c.rigs[rigID]
	if r == nil || r.AgentID != a.ID {
		return RigView{}, errf(protocol.ErrNotFound, "rig %s", rigID)
	}
	def := c.rigDef(r.Tier)
	if r.Durability >= def.MaxDurability {
		return RigView{}, errf(protocol.ErrAlreadyFull, "rig %s", rigID)
	}
	cost := def.Cost * uint64(c.cfg.RepairPctOfCost) / 100
	if cost < c.cfg.RepairMinCost {
		cost = c.cfg.RepairMinCost
	}
	if err := c.spend(operator, cost, c.cfg.PurchaseBurnPct); err != nil {
		return RigView{}, err
	}

	r.Durability = def.MaxDurability
	c.recomputeHashrateLocked(a)
	c.auditLocked(a.ID, "REPAIR_RIG", map[string]any{"rig": r.ID, "cost": cost})
	return c.rigViewLocked(r), nil
}

func (c *Colony) checkEquipBudgetLocked(a *Agent, def catalogs.RigDef) *protocol.SimError {
	slots, power := c.facilityBudgetLocked(a)
	used, draw := 0, 0
	for _, id := range a.RigIDs {
		r := c.rigs[id]
		if r == nil || !r.Active {
			continue
		}
		used++
		draw += c.rigDef(r.Tier).PowerDraw
	}
	if used >= slots {
		return errf(protocol.ErrNoSlotsAvailable, "%d/%d slots", used, slots)
	}
	if draw+def.PowerDraw > power {
		return errf(protocol.ErrPowerBudgetExceeded, "%d+%d > %d", draw, def.PowerDraw, power)
	}
	return nil
}

func (c *Colony) equipBudgetOKLocked(a *Agent, def catalogs.RigDef) bool {
	return c.checkEquipBudgetLocked(a, def) == nil
}

// applyRigDamageLocked applies an external hit. Unlike passive wear, a hit
// that reaches remaining durability destroys the rig outright; a destroyed
// starter rig is replaced with a fresh free one.
func (c *Colony) applyRigDamageLocked(a *Agent, r *Rig, points int) {
	if points < r.Durability {
		r.Durability -= points
		return
	}

	// Destroyed.
	if r.ListingID != "" {
		if l := c.listings[r.ListingID]; l != nil && l.Status == ListingActive {
			l.Status = ListingCancelled
		}
	}
	delete(c.rigs, r.ID)
	for i, id := range a.RigIDs {
		if id == r.ID {
			a.RigIDs = append(a.RigIDs[:i], a.RigIDs[i+1:]...)
			break
		}
	}
	if r.Granted {
		c.mintRigLocked(a, 0, true, true)
	}
	c.auditLocked(a.ID, "RIG_DESTROYED", map[string]any{"rig": r.ID, "tier": r.Tier})
}

// damagePoints resolves an event's damage against a rig: absolute durability
// points, or basis points of the rig's max durability.
func (c *Colony) damagePoints(kind string, amount uint64, def catalogs.RigDef) int {
	if kind == catalogs.DamageBasisPoints {
		return int(uint64(def.MaxDurability) * amount / 10000)
	}
	return int(amount)
}
