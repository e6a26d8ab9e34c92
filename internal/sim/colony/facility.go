package colony

import (
	"lodegrid.ai/internal/protocol"
	"lodegrid.ai/internal/sim/catalogs"
)

func (c *Colony) facilityDef(level int) catalogs.FacilityDef {
	return c.cats.Facilities.ByLevel[level-1]
}

// facilityBudgetLocked returns the slot count and the condition-scaled power
// output. Slots do not degrade; power does.
func (c *Colony) facilityBudgetLocked(a *Agent) (slots, power int) {
	def := c.facilityDef(a.Facility.Level)
	power = def.PowerOutput * a.Facility.Condition / def.MaxCondition
	return def.Slots, power
}

// facilityShelterLocked returns the condition-scaled shelter percentage.
func (c *Colony) facilityShelterLocked(a *Agent) int {
	def := c.facilityDef(a.Facility.Level)
	return def.ShelterPct * a.Facility.Condition / def.MaxCondition
}

// UpgradeFacility advances the facility one level (capped at the top level,
// which is also phase-gated) and resets condition to the new max.
func (c *Colony) UpgradeFacility(operator, agentID string) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return AgentView{}, serr
	}
	maxLevel := len(c.cats.Facilities.ByLevel)
	if a.Facility.Level >= maxLevel {
		return AgentView{}, errf(protocol.ErrAlreadyFull, "facility at level %d", a.Facility.Level)
	}
	next := a.Facility.Level + 1
	if next >= maxLevel && c.genesisPhaseLocked() < 3 {
		return AgentView{}, errf(protocol.ErrPhaseLocked, "level %d locked", next)
	}
	cost := c.facilityDef(a.Facility.Level).UpgradeCost
	if err := c.spend(operator, cost, c.cfg.PurchaseBurnPct); err != nil {
		return AgentView{}, err
	}

	a.Facility.Level = next
	a.Facility.Condition = c.facilityDef(next).MaxCondition
	// Level change can flip the junkyard quirk.
	c.recomputeHashrateLocked(a)

	c.auditLocked(a.ID, "UPGRADE_FACILITY", map[string]any{"level": next, "cost": cost})
	return c.agentViewLocked(a), nil
}

// MaintainFacility restores condition to max for a level-scaled cost.
func (c *Colony) MaintainFacility(operator, agentID string) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return AgentView{}, serr
	}
	def := c.facilityDef(a.Facility.Level)
	if a.Facility.Condition >= def.MaxCondition {
		return AgentView{}, errf(protocol.ErrAlreadyFull, "facility condition full")
	}
	if err := c.spend(operator, def.MaintainCost, c.cfg.PurchaseBurnPct); err != nil {
		return AgentView{}, err
	}

	a.Facility.Condition = def.MaxCondition
	c.auditLocked(a.ID, "MAINTAIN_FACILITY", map[string]any{"cost": def.MaintainCost})
	return c.agentViewLocked(a), nil
}
