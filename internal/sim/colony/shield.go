package colony

import "lodegrid.ai/internal/protocol"

// PurchaseShield buys damage absorption with finite charges. Shields unlock
// at genesis phase 2.
func (c *Colony) PurchaseShield(operator, agentID string, tier int) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return AgentView{}, serr
	}
	def, ok := c.cats.Shields.ByTier[tier]
	if !ok {
		return AgentView{}, errf(protocol.ErrInvalidTier, "shield tier %d", tier)
	}
	if phase := c.genesisPhaseLocked(); phase < 2 {
		return AgentView{}, errf(protocol.ErrPhaseLocked, "shields locked at phase %d", phase)
	}
	if a.Shield.Active && a.Shield.Charges > 0 {
		return AgentView{}, errf(protocol.ErrAlreadyActive, "shield with %d charges", a.Shield.Charges)
	}
	if err := c.spend(operator, def.Cost, c.cfg.PurchaseBurnPct); err != nil {
		return AgentView{}, err
	}

	a.Shield = Shield{Tier: tier, Charges: def.Charges}
	c.auditLocked(a.ID, "PURCHASE_SHIELD", map[string]any{"tier": tier, "cost": def.Cost})
	return c.agentViewLocked(a), nil
}

func (c *Colony) ActivateShield(operator, agentID string) (AgentView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	a, serr := c.agentByOperatorLocked(operator, agentID)
	if serr != nil {
		return AgentView{}, serr
	}
	if a.Shield.Tier == 0 {
		return AgentView{}, errf(protocol.ErrNotFound, "no shield owned")
	}
	if a.Shield.Charges == 0 {
		return AgentView{}, errf(protocol.ErrNotActive, "shield depleted")
	}
	if a.Shield.Active {
		return AgentView{}, errf(protocol.ErrAlreadyActive, "shield already active")
	}

	a.Shield.Active = true
	return c.agentViewLocked(a), nil
}

// shieldAbsorbLocked returns the active shield's absorption percent, or 0.
func (c *Colony) shieldAbsorbLocked(a *Agent) int {
	if !a.Shield.Active || a.Shield.Charges <= 0 {
		return 0
	}
	return c.cats.Shields.ByTier[a.Shield.Tier].AbsorbPct
}

// consumeShieldChargeLocked burns one charge after a hit, even when the hit
// was absorbed to zero. At zero charges the shield goes inactive.
func (c *Colony) consumeShieldChargeLocked(a *Agent) {
	if !a.Shield.Active || a.Shield.Charges <= 0 {
		return
	}
	a.Shield.Charges--
	if a.Shield.Charges == 0 {
		a.Shield.Active = false
	}
}
