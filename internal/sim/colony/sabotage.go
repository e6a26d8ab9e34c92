package colony

import "lodegrid.ai/internal/protocol"

// Sabotage: paid agent-vs-agent actions. Cost is paid in full up front, 80%
// burned, 20% to treasury. Raid and jam share a per-pair cooldown; intel is
// informational and has none.

func (c *Colony) sabotageCommonLocked(operator, attackerID, targetID string) (attacker, target *Agent, serr *protocol.SimError) {
	if attackerID == targetID {
		return nil, nil, errf(protocol.ErrSelfAttack, "agent %s", attackerID)
	}
	attacker, serr = c.agentByOperatorLocked(operator, attackerID)
	if serr != nil {
		return nil, nil, serr
	}
	target = c.agents[targetID]
	if target == nil {
		return nil, nil, errf(protocol.ErrNotFound, "agent %s", targetID)
	}
	if !attacker.Active {
		return nil, nil, errf(protocol.ErrAttackerInactive, "agent %s", attackerID)
	}
	if !target.Active {
		return nil, nil, errf(protocol.ErrTargetInactive, "agent %s", targetID)
	}
	return attacker, target, nil
}

func (c *Colony) checkPairCooldownLocked(attackerID, targetID string) *protocol.SimError {
	cd := c.cats.Eras.EraAt(c.tick).SabotageCooldownTicks
	key := attackerID + "|" + targetID
	if last, ok := c.sabotageLast[key]; ok && c.tick-last < cd {
		return errf(protocol.ErrCooldown, "pair until tick %d", last+cd)
	}
	return nil
}

// FacilityRaid knocks a fixed fraction off the target's current facility
// condition. The facility cannot shelter itself; only an active shield
// reduces the hit.
func (c *Colony) FacilityRaid(operator, attackerID, targetID string) (SabotageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	attacker, target, serr := c.sabotageCommonLocked(operator, attackerID, targetID)
	if serr != nil {
		return SabotageView{}, serr
	}
	if serr := c.checkPairCooldownLocked(attackerID, targetID); serr != nil {
		return SabotageView{}, serr
	}
	if err := c.spend(operator, c.cfg.RaidCost, c.cfg.SabotageBurnPct); err != nil {
		return SabotageView{}, err
	}

	reduction := c.shieldAbsorbLocked(target)
	if reduction > 90 {
		reduction = 90
	}
	loss := target.Facility.Condition * c.cfg.RaidPct / 100
	loss = loss * (100 - reduction) / 100
	target.Facility.Condition -= loss
	c.consumeShieldChargeLocked(target)
	c.sabotageLast[attackerID+"|"+targetID] = c.tick

	c.auditLocked(attacker.ID, "FACILITY_RAID", map[string]any{"target": target.ID, "loss": loss})
	return SabotageView{Attacker: attacker.ID, Target: target.ID, Action: "FACILITY_RAID", Damage: loss}, nil
}

// RigJam damages the target's strongest active rig, reduced by the target's
// combined shelter and shield (capped at 90%).
func (c *Colony) RigJam(operator, attackerID, targetID string) (SabotageView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	attacker, target, serr := c.sabotageCommonLocked(operator, attackerID, targetID)
	if serr != nil {
		return SabotageView{}, serr
	}
	if serr := c.checkPairCooldownLocked(attackerID, targetID); serr != nil {
		return SabotageView{}, serr
	}

	var victim *Rig
	for _, id := range target.RigIDs {
		r := c.rigs[id]
		if r == nil || !r.Active {
			continue
		}
		if victim == nil || r.Tier > victim.Tier {
			victim = r
		}
	}
	if victim == nil {
		return SabotageView{}, errf(protocol.ErrTargetInactive, "no active rigs on %s", targetID)
	}
	if err := c.spend(operator, c.cfg.JamCost, c.cfg.SabotageBurnPct); err != nil {
		return SabotageView{}, err
	}

	reduction := c.facilityShelterLocked(target) + c.shieldAbsorbLocked(target)
	if reduction > 90 {
		reduction = 90
	}
	loss := victim.Durability * c.cfg.JamPct / 100
	loss = loss * (100 - reduction) / 100
	c.applyRigDamageLocked(target, victim, loss)
	c.consumeShieldChargeLocked(target)
	c.recomputeHashrateLocked(target)
	c.sabotageLast[attackerID+"|"+targetID] = c.tick

	c.auditLocked(attacker.ID, "RIG_JAM", map[string]any{"target": target.ID, "rig": victim.ID, "loss": loss})
	return SabotageView{Attacker: attacker.ID, Target: target.ID, Action: "RIG_JAM", Damage: loss}, nil
}

// GatherIntel buys a snapshot of the target's defensive posture. No
// cooldown, no damage.
func (c *Colony) GatherIntel(operator, attackerID, targetID string) (IntelView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	attacker, target, serr := c.sabotageCommonLocked(operator, attackerID, targetID)
	if serr != nil {
		return IntelView{}, serr
	}
	if err := c.spend(operator, c.cfg.IntelCost, c.cfg.SabotageBurnPct); err != nil {
		return IntelView{}, err
	}

	activeRigs := 0
	for _, id := range target.RigIDs {
		if r := c.rigs[id]; r != nil && r.Active {
			activeRigs++
		}
	}
	c.auditLocked(attacker.ID, "GATHER_INTEL", map[string]any{"target": target.ID})
	return IntelView{
		Target:            target.ID,
		Zone:              target.Zone,
		Hashrate:          target.Hashrate,
		FacilityLevel:     target.Facility.Level,
		FacilityCondition: target.Facility.Condition,
		ShelterPct:        c.facilityShelterLocked(target),
		ShieldActive:      target.Shield.Active,
		ShieldTier:        target.Shield.Tier,
		ActiveRigs:        activeRigs,
	}, nil
}
