package colony

import (
	"crypto/sha256"
	"encoding/binary"

	"lodegrid.ai/internal/protocol"
)

// CosmicEvent is immutable once processed: Pending -> Processed, one way.
type CosmicEvent struct {
	ID          string
	TemplateID  string
	Tier        int
	BaseDamage  uint64
	DamageKind  string
	OriginZone  int
	ZoneMask    uint8
	TriggerTick uint64
	Processed   bool
	AgentsHit   int
}

// roll derives a deterministic pseudo-random value from the colony seed, the
// tick and a salt. Same inputs, same outcome: replays reproduce every event.
func (c *Colony) roll(tick uint64, salt string) uint64 {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(c.cfg.Seed))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], tick)
	h.Write(buf[:])
	h.Write([]byte(salt))
	return binary.BigEndian.Uint64(h.Sum(nil)[:8])
}

// TriggerEvent rolls a new pending cosmic event: severity from era weights,
// capped by genesis phase; one of the tier's templates; a random origin zone.
func (c *Colony) TriggerEvent() (EventView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	phase := c.genesisPhaseLocked()
	if phase < 2 {
		return EventView{}, errf(protocol.ErrEventsDisabled, "phase %d", phase)
	}
	era := c.cats.Eras.EraAt(c.tick)
	if c.eventCount > 0 && c.tick < c.lastEventTick+era.EventCooldownTicks {
		return EventView{}, errf(protocol.ErrCooldown, "next event at tick %d", c.lastEventTick+era.EventCooldownTicks)
	}

	tier := 1
	sev := int(c.roll(c.tick, "event_severity") % 100)
	acc := 0
	for _, w := range era.SeverityWeights {
		acc += w.Weight
		if sev < acc {
			tier = w.Tier
			break
		}
	}
	if maxTier := severityCapForPhase(phase); tier > maxTier {
		tier = maxTier
	}

	templates := c.cats.Events.ByTier[tier]
	if len(templates) == 0 {
		return EventView{}, errf(protocol.ErrInternal, "no templates for tier %d", tier)
	}
	tpl := templates[c.roll(c.tick, "event_type")%uint64(len(templates))]

	ev := &CosmicEvent{
		ID:          c.nextID("EV", &c.nextEvent),
		TemplateID:  tpl.ID,
		Tier:        tpl.Tier,
		BaseDamage:  tpl.BaseDamage,
		DamageKind:  tpl.DamageKind,
		OriginZone:  int(c.roll(c.tick, "event_origin") % 8),
		ZoneMask:    tpl.ZoneMask,
		TriggerTick: c.tick,
	}
	c.events[ev.ID] = ev
	c.lastEventTick = c.tick
	c.eventCount++

	c.auditLocked("", "TRIGGER_EVENT", map[string]any{
		"event": ev.ID, "template": tpl.ID, "tier": tpl.Tier, "mask": tpl.ZoneMask,
	})
	return c.eventViewLocked(ev), nil
}

// ProcessEvent applies zone-scoped damage to every active agent in the
// event's zone mask. Each hit agent loses one shield charge even when the
// damage was absorbed to zero.
func (c *Colony) ProcessEvent(eventID string) (EventView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmdsThisTick++

	ev := c.events[eventID]
	if ev == nil {
		return EventView{}, errf(protocol.ErrNotFound, "event %s", eventID)
	}
	if ev.Processed {
		return EventView{}, errf(protocol.ErrAlreadyProcessed, "event %s", eventID)
	}

	for zone := 0; zone < 8; zone++ {
		if ev.ZoneMask&(1<<zone) == 0 {
			continue
		}
		zoneMul := uint64(10000)
		if m, ok := c.cats.Zones.Zones[zone].DamageMulBps[ev.TemplateID]; ok {
			zoneMul = uint64(m)
		}
		for _, id := range c.zoneMemberIDsLocked(zone) {
			a := c.agents[id]
			if a == nil || !a.Active {
				continue
			}

			reduction := c.facilityShelterLocked(a) + c.shieldAbsorbLocked(a)
			if reduction > 90 {
				reduction = 90
			}
			res := a.ResilienceBps
			if res > 10000 {
				res = 10000
			}

			dmg := ev.BaseDamage * zoneMul / 10000
			dmg = dmg * uint64(100-reduction) / 100
			dmg = dmg * uint64(10000-res) / 10000

			for _, rid := range append([]string(nil), a.RigIDs...) {
				r := c.rigs[rid]
				if r == nil || !r.Active {
					continue
				}
				c.applyRigDamageLocked(a, r, c.damagePoints(ev.DamageKind, dmg, c.rigDef(r.Tier)))
			}
			c.consumeShieldChargeLocked(a)
			c.recomputeHashrateLocked(a)
			ev.AgentsHit++
		}
	}

	ev.Processed = true
	c.auditLocked("", "PROCESS_EVENT", map[string]any{"event": ev.ID, "agents_hit": ev.AgentsHit})
	return c.eventViewLocked(ev), nil
}
