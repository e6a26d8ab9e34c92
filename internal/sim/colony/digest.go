package colony

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// stateDigestLocked produces a canonical hash of everything that matters for
// determinism. Two colonies fed the same commands at the same ticks must
// agree on every digest.
func (c *Colony) stateDigestLocked() string {
	type rigD struct {
		ID         string `json:"id"`
		Agent      string `json:"agent"`
		Tier       int    `json:"tier"`
		Durability int    `json:"dur"`
		Active     bool   `json:"active"`
		Listing    string `json:"listing,omitempty"`
	}
	type agentD struct {
		ID            string   `json:"id"`
		Zone          int      `json:"zone"`
		Phase         int      `json:"phase"`
		Hashrate      uint64   `json:"hashrate"`
		LastHeartbeat uint64   `json:"last_hb"`
		Rewards       uint64   `json:"rewards"`
		Buffered      uint64   `json:"buffered"`
		Active        bool     `json:"active"`
		FacLevel      int      `json:"fac_level"`
		FacCondition  int      `json:"fac_cond"`
		ShieldTier    int      `json:"shield_tier"`
		ShieldCharges int      `json:"shield_charges"`
		ShieldActive  bool     `json:"shield_active"`
		Rigs          []string `json:"rigs"`
	}
	type eventD struct {
		ID        string `json:"id"`
		Template  string `json:"template"`
		Trigger   uint64 `json:"trigger"`
		Processed bool   `json:"processed"`
		Hit       int    `json:"hit"`
	}
	type listingD struct {
		ID     string `json:"id"`
		Rig    string `json:"rig"`
		Seller string `json:"seller"`
		Price  uint64 `json:"price"`
		Status string `json:"status"`
	}
	type stateD struct {
		Tick          uint64     `json:"tick"`
		Minted        uint64     `json:"minted"`
		Burned        uint64     `json:"burned"`
		Treasury      uint64     `json:"treasury"`
		TotalHashrate uint64     `json:"total_hashrate"`
		ActiveCount   int        `json:"active_count"`
		LastEvent     uint64     `json:"last_event"`
		EventCount    uint64     `json:"event_count"`
		Balances      [][2]any   `json:"balances"`
		Agents        []agentD   `json:"agents"`
		Rigs          []rigD     `json:"rigs"`
		Events        []eventD   `json:"events"`
		Listings      []listingD `json:"listings"`
	}

	st := stateD{
		Tick:          c.tick,
		Minted:        c.ledger.Minted(),
		Burned:        c.ledger.Burned(),
		Treasury:      c.ledger.Treasury(),
		TotalHashrate: c.totalHashrate,
		ActiveCount:   c.activeCount,
		LastEvent:     c.lastEventTick,
		EventCount:    c.eventCount,
	}

	ops := make([]string, 0, len(c.ledger.balances))
	for op := range c.ledger.balances {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		st.Balances = append(st.Balances, [2]any{op, c.ledger.balances[op]})
	}

	agentIDs := make([]string, 0, len(c.agents))
	for id := range c.agents {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)
	for _, id := range agentIDs {
		a := c.agents[id]
		st.Agents = append(st.Agents, agentD{
			ID: a.ID, Zone: a.Zone, Phase: a.PioneerPhase,
			Hashrate: a.Hashrate, LastHeartbeat: a.LastHeartbeat,
			Rewards: a.TotalRewards, Buffered: a.Buffered, Active: a.Active,
			FacLevel: a.Facility.Level, FacCondition: a.Facility.Condition,
			ShieldTier: a.Shield.Tier, ShieldCharges: a.Shield.Charges,
			ShieldActive: a.Shield.Active,
			Rigs:         append([]string(nil), a.RigIDs...),
		})
	}

	rigIDs := make([]string, 0, len(c.rigs))
	for id := range c.rigs {
		rigIDs = append(rigIDs, id)
	}
	sort.Strings(rigIDs)
	for _, id := range rigIDs {
		r := c.rigs[id]
		st.Rigs = append(st.Rigs, rigD{
			ID: r.ID, Agent: r.AgentID, Tier: r.Tier,
			Durability: r.Durability, Active: r.Active, Listing: r.ListingID,
		})
	}

	eventIDs := make([]string, 0, len(c.events))
	for id := range c.events {
		eventIDs = append(eventIDs, id)
	}
	sort.Strings(eventIDs)
	for _, id := range eventIDs {
		ev := c.events[id]
		st.Events = append(st.Events, eventD{
			ID: ev.ID, Template: ev.TemplateID, Trigger: ev.TriggerTick,
			Processed: ev.Processed, Hit: ev.AgentsHit,
		})
	}

	listingIDs := make([]string, 0, len(c.listings))
	for id := range c.listings {
		listingIDs = append(listingIDs, id)
	}
	sort.Strings(listingIDs)
	for _, id := range listingIDs {
		l := c.listings[id]
		st.Listings = append(st.Listings, listingD{
			ID: l.ID, Rig: l.RigID, Seller: l.Seller, Price: l.Price, Status: l.Status,
		})
	}

	raw, _ := json.Marshal(st)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// StateDigest is the exported read-side digest used by replay verification.
func (c *Colony) StateDigest() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateDigestLocked()
}
