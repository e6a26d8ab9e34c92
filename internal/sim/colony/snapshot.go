package colony

import (
	"fmt"

	"lodegrid.ai/internal/persistence/snapshot"
	"lodegrid.ai/internal/sim/catalogs"
)

// ExportSnapshot captures the full state for persistence.
func (c *Colony) ExportSnapshot() snapshot.SnapshotV1 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, GridID: c.cfg.ID, Tick: c.tick},

		Seed:   c.cfg.Seed,
		Config: exportConfig(c.cfg),

		Minted:   c.ledger.Minted(),
		Burned:   c.ledger.Burned(),
		Treasury: c.ledger.Treasury(),

		Balances: map[string]uint64{},

		SabotageLast: map[string]uint64{},
		MigrateLast:  map[string]uint64{},

		LastEventTick: c.lastEventTick,
		EventCount:    c.eventCount,

		Counters: snapshot.CountersV1{
			NextAgent:   c.nextAgent,
			NextRig:     c.nextRig,
			NextEvent:   c.nextEvent,
			NextListing: c.nextListing,
		},
	}

	for op, bal := range c.ledger.balances {
		snap.Balances[op] = bal
	}
	for k, v := range c.sabotageLast {
		snap.SabotageLast[k] = v
	}
	for k, v := range c.migrateLast {
		snap.MigrateLast[k] = v
	}

	for _, a := range c.agents {
		snap.Agents = append(snap.Agents, snapshot.AgentV1{
			ID:             a.ID,
			Operator:       a.Operator,
			StableID:       a.StableID,
			Zone:           a.Zone,
			PioneerPhase:   a.PioneerPhase,
			ResilienceBps:  a.ResilienceBps,
			Hashrate:       a.Hashrate,
			LastHeartbeat:  a.LastHeartbeat,
			RegisteredTick: a.RegisteredTick,
			TotalRewards:   a.TotalRewards,
			Buffered:       a.Buffered,
			Active:         a.Active,
			FacilityLevel:  a.Facility.Level,
			FacilityCond:   a.Facility.Condition,
			ShieldTier:     a.Shield.Tier,
			ShieldCharges:  a.Shield.Charges,
			ShieldActive:   a.Shield.Active,
			RigIDs:         append([]string(nil), a.RigIDs...),
		})
	}
	for _, r := range c.rigs {
		snap.Rigs = append(snap.Rigs, snapshot.RigV1{
			ID:         r.ID,
			AgentID:    r.AgentID,
			Tier:       r.Tier,
			Durability: r.Durability,
			Active:     r.Active,
			Granted:    r.Granted,
			ListingID:  r.ListingID,
		})
	}
	for _, ev := range c.events {
		snap.Events = append(snap.Events, snapshot.EventV1{
			ID:          ev.ID,
			TemplateID:  ev.TemplateID,
			Tier:        ev.Tier,
			BaseDamage:  ev.BaseDamage,
			DamageKind:  ev.DamageKind,
			OriginZone:  ev.OriginZone,
			ZoneMask:    ev.ZoneMask,
			TriggerTick: ev.TriggerTick,
			Processed:   ev.Processed,
			AgentsHit:   ev.AgentsHit,
		})
	}
	for _, l := range c.listings {
		snap.Listings = append(snap.Listings, snapshot.ListingV1{
			ID:          l.ID,
			RigID:       l.RigID,
			Seller:      l.Seller,
			Price:       l.Price,
			Status:      l.Status,
			CreatedTick: l.CreatedTick,
		})
	}
	return snap
}

// exportConfig and importConfig translate the colony's effective rule set to
// and from the persisted form, field for field.
func exportConfig(cfg ColonyConfig) snapshot.ConfigV1 {
	return snapshot.ConfigV1{
		TicksPerDay:            cfg.TicksPerDay,
		HardCap:                cfg.HardCap,
		PerAgentDailyTarget:    cfg.PerAgentDailyTarget,
		HalvingEpochTicks:      cfg.HalvingEpochTicks,
		GenesisThreshold:       cfg.GenesisThreshold,
		BurnOnEarnPct:          cfg.BurnOnEarnPct,
		PurchaseBurnPct:        cfg.PurchaseBurnPct,
		SabotageBurnPct:        cfg.SabotageBurnPct,
		MarketBurnPct:          cfg.MarketBurnPct,
		MaxWearWindow:          cfg.MaxWearWindow,
		FirstMineDelayTicks:    cfg.FirstMineDelayTicks,
		FacilityWearRate:       cfg.FacilityWearRate,
		HeartbeatIntervalTicks: cfg.HeartbeatIntervalTicks,
		HeartbeatTimeoutCount:  cfg.HeartbeatTimeoutCount,
		RepairPctOfCost:        cfg.RepairPctOfCost,
		RepairMinCost:          cfg.RepairMinCost,
		MigrationFee:           cfg.MigrationFee,
		MigrationCooldownTicks: cfg.MigrationCooldownTicks,
		RaidCost:               cfg.RaidCost,
		RaidPct:                cfg.RaidPct,
		JamCost:                cfg.JamCost,
		JamPct:                 cfg.JamPct,
		IntelCost:              cfg.IntelCost,
		MinListingPrice:        cfg.MinListingPrice,
		PhaseThresholds:        cfg.PhaseThresholds,
		PioneerBonusBps:        cfg.PioneerBonusBps,
		ResilienceBps:          cfg.ResilienceBps,
	}
}

func importConfig(gridID string, seed int64, v snapshot.ConfigV1) ColonyConfig {
	return ColonyConfig{
		ID:                     gridID,
		Seed:                   seed,
		TicksPerDay:            v.TicksPerDay,
		HardCap:                v.HardCap,
		PerAgentDailyTarget:    v.PerAgentDailyTarget,
		HalvingEpochTicks:      v.HalvingEpochTicks,
		GenesisThreshold:       v.GenesisThreshold,
		BurnOnEarnPct:          v.BurnOnEarnPct,
		PurchaseBurnPct:        v.PurchaseBurnPct,
		SabotageBurnPct:        v.SabotageBurnPct,
		MarketBurnPct:          v.MarketBurnPct,
		MaxWearWindow:          v.MaxWearWindow,
		FirstMineDelayTicks:    v.FirstMineDelayTicks,
		FacilityWearRate:       v.FacilityWearRate,
		HeartbeatIntervalTicks: v.HeartbeatIntervalTicks,
		HeartbeatTimeoutCount:  v.HeartbeatTimeoutCount,
		RepairPctOfCost:        v.RepairPctOfCost,
		RepairMinCost:          v.RepairMinCost,
		MigrationFee:           v.MigrationFee,
		MigrationCooldownTicks: v.MigrationCooldownTicks,
		RaidCost:               v.RaidCost,
		RaidPct:                v.RaidPct,
		JamCost:                v.JamCost,
		JamPct:                 v.JamPct,
		IntelCost:              v.IntelCost,
		MinListingPrice:        v.MinListingPrice,
		PhaseThresholds:        v.PhaseThresholds,
		PioneerBonusBps:        v.PioneerBonusBps,
		ResilienceBps:          v.ResilienceBps,
	}
}

// FromSnapshot rebuilds a colony from a snapshot. The catalogs must be the
// same ones the snapshotted colony ran with.
func FromSnapshot(snap snapshot.SnapshotV1, cats *catalogs.Catalogs) (*Colony, error) {
	if snap.Header.Version != 1 {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}

	c, err := New(importConfig(snap.Header.GridID, snap.Seed, snap.Config), cats)
	if err != nil {
		return nil, err
	}

	c.tick = snap.Header.Tick
	c.ledger.minted = snap.Minted
	c.ledger.burned = snap.Burned
	c.ledger.treasury = snap.Treasury
	for op, bal := range snap.Balances {
		c.ledger.balances[op] = bal
	}
	for k, v := range snap.SabotageLast {
		c.sabotageLast[k] = v
	}
	for k, v := range snap.MigrateLast {
		c.migrateLast[k] = v
	}
	c.lastEventTick = snap.LastEventTick
	c.eventCount = snap.EventCount
	c.nextAgent = snap.Counters.NextAgent
	c.nextRig = snap.Counters.NextRig
	c.nextEvent = snap.Counters.NextEvent
	c.nextListing = snap.Counters.NextListing

	for _, av := range snap.Agents {
		if av.Zone < 0 || av.Zone >= len(c.zoneMembers) {
			return nil, fmt.Errorf("agent %s: bad zone %d", av.ID, av.Zone)
		}
		a := &Agent{
			ID:             av.ID,
			Operator:       av.Operator,
			StableID:       av.StableID,
			Zone:           av.Zone,
			PioneerPhase:   av.PioneerPhase,
			ResilienceBps:  av.ResilienceBps,
			Hashrate:       av.Hashrate,
			LastHeartbeat:  av.LastHeartbeat,
			RegisteredTick: av.RegisteredTick,
			TotalRewards:   av.TotalRewards,
			Buffered:       av.Buffered,
			Active:         av.Active,
			Facility:       Facility{Level: av.FacilityLevel, Condition: av.FacilityCond},
			Shield:         Shield{Tier: av.ShieldTier, Charges: av.ShieldCharges, Active: av.ShieldActive},
			RigIDs:         append([]string(nil), av.RigIDs...),
		}
		c.agents[a.ID] = a
		c.byOperator[a.Operator] = a.ID
		c.byStableID[a.StableID] = a.ID
		c.zoneMembers[a.Zone][a.ID] = struct{}{}
		if a.Active {
			c.activeCount++
		}
		c.totalHashrate += a.Hashrate
	}
	for _, rv := range snap.Rigs {
		c.rigs[rv.ID] = &Rig{
			ID:         rv.ID,
			AgentID:    rv.AgentID,
			Tier:       rv.Tier,
			Durability: rv.Durability,
			Active:     rv.Active,
			Granted:    rv.Granted,
			ListingID:  rv.ListingID,
		}
	}
	for _, ev := range snap.Events {
		c.events[ev.ID] = &CosmicEvent{
			ID:          ev.ID,
			TemplateID:  ev.TemplateID,
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
	for _, lv := range snap.Listings {
		c.listings[lv.ID] = &Listing{
			ID:          lv.ID,
			RigID:       lv.RigID,
			Seller:      lv.Seller,
			Price:       lv.Price,
			Status:      lv.Status,
			CreatedTick: lv.CreatedTick,
		}
	}
	return c, nil
}
