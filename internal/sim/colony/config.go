package colony

// ColonyConfig carries every numeric rule of the simulation. Values are
// captured in snapshots so a resumed colony replays identically.
type ColonyConfig struct {
	ID   string
	Seed int64

	TicksPerDay int

	// Supply.
	HardCap             uint64
	PerAgentDailyTarget uint64
	HalvingEpochTicks   uint64
	GenesisThreshold    int

	// Burn fractions (percent).
	BurnOnEarnPct   int
	PurchaseBurnPct int
	SabotageBurnPct int
	MarketBurnPct   int

	// Heartbeat / wear.
	MaxWearWindow          uint64
	FirstMineDelayTicks    uint64
	FacilityWearRate       int
	HeartbeatIntervalTicks uint64
	HeartbeatTimeoutCount  uint64

	// Repair.
	RepairPctOfCost int
	RepairMinCost   uint64

	// Zones.
	MigrationFee           uint64
	MigrationCooldownTicks uint64

	// Sabotage.
	RaidCost  uint64
	RaidPct   int
	JamCost   uint64
	JamPct    int
	IntelCost uint64

	// Marketplace.
	MinListingPrice uint64

	// Population thresholds for genesis/pioneer phases 1..4; counts at or
	// past the last threshold are phase 5.
	PhaseThresholds [4]int
	PioneerBonusBps [6]int // indexed by phase 1..5
	ResilienceBps   [6]int // indexed by phase 1..5
}

func (c *ColonyConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "grid_1"
	}
	if c.TicksPerDay <= 0 {
		c.TicksPerDay = 6000
	}
	if c.HardCap == 0 {
		c.HardCap = 1_000_000_000_000
	}
	if c.PerAgentDailyTarget == 0 {
		c.PerAgentDailyTarget = 600_000
	}
	if c.HalvingEpochTicks == 0 {
		c.HalvingEpochTicks = 4_200_000
	}
	if c.GenesisThreshold <= 0 {
		c.GenesisThreshold = 2500
	}
	if c.BurnOnEarnPct <= 0 {
		c.BurnOnEarnPct = 20
	}
	if c.PurchaseBurnPct <= 0 {
		c.PurchaseBurnPct = 75
	}
	if c.SabotageBurnPct <= 0 {
		c.SabotageBurnPct = 80
	}
	if c.MarketBurnPct <= 0 {
		c.MarketBurnPct = 10
	}
	if c.MaxWearWindow == 0 {
		c.MaxWearWindow = 500
	}
	if c.FirstMineDelayTicks == 0 {
		c.FirstMineDelayTicks = 100
	}
	if c.FacilityWearRate <= 0 {
		c.FacilityWearRate = 1
	}
	if c.HeartbeatIntervalTicks == 0 {
		c.HeartbeatIntervalTicks = 300
	}
	if c.HeartbeatTimeoutCount == 0 {
		c.HeartbeatTimeoutCount = 3
	}
	if c.RepairPctOfCost <= 0 {
		c.RepairPctOfCost = 30
	}
	if c.RepairMinCost == 0 {
		c.RepairMinCost = 300
	}
	if c.MigrationFee == 0 {
		c.MigrationFee = 1000
	}
	if c.MigrationCooldownTicks == 0 {
		c.MigrationCooldownTicks = 1000
	}
	if c.RaidCost == 0 {
		c.RaidCost = 5000
	}
	if c.RaidPct <= 0 {
		c.RaidPct = 20
	}
	if c.JamCost == 0 {
		c.JamCost = 3000
	}
	if c.JamPct <= 0 {
		c.JamPct = 15
	}
	if c.IntelCost == 0 {
		c.IntelCost = 500
	}
	if c.MinListingPrice == 0 {
		c.MinListingPrice = 100
	}
	if c.PhaseThresholds == [4]int{} {
		c.PhaseThresholds = [4]int{50, 250, 1000, 2500}
	}
	if c.PioneerBonusBps == [6]int{} {
		c.PioneerBonusBps = [6]int{0, 1000, 600, 300, 100, 0}
	}
	if c.ResilienceBps == [6]int{} {
		c.ResilienceBps = [6]int{0, 2000, 1200, 600, 300, 0}
	}
}
