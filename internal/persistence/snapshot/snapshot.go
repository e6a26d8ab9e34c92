package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	GridID  string `json:"grid_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 captures the full colony state plus the effective config, so a
// resumed colony replays identically.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed   int64    `json:"seed"`
	Config ConfigV1 `json:"config"`

	Minted   uint64 `json:"minted"`
	Burned   uint64 `json:"burned"`
	Treasury uint64 `json:"treasury"`

	Balances map[string]uint64 `json:"balances"`

	Agents   []AgentV1   `json:"agents"`
	Rigs     []RigV1     `json:"rigs"`
	Events   []EventV1   `json:"events"`
	Listings []ListingV1 `json:"listings"`

	SabotageLast map[string]uint64 `json:"sabotage_last,omitempty"`
	MigrateLast  map[string]uint64 `json:"migrate_last,omitempty"`

	LastEventTick uint64 `json:"last_event_tick"`
	EventCount    uint64 `json:"event_count"`

	Counters CountersV1 `json:"counters"`
}

// ConfigV1 carries every numeric rule the colony ran with. Restoring from
// the snapshot uses these values verbatim instead of re-applying defaults, so
// a grid tuned away from the defaults keeps its rules across a restart.
type ConfigV1 struct {
	TicksPerDay int `json:"ticks_per_day"`

	HardCap             uint64 `json:"hard_cap"`
	PerAgentDailyTarget uint64 `json:"per_agent_daily_target"`
	HalvingEpochTicks   uint64 `json:"halving_epoch_ticks"`
	GenesisThreshold    int    `json:"genesis_threshold"`

	BurnOnEarnPct   int `json:"burn_on_earn_pct"`
	PurchaseBurnPct int `json:"purchase_burn_pct"`
	SabotageBurnPct int `json:"sabotage_burn_pct"`
	MarketBurnPct   int `json:"market_burn_pct"`

	MaxWearWindow          uint64 `json:"max_wear_window"`
	FirstMineDelayTicks    uint64 `json:"first_mine_delay_ticks"`
	FacilityWearRate       int    `json:"facility_wear_rate"`
	HeartbeatIntervalTicks uint64 `json:"heartbeat_interval_ticks"`
	HeartbeatTimeoutCount  uint64 `json:"heartbeat_timeout_count"`

	RepairPctOfCost int    `json:"repair_pct_of_cost"`
	RepairMinCost   uint64 `json:"repair_min_cost"`

	MigrationFee           uint64 `json:"migration_fee"`
	MigrationCooldownTicks uint64 `json:"migration_cooldown_ticks"`

	RaidCost  uint64 `json:"raid_cost"`
	RaidPct   int    `json:"raid_pct"`
	JamCost   uint64 `json:"jam_cost"`
	JamPct    int    `json:"jam_pct"`
	IntelCost uint64 `json:"intel_cost"`

	MinListingPrice uint64 `json:"min_listing_price"`

	PhaseThresholds [4]int `json:"phase_thresholds"`
	PioneerBonusBps [6]int `json:"pioneer_bonus_bps"`
	ResilienceBps   [6]int `json:"resilience_bps"`
}

type CountersV1 struct {
	NextAgent   uint64 `json:"next_agent"`
	NextRig     uint64 `json:"next_rig"`
	NextEvent   uint64 `json:"next_event"`
	NextListing uint64 `json:"next_listing"`
}

type AgentV1 struct {
	ID             string   `json:"id"`
	Operator       string   `json:"operator"`
	StableID       string   `json:"stable_id"`
	Zone           int      `json:"zone"`
	PioneerPhase   int      `json:"pioneer_phase"`
	ResilienceBps  int      `json:"resilience_bps"`
	Hashrate       uint64   `json:"hashrate"`
	LastHeartbeat  uint64   `json:"last_heartbeat"`
	RegisteredTick uint64   `json:"registered_tick"`
	TotalRewards   uint64   `json:"total_rewards"`
	Buffered       uint64   `json:"buffered"`
	Active         bool     `json:"active"`
	FacilityLevel  int      `json:"facility_level"`
	FacilityCond   int      `json:"facility_cond"`
	ShieldTier     int      `json:"shield_tier"`
	ShieldCharges  int      `json:"shield_charges"`
	ShieldActive   bool     `json:"shield_active"`
	RigIDs         []string `json:"rig_ids"`
}

type RigV1 struct {
	ID         string `json:"id"`
	AgentID    string `json:"agent_id"`
	Tier       int    `json:"tier"`
	Durability int    `json:"durability"`
	Active     bool   `json:"active"`
	Granted    bool   `json:"granted"`
	ListingID  string `json:"listing_id,omitempty"`
}

type EventV1 struct {
	ID          string `json:"id"`
	TemplateID  string `json:"template_id"`
	Tier        int    `json:"tier"`
	BaseDamage  uint64 `json:"base_damage"`
	DamageKind  string `json:"damage_kind"`
	OriginZone  int    `json:"origin_zone"`
	ZoneMask    uint8  `json:"zone_mask"`
	TriggerTick uint64 `json:"trigger_tick"`
	Processed   bool   `json:"processed"`
	AgentsHit   int    `json:"agents_hit"`
}

type ListingV1 struct {
	ID          string `json:"id"`
	RigID       string `json:"rig_id"`
	Seller      string `json:"seller"`
	Price       uint64 `json:"price"`
	Status      string `json:"status"`
	CreatedTick uint64 `json:"created_tick"`
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1

	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot file in dir, or "" when none exist.
// Files are named snap-<tick>.bin.zst with a zero-padded tick, so the
// lexicographically greatest name is the newest.
func Latest(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasPrefix(n, "snap-") && strings.HasSuffix(n, ".bin.zst") {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}

// PathFor builds the canonical snapshot path for a tick.
func PathFor(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("snap-%012d.bin.zst", tick))
}
