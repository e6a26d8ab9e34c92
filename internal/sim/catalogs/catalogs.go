package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Damage kinds carried by event templates. BASIS_POINTS damage is applied
// as a fraction of each rig's max durability instead of absolute points.
const (
	DamageAbsolute    = "ABSOLUTE"
	DamageBasisPoints = "BASIS_POINTS"
)

type Catalogs struct {
	Rigs       RigCatalog
	Facilities FacilityCatalog
	Shields    ShieldCatalog
	Zones      ZoneCatalog
	Events     EventCatalog
	Eras       EraCatalog
}

type RigCatalog struct {
	ByTier []RigDef // index == tier
	Digest string
}

type RigDef struct {
	Tier          int    `json:"tier"`
	Name          string `json:"name"`
	BaseHashrate  uint64 `json:"base_hashrate"`
	PowerDraw     int    `json:"power_draw"`
	MaxDurability int    `json:"max_durability"`
	Cost          uint64 `json:"cost"`
	WearRate      int    `json:"wear_rate"` // durability points lost per tick while equipped
	EfficiencyBps int    `json:"efficiency_bps"`
}

type FacilityCatalog struct {
	ByLevel []FacilityDef // index == level-1
	Digest  string
}

type FacilityDef struct {
	Level        int    `json:"level"`
	Slots        int    `json:"slots"`
	PowerOutput  int    `json:"power_output"`
	ShelterPct   int    `json:"shelter_pct"`
	MaxCondition int    `json:"max_condition"`
	UpgradeCost  uint64 `json:"upgrade_cost"` // cost to advance to the next level (0 at cap)
	MaintainCost uint64 `json:"maintain_cost"`
}

type ShieldCatalog struct {
	ByTier map[int]ShieldDef
	Digest string
}

type ShieldDef struct {
	Tier      int    `json:"tier"`
	Name      string `json:"name"`
	AbsorbPct int    `json:"absorb_pct"`
	Charges   int    `json:"charges"`
	Cost      uint64 `json:"cost"`
}

type ZoneCatalog struct {
	Zones  []ZoneDef // index == zone id, always 8 entries
	Digest string
}

type ZoneDef struct {
	ID                int            `json:"id"`
	Name              string         `json:"name"`
	MiningModifierBps int            `json:"mining_modifier_bps"` // signed
	DamageMulBps      map[string]int `json:"damage_mul_bps"`      // keyed by event id
}

type EventCatalog struct {
	ByID   map[string]EventDef
	ByTier map[int][]EventDef // sorted by id for deterministic rolls
	Digest string
}

type EventDef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Tier       int    `json:"tier"`
	BaseDamage uint64 `json:"base_damage"`
	DamageKind string `json:"damage_kind"`
	ZoneMask   uint8  `json:"zone_mask"`
}

type EraCatalog struct {
	Eras   []EraDef // ascending StartTick, Eras[0].StartTick == 0
	Digest string
}

type EraDef struct {
	Era                   int          `json:"era"`
	StartTick             uint64       `json:"start_tick"`
	RewardMultiplierBps   int          `json:"reward_multiplier_bps"`
	EventCooldownTicks    uint64       `json:"event_cooldown_ticks"`
	SabotageCooldownTicks uint64       `json:"sabotage_cooldown_ticks"`
	SeverityWeights       []TierWeight `json:"severity_weights"`
}

type TierWeight struct {
	Tier   int `json:"tier"`
	Weight int `json:"weight"` // percent, weights of an era sum to 100
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadRigs(filepath.Join(configDir, "rigs.json"), &c.Rigs); err != nil {
		return nil, err
	}
	if err := loadFacilities(filepath.Join(configDir, "facilities.json"), &c.Facilities); err != nil {
		return nil, err
	}
	if err := loadShields(filepath.Join(configDir, "shields.json"), &c.Shields); err != nil {
		return nil, err
	}
	if err := loadZones(filepath.Join(configDir, "zones.json"), &c.Zones); err != nil {
		return nil, err
	}
	if err := loadEvents(filepath.Join(configDir, "events.json"), &c.Events); err != nil {
		return nil, err
	}
	if err := loadEras(filepath.Join(configDir, "eras.json"), &c.Eras); err != nil {
		return nil, err
	}

	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadRigs(path string, out *RigCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []RigDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("rigs.json: %w", err)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Tier < defs[j].Tier })
	for i, d := range defs {
		if d.Tier != i {
			return fmt.Errorf("rigs.json: tiers must be contiguous from 0, got %d at %d", d.Tier, i)
		}
		if d.BaseHashrate == 0 || d.MaxDurability <= 0 {
			return fmt.Errorf("rigs.json: tier %d: zero base_hashrate or max_durability", d.Tier)
		}
	}
	if len(defs) == 0 {
		return fmt.Errorf("rigs.json: empty")
	}
	out.ByTier = defs
	return nil
}

func loadFacilities(path string, out *FacilityCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []FacilityDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("facilities.json: %w", err)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Level < defs[j].Level })
	for i, d := range defs {
		if d.Level != i+1 {
			return fmt.Errorf("facilities.json: levels must be contiguous from 1, got %d at %d", d.Level, i)
		}
		if d.Slots <= 0 || d.PowerOutput <= 0 || d.MaxCondition <= 0 {
			return fmt.Errorf("facilities.json: level %d: non-positive slots/power/condition", d.Level)
		}
	}
	if len(defs) == 0 {
		return fmt.Errorf("facilities.json: empty")
	}
	out.ByLevel = defs
	return nil
}

func loadShields(path string, out *ShieldCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ShieldDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("shields.json: %w", err)
	}
	out.ByTier = map[int]ShieldDef{}
	for _, d := range defs {
		if d.Tier <= 0 {
			return fmt.Errorf("shields.json: tier must be >= 1")
		}
		if d.AbsorbPct <= 0 || d.AbsorbPct > 90 || d.Charges <= 0 {
			return fmt.Errorf("shields.json: tier %d: bad absorb/charges", d.Tier)
		}
		out.ByTier[d.Tier] = d
	}
	return nil
}

func loadZones(path string, out *ZoneCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []ZoneDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("zones.json: %w", err)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	if len(defs) != 8 {
		return fmt.Errorf("zones.json: want 8 zones, got %d", len(defs))
	}
	for i, d := range defs {
		if d.ID != i {
			return fmt.Errorf("zones.json: ids must be 0..7, got %d at %d", d.ID, i)
		}
	}
	out.Zones = defs
	return nil
}

func loadEvents(path string, out *EventCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []EventDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("events.json: %w", err)
	}
	out.ByID = map[string]EventDef{}
	out.ByTier = map[int][]EventDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("events.json: empty id")
		}
		if d.DamageKind != DamageAbsolute && d.DamageKind != DamageBasisPoints {
			return fmt.Errorf("events.json: %s: bad damage_kind %q", d.ID, d.DamageKind)
		}
		if d.ZoneMask == 0 {
			return fmt.Errorf("events.json: %s: empty zone_mask", d.ID)
		}
		out.ByID[d.ID] = d
		out.ByTier[d.Tier] = append(out.ByTier[d.Tier], d)
	}
	for tier := range out.ByTier {
		evs := out.ByTier[tier]
		sort.Slice(evs, func(i, j int) bool { return evs[i].ID < evs[j].ID })
		out.ByTier[tier] = evs
	}
	return nil
}

func loadEras(path string, out *EraCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []EraDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("eras.json: %w", err)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].StartTick < defs[j].StartTick })
	if len(defs) == 0 {
		return fmt.Errorf("eras.json: empty")
	}
	if defs[0].StartTick != 0 {
		return fmt.Errorf("eras.json: first era must start at tick 0")
	}
	for i := range defs {
		d := &defs[i]
		sort.Slice(d.SeverityWeights, func(a, b int) bool {
			return d.SeverityWeights[a].Tier < d.SeverityWeights[b].Tier
		})
		sum := 0
		for _, w := range d.SeverityWeights {
			sum += w.Weight
		}
		if sum != 100 {
			return fmt.Errorf("eras.json: era %d: severity weights sum %d, want 100", d.Era, sum)
		}
	}
	out.Eras = defs
	return nil
}

// EraAt selects the era config in effect for the elapsed tick count.
func (c *EraCatalog) EraAt(tick uint64) EraDef {
	cur := c.Eras[0]
	for _, e := range c.Eras[1:] {
		if tick >= e.StartTick {
			cur = e
		}
	}
	return cur
}
