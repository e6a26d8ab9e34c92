package protocol

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0"

const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCmd     = "CMD"
	TypeQuery   = "QUERY"
	TypeResult  = "RESULT"
	TypeError   = "ERROR"
)

// Command operation names. The core dispatches on these; the façade only
// validates shape.
const (
	OpRegister         = "REGISTER"
	OpHeartbeat        = "HEARTBEAT"
	OpClaim            = "CLAIM"
	OpPurchaseRig      = "PURCHASE_RIG"
	OpEquipRig         = "EQUIP_RIG"
	OpUnequipRig       = "UNEQUIP_RIG"
	OpRepairRig        = "REPAIR_RIG"
	OpUpgradeFacility  = "UPGRADE_FACILITY"
	OpMaintainFacility = "MAINTAIN_FACILITY"
	OpPurchaseShield   = "PURCHASE_SHIELD"
	OpActivateShield   = "ACTIVATE_SHIELD"
	OpMigrateZone      = "MIGRATE_ZONE"
	OpTriggerEvent     = "TRIGGER_EVENT"
	OpProcessEvent     = "PROCESS_EVENT"
	OpFacilityRaid     = "FACILITY_RAID"
	OpRigJam           = "RIG_JAM"
	OpGatherIntel      = "GATHER_INTEL"
	OpListRig          = "LIST_RIG"
	OpBuyRig           = "BUY_RIG"
	OpCancelListing    = "CANCEL_LISTING"
)

// Query operation names.
const (
	QAgent         = "GET_AGENT"
	QMiningStatus  = "GET_MINING_STATUS"
	QGameState     = "GET_GAME_STATE"
	QSupplyMetrics = "GET_SUPPLY_METRICS"
	QZoneCounts    = "GET_ZONE_COUNTS"
	QEvent         = "GET_EVENT"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Operator        string `json:"operator"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	Operator        string         `json:"operator"`
	GridParams      GridParams     `json:"grid_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type GridParams struct {
	TickRateHz  int    `json:"tick_rate_hz"`
	TicksPerDay int    `json:"ticks_per_day"`
	Seed        int64  `json:"seed"`
	GridID      string `json:"grid_id"`
}

type CatalogDigests struct {
	RigsDigest       string `json:"rigs_digest"`
	FacilitiesDigest string `json:"facilities_digest"`
	ShieldsDigest    string `json:"shields_digest"`
	ZonesDigest      string `json:"zones_digest"`
	EventsDigest     string `json:"events_digest"`
	ErasDigest       string `json:"eras_digest"`
}

// CMD (client -> server): one mutating operation. Fields beyond Op are
// op-specific; unused fields stay zero.
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`

	Operator  string `json:"operator,omitempty"`
	StableID  string `json:"stable_id,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
	RigID     string `json:"rig_id,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	ListingID string `json:"listing_id,omitempty"`
	Zone      int    `json:"zone,omitempty"`
	Tier      int    `json:"tier,omitempty"`
	Price     uint64 `json:"price,omitempty"`
}

// QUERY (client -> server): one read-only operation.
type QueryMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Op              string `json:"op"`

	AgentID string `json:"agent_id,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// RESULT (server -> client): outcome of a CMD or QUERY, matched by Ref.
type ResultMsg struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
	Tick uint64 `json:"tick"`
	OK   bool   `json:"ok"`
	Code string `json:"code,omitempty"`
	Msg  string `json:"msg,omitempty"`
	Data any    `json:"data,omitempty"`
}

type BaseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

func DecodeBase(raw []byte) (BaseMsg, error) {
	var b BaseMsg
	if err := json.Unmarshal(raw, &b); err != nil {
		return b, fmt.Errorf("decode base: %w", err)
	}
	if b.Type == "" {
		return b, fmt.Errorf("missing type")
	}
	return b, nil
}
