package colony

import (
	"fmt"
	"sync"

	"lodegrid.ai/internal/protocol"
	"lodegrid.ai/internal/sim/catalogs"
)

// Colony is the single-writer simulation state machine. Every mutating
// operation takes the write lock and either commits fully or fails with a
// typed *protocol.SimError before any state change. The logical tick is
// supplied by the driver through AdvanceTo; the colony never advances it.
type Colony struct {
	mu sync.RWMutex

	cfg  ColonyConfig
	cats *catalogs.Catalogs

	tick uint64

	ledger Ledger

	agents      map[string]*Agent
	byOperator  map[string]string
	byStableID  map[string]string
	activeCount int

	rigs     map[string]*Rig
	events   map[string]*CosmicEvent
	listings map[string]*Listing

	zoneMembers [8]map[string]struct{}

	// Denominator of every reward share. Must always equal the sum of all
	// agents' cached hashrates.
	totalHashrate uint64

	lastEventTick uint64
	eventCount    uint64

	sabotageLast map[string]uint64 // "attacker|target" -> last raid/jam tick
	migrateLast  map[string]uint64

	nextAgent   uint64
	nextRig     uint64
	nextEvent   uint64
	nextListing uint64

	cmdsThisTick int

	audit AuditSink
}

func New(cfg ColonyConfig, cats *catalogs.Catalogs) (*Colony, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	cfg.applyDefaults()

	c := &Colony{
		cfg:          cfg,
		cats:         cats,
		agents:       map[string]*Agent{},
		byOperator:   map[string]string{},
		byStableID:   map[string]string{},
		rigs:         map[string]*Rig{},
		events:       map[string]*CosmicEvent{},
		listings:     map[string]*Listing{},
		sabotageLast: map[string]uint64{},
		migrateLast:  map[string]uint64{},
	}
	c.ledger = NewLedger(cfg.HardCap)
	for z := range c.zoneMembers {
		c.zoneMembers[z] = map[string]struct{}{}
	}
	return c, nil
}

// SetAuditSink attaches the audit logger. Audit writes are best-effort and
// never fail a command.
func (c *Colony) SetAuditSink(s AuditSink) {
	c.mu.Lock()
	c.audit = s
	c.mu.Unlock()
}

// Tick returns the current logical tick.
func (c *Colony) Tick() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick
}

// AdvanceTo closes the current tick and moves the clock forward. It returns
// the log entry for the tick being closed. Moving backwards is ignored.
func (c *Colony) AdvanceTo(tick uint64) TickLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := TickLogEntry{
		Tick:     c.tick,
		Digest:   c.stateDigestLocked(),
		Commands: c.cmdsThisTick,
	}
	if tick > c.tick {
		c.tick = tick
	}
	c.cmdsThisTick = 0
	return entry
}

func (c *Colony) nextID(prefix string, n *uint64) string {
	*n++
	return fmt.Sprintf("%s%d", prefix, *n)
}

// phaseForCount maps an active-agent count to a phase 1..5 using the four
// declining thresholds. Used both for genesis (population) phase and for the
// pioneer phase fixed at registration.
func (c *Colony) phaseForCount(n int) int {
	for i, th := range c.cfg.PhaseThresholds {
		if n < th {
			return i + 1
		}
	}
	return 5
}

func (c *Colony) genesisPhaseLocked() int {
	return c.phaseForCount(c.activeCount)
}

// maxRigTierForPhase gates purchasable equipment tiers by population phase.
func maxRigTierForPhase(phase int) int {
	switch {
	case phase <= 1:
		return 1
	case phase == 2:
		return 3
	default:
		return 4
	}
}

// severityCapForPhase caps cosmic event severity while the population is
// small.
func severityCapForPhase(phase int) int {
	switch {
	case phase <= 2:
		return 1
	case phase == 3:
		return 2
	default:
		return 3
	}
}

func errf(code, format string, args ...any) *protocol.SimError {
	return &protocol.SimError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
