package colony

// AuditEntry is one immutable record of a mutating action.
type AuditEntry struct {
	Tick    uint64         `json:"t"`
	Actor   string         `json:"actor,omitempty"`
	Action  string         `json:"action"`
	Details map[string]any `json:"details,omitempty"`
}

// TickLogEntry is written once per closed tick.
type TickLogEntry struct {
	Tick     uint64 `json:"tick"`
	Digest   string `json:"digest"`
	Commands int    `json:"commands"`
}

type AuditSink interface {
	WriteAudit(AuditEntry) error
}

func (c *Colony) auditLocked(actor, action string, details map[string]any) {
	if c.audit == nil {
		return
	}
	_ = c.audit.WriteAudit(AuditEntry{
		Tick:    c.tick,
		Actor:   actor,
		Action:  action,
		Details: details,
	})
}

// bestEffortLocked runs a heartbeat side effect and swallows its failure,
// emitting an audit record instead. A broken downstream subsystem must never
// block liveness tracking.
func (c *Colony) bestEffortLocked(agentID, step string, fn func() error) {
	if err := fn(); err != nil {
		c.auditLocked(agentID, "HEARTBEAT_DEGRADED", map[string]any{
			"step":  step,
			"error": err.Error(),
		})
	}
}
