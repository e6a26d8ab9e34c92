package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz  int `yaml:"tick_rate_hz"`
	TicksPerDay int `yaml:"ticks_per_day"`

	HeartbeatIntervalTicks  int `yaml:"heartbeat_interval_ticks"`
	HeartbeatTimeoutCount   int `yaml:"heartbeat_timeout_count"`
	LivenessSweepEveryTicks int `yaml:"liveness_sweep_every_ticks"`
	SnapshotEveryTicks      int `yaml:"snapshot_every_ticks"`
}

// Load reads tuning.yaml over the defaults: keys the file omits keep their
// default value. The result is validated so a broken file fails here instead
// of at first use.
func Load(path string) (Tuning, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, err
	}
	t := Defaults()
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tuning{}, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// validate rejects values the server cannot run with. The sweep and snapshot
// cadences may be zero: that disables them.
func (t Tuning) validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive, got %d", t.TickRateHz)
	}
	if t.TicksPerDay <= 0 {
		return fmt.Errorf("ticks_per_day must be positive, got %d", t.TicksPerDay)
	}
	if t.HeartbeatIntervalTicks <= 0 {
		return fmt.Errorf("heartbeat_interval_ticks must be positive, got %d", t.HeartbeatIntervalTicks)
	}
	if t.HeartbeatTimeoutCount <= 0 {
		return fmt.Errorf("heartbeat_timeout_count must be positive, got %d", t.HeartbeatTimeoutCount)
	}
	if t.LivenessSweepEveryTicks < 0 {
		return fmt.Errorf("liveness_sweep_every_ticks must not be negative, got %d", t.LivenessSweepEveryTicks)
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("snapshot_every_ticks must not be negative, got %d", t.SnapshotEveryTicks)
	}
	return nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:         "1.0",
		TickRateHz:              5,
		TicksPerDay:             6000,
		HeartbeatIntervalTicks:  300,
		HeartbeatTimeoutCount:   3,
		LivenessSweepEveryTicks: 100,
		SnapshotEveryTicks:      3000,
	}
}
