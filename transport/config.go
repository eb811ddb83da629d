package transport

import "time"

// Config bundles the transport core's tunable and fixed parameters for
// display and socket construction. MTU is the only field callers
// meaningfully override; the RTO and pacer bounds are spec-mandated
// invariants surfaced here so a CLI's startup banner can report the
// resolved values without importing every subsystem's constants directly.
type Config struct {
	MTU int

	MinRTO       time.Duration
	MaxRTO       time.Duration
	MaxFrameRate int
}

// defaults fills MTU from DefaultMTU when unset and always pins the RTO and
// pacer bounds to their spec-mandated values; those are not configurable.
func (c *Config) defaults() {
	if c.MTU <= 0 {
		c.MTU = DefaultMTU
	}
	c.MinRTO = MinRTO
	c.MaxRTO = MaxRTO
	c.MaxFrameRate = MaxFrameRate
}

// NewConfig returns a Config with defaults applied.
func NewConfig() Config {
	var c Config
	c.defaults()
	return c
}
