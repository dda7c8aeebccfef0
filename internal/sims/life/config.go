package life

import (
	"strconv"

	"lifegraph/pkg/rules"
)

// Config controls the interactive Life simulation.
type Config struct {
	Width  int
	Height int

	Seed int64

	// Rule is a B/S string or a decimal rule index.
	Rule string
	// P is the initial alive probability used by Reset.
	P float64

	MaxNeighbors int
	Workers      int
}

// DefaultConfig returns Conway's Life on a 128x128 torus.
func DefaultConfig() Config {
	return Config{
		Width:        128,
		Height:       128,
		Seed:         1337,
		Rule:         "B3/S23",
		P:            0.5,
		MaxNeighbors: rules.MaxDegreeCeiling,
		Workers:      1,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Invalid values keep their defaults.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 3 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 3 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["max_neighbors"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 && parsed <= rules.MaxDegreeCeiling {
			c.MaxNeighbors = parsed
		}
	}
	if v, ok := cfg["rule"]; ok {
		if _, err := rules.Resolve(v, rules.Degree(8, c.MaxNeighbors)); err == nil {
			c.Rule = v
		}
	}
	if _, err := rules.Resolve(c.Rule, rules.Degree(8, c.MaxNeighbors)); err != nil {
		// the default rule does not fit a small clamp
		c.MaxNeighbors = DefaultConfig().MaxNeighbors
	}
	if v, ok := cfg["p"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.P = parsed
		}
	}
	if v, ok := cfg["workers"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Workers = parsed
		}
	}
	return c
}
