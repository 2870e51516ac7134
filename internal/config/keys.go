package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// key describes one dot-notation setting for `tanklab config get/set`.
type key struct {
	get func(c *TanklabConfig) any
	set func(c *TanklabConfig, v string) error
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

var keys = map[string]key{
	"store.backend": {
		get: func(c *TanklabConfig) any { return c.Store.Backend },
		set: func(c *TanklabConfig, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "sqlite" && v != "memory" {
				return fmt.Errorf("invalid store backend: %s (valid: sqlite, memory)", v)
			}
			c.Store.Backend = v
			return nil
		},
	},
	"store.path": {
		get: func(c *TanklabConfig) any { return c.Store.Path },
		set: func(c *TanklabConfig, v string) error { c.Store.Path = v; return nil },
	},
	"simulation.noise_level": {
		get: func(c *TanklabConfig) any { return c.Simulation.NoiseLevel },
		set: func(c *TanklabConfig, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 1 {
				return fmt.Errorf("invalid noise level: %s (must be a number between 0 and 1)", v)
			}
			c.Simulation.NoiseLevel = f
			return nil
		},
	},
	"simulation.seed": {
		get: func(c *TanklabConfig) any { return c.Simulation.Seed },
		set: func(c *TanklabConfig, v string) error {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed: %s", v)
			}
			c.Simulation.Seed = n
			return nil
		},
	},
	"simulation.strict_bounds": {
		get: func(c *TanklabConfig) any { return c.Simulation.StrictBounds },
		set: func(c *TanklabConfig, v string) error { c.Simulation.StrictBounds = parseBool(v); return nil },
	},
	"logging.level": {
		get: func(c *TanklabConfig) any { return c.Logging.Level },
		set: func(c *TanklabConfig, v string) error {
			switch v {
			case "info", "debug", "trace":
				c.Logging.Level = v
				return nil
			}
			return fmt.Errorf("invalid log level: %s (valid: info, debug, trace)", v)
		},
	},
	"backup.dir": {
		get: func(c *TanklabConfig) any { return c.Backup.Dir },
		set: func(c *TanklabConfig, v string) error { c.Backup.Dir = v; return nil },
	},
	"backup.retention.max_count": {
		get: func(c *TanklabConfig) any { return c.Backup.Retention.MaxCount },
		set: func(c *TanklabConfig, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid max_count: %s (must be a non-negative integer)", v)
			}
			c.Backup.Retention.MaxCount = n
			return nil
		},
	},
	"backup.retention.max_age": {
		get: func(c *TanklabConfig) any { return c.Backup.Retention.MaxAge },
		set: func(c *TanklabConfig, v string) error { c.Backup.Retention.MaxAge = v; return nil },
	},
}

// Keys returns the supported dot-notation keys, sorted.
func Keys() []string {
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Get returns the value of a dot-notation key such as "simulation.seed".
func (c *TanklabConfig) Get(name string) (any, bool) {
	k, ok := keys[name]
	if !ok {
		return nil, false
	}
	return k.get(c), true
}

// Set parses value and assigns it to the dot-notation key.
func (c *TanklabConfig) Set(name, value string) error {
	k, ok := keys[name]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", name)
	}
	return k.set(c, value)
}
