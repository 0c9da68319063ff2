package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World      WorldConfig      `toml:"world"`
	Simulation SimulationConfig `toml:"simulation"`
	Scripting  ScriptingConfig  `toml:"scripting"`
	Logging    LoggingConfig    `toml:"logging"`
}

type WorldConfig struct {
	Dimensions      int   `toml:"dimensions"` // used when the scenario leaves dims unset
	Seed            int64 `toml:"seed"`
	ParallelWorkers int   `toml:"parallel_workers"` // 0 or 1 = serial update
	Coalesce        bool  `toml:"coalesce"`         // merge proximity messages per recipient
}

type SimulationConfig struct {
	TickRate    time.Duration `toml:"tick_rate"` // 0 = run as fast as possible
	MaxTicks    uint64        `toml:"max_ticks"` // 0 = until interrupted
	Scenario    string        `toml:"scenario"`
	ReportEvery uint64        `toml:"report_every"` // log a summary every N ticks
}

type ScriptingConfig struct {
	Dir string `toml:"dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return defaults()
}

func (c *Config) validate() error {
	if c.World.Dimensions < 1 || c.World.Dimensions > 3 {
		return fmt.Errorf("world.dimensions %d not in [1,3]", c.World.Dimensions)
	}
	if c.World.ParallelWorkers < 0 {
		return fmt.Errorf("world.parallel_workers must not be negative")
	}
	if c.Simulation.TickRate < 0 {
		return fmt.Errorf("simulation.tick_rate must not be negative")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q: want console or json", c.Logging.Format)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		World: WorldConfig{
			Dimensions: 2,
			Seed:       1,
		},
		Simulation: SimulationConfig{
			TickRate:    50 * time.Millisecond,
			MaxTicks:    500,
			Scenario:    "scenarios/fireflies.yaml",
			ReportEvery: 50,
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
