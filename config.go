package topofuzz

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config holds the nemesis configuration. All fields are loadable from a
// TOML file; zero values are filled from DefaultConfig.
type Config struct {
	// Nodes is the full candidate node universe. The first InitialNodes
	// entries seed the initial topology; the rest are add-node candidates.
	Nodes        []string `toml:"nodes"`
	InitialNodes int      `toml:"initial_nodes"`
	ReplicaCount int      `toml:"replica_count"`

	// Runs is the number of nemesis runs; Rounds the number of operation
	// rounds per run.
	Runs   int `toml:"runs"`
	Rounds int `toml:"rounds"`
	// RequestsPerRun is how many client requests are interleaved with the
	// membership churn in each run.
	RequestsPerRun int `toml:"requests_per_run"`

	// MutationsPerSchedule scales how many mutated schedules an
	// interesting run spawns; SeedSchedules and ReseedEvery control the
	// seed population of the schedule queue.
	MutationsPerSchedule int `toml:"mutations_per_schedule"`
	SeedSchedules        int `toml:"seed_schedules"`
	ReseedEvery          int `toml:"reseed_every"`

	// ClusterAddr is the admin endpoint of the cluster under test.
	ClusterAddr string `toml:"cluster_addr"`

	RecordPath   string `toml:"record_path"`
	RecordTraces bool   `toml:"record_traces"`
}

func DefaultConfig() *Config {
	return &Config{
		Nodes:                []string{"n1", "n2", "n3", "n4", "n5", "n6", "n7", "n8", "n9", "n10"},
		InitialNodes:         6,
		ReplicaCount:         3,
		Runs:                 100,
		Rounds:               20,
		RequestsPerRun:       5,
		MutationsPerSchedule: 3,
		SeedSchedules:        5,
		ReseedEvery:          50,
		ClusterAddr:          "127.0.0.1:7080",
		RecordPath:           "records",
		RecordTraces:         false,
	}
}

// LoadConfig reads a TOML config file over the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if len(c.Nodes) == 0 {
		return errors.New("node universe is empty")
	}
	seen := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if seen[n] {
			return fmt.Errorf("duplicate node %q in universe", n)
		}
		seen[n] = true
	}
	if c.InitialNodes < 1 || c.InitialNodes > len(c.Nodes) {
		return fmt.Errorf("initial_nodes must be in [1, %d], got %d", len(c.Nodes), c.InitialNodes)
	}
	if c.ReplicaCount < 1 {
		return fmt.Errorf("replica_count must be positive, got %d", c.ReplicaCount)
	}
	if c.Runs < 1 || c.Rounds < 1 {
		return errors.New("runs and rounds must be positive")
	}
	if c.RequestsPerRun < 0 {
		return errors.New("requests_per_run must not be negative")
	}
	if c.MutationsPerSchedule < 0 || c.SeedSchedules < 0 || c.ReseedEvery < 0 {
		return errors.New("mutation settings must not be negative")
	}
	return nil
}

// InitialNodeList returns the slice of the universe that seeds the initial
// topology.
func (c *Config) InitialNodeList() []string {
	return c.Nodes[:c.InitialNodes]
}
