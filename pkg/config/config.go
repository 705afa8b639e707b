package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one workload-harness run: the run's own identity, the
// shape of the table it builds, and the shape of the workload it drives
// against that table. This is deliberately narrower than a distributed
// store's config (no gossip, persistence, replication, or security
// sections) because the harness has no such functionality — the table
// itself is an in-process, single-node data structure.
type Config struct {
	Run      RunConfig      `yaml:"run"`
	Table    TableConfig    `yaml:"table"`
	Workload WorkloadConfig `yaml:"workload"`
}

// RunConfig identifies one harness invocation for logging purposes.
type RunConfig struct {
	ID       string `yaml:"id"`
	LogLevel string `yaml:"log_level"`
}

// TableConfig describes the table the harness builds.
type TableConfig struct {
	InitialSegmentSize int    `yaml:"initial_segment_size"`
	Hasher             string `yaml:"hasher"`
}

// WorkloadConfig describes the concurrent workload the harness runs
// against the table.
type WorkloadConfig struct {
	Keys       int `yaml:"keys"`
	Writers    int `yaml:"writers"`
	Readers    int `yaml:"readers"`
	DurationMs int `yaml:"duration_ms"`
}

// Read loads a Config from a YAML file at path.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
