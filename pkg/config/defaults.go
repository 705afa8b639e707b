package config

import (
	"drckv/pkg/structs"

	"github.com/google/uuid"
)

var knownHashers = structs.NewSet("default", "fnv")

var defaultRun = RunConfig{
	LogLevel: "info",
}

var defaultTable = TableConfig{
	InitialSegmentSize: 16,
	Hasher:             "default",
}

var defaultWorkload = WorkloadConfig{
	Keys:       1024,
	Writers:    4,
	Readers:    4,
	DurationMs: 2000,
}

func Default() *Config {
	return &Config{
		Run:      defaultRun,
		Table:    defaultTable,
		Workload: defaultWorkload,
	}
}

func (c *RunConfig) PopulateDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultRun.LogLevel
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
}

func (c *TableConfig) PopulateDefaults() {
	if c.InitialSegmentSize == 0 {
		c.InitialSegmentSize = defaultTable.InitialSegmentSize
	}

	if c.Hasher == "" {
		c.Hasher = defaultTable.Hasher
	}
}

func (c *WorkloadConfig) PopulateDefaults() {
	if c.Keys == 0 {
		c.Keys = defaultWorkload.Keys
	}

	if c.Writers == 0 {
		c.Writers = defaultWorkload.Writers
	}

	if c.Readers == 0 {
		c.Readers = defaultWorkload.Readers
	}

	if c.DurationMs == 0 {
		c.DurationMs = defaultWorkload.DurationMs
	}
}

func (c *Config) PopulateDefaults() {
	c.Run.PopulateDefaults()
	c.Table.PopulateDefaults()
	c.Workload.PopulateDefaults()
}
