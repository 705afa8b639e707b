package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"drckv/pkg/bench"
	"drckv/pkg/config"
	"drckv/pkg/hashing"
	"drckv/pkg/lockfree"
	"drckv/pkg/util/logging"
)

func main() {
	cfg, err := config.Read("cmd/config.yaml")
	if err != nil {
		cfg = config.Default()
	}
	cfg.PopulateDefaults()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logging.InitDefault(cfg.Run.ID, cfg.Table.Hasher, cfg.Table.InitialSegmentSize)

	var hasher hashing.Hasher[string]
	if cfg.Table.Hasher == "fnv" {
		hasher = hashing.FNVHasher()
	} else {
		hasher = hashing.Default[string]()
	}

	tbl := lockfree.New[string, uuid.UUID](
		cfg.Table.InitialSegmentSize,
		lockfree.WithHasher[string, uuid.UUID](hasher),
	)

	result := bench.Run(tbl, bench.Config[string, uuid.UUID]{
		Writers:  cfg.Workload.Writers,
		Readers:  cfg.Workload.Readers,
		Duration: time.Duration(cfg.Workload.DurationMs) * time.Millisecond,
		KeyFn: func(id, seq int) string {
			return fmt.Sprintf("run-%s-w%d-k%d", cfg.Run.ID, id, seq%cfg.Workload.Keys)
		},
		ValueFn: func(seq int) uuid.UUID {
			return uuid.New()
		},
	})

	slog.Info("workload complete",
		"writes", result.Writes,
		"reads", result.Reads,
		"hits", result.Hits,
		"misses", result.Misses,
	)
}
