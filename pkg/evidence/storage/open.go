package storage

import (
	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/evidence"
)

// MemoryPath selects the in-memory backend.
const MemoryPath = ":memory:"

// Open returns the backend configured by cfg.
func Open(cfg config.EvidenceConfig) (evidence.Storage, error) {
	if cfg.Path == MemoryPath {
		return NewMemoryStorage(), nil
	}

	return NewSQLiteStorage(&SQLiteConfig{
		Path:        cfg.Path,
		WALMode:     true,
		BusyTimeout: cfg.BusyTimeout,
	})
}
