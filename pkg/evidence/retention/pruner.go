package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mercator-hq/courier/pkg/config"
	"mercator-hq/courier/pkg/evidence"
	"mercator-hq/courier/pkg/evidence/export"
)

const (
	deleteBatchSize    = 500
	maxArchiveAttempts = 1000
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain evidence.
	// 0 means keep evidence forever.
	RetentionDays int

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64

	// ArchiveBeforeDelete writes the doomed records to ArchivePath as JSON.
	ArchiveBeforeDelete bool

	// ArchivePath is the directory archives are written to.
	ArchivePath string
}

// ConfigFromCourier builds a pruner configuration from the evidence settings.
func ConfigFromCourier(cfg config.EvidenceConfig) *Config {
	return &Config{
		RetentionDays: cfg.RetentionDays,
		MaxRecords:    cfg.MaxRecords,
	}
}

// Pruner enforces retention limits on evidence records.
type Pruner struct {
	storage evidence.Storage
	config  *Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(storage evidence.Storage, cfg *Config) *Pruner {
	if cfg == nil {
		cfg = &Config{}
	}

	return &Pruner{
		storage: storage,
		config:  cfg,
		logger:  slog.Default().With("component", "evidence.retention"),
		now:     time.Now,
	}
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. It returns the number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, evidence.NewRetentionError("age", int64(p.config.RetentionDays), err)
		}
		total += deleted
		p.logger.Info("pruned records by age",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, evidence.NewRetentionError("count", p.config.MaxRecords, err)
		}
		total += deleted
		p.logger.Info("pruned records by count",
			"deleted_count", deleted,
			"max_records", p.config.MaxRecords,
		)
	}

	if total == 0 {
		p.logger.Debug("no records pruned",
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	}

	return total, nil
}

// pruneByAge deletes records older than the retention period.
func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
	q := &evidence.Query{EndTime: &cutoff}

	p.logger.Debug("pruning by age", "cutoff_time", cutoff)

	if p.config.ArchiveBeforeDelete {
		records, err := p.storage.Query(ctx, q)
		if err != nil {
			return 0, fmt.Errorf("query records to archive: %w", err)
		}
		if err := p.archive(ctx, "age", records); err != nil {
			return 0, err
		}
	}

	return p.storage.Delete(ctx, q)
}

// pruneByCount deletes the oldest records until at most MaxRecords remain.
// Records are removed by ID, so ties on request time never take more than
// the excess.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &evidence.Query{})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := count - p.config.MaxRecords
	oldest, err := p.storage.Query(ctx, &evidence.Query{
		SortBy:    "request_time",
		SortOrder: "asc",
		Limit:     int(excess),
	})
	if err != nil {
		return 0, fmt.Errorf("query oldest records: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	p.logger.Debug("pruning by count",
		"current_count", count,
		"to_delete", len(oldest),
		"cutoff_time", oldest[len(oldest)-1].RequestTime,
	)

	if p.config.ArchiveBeforeDelete {
		if err := p.archive(ctx, "count", oldest); err != nil {
			return 0, err
		}
	}

	var deleted int64
	for start := 0; start < len(oldest); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(oldest))
		ids := make([]string, 0, end-start)
		for _, record := range oldest[start:end] {
			ids = append(ids, record.ID)
		}

		n, err := p.storage.Delete(ctx, &evidence.Query{IDs: ids})
		deleted += n
		if err != nil {
			return deleted, err
		}
	}

	return deleted, nil
}

// archive writes records to a timestamped JSON file under ArchivePath.
func (p *Pruner) archive(ctx context.Context, reason string, records []*evidence.Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(p.config.ArchivePath, 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	f, path, err := p.createArchive(reason)
	if err != nil {
		return err
	}

	if err := export.NewJSONExporter(true).Export(ctx, records, f); err != nil {
		f.Close()
		return fmt.Errorf("write archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	p.logger.Info("evidence archived",
		"archive_file", path,
		"record_count", len(records),
	)

	return nil
}

// createArchive opens a new archive file named after the reason and time.
// An existing archive is never overwritten; a numeric suffix is added.
func (p *Pruner) createArchive(reason string) (*os.File, string, error) {
	stamp := p.now().UTC().Format("20060102-150405")
	for attempt := 0; attempt < maxArchiveAttempts; attempt++ {
		name := fmt.Sprintf("evidence-%s-%s.json", reason, stamp)
		if attempt > 0 {
			name = fmt.Sprintf("evidence-%s-%s-%d.json", reason, stamp, attempt)
		}
		path := filepath.Join(p.config.ArchivePath, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create archive file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("create archive file: too many archives for %s", stamp)
}
