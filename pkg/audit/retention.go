package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls audit pruning.
type RetentionConfig struct {
	// RetentionDays is the record age limit. Zero disables age pruning.
	RetentionDays int

	// MaxRecords caps the table size; oldest records go first. Zero
	// disables the cap.
	MaxRecords int

	// Schedule is a standard cron expression. Empty disables the
	// scheduler (Prune can still be called directly).
	Schedule string
}

// Pruner removes audit records past the retention policy.
type Pruner struct {
	recorder *Recorder
	cfg      RetentionConfig
	logger   *slog.Logger
}

// NewPruner creates a pruner over the recorder's database.
func NewPruner(recorder *Recorder, cfg RetentionConfig) *Pruner {
	return &Pruner{
		recorder: recorder,
		cfg:      cfg,
		logger:   slog.Default().With("component", "audit.retention"),
	}
}

// Prune applies the retention policy once and returns how many records
// were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	p.recorder.mu.Lock()
	defer p.recorder.mu.Unlock()

	var removed int64

	if p.cfg.RetentionDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -p.cfg.RetentionDays)
		res, err := p.recorder.db.ExecContext(ctx,
			`DELETE FROM audit_records WHERE created_at < ?`, cutoff)
		if err != nil {
			return removed, fmt.Errorf("age-based prune failed: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	if p.cfg.MaxRecords > 0 {
		res, err := p.recorder.db.ExecContext(ctx, `
			DELETE FROM audit_records WHERE id IN (
				SELECT id FROM audit_records
				ORDER BY created_at DESC
				LIMIT -1 OFFSET ?
			)`, p.cfg.MaxRecords)
		if err != nil {
			return removed, fmt.Errorf("cap-based prune failed: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	return removed, nil
}

// Scheduler runs the pruner on a cron schedule.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron
	mu     sync.Mutex
	logger *slog.Logger
}

// NewScheduler creates a retention scheduler.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "audit.scheduler"),
	}
}

// Start begins scheduled pruning. With an empty schedule it does
// nothing. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.cfg.Schedule
	if schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	_, err := s.cron.AddFunc(schedule, func() {
		removed, err := s.pruner.Prune(ctx)
		if err != nil {
			s.logger.Error("scheduled prune failed", "error", err)
			return
		}
		s.logger.Info("scheduled prune completed", "removed", removed)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.logger.Info("retention scheduler started",
		"schedule", schedule,
		"retention_days", s.pruner.cfg.RetentionDays,
		"max_records", s.pruner.cfg.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts scheduled pruning, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
