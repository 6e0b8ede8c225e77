package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	rec, err := NewRecorder(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestRecordAndCount(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := rec.Record(ctx, Record{
			RequestID:    "req-1",
			Intent:       "completion",
			Status:       "success",
			InputTokens:  10,
			OutputTokens: 5,
			DurationMS:   120,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	n, err := rec.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 records, got %d", n)
	}
}

func TestRecordFillsDefaults(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	if err := rec.Record(ctx, Record{Intent: "health", Status: "success"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	var id string
	var createdAt time.Time
	err := rec.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM audit_records LIMIT 1`).Scan(&id, &createdAt)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if id == "" {
		t.Error("expected generated record id")
	}
	if createdAt.IsZero() {
		t.Error("expected generated timestamp")
	}
}

func TestPrune_AgeBased(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -40)
	rec.Record(ctx, Record{Intent: "completion", Status: "success", CreatedAt: old})
	rec.Record(ctx, Record{Intent: "completion", Status: "success"})

	pruner := NewPruner(rec, RetentionConfig{RetentionDays: 30})
	removed, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	n, _ := rec.Count(ctx)
	if n != 1 {
		t.Errorf("expected 1 surviving record, got %d", n)
	}
}

func TestPrune_CapKeepsNewest(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		rec.Record(ctx, Record{
			RequestID: "req",
			Intent:    "completion",
			Status:    "success",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	pruner := NewPruner(rec, RetentionConfig{MaxRecords: 4})
	removed, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 6 {
		t.Errorf("expected 6 removed, got %d", removed)
	}

	// The newest records survive.
	var oldest time.Time
	err = rec.db.QueryRowContext(ctx,
		`SELECT MIN(created_at) FROM audit_records`).Scan(&oldest)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if oldest.Before(base.Add(5 * time.Minute)) {
		t.Errorf("expected oldest survivor at offset >= 6m, got %v", oldest.Sub(base))
	}
}

func TestScheduler_EmptyScheduleIsNoop(t *testing.T) {
	rec := newTestRecorder(t)
	pruner := NewPruner(rec, RetentionConfig{})
	sched := NewScheduler(pruner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sched.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func TestScheduler_RejectsBadExpression(t *testing.T) {
	rec := newTestRecorder(t)
	pruner := NewPruner(rec, RetentionConfig{Schedule: "every day at noon"})
	sched := NewScheduler(pruner)

	if err := sched.Start(context.Background()); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
