package memory

import (
	"context"
	"log/slog"
	"sync"

	"lieworks/lie/pkg/config"
	"lieworks/lie/pkg/engine/types"
)

// Manager owns the single persistent memory store. It answers two
// questions: what to inject for a given request, and how to apply a
// mutation.
//
// Discipline: exclusive-write, shared-read. Mutations are serialized
// through the write lock and the durable SQLite write completes inside
// the critical section, so a crash immediately after a successful Set
// never loses the fact. Readers observe either the pre- or post-write
// snapshot, never a partial write.
type Manager struct {
	mu      sync.RWMutex
	facts   []Fact
	index   map[string]int
	summary string

	store *store
	cfg   config.MemoryConfig
	ratio int
	log   *slog.Logger
}

// Fact is one key/value entry, carried in insertion order.
type Fact struct {
	Key   string
	Value string
}

// Open loads the store from disk, or starts empty when the database is
// missing or unreadable (fail-open for reads). A store that failed to
// open keeps serving reads from the empty snapshot while every mutation
// reports memory_persist (fail-closed for writes).
func Open(cfg config.MemoryConfig, charsPerToken int) *Manager {
	m := &Manager{
		index: make(map[string]int),
		cfg:   cfg,
		ratio: charsPerToken,
		log:   slog.Default().With("component", "memory"),
	}

	st, err := openStore(cfg.DBPath)
	if err != nil {
		m.log.Warn("memory store unavailable, starting empty", "path", cfg.DBPath, "error", err)
		return m
	}

	facts, summary, err := st.loadAll(context.Background())
	if err != nil {
		m.log.Warn("memory store unreadable, starting empty", "path", cfg.DBPath, "error", err)
		st.close()
		return m
	}

	m.store = st
	m.facts = facts
	m.summary = summary
	for i, f := range facts {
		m.index[f.Key] = i
	}

	m.log.Info("memory store loaded", "path", cfg.DBPath, "facts", len(facts))
	return m
}

// Set stores a fact. New keys are appended in insertion order; an
// existing key keeps its original position. The durable write happens
// before the in-memory snapshot changes and before Set returns.
func (m *Manager) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, exists := m.index[key]
	if !exists {
		if len(m.facts) >= m.cfg.MaxEntries {
			return types.NewEngineError(types.ErrInvalidRequest,
				"memory fact limit reached (%d entries)", m.cfg.MaxEntries)
		}
		pos = len(m.facts)
	}

	if m.store == nil {
		return types.NewEngineError(types.ErrMemoryPersist, "memory store is not writable")
	}
	if err := m.store.saveFact(ctx, key, value, pos); err != nil {
		return types.WrapEngineError(types.ErrMemoryPersist, err, "failed to persist fact")
	}

	if exists {
		m.facts[pos].Value = value
	} else {
		m.facts = append(m.facts, Fact{Key: key, Value: value})
		m.index[key] = pos
	}
	return nil
}

// Get reads a fact. The second return reports presence.
func (m *Manager) Get(ctx context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.index[key]
	if !ok {
		return "", false
	}
	return m.facts[pos].Value, true
}

// SetSummary appends text to the rolling summary, truncating from the
// front when the configured bound is exceeded, and persists durably
// before returning.
func (m *Manager) SetSummary(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.summary
	if next != "" {
		next += " "
	}
	next += text
	if len(next) > m.cfg.MaxSummaryChars {
		next = next[len(next)-m.cfg.MaxSummaryChars:]
	}

	if m.store == nil {
		return types.NewEngineError(types.ErrMemoryPersist, "memory store is not writable")
	}
	if err := m.store.saveSummary(ctx, next); err != nil {
		return types.WrapEngineError(types.ErrMemoryPersist, err, "failed to persist summary")
	}

	m.summary = next
	return nil
}

// Summary returns the current rolling summary.
func (m *Manager) Summary(ctx context.Context) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summary
}

// Injection returns a deterministic, size-bounded snapshot for prompt
// injection: summary first, then facts in insertion order, truncated
// from the end to fit the token budget. Two calls over an unchanged
// store return identical content.
func (m *Manager) Injection(budgetTokens int) Injection {
	m.mu.RLock()
	facts := make([]Fact, len(m.facts))
	copy(facts, m.facts)
	inj := Injection{Summary: m.summary, Facts: facts, CharsPerToken: m.ratio}
	m.mu.RUnlock()

	for len(inj.Facts) > 0 && inj.TokenEstimate() > budgetTokens {
		inj.Facts = inj.Facts[:len(inj.Facts)-1]
	}
	if inj.TokenEstimate() > budgetTokens {
		inj.Summary = ""
	}
	return inj
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	err := m.store.close()
	m.store = nil
	return err
}
