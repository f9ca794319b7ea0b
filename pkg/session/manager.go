package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes report access per session. Local writers share a
// reference-counted mutex; writers in other processes are fenced by the
// optional DistributedLocker.
type Manager struct {
	store ports.ReportStore

	mu    sync.Mutex            // Guards locks
	locks map[string]*lockEntry // Active local locks

	locker  ports.DistributedLocker // Optional
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given report store.
func NewManager(store ports.ReportStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves a report from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Report, error) {
	var report *domain.Report
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		report, err = m.store.Load(ctx, sessionID)
		return err
	})
	return report, err
}

// Save persists a report under its session ID.
func (m *Manager) Save(ctx context.Context, report *domain.Report) error {
	return m.WithLock(ctx, report.SessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, report)
	})
}

// Update loads the report, applies fn and saves the result under one lock.
// A missing report starts from an empty one carrying the session ID.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(*domain.Report) error) (*domain.Report, error) {
	var report *domain.Report
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		report, err = m.store.Load(ctx, sessionID)
		if errors.Is(err, domain.ErrReportNotFound) {
			report = &domain.Report{SessionID: sessionID, Outcome: domain.OutcomeRunning}
		} else if err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}

		if err := fn(report); err != nil {
			return err
		}
		report.SessionID = sessionID
		return m.store.Save(ctx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Delete removes the report from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying report store.
func (m *Manager) Store() ports.ReportStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Released with a fresh context so a cancelled caller still frees the lock.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
