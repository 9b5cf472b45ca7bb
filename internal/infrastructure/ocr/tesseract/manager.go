package tesseract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dlopezav/recibos/internal/core/domain"
)

// Manager owns the single recognition engine instance for the process.
// It recreates the engine after an idle timeout and guarantees at most one
// in-flight recognition: concurrent callers get ErrWorkerBusy, they are
// never queued. The underlying engine shares mutable state across calls,
// so serializing beats silently corrupting it.
type Manager struct {
	factory     EngineFactory
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu         sync.Mutex
	engine     Engine
	lastUsedAt time.Time
	busy       bool
}

type Option func(*Manager)

// WithClock substitutes the time source; tests use it to simulate idle time.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(factory EngineFactory, idleTimeout time.Duration, logger *slog.Logger, opts ...Option) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		factory:     factory,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureReady creates the engine if none exists, or recreates it when
// forceRecreate is set or the idle timeout has elapsed since last use.
// Otherwise it is a no-op.
func (m *Manager) EnsureReady(forceRecreate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureReadyLocked(forceRecreate)
}

func (m *Manager) ensureReadyLocked(forceRecreate bool) error {
	if m.engine != nil && !forceRecreate && m.now().Sub(m.lastUsedAt) <= m.idleTimeout {
		return nil
	}

	m.teardownLocked("recycle")

	engine, err := m.factory()
	if err != nil {
		return fmt.Errorf("create recognition engine: %w", err)
	}
	m.engine = engine
	m.lastUsedAt = m.now()
	m.logger.Info("recognition_engine_ready")
	return nil
}

// Recognize runs one recognition over a preprocessed image and returns the
// cleaned text. The busy flag is checked and set before any blocking work,
// so two logically concurrent callers can never both pass the check.
func (m *Manager) Recognize(ctx context.Context, image []byte) (string, error) {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return "", domain.WrapError(domain.ErrWorkerBusy, "recognize", errors.New("recognition already in flight"))
	}
	m.busy = true
	if err := m.ensureReadyLocked(false); err != nil {
		m.busy = false
		m.mu.Unlock()
		return "", err
	}
	engine := m.engine
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.lastUsedAt = m.now()
		m.busy = false
		m.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The engine cannot be cancelled mid-recognition; callers wanting a
	// timeout impose it above this layer.
	text, err := engine.Recognize(image)
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return domain.CleanText(text), nil
}

// Shutdown tears the engine down unconditionally. Safe to call repeatedly.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked("shutdown")
}

// teardownLocked is best-effort: a failing engine teardown is logged and the
// manager proceeds as if the engine were gone.
func (m *Manager) teardownLocked(reason string) {
	if m.engine == nil {
		return
	}
	if err := m.engine.Close(); err != nil {
		m.logger.Warn("recognition_engine_teardown_failed", "reason", reason, "error", err)
	}
	m.engine = nil
}
