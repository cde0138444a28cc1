// Package shutdown coordinates graceful shutdown of the Plinth server.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// State represents the current shutdown state.
type State string

const (
	// StateRunning indicates the server is running normally.
	StateRunning State = "running"
	// StateDraining indicates readiness is failing so load balancers stop
	// routing new traffic.
	StateDraining State = "draining"
	// StateStopping indicates registered components are being stopped.
	StateStopping State = "stopping"
	// StateComplete indicates shutdown is complete.
	StateComplete State = "complete"
)

// Status represents the current shutdown status.
type Status struct {
	State         State         `json:"state"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	TimeRemaining time.Duration `json:"time_remaining,omitempty"`
	Components    int           `json:"components"`
	Stopped       int           `json:"stopped"`
	Ready         bool          `json:"ready"`
	Message       string        `json:"message,omitempty"`
}

// Config holds configuration for the shutdown manager.
type Config struct {
	// Timeout is the maximum time to wait for graceful shutdown.
	Timeout time.Duration

	// DrainTimeout is how long readiness fails before components are stopped.
	DrainTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		DrainTimeout: 5 * time.Second,
	}
}

// StopFunc stops one component. It should return once ctx is done.
type StopFunc func(ctx context.Context) error

type component struct {
	name string
	stop StopFunc
}

// Manager coordinates graceful shutdown. Components stop in reverse
// registration order, so register dependencies before their users.
type Manager struct {
	config       Config
	logger       zerolog.Logger
	mu           sync.RWMutex
	state        State
	startedAt    *time.Time
	components   []component
	stopped      atomic.Int32
	ready        atomic.Bool
	doneCh       chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewManager creates a new shutdown manager.
func NewManager(config Config, logger zerolog.Logger) *Manager {
	m := &Manager{
		config: config,
		logger: logger.With().Str("component", "shutdown_manager").Logger(),
		state:  StateRunning,
		doneCh: make(chan struct{}),
	}
	m.ready.Store(true)
	return m
}

// Register adds a component to stop during shutdown. Registering after
// shutdown has begun is ignored.
func (m *Manager) Register(name string, stop StopFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRunning {
		m.logger.Warn().Str("name", name).Msg("component registered during shutdown, ignoring")
		return
	}
	m.components = append(m.components, component{name: name, stop: stop})
}

// IsReady reports whether the server should receive new traffic.
func (m *Manager) IsReady() bool {
	return m.ready.Load()
}

// GetState returns the current shutdown state.
func (m *Manager) GetState() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// GetStatus returns the current shutdown status.
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := Status{
		State:      m.state,
		StartedAt:  m.startedAt,
		Components: len(m.components),
		Stopped:    int(m.stopped.Load()),
		Ready:      m.ready.Load(),
	}

	if m.startedAt != nil {
		if remaining := m.config.Timeout - time.Since(*m.startedAt); remaining > 0 {
			status.TimeRemaining = remaining
		}
	}

	switch m.state {
	case StateRunning:
		status.Message = "Server is running normally"
	case StateDraining:
		status.Message = "Server is draining, readiness is failing"
	case StateStopping:
		status.Message = "Stopping server components"
	case StateComplete:
		status.Message = "Shutdown complete"
	}

	return status
}

// Shutdown fails readiness, waits out the drain period, then stops every
// registered component. Only the first call does any work; later calls
// return its result.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.shutdownOnce.Do(func() {
		m.shutdownErr = m.doShutdown(ctx)
	})
	return m.shutdownErr
}

func (m *Manager) doShutdown(ctx context.Context) error {
	m.logger.Info().
		Dur("timeout", m.config.Timeout).
		Dur("drain_timeout", m.config.DrainTimeout).
		Msg("initiating graceful shutdown")

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	now := time.Now()
	m.mu.Lock()
	m.startedAt = &now
	m.state = StateDraining
	components := append([]component(nil), m.components...)
	m.mu.Unlock()

	m.ready.Store(false)

	// Phase 1: let load balancers observe the failing readiness probe
	if m.config.DrainTimeout > 0 {
		drain := time.NewTimer(m.config.DrainTimeout)
		select {
		case <-drain.C:
			m.logger.Debug().Msg("drain timeout reached")
		case <-ctx.Done():
			drain.Stop()
			m.logger.Warn().Msg("shutdown deadline reached during drain phase")
		}
	}

	// Phase 2: stop components, most recently registered first
	m.mu.Lock()
	m.state = StateStopping
	m.mu.Unlock()

	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]
		logger := m.logger.With().Str("name", c.name).Logger()
		start := time.Now()

		if err := c.stop(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to stop component")
			errs = append(errs, fmt.Errorf("stop %s: %w", c.name, err))
			continue
		}

		m.stopped.Add(1)
		logger.Debug().Dur("duration", time.Since(start)).Msg("component stopped")
	}

	m.mu.Lock()
	m.state = StateComplete
	m.mu.Unlock()
	close(m.doneCh)

	m.logger.Info().
		Dur("duration", time.Since(now)).
		Int("stopped", int(m.stopped.Load())).
		Int("failed", len(errs)).
		Msg("graceful shutdown complete")

	return errors.Join(errs...)
}

// Done returns a channel that is closed when shutdown is complete.
func (m *Manager) Done() <-chan struct{} {
	return m.doneCh
}

// WaitForShutdown blocks until shutdown is complete.
func (m *Manager) WaitForShutdown() {
	<-m.doneCh
}
