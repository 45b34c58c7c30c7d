// Package shutdown coordinates graceful shutdown of the certify services.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"certify/internal/pkg/logger"
)

// Manager runs registered cleanup handlers once a signal arrives.
type Manager struct {
	log      *logger.Logger
	timeout  time.Duration
	handlers []Handler
	mu       sync.Mutex
	once     sync.Once
	stopping chan struct{}
	done     chan struct{}
}

// Handler is a named cleanup step.
type Handler struct {
	Name    string
	Cleanup func(ctx context.Context) error
}

// NewManager creates a manager. A zero timeout means 30s.
func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{
		log:      log.WithComponent("shutdown"),
		timeout:  timeout,
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Register adds a cleanup handler. Handlers run last-registered first, so a
// server registered after its database is stopped before the pool closes.
func (m *Manager) Register(name string, cleanup func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, Handler{Name: name, Cleanup: cleanup})
	m.log.Debug("registered shutdown handler", "name", name)
}

// RegisterSimple adds a cleanup handler that cannot fail.
func (m *Manager) RegisterSimple(name string, cleanup func()) {
	m.Register(name, func(ctx context.Context) error {
		cleanup()
		return nil
	})
}

// Wait blocks until SIGINT, SIGTERM or SIGHUP, then shuts down.
func (m *Manager) Wait() {
	m.WaitWithContext(context.Background())
}

// WaitWithContext blocks until a signal arrives or ctx ends, then shuts
// down.
func (m *Manager) WaitWithContext(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		m.log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		m.log.Info("context canceled, initiating shutdown")
	case <-m.stopping:
	}

	m.Shutdown()
}

// Shutdown runs every handler in reverse registration order, bounded by
// the manager's timeout. Later calls are no-ops.
func (m *Manager) Shutdown() {
	m.once.Do(m.shutdown)
	<-m.done
}

func (m *Manager) shutdown() {
	close(m.stopping)

	m.mu.Lock()
	handlers := make([]Handler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.log.Info("starting graceful shutdown", "handlers", len(handlers), "timeout", m.timeout.String())

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := len(handlers) - 1; i >= 0; i-- {
			h := handlers[i]
			start := time.Now()
			if err := h.Cleanup(ctx); err != nil {
				m.log.Error("shutdown handler failed",
					"name", h.Name,
					"error", err.Error(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
				continue
			}
			m.log.Debug("shutdown handler completed",
				"name", h.Name,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}()

	select {
	case <-finished:
		m.log.Info("graceful shutdown completed")
	case <-ctx.Done():
		m.log.Warn("shutdown timeout exceeded, forcing exit")
	}

	close(m.done)
}

// Done is closed once shutdown has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Context returns a context canceled as soon as shutdown starts, before
// any handler runs. Long-running loops such as the worker select on it.
func (m *Manager) Context() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-m.stopping
		cancel()
	}()
	return ctx
}
