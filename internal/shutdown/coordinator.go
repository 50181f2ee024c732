// Package shutdown provides shutdown coordination and lifecycle management.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultGracePeriod is the default maximum time to wait for graceful shutdown.
const DefaultGracePeriod = 30 * time.Second

// Config configures graceful shutdown behavior.
type Config struct {
	// GracePeriod bounds the whole shutdown. Default is 30 seconds if not specified.
	GracePeriod time.Duration

	// OnShutdownStart is called when shutdown begins.
	OnShutdownStart func()

	// OnShutdownComplete is called when shutdown completes.
	OnShutdownComplete func(err error)

	Logger *slog.Logger
}

// DefaultConfig returns sensible shutdown defaults.
func DefaultConfig() *Config {
	return &Config{GracePeriod: DefaultGracePeriod}
}

// StopFunc releases one resource. It should honor ctx cancellation.
type StopFunc func(ctx context.Context) error

type stopper struct {
	name string
	fn   StopFunc
}

// Coordinator runs registered stop functions once, in reverse registration
// order, within the grace period.
type Coordinator struct {
	config         *Config
	logger         *slog.Logger
	stoppers       []stopper
	mu             sync.Mutex
	shutdownOnce   sync.Once
	isShuttingDown bool
	err            error
}

// NewCoordinator creates a new shutdown coordinator.
func NewCoordinator(config *Config) *Coordinator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{config: config, logger: logger.With("component", "shutdown")}
}

// Register adds fn to the shutdown sequence. Registrations made after
// shutdown has begun are ignored.
func (c *Coordinator) Register(name string, fn StopFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fn != nil && !c.isShuttingDown {
		c.stoppers = append(c.stoppers, stopper{name: name, fn: fn})
	}
}

// Shutdown runs every stop function and returns their joined errors. Later
// calls return the result of the first.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		c.isShuttingDown = true
		stoppers := c.stoppers
		c.mu.Unlock()

		if c.config.OnShutdownStart != nil {
			c.config.OnShutdownStart()
		}

		graceCtx, cancel := context.WithTimeout(ctx, c.config.GracePeriod)
		defer cancel()

		c.logger.InfoContext(ctx, "starting graceful shutdown", "grace_period", c.config.GracePeriod, "steps", len(stoppers))

		var errs []error
		for i := len(stoppers) - 1; i >= 0; i-- {
			if err := c.run(graceCtx, stoppers[i]); err != nil {
				c.logger.ErrorContext(ctx, "shutdown step failed", "step", stoppers[i].name, "error", err)
				errs = append(errs, err)
			}
		}
		c.err = errors.Join(errs...)

		if c.err == nil {
			c.logger.InfoContext(ctx, "graceful shutdown completed")
		}
		if c.config.OnShutdownComplete != nil {
			c.config.OnShutdownComplete(c.err)
		}
	})
	return c.err
}

// run calls s.fn and gives up waiting once ctx is done.
func (c *Coordinator) run(ctx context.Context, s stopper) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: skipped: %w", s.name, err)
	}

	done := make(chan error, 1)
	go func() { done <- s.fn(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: exceeded grace period of %v: %w", s.name, c.config.GracePeriod, ctx.Err())
	}
}
