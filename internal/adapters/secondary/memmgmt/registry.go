// Package memmgmt provides an in-memory management plugin that tracks
// objects registered under hierarchical object names.
package memmgmt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sufield/wabbit/internal/adapters/metrics"
	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
)

// Registration is a single managed object.
type Registration struct {
	Name         domain.ObjectName
	Target       any
	RegisteredAt time.Time
}

// Settings is the decoded form of a management plugin's settings.
type Settings struct {
	MaxRegistrations int `mapstructure:"max_registrations" validate:"min=0"`
}

// Registry is the in-memory ManagementPlugin. Registering a name that is
// already taken fails with errors.ErrAlreadyRegistered, and deregistering an
// unknown handle fails with errors.ErrNotRegistered.
type Registry struct {
	mu      sync.RWMutex
	id      domain.NameParams
	entries map[string]Registration
	limit   int
	running bool

	now     func() time.Time
	logger  *slog.Logger
	metrics ports.MetricsReporter
}

var _ ports.ManagementPlugin = (*Registry)(nil)

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithMetrics sets the metrics reporter.
func WithMetrics(m ports.MetricsReporter) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New creates an empty Registry. It must be started before use.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]Registration),
		now:     time.Now,
		logger:  slog.Default(),
		metrics: metrics.NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "memmgmt")
	return r
}

// Configure applies cfg.Settings.
func (r *Registry) Configure(ctx context.Context, cfg ports.PluginConfig) error {
	var s Settings
	if len(cfg.Settings) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &s,
		})
		if err != nil {
			return fmt.Errorf("create settings decoder: %w", err)
		}
		if err := decoder.Decode(cfg.Settings); err != nil {
			return fmt.Errorf("configure management plugin %s: %w", cfg.ID, err)
		}
		if err := domain.ValidateStruct(s); err != nil {
			return fmt.Errorf("configure management plugin %s: %w", cfg.ID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("configure management plugin %s: plugin is running", cfg.ID)
	}
	r.id = cfg.ID
	r.limit = s.MaxRegistrations

	r.logger.DebugContext(ctx, "management plugin configured", "plugin", cfg.ID.String(), "limit", s.MaxRegistrations)
	return nil
}

// Start opens the registry for registrations.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("management plugin %s already started", r.id)
	}
	r.running = true
	r.logger.InfoContext(ctx, "management plugin started", "plugin", r.id.String())
	return nil
}

// Stop releases every registration and closes the registry.
func (r *Registry) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	released := r.clearLocked()
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "management plugin stopped", "plugin", r.id.String(), "released", released)
	return nil
}

// Reset releases every registration; the registry stays open.
func (r *Registry) Reset(ctx context.Context) error {
	r.mu.Lock()
	if err := r.checkRunning(); err != nil {
		r.mu.Unlock()
		return err
	}
	released := r.clearLocked()
	r.mu.Unlock()

	r.metrics.RecordRegistration("reset", ports.ResultSuccess)
	r.logger.InfoContext(ctx, "management registry reset", "released", released)
	return nil
}

func (r *Registry) clearLocked() int {
	n := len(r.entries)
	r.entries = make(map[string]Registration)
	r.metrics.SetRegistrations(0)
	return n
}

// Reg registers target as dom:name=<name>,<paths...>.
func (r *Registry) Reg(ctx context.Context, target any, dom, name string, paths map[string]string) (domain.ObjectName, error) {
	on, err := r.reg(target, dom, name, paths)
	if err != nil {
		r.metrics.RecordRegistration("reg", ports.ResultError)
		return domain.ObjectName{}, err
	}
	r.metrics.RecordRegistration("reg", ports.ResultSuccess)
	r.logger.DebugContext(ctx, "registered managed object", "object_name", on.String(), "type", fmt.Sprintf("%T", target))
	return on, nil
}

func (r *Registry) reg(target any, dom, name string, paths map[string]string) (domain.ObjectName, error) {
	if target == nil {
		return domain.ObjectName{}, &errors.ValidationError{Field: "target", Value: nil, Message: "target is required"}
	}
	if name == "" {
		return domain.ObjectName{}, &errors.ValidationError{Field: "name", Value: name, Message: "name is required"}
	}
	if _, clash := paths[domain.NameProperty]; clash {
		return domain.ObjectName{}, &errors.ValidationError{
			Field:   "paths",
			Value:   paths[domain.NameProperty],
			Message: "paths must not redefine the name property",
		}
	}

	props := make(map[string]string, len(paths)+1)
	for k, v := range paths {
		props[k] = v
	}
	props[domain.NameProperty] = name

	on, err := domain.NewObjectName(dom, props)
	if err != nil {
		return domain.ObjectName{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkRunning(); err != nil {
		return domain.ObjectName{}, err
	}
	if _, exists := r.entries[on.String()]; exists {
		return domain.ObjectName{}, errors.NewDomainError(errors.ErrAlreadyRegistered, fmt.Errorf("%s", on))
	}
	if r.limit > 0 && len(r.entries) >= r.limit {
		return domain.ObjectName{}, errors.NewDomainError(errors.ErrRegistryFull, fmt.Errorf("limit %d", r.limit))
	}

	r.entries[on.String()] = Registration{Name: on, Target: target, RegisteredAt: r.now()}
	r.metrics.SetRegistrations(len(r.entries))
	return on, nil
}

// Dereg removes the registration identified by handle.
func (r *Registry) Dereg(ctx context.Context, handle domain.ObjectName) error {
	err := r.dereg(handle)
	if err != nil {
		r.metrics.RecordRegistration("dereg", ports.ResultError)
		return err
	}
	r.metrics.RecordRegistration("dereg", ports.ResultSuccess)
	r.logger.DebugContext(ctx, "deregistered managed object", "object_name", handle.String())
	return nil
}

func (r *Registry) dereg(handle domain.ObjectName) error {
	if handle.IsZero() {
		return &errors.ValidationError{Field: "handle", Value: "", Message: "handle is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkRunning(); err != nil {
		return err
	}
	if _, ok := r.entries[handle.String()]; !ok {
		return errors.NewDomainError(errors.ErrNotRegistered, fmt.Errorf("%s", handle))
	}
	delete(r.entries, handle.String())
	r.metrics.SetRegistrations(len(r.entries))
	return nil
}

// Lookup returns the registration for handle.
func (r *Registry) Lookup(handle domain.ObjectName) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[handle.String()]
	return reg, ok
}

// Names returns every registered object name in canonical order.
func (r *Registry) Names() []domain.ObjectName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ObjectName, 0, len(r.entries))
	for _, reg := range r.entries {
		out = append(out, reg.Name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) checkRunning() error {
	if !r.running {
		return errors.NewDomainError(errors.ErrPluginClosed, fmt.Errorf("management plugin %s", r.id))
	}
	return nil
}
