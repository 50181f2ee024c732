// Package factory wires the in-memory adapters into a plugin host from a
// validated configuration. It is the only place that knows which adapter
// implements which plugin kind.
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sufield/wabbit/internal/adapters/metrics"
	"github.com/sufield/wabbit/internal/adapters/secondary/memauth"
	"github.com/sufield/wabbit/internal/adapters/secondary/memmgmt"
	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
	"github.com/sufield/wabbit/internal/core/services"
)

// Options tunes how adapters are built. The zero value is usable.
type Options struct {
	Logger *slog.Logger
	// Registerer receives plugin metrics. Nil disables metrics.
	Registerer prometheus.Registerer
	Clock      func() time.Time
	// BcryptCost overrides the auth plugins' hashing cost when non-zero.
	BcryptCost int
}

// Runtime is a host assembled from configuration together with typed
// handles on the plugins it hosts. Nothing is started yet.
type Runtime struct {
	Host       *services.PluginHost
	Management *memmgmt.Registry

	authIDs []domain.NameParams
	auth    map[string]*memauth.Provider
}

// Auth returns the auth plugin hosted under id.
func (r *Runtime) Auth(id domain.NameParams) (*memauth.Provider, bool) {
	p, ok := r.auth[id.Key()]
	return p, ok
}

// AuthIDs returns the ids of the auth plugins in configuration order.
func (r *Runtime) AuthIDs() []domain.NameParams {
	return append([]domain.NameParams(nil), r.authIDs...)
}

// DefaultAuth returns the first configured auth plugin.
func (r *Runtime) DefaultAuth() (domain.NameParams, *memauth.Provider, bool) {
	if len(r.authIDs) == 0 {
		return domain.NameParams{}, nil, false
	}
	id := r.authIDs[0]
	return id, r.auth[id.Key()], true
}

// NewRuntime builds adapters for every plugin in cfg and adds them to a new
// host. At most one management plugin may be configured.
func NewRuntime(ctx context.Context, cfg *ports.Configuration, opts Options) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.NewDomainError(errors.ErrMissingConfiguration, fmt.Errorf("configuration cannot be nil"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var reporter ports.MetricsReporter = metrics.NoOpMetrics{}
	if opts.Registerer != nil {
		reporter = metrics.NewPrometheusMetrics(opts.Registerer)
	}

	rt := &Runtime{auth: make(map[string]*memauth.Provider)}

	mgmtConfigs := cfg.PluginsOfKind(ports.KindManagement)
	if len(mgmtConfigs) > 1 {
		return nil, &errors.ValidationError{
			Field:   "plugins",
			Value:   len(mgmtConfigs),
			Message: "at most one management plugin may be configured",
		}
	}

	hostOpts := []services.HostOption{
		services.WithHostLogger(logger),
		services.WithManagementDomain(cfg.Management.Domain),
	}
	if len(mgmtConfigs) == 1 {
		mgmtOpts := []memmgmt.Option{memmgmt.WithLogger(logger), memmgmt.WithMetrics(reporter)}
		if opts.Clock != nil {
			mgmtOpts = append(mgmtOpts, memmgmt.WithClock(opts.Clock))
		}
		rt.Management = memmgmt.New(mgmtOpts...)
		hostOpts = append(hostOpts, services.WithManagement(rt.Management))
	}
	rt.Host = services.NewPluginHost(hostOpts...)

	for _, pc := range cfg.Plugins {
		var plugin ports.Pluggable
		switch pc.Kind {
		case ports.KindManagement:
			plugin = rt.Management
		case ports.KindAuth:
			authOpts := []memauth.Option{memauth.WithLogger(logger), memauth.WithMetrics(reporter)}
			if opts.Clock != nil {
				authOpts = append(authOpts, memauth.WithClock(opts.Clock))
			}
			if opts.BcryptCost != 0 {
				authOpts = append(authOpts, memauth.WithBcryptCost(opts.BcryptCost))
			}
			p := memauth.New(authOpts...)
			rt.auth[pc.ID.Key()] = p
			rt.authIDs = append(rt.authIDs, pc.ID)
			plugin = p
		default:
			return nil, &errors.ValidationError{Field: "kind", Value: pc.Kind, Message: "unsupported plugin kind"}
		}

		if err := rt.Host.AddConfigured(ctx, pc, plugin); err != nil {
			return nil, fmt.Errorf("add plugin %s: %w", pc.ID, err)
		}
	}

	return rt, nil
}
