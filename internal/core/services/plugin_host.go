// Package services provides the core plugin hosting service.
package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
)

// PluginHost owns a set of plugins keyed by NameParams and drives their
// lifecycle. Once started, every plugin is exposed through the management
// plugin as <domain>:name=<id name>,param0=...,paramN=....
//
// Lifecycle calls (Add, Remove, Start, Stop) are serialized; lookups and
// Dispatch only take a read lock and may run alongside them.
type PluginHost struct {
	opMu sync.Mutex

	mu      sync.RWMutex
	order   []string
	entries map[string]*hostedPlugin
	started bool

	mgmt   ports.ManagementPlugin
	domain string
	logger *slog.Logger
}

type hostedPlugin struct {
	cfg    ports.PluginConfig
	plugin ports.Pluggable
	handle domain.ObjectName
	// configured is set once Configure succeeds; a plugin is configured at
	// most once per Add.
	configured bool
	running    bool
}

// HostOption customizes a PluginHost.
type HostOption func(*PluginHost)

// WithManagement sets the management plugin hosted plugins are registered
// with. Without one, plugins are not exposed.
func WithManagement(m ports.ManagementPlugin) HostOption {
	return func(h *PluginHost) { h.mgmt = m }
}

// WithManagementDomain overrides ports.DefaultManagementDomain.
func WithManagementDomain(dom string) HostOption {
	return func(h *PluginHost) { h.domain = dom }
}

// WithHostLogger sets the logger.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(h *PluginHost) { h.logger = logger }
}

// NewPluginHost creates an empty, stopped host.
func NewPluginHost(opts ...HostOption) *PluginHost {
	h := &PluginHost{
		entries: make(map[string]*hostedPlugin),
		domain:  ports.DefaultManagementDomain,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "plugin-host")
	return h
}

// Add hosts p under id with no settings.
func (h *PluginHost) Add(ctx context.Context, id domain.NameParams, p ports.Pluggable) error {
	return h.AddConfigured(ctx, ports.PluginConfig{ID: id}, p)
}

// AddConfigured hosts p under cfg.ID; cfg is what p.Configure receives.
// Adding to a started host configures, starts and registers p at once.
func (h *PluginHost) AddConfigured(ctx context.Context, cfg ports.PluginConfig, p ports.Pluggable) error {
	if cfg.ID.IsZero() {
		return &errors.ValidationError{Field: "id", Value: "", Message: "plugin id is required"}
	}
	if p == nil {
		return &errors.ValidationError{Field: "plugin", Value: nil, Message: "plugin cannot be nil"}
	}
	if err := cfg.ID.Manageable(); err != nil {
		return fmt.Errorf("plugin %s: %w", cfg.ID, err)
	}

	h.opMu.Lock()
	defer h.opMu.Unlock()

	key := cfg.ID.Key()
	h.mu.RLock()
	_, dup := h.entries[key]
	started := h.started
	h.mu.RUnlock()
	if dup {
		return errors.NewDomainError(errors.ErrAlreadyRegistered, fmt.Errorf("plugin %s", cfg.ID))
	}

	e := &hostedPlugin{cfg: cfg, plugin: p}
	if started {
		if err := h.bringUp(ctx, e); err != nil {
			return err
		}
	}

	h.mu.Lock()
	h.entries[key] = e
	h.order = append(h.order, key)
	h.mu.Unlock()

	h.logger.DebugContext(ctx, "plugin added", "plugin", cfg.ID.String(), "running", e.running)
	return nil
}

// Get returns the plugin hosted under id.
func (h *PluginHost) Get(id domain.NameParams) (ports.Pluggable, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.entries[id.Key()]
	if !ok {
		return nil, false
	}
	return e.plugin, true
}

// ObjectName returns the management handle of the plugin under id. It is
// only set while the host is started and a management plugin is present.
func (h *PluginHost) ObjectName(id domain.NameParams) (domain.ObjectName, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.entries[id.Key()]
	if !ok || e.handle.IsZero() {
		return domain.ObjectName{}, false
	}
	return e.handle, true
}

// IDs returns the hosted plugin ids ordered by their string form.
func (h *PluginHost) IDs() []domain.NameParams {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]domain.NameParams, 0, len(h.entries))
	for _, e := range h.entries {
		ids = append(ids, e.cfg.ID)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].String() != ids[j].String() {
			return ids[i].String() < ids[j].String()
		}
		return ids[i].Key() < ids[j].Key()
	})
	return ids
}

// Len returns the number of hosted plugins.
func (h *PluginHost) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Remove deregisters and stops the plugin under id, then forgets it.
func (h *PluginHost) Remove(ctx context.Context, id domain.NameParams) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	key := id.Key()
	h.mu.RLock()
	e, ok := h.entries[key]
	h.mu.RUnlock()
	if !ok {
		return errors.NewDomainError(errors.ErrNotRegistered, fmt.Errorf("plugin %s", id))
	}
	if e.running && h.isManagement(e.plugin) && h.Len() > 1 {
		return &errors.ValidationError{
			Field:   "id",
			Value:   id.String(),
			Message: "management plugin cannot be removed while other plugins are running",
		}
	}

	err := stderrors.Join(h.deregister(ctx, e), h.stopOne(ctx, e))

	h.mu.Lock()
	delete(h.entries, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.mu.Unlock()

	h.logger.DebugContext(ctx, "plugin removed", "plugin", id.String())
	return err
}

// Start configures every plugin not yet configured, starts them in insertion order and then
// registers them with the management plugin. Any failure rolls back the
// plugins already brought up, in reverse order.
func (h *PluginHost) Start(ctx context.Context) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.RLock()
	if h.started {
		h.mu.RUnlock()
		return fmt.Errorf("plugin host already started")
	}
	entries := h.orderedLocked()
	h.mu.RUnlock()

	for _, e := range entries {
		if err := h.configure(ctx, e); err != nil {
			return err
		}
	}

	for i, e := range entries {
		if err := e.plugin.Start(ctx); err != nil {
			err = fmt.Errorf("start plugin %s: %w", e.cfg.ID, err)
			return stderrors.Join(err, h.rollback(ctx, entries[:i]))
		}
		h.setRunning(e, true)
	}

	for _, e := range entries {
		if err := h.register(ctx, e); err != nil {
			return stderrors.Join(err, h.rollback(ctx, entries))
		}
	}

	h.mu.Lock()
	h.started = true
	h.mu.Unlock()

	h.logger.InfoContext(ctx, "plugin host started", "plugins", len(entries))
	return nil
}

// Stop deregisters every plugin and then stops them in reverse insertion
// order. Every plugin is attempted; failures are joined.
func (h *PluginHost) Stop(ctx context.Context) error {
	h.opMu.Lock()
	defer h.opMu.Unlock()

	h.mu.RLock()
	if !h.started {
		h.mu.RUnlock()
		return nil
	}
	entries := h.orderedLocked()
	h.mu.RUnlock()

	err := h.rollback(ctx, entries)

	h.mu.Lock()
	h.started = false
	h.mu.Unlock()

	if err != nil {
		h.logger.WarnContext(ctx, "plugin host stopped with errors", "error", err)
		return err
	}
	h.logger.InfoContext(ctx, "plugin host stopped", "plugins", len(entries))
	return nil
}

// Started reports whether Start has completed and Stop has not been called.
func (h *PluginHost) Started() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// Dispatch delivers msg to the plugin named by msg.Source(). Plugins that
// implement ports.MessageHandler handle it first; a Triggerable message is
// then fired.
func (h *PluginHost) Dispatch(ctx context.Context, msg ports.PlugMessage) error {
	if msg == nil {
		return &errors.ValidationError{Field: "message", Value: nil, Message: "message cannot be nil"}
	}
	src := msg.Source()

	h.mu.RLock()
	e, ok := h.entries[src.Key()]
	started := h.started
	h.mu.RUnlock()
	if !ok {
		return errors.NewDomainError(errors.ErrNotRegistered, fmt.Errorf("plugin %s", src))
	}
	if !started {
		return errors.NewDomainError(errors.ErrPluginClosed, fmt.Errorf("plugin host is not started"))
	}

	attrs := []any{"plugin", src.String()}
	if inv, ok := msg.(ports.HTTPInvoker); ok {
		attrs = append(attrs, "method", inv.Method(), "path", inv.Path())
	}
	h.logger.DebugContext(ctx, "dispatching message", attrs...)

	if handler, ok := e.plugin.(ports.MessageHandler); ok {
		if err := handler.Handle(ctx, msg); err != nil {
			return fmt.Errorf("plugin %s handle message: %w", src, err)
		}
	}
	if t, ok := msg.(ports.Triggerable); ok {
		if err := t.Fire(ctx); err != nil {
			return fmt.Errorf("plugin %s fire message: %w", src, err)
		}
	}
	return nil
}

func (h *PluginHost) orderedLocked() []*hostedPlugin {
	out := make([]*hostedPlugin, 0, len(h.order))
	for _, k := range h.order {
		out = append(out, h.entries[k])
	}
	return out
}

// bringUp configures, starts and registers a plugin added to a running host.
func (h *PluginHost) bringUp(ctx context.Context, e *hostedPlugin) error {
	if err := h.configure(ctx, e); err != nil {
		return err
	}
	if err := e.plugin.Start(ctx); err != nil {
		return fmt.Errorf("start plugin %s: %w", e.cfg.ID, err)
	}
	h.setRunning(e, true)
	if err := h.register(ctx, e); err != nil {
		return stderrors.Join(err, h.stopOne(ctx, e))
	}
	return nil
}

func (h *PluginHost) configure(ctx context.Context, e *hostedPlugin) error {
	h.mu.RLock()
	done := e.configured
	h.mu.RUnlock()
	if done {
		return nil
	}

	if err := e.plugin.Configure(ctx, e.cfg); err != nil {
		return fmt.Errorf("configure plugin %s: %w", e.cfg.ID, err)
	}
	h.mu.Lock()
	e.configured = true
	h.mu.Unlock()
	return nil
}

// rollback deregisters and then stops entries in reverse order.
func (h *PluginHost) rollback(ctx context.Context, entries []*hostedPlugin) error {
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		errs = append(errs, h.deregister(ctx, entries[i]))
	}
	for i := len(entries) - 1; i >= 0; i-- {
		errs = append(errs, h.stopOne(ctx, entries[i]))
	}
	return stderrors.Join(errs...)
}

func (h *PluginHost) register(ctx context.Context, e *hostedPlugin) error {
	if h.mgmt == nil {
		return nil
	}
	params := e.cfg.ID.Params()
	paths := make(map[string]string, len(params))
	for i, p := range params {
		paths["param"+strconv.Itoa(i)] = p
	}

	handle, err := h.mgmt.Reg(ctx, e.plugin, h.domain, e.cfg.ID.Name(), paths)
	if err != nil {
		return fmt.Errorf("register plugin %s: %w", e.cfg.ID, err)
	}

	h.mu.Lock()
	e.handle = handle
	h.mu.Unlock()
	return nil
}

func (h *PluginHost) deregister(ctx context.Context, e *hostedPlugin) error {
	h.mu.RLock()
	handle := e.handle
	h.mu.RUnlock()
	if h.mgmt == nil || handle.IsZero() {
		return nil
	}

	err := h.mgmt.Dereg(ctx, handle)

	h.mu.Lock()
	e.handle = domain.ObjectName{}
	h.mu.Unlock()

	if err != nil {
		return fmt.Errorf("deregister plugin %s: %w", e.cfg.ID, err)
	}
	return nil
}

func (h *PluginHost) stopOne(ctx context.Context, e *hostedPlugin) error {
	h.mu.RLock()
	running := e.running
	h.mu.RUnlock()
	if !running {
		return nil
	}

	err := e.plugin.Stop(ctx)
	h.setRunning(e, false)
	if err != nil {
		return fmt.Errorf("stop plugin %s: %w", e.cfg.ID, err)
	}
	return nil
}

func (h *PluginHost) setRunning(e *hostedPlugin, running bool) {
	h.mu.Lock()
	e.running = running
	h.mu.Unlock()
}

func (h *PluginHost) isManagement(p ports.Pluggable) bool {
	if h.mgmt == nil {
		return false
	}
	m, ok := p.(ports.ManagementPlugin)
	return ok && m == h.mgmt
}
