// Package memauth provides an in-memory authentication plugin.
//
// Accounts and sessions live in process memory and are lost on Stop. Every
// operation is safe for concurrent use: a single lock serializes account
// creation and session issuance, so concurrent AddAccount calls for the same
// login yield exactly one success and concurrent Logins each get a session.
package memauth

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sufield/wabbit/internal/adapters/metrics"
	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
)

// DefaultSessionTTL is used when no session TTL is configured.
const DefaultSessionTTL = 30 * time.Minute

// Principal is the account representation handed out by the provider.
// SessionID and ExpiresAt are set only on values returned by Login.
//
// A principal issued by Login stays bound to its session: CheckAction
// validates that session no matter what the exported fields hold. Principals
// from AddAccount or Accounts, or built by the caller, carry no session and
// are authorized by login alone; they are trusted in-process values.
type Principal struct {
	Login     string
	Roles     []string
	SessionID string
	ExpiresAt time.Time

	session string
}

// HasSession reports whether p was issued by Login.
func (p *Principal) HasSession() bool {
	return p != nil && p.session != ""
}

type account struct {
	login             string
	hash              []byte
	roles             []string
	passwordExpiresAt time.Time
	disabled          bool
}

type session struct {
	login     string
	expiresAt time.Time
}

type state int

const (
	stateNew state = iota
	stateRunning
	stateStopped
)

// Provider is the in-memory AuthPlugin.
type Provider struct {
	mu       sync.RWMutex
	id       domain.NameParams
	accounts map[string]*account
	sessions map[string]*session
	grants   map[string][]domain.Action
	state    state

	ttl           time.Duration
	sweepInterval time.Duration
	cost          int

	now     func() time.Time
	logger  *slog.Logger
	metrics ports.MetricsReporter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ ports.AuthPlugin[*Principal, domain.Action] = (*Provider)(nil)

// Option customizes a Provider.
type Option func(*Provider)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithMetrics sets the metrics reporter.
func WithMetrics(m ports.MetricsReporter) Option {
	return func(p *Provider) { p.metrics = m }
}

// WithSessionTTL sets the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.ttl = ttl }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.cost = cost }
}

// New creates a Provider. It must be started before use.
func New(opts ...Option) *Provider {
	p := &Provider{
		accounts: make(map[string]*account),
		sessions: make(map[string]*session),
		grants:   make(map[string][]domain.Action),
		ttl:      DefaultSessionTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   slog.Default(),
		metrics:  metrics.NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "memauth")
	return p
}

// Configure applies cfg.Settings: session TTL, bcrypt cost, role grants and
// seed accounts. It may only be called while the provider is not running.
// Seed accounts overwrite accounts with the same login.
func (p *Provider) Configure(ctx context.Context, cfg ports.PluginConfig) error {
	settings, err := DecodeSettings(cfg.Settings)
	if err != nil {
		return fmt.Errorf("configure auth plugin %s: %w", cfg.ID, err)
	}

	grants, err := settings.grants()
	if err != nil {
		return fmt.Errorf("configure auth plugin %s: %w", cfg.ID, err)
	}

	p.mu.Lock()
	if p.state == stateRunning {
		p.mu.Unlock()
		return fmt.Errorf("configure auth plugin %s: plugin is running", cfg.ID)
	}
	p.id = cfg.ID
	if settings.SessionTTL > 0 {
		p.ttl = settings.SessionTTL
	}
	if settings.BcryptCost > 0 {
		p.cost = settings.BcryptCost
	}
	p.sweepInterval = settings.SessionSweepInterval
	for role, actions := range grants {
		p.grants[role] = actions
	}
	p.mu.Unlock()

	for _, opts := range settings.Accounts {
		if _, err := p.putAccount(opts, true); err != nil {
			return fmt.Errorf("configure auth plugin %s: seed account %q: %w", cfg.ID, opts.Login, err)
		}
	}

	p.logger.DebugContext(ctx, "auth plugin configured",
		"plugin", cfg.ID.String(),
		"accounts", len(settings.Accounts),
		"roles_granted", len(grants))
	return nil
}

// Start makes the provider serve requests and launches the session sweeper
// when a sweep interval is configured.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == stateRunning {
		return fmt.Errorf("auth plugin %s already started", p.id)
	}
	p.state = stateRunning

	if p.sweepInterval > 0 {
		sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		p.cancel = cancel
		p.wg.Add(1)
		go p.sweep(sweepCtx, p.sweepInterval)
	}

	p.logger.InfoContext(ctx, "auth plugin started", "plugin", p.id.String())
	return nil
}

// Stop drops every session and stops serving. Accounts are kept so the
// provider can be started again.
func (p *Provider) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.state != stateRunning {
		p.mu.Unlock()
		return nil
	}
	p.state = stateStopped
	dropped := len(p.sessions)
	p.sessions = make(map[string]*session)
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.logger.InfoContext(ctx, "auth plugin stopped", "plugin", p.id.String(), "dropped", dropped)
	return nil
}

// Login authenticates creds. Password logins issue a new session; token
// logins resume one and extend its lifetime.
func (p *Provider) Login(ctx context.Context, creds domain.Credentials) (*Principal, error) {
	var (
		principal *Principal
		err       error
	)
	switch c := creds.(type) {
	case domain.PasswordCredentials:
		principal, err = p.loginPassword(c)
	case domain.TokenCredentials:
		principal, err = p.loginToken(c)
	default:
		err = errors.WrapAuthError("unsupported credentials", errors.ErrInvalidArgument)
	}

	p.metrics.RecordLogin(resultOf(err))
	if err != nil {
		p.logger.WarnContext(ctx, "login failed", "creds", creds, "error", err)
		return nil, err
	}
	p.logger.DebugContext(ctx, "login succeeded", "login", principal.Login)
	return principal, nil
}

func (p *Provider) loginPassword(c domain.PasswordCredentials) (*Principal, error) {
	p.mu.RLock()
	if err := p.checkRunning(); err != nil {
		p.mu.RUnlock()
		return nil, err
	}
	acct, ok := p.accounts[c.Login]
	var hash []byte
	if ok {
		hash = acct.hash
	}
	p.mu.RUnlock()

	if !ok {
		return nil, errors.NewAuthError("invalid login or password")
	}
	// hash is immutable once stored
	if err := bcrypt.CompareHashAndPassword(hash, []byte(c.Password)); err != nil {
		return nil, errors.NewAuthError("invalid login or password")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok = p.accounts[c.Login]
	if !ok {
		return nil, errors.NewAuthError("invalid login or password")
	}
	if acct.disabled {
		return nil, errors.NewAuthError("account " + c.Login + " is disabled")
	}
	now := p.now()
	if !acct.passwordExpiresAt.IsZero() && !now.Before(acct.passwordExpiresAt) {
		return nil, errors.NewExpiredError(fmt.Sprintf("password of %s expired at %s",
			c.Login, acct.passwordExpiresAt.UTC().Format(time.RFC3339)))
	}

	id := uuid.NewString()
	s := &session{login: acct.login, expiresAt: now.Add(p.ttl)}
	p.sessions[id] = s
	return principalOf(acct, id, s.expiresAt), nil
}

func (p *Provider) loginToken(c domain.TokenCredentials) (*Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRunning(); err != nil {
		return nil, err
	}

	acct, s, err := p.resolveSessionLocked(c.Token)
	if err != nil {
		return nil, err
	}
	s.expiresAt = p.now().Add(p.ttl)
	return principalOf(acct, c.Token, s.expiresAt), nil
}

// resolveSessionLocked returns the live session for id and its account.
// Expired sessions are removed. Callers must hold the write lock.
func (p *Provider) resolveSessionLocked(id string) (*account, *session, error) {
	s, ok := p.sessions[id]
	if !ok {
		return nil, nil, errors.NewAuthError("unknown session")
	}
	if !p.now().Before(s.expiresAt) {
		delete(p.sessions, id)
		return nil, nil, errors.NewExpiredError("session expired at " + s.expiresAt.UTC().Format(time.RFC3339))
	}
	acct, ok := p.accounts[s.login]
	if !ok || acct.disabled {
		delete(p.sessions, id)
		return nil, nil, errors.NewAuthError("account " + s.login + " is no longer active")
	}
	return acct, s, nil
}

// CheckAction authorizes principal for action using the role grants.
// Principals issued by Login must still hold a live session.
func (p *Provider) CheckAction(ctx context.Context, principal *Principal, action domain.Action) error {
	err := p.checkAction(principal, action)
	p.metrics.RecordCheck(resultOf(err))
	if err != nil {
		p.logger.DebugContext(ctx, "action denied", "action", action.String(), "error", err)
	}
	return err
}

func (p *Provider) checkAction(principal *Principal, action domain.Action) error {
	if principal == nil {
		return errors.NewAuthError("no principal")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.checkRunning(); err != nil {
		return err
	}

	var acct *account
	if principal.HasSession() {
		a, _, err := p.resolveSessionLocked(principal.session)
		if err != nil {
			return err
		}
		acct = a
	} else {
		a, ok := p.accounts[principal.Login]
		if !ok || a.disabled {
			return errors.NewAuthError("unknown account " + principal.Login)
		}
		acct = a
	}

	for _, role := range acct.roles {
		for _, granted := range p.grants[role] {
			if granted.Allows(action) {
				return nil
			}
		}
	}
	return errors.NewAuthError(fmt.Sprintf("%s may not %s", acct.login, action))
}

// AddAccount validates opts and creates the account.
func (p *Provider) AddAccount(ctx context.Context, opts domain.AccountOptions) (*Principal, error) {
	p.mu.RLock()
	err := p.checkRunning()
	p.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	principal, err := p.putAccount(opts, false)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "account added", "login", principal.Login, "roles", principal.Roles)
	return principal, nil
}

// putAccount stores the account described by opts. Seed accounts replace
// an existing account of the same login so configuring again is harmless.
func (p *Provider) putAccount(opts domain.AccountOptions, replace bool) (*Principal, error) {
	if err := domain.ValidateStruct(opts); err != nil {
		return nil, err
	}

	p.mu.RLock()
	cost := p.cost
	p.mu.RUnlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), cost)
	if stderrors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &errors.ValidationError{
			Field:   "AccountOptions.Password",
			Value:   fmt.Sprintf("%d bytes", len(opts.Password)),
			Message: "must be at most 72 bytes",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &account{
		login:             opts.Login,
		hash:              hash,
		roles:             uniqueSorted(opts.Roles),
		passwordExpiresAt: opts.PasswordExpiresAt,
		disabled:          opts.Disabled,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[opts.Login]; exists && !replace {
		return nil, errors.NewDomainError(errors.ErrAccountExists, fmt.Errorf("login %q", opts.Login))
	}
	p.accounts[opts.Login] = acct
	return principalOf(acct, "", time.Time{}), nil
}

// HasAccount reports whether any account matches query.
func (p *Provider) HasAccount(_ context.Context, query domain.AccountQuery) (bool, error) {
	match, err := compileQuery(query)
	if err != nil {
		return false, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.checkRunning(); err != nil {
		return false, err
	}
	for _, acct := range p.accounts {
		if match(acct) {
			return true, nil
		}
	}
	return false, nil
}

// Accounts returns the accounts matching query ordered by login.
func (p *Provider) Accounts(_ context.Context, query domain.AccountQuery) ([]*Principal, error) {
	match, err := compileQuery(query)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.checkRunning(); err != nil {
		return nil, err
	}

	out := make([]*Principal, 0)
	for _, acct := range p.accounts {
		if match(acct) {
			out = append(out, principalOf(acct, "", time.Time{}))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}

// Roles returns the current roles of the principal's account.
func (p *Provider) Roles(_ context.Context, principal *Principal) ([]string, error) {
	if principal == nil {
		return nil, &errors.ValidationError{Field: "principal", Value: nil, Message: "principal is required"}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.checkRunning(); err != nil {
		return nil, err
	}
	acct, ok := p.accounts[principal.Login]
	if !ok {
		return nil, errors.NewAuthError("unknown account " + principal.Login)
	}
	return append([]string{}, acct.roles...), nil
}

// PurgeExpired removes expired sessions and returns how many were removed.
func (p *Provider) PurgeExpired() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	n := 0
	for id, s := range p.sessions {
		if !now.Before(s.expiresAt) {
			delete(p.sessions, id)
			n++
		}
	}
	return n
}

// SessionCount returns the number of tracked sessions, expired or not.
func (p *Provider) SessionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

func (p *Provider) sweep(ctx context.Context, interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := p.PurgeExpired(); n > 0 {
				p.logger.Debug("purged expired sessions", "count", n)
			}
		}
	}
}

func (p *Provider) checkRunning() error {
	if p.state != stateRunning {
		return errors.NewDomainError(errors.ErrPluginClosed, fmt.Errorf("auth plugin %s", p.id))
	}
	return nil
}

func compileQuery(query domain.AccountQuery) (func(*account) bool, error) {
	if query.IsEmpty() {
		return nil, &errors.ValidationError{
			Field:   "query",
			Value:   query,
			Message: "at least one of login or role is required",
		}
	}
	if err := domain.ValidateStruct(query); err != nil {
		return nil, err
	}

	var pattern glob.Glob
	if query.Login != "" {
		g, err := glob.Compile(query.Login)
		if err != nil {
			return nil, &errors.ValidationError{
				Field:   "query.login",
				Value:   query.Login,
				Message: "malformed login pattern: " + err.Error(),
			}
		}
		pattern = g
	}

	return func(a *account) bool {
		if pattern != nil && !pattern.Match(a.login) {
			return false
		}
		if query.Role != "" && !containsSorted(a.roles, query.Role) {
			return false
		}
		return true
	}, nil
}

func principalOf(a *account, sessionID string, expiresAt time.Time) *Principal {
	return &Principal{
		Login:     a.login,
		Roles:     append([]string{}, a.roles...),
		SessionID: sessionID,
		ExpiresAt: expiresAt,
		session:   sessionID,
	}
}

func uniqueSorted(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func containsSorted(sorted []string, s string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ports.ResultSuccess
	case errors.IsExpired(err):
		return ports.ResultExpired
	case errors.IsAuthFailure(err):
		return ports.ResultDenied
	default:
		return ports.ResultError
	}
}
