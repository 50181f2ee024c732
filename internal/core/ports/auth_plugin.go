package ports

import (
	"context"

	"github.com/sufield/wabbit/internal/core/domain"
)

// AuthPlugin is the contract of a pluggable authentication backend.
//
// A is the backend's account (or session) representation and X its action
// representation; both are opaque to the host. Failures of Login and
// CheckAction are reported as *errors.AuthError, or *errors.ExpiredError when
// a credential or session has expired.
type AuthPlugin[A any, X any] interface {
	Pluggable

	// CheckAction returns nil when account may perform action.
	CheckAction(ctx context.Context, account A, action X) error

	// Login authenticates creds and returns a session-bearing account.
	Login(ctx context.Context, creds domain.Credentials) (A, error)

	// AddAccount creates an account.
	AddAccount(ctx context.Context, opts domain.AccountOptions) (A, error)

	// HasAccount reports whether any account matches query. A query that
	// simply matches nothing yields false and no error; only malformed
	// queries fail.
	HasAccount(ctx context.Context, query domain.AccountQuery) (bool, error)

	// Roles lists the roles of account. Order is not significant.
	Roles(ctx context.Context, account A) ([]string, error)

	// Accounts returns every account matching query.
	Accounts(ctx context.Context, query domain.AccountQuery) ([]A, error)
}
