package domain

import "log/slog"

const redacted = "[REDACTED]"

// Credentials is the closed set of inputs accepted by an auth plugin's Login.
type Credentials interface {
	// Subject names who is authenticating, without revealing the secret.
	Subject() string
	isCredentials()
}

// PasswordCredentials authenticate a login with a password.
type PasswordCredentials struct {
	Login    string
	Password string
}

// Subject returns the login.
func (c PasswordCredentials) Subject() string { return c.Login }

func (PasswordCredentials) isCredentials() {}

func (c PasswordCredentials) String() string {
	return "password(" + c.Login + ")"
}

// LogValue keeps the password out of structured logs.
func (c PasswordCredentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", "password"),
		slog.String("login", c.Login),
		slog.String("password", redacted),
	)
}

// TokenCredentials resume a session previously issued by Login.
type TokenCredentials struct {
	Token string
}

// Subject returns a fixed label; tokens are secret.
func (c TokenCredentials) Subject() string { return "token" }

func (TokenCredentials) isCredentials() {}

func (c TokenCredentials) String() string {
	return "token(" + redacted + ")"
}

// LogValue keeps the token out of structured logs.
func (c TokenCredentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", "token"),
		slog.String("token", redacted),
	)
}
