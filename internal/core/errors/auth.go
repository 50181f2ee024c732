package errors

import "errors"

// Sentinels for errors.Is checks against the auth taxonomy.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrExpired        = errors.New("credential expired")
)

// AuthError signals an authentication or authorization failure.
// Message and Err are both optional.
type AuthError struct {
	Message string
	Err     error
}

// NewAuthError creates an AuthError carrying only a message.
func NewAuthError(msg string) *AuthError {
	return &AuthError{Message: msg}
}

// AuthErrorFrom creates an AuthError carrying only a cause.
func AuthErrorFrom(cause error) *AuthError {
	return &AuthError{Err: cause}
}

// WrapAuthError creates an AuthError with both a message and a cause.
func WrapAuthError(msg string, cause error) *AuthError {
	return &AuthError{Message: msg, Err: cause}
}

func (e *AuthError) Error() string {
	return render(ErrAuthentication.Error(), e.Message, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}

// ExpiredError is the AuthError raised when a credential, token or session
// has expired rather than being invalid.
type ExpiredError struct {
	AuthError
}

// NewExpiredError creates an ExpiredError carrying only a message.
func NewExpiredError(msg string) *ExpiredError {
	return &ExpiredError{AuthError{Message: msg}}
}

// ExpiredErrorFrom creates an ExpiredError carrying only a cause.
func ExpiredErrorFrom(cause error) *ExpiredError {
	return &ExpiredError{AuthError{Err: cause}}
}

// WrapExpiredError creates an ExpiredError with both a message and a cause.
func WrapExpiredError(msg string, cause error) *ExpiredError {
	return &ExpiredError{AuthError{Message: msg, Err: cause}}
}

func (e *ExpiredError) Error() string {
	return render(ErrExpired.Error(), e.Message, e.Err)
}

func (e *ExpiredError) Is(target error) bool {
	return target == ErrExpired || target == ErrAuthentication
}

// As lets errors.As extract the embedded *AuthError from an ExpiredError.
func (e *ExpiredError) As(target any) bool {
	if p, ok := target.(**AuthError); ok {
		*p = &e.AuthError
		return true
	}
	return false
}

// IsExpired reports whether err is, or wraps, an ExpiredError.
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}

// IsAuthFailure reports whether err belongs to the auth taxonomy.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

func render(kind, msg string, cause error) string {
	switch {
	case msg != "" && cause != nil:
		return kind + ": " + msg + ": " + cause.Error()
	case msg != "":
		return kind + ": " + msg
	case cause != nil:
		return kind + ": " + cause.Error()
	default:
		return kind
	}
}
