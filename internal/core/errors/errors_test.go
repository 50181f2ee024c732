package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name        string
		domainError *DomainError
		want        string
	}{
		{
			name: "simple error",
			domainError: &DomainError{
				Code:    "NOT_REGISTERED",
				Message: "name is not registered",
			},
			want: "NOT_REGISTERED: name is not registered",
		},
		{
			name: "error with wrapped error",
			domainError: &DomainError{
				Code:    "ALREADY_REGISTERED",
				Message: "name is already registered",
				Err:     errors.New("wabbit:name=auth"),
			},
			want: "ALREADY_REGISTERED: name is already registered: wabbit:name=auth",
		},
		{
			name: "empty message",
			domainError: &DomainError{
				Code: "UNKNOWN",
			},
			want: "UNKNOWN: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.domainError.Error())
		})
	}
}

func TestNewDomainError_MatchesSentinel(t *testing.T) {
	cause := errors.New("handle wabbit:name=x")
	err := NewDomainError(ErrNotRegistered, cause)

	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrAlreadyRegistered)

	wrapped := fmt.Errorf("dereg: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotRegistered)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "name", Value: "", Message: "name is required"}

	assert.Equal(t, "validation failed for field 'name' with value '': name is required", err.Error())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAuthError_ConstructionShapes(t *testing.T) {
	cause := errors.New("bad password")

	tests := []struct {
		name        string
		err         *AuthError
		wantMessage string
		wantCause   error
		wantText    string
	}{
		{"message only", NewAuthError("no such user"), "no such user", nil, "authentication failed: no such user"},
		{"cause only", AuthErrorFrom(cause), "", cause, "authentication failed: bad password"},
		{"message and cause", WrapAuthError("login rejected", cause), "login rejected", cause, "authentication failed: login rejected: bad password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.err.Message)
			assert.Equal(t, tt.wantCause, tt.err.Unwrap())
			assert.Equal(t, tt.wantText, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrAuthentication)
			assert.False(t, IsExpired(tt.err))
		})
	}
}

func TestExpiredError_ConstructionShapes(t *testing.T) {
	cause := errors.New("session ttl elapsed")

	t.Run("cause only has no message", func(t *testing.T) {
		err := ExpiredErrorFrom(cause)
		assert.Empty(t, err.Message)
		assert.Equal(t, cause, errors.Unwrap(err))
		assert.Equal(t, "credential expired: session ttl elapsed", err.Error())
	})

	t.Run("message only has no cause", func(t *testing.T) {
		err := NewExpiredError("password expired")
		assert.Equal(t, "password expired", err.Message)
		assert.Nil(t, errors.Unwrap(err))
	})

	t.Run("message and cause", func(t *testing.T) {
		err := WrapExpiredError("token expired", cause)
		assert.Equal(t, "token expired", err.Message)
		assert.ErrorIs(t, err, cause)
	})
}

func TestExpiredError_IsAnAuthError(t *testing.T) {
	var err error = fmt.Errorf("login: %w", NewExpiredError("password expired"))

	assert.True(t, IsExpired(err))
	assert.True(t, IsAuthFailure(err))
	assert.ErrorIs(t, err, ErrAuthentication)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "password expired", authErr.Message)

	var expired *ExpiredError
	require.ErrorAs(t, err, &expired)

	// the base type is never mistaken for the specialization
	assert.False(t, IsExpired(NewAuthError("denied")))
	var notExpired *ExpiredError
	assert.False(t, errors.As(NewAuthError("denied"), &notExpired))
}
