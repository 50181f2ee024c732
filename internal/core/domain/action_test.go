package domain_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/wabbit/internal/core/domain"
)

func TestParseAction(t *testing.T) {
	a, err := domain.ParseAction("accounts:read")
	require.NoError(t, err)
	assert.Equal(t, domain.Action{Resource: "accounts", Verb: "read"}, a)
	assert.Equal(t, "accounts:read", a.String())

	for _, bad := range []string{"", "accounts", ":read", "accounts:"} {
		_, err := domain.ParseAction(bad)
		assert.Error(t, err, bad)
	}
}

func TestAction_Allows(t *testing.T) {
	read := domain.Action{Resource: "accounts", Verb: "read"}

	tests := []struct {
		granted domain.Action
		want    bool
	}{
		{domain.Action{Resource: "accounts", Verb: "read"}, true},
		{domain.Action{Resource: "accounts", Verb: "*"}, true},
		{domain.Action{Resource: "*", Verb: "read"}, true},
		{domain.Action{Resource: "*", Verb: "*"}, true},
		{domain.Action{Resource: "accounts", Verb: "write"}, false},
		{domain.Action{Resource: "beans", Verb: "read"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.granted.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.granted.Allows(read))
		})
	}
}

func TestCredentials_NeverRenderSecrets(t *testing.T) {
	pw := domain.PasswordCredentials{Login: "alice", Password: "s3cret-pass"}
	tok := domain.TokenCredentials{Token: "6f1c0e1e-token"}

	assert.Equal(t, "alice", pw.Subject())
	assert.NotContains(t, pw.String(), "s3cret-pass")
	assert.NotContains(t, tok.String(), "6f1c0e1e")
	assert.NotContains(t, pw.LogValue().String(), "s3cret-pass")
	assert.Equal(t, slog.KindGroup, tok.LogValue().Kind())
	assert.NotContains(t, tok.LogValue().String(), "6f1c0e1e")
}
