package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/sufield/wabbit/internal/buildinfo"
	"github.com/sufield/wabbit/internal/cli"
	"github.com/sufield/wabbit/internal/core/errors"
)

const testConfig = `
management:
  domain: wabbit
logging:
  level: error
plugins:
  - id: management
    kind: management
  - id: auth/local#eu
    kind: auth
    settings:
      bcrypt_cost: 4
      permissions:
        admin: ["*:*"]
        viewer: ["beans:read"]
      accounts:
        - login: alice
          password: alice-password
          roles: [admin]
        - login: bob
          password: bob-password
          roles: [viewer]
        - login: old
          password: old-password
          password_expires_at: 2001-01-01T00:00:00Z
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wabbit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Plugin host for authentication and management plugins")
	for _, sub := range []string{"validate", "inspect", "login", "run", "version", "man"} {
		assert.Contains(t, out, sub)
	}

	_, _, err = run(t, "no-such-command")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", "--config", writeConfig(t, testConfig))
	require.NoError(t, err)
	assert.Contains(t, out, "is valid: 1 auth plugin(s), 1 management plugin(s)")

	_, _, err = run(t, "validate")
	assert.ErrorIs(t, err, cli.ErrUsage)
	assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))

	_, _, err = run(t, "validate", "--config", writeConfig(t, "plugins:\n  - id: x\n    kind: queue\n"))
	assert.ErrorIs(t, err, cli.ErrConfig)
	assert.Equal(t, cli.ExitConfig, cli.ExitCode(err))

	bad := writeConfig(t, "plugins:\n  - id: auth\n    kind: auth\n    settings:\n      session_ttl: soon\n")
	_, _, err = run(t, "validate", "--config", bad)
	assert.ErrorIs(t, err, cli.ErrRuntime, "plugin settings are checked on start")
}

func TestInspect(t *testing.T) {
	path := writeConfig(t, testConfig)

	out, _, err := run(t, "inspect", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Management domain: wabbit")
	assert.Contains(t, out, "wabbit:name=auth,param0=local,param1=eu")

	out, _, err = run(t, "inspect", "--config", path, "--format", "json")
	require.NoError(t, err)
	var report cli.InspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Plugins, 2)
	assert.Equal(t, "auth/local#eu", report.Plugins[0].ID)
	assert.Equal(t, []string{"local", "eu"}, report.Plugins[0].Params)
	assert.Equal(t, "auth", report.Plugins[0].Kind)
	assert.Equal(t, []string{"wabbit:name=auth,param0=local,param1=eu", "wabbit:name=management"}, report.Registrations)

	out, _, err = run(t, "inspect", "--config", path, "--format", "yaml")
	require.NoError(t, err)
	var fromYAML cli.InspectReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &fromYAML))
	assert.Equal(t, report, fromYAML)

	_, _, err = run(t, "inspect", "--format", "xml")
	assert.ErrorIs(t, err, cli.ErrUsage)
}

func TestInspect_DefaultConfiguration(t *testing.T) {
	out, _, err := run(t, "inspect", "--log-level", "error", "--format", "json")
	require.NoError(t, err)

	var report cli.InspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Plugins, 2)
	assert.Len(t, report.Registrations, 2)
}

func TestLogin(t *testing.T) {
	path := writeConfig(t, testConfig)

	out, _, err := run(t, "login", "-c", path, "--user", "alice", "--password", "alice-password", "--action", "beans:reg")
	require.NoError(t, err)
	assert.Contains(t, out, "Authenticated alice via auth/local#eu")
	assert.Contains(t, out, "Roles: admin")
	assert.Contains(t, out, "allowed")
}

func TestLogin_Failures(t *testing.T) {
	path := writeConfig(t, testConfig)

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		wantCode int
	}{
		{"wrong password", []string{"--user", "alice", "--password", "nope"}, cli.ErrAuth, cli.ExitAuth},
		{"unknown user", []string{"--user", "mallory", "--password", "whatever"}, cli.ErrAuth, cli.ExitAuth},
		{"expired password", []string{"--user", "old", "--password", "old-password"}, cli.ErrAuth, cli.ExitAuth},
		{"denied action", []string{"--user", "bob", "--password", "bob-password", "--action", "beans:reg"}, cli.ErrAuth, cli.ExitAuth},
		{"bad action", []string{"--user", "bob", "--password", "bob-password", "--action", "beans"}, cli.ErrUsage, cli.ExitUsage},
		{"unknown plugin", []string{"--user", "bob", "--password", "bob-password", "--plugin", "auth/other"}, cli.ErrConfig, cli.ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"login", "--config", path}, tt.args...)
			_, _, err := run(t, args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantCode, cli.ExitCode(err))
		})
	}
}

func TestLogin_RequiresFlags(t *testing.T) {
	_, _, err := run(t, "login", "--user", "alice")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stdout := &syncBuffer{}
	cmd := cli.NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"run", "--config", writeConfig(t, testConfig), "--grace-period", "5s"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(stdout.String(), "Running")
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
	assert.Contains(t, stdout.String(), "Running 2 plugin(s) under management domain wabbit")
	assert.Contains(t, stdout.String(), "Stopped")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: "+buildinfo.Version)

	out, _, err = run(t, "version", "--format", "json")
	require.NoError(t, err)
	var info buildinfo.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, buildinfo.Get(), info)

	_, _, err = run(t, "version", "--format", "xml")
	assert.ErrorIs(t, err, cli.ErrUsage)
}

func TestMan(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := run(t, "man", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, cli.ExitOK, cli.ExitCode(nil))
	assert.Equal(t, cli.ExitRuntime, cli.ExitCode(cli.ErrRuntime))
	assert.Equal(t, cli.ExitInternal, cli.ExitCode(errors.ErrPluginClosed))
}

func TestRedactError(t *testing.T) {
	msg := cli.RedactError(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), msg)

	redacted := cli.RedactString("login --password hunter22 failed for /home/alice with Bearer abc.def token=0123456789abcdef")
	assert.NotContains(t, redacted, "hunter22")
	assert.NotContains(t, redacted, "abc.def")
	assert.NotContains(t, redacted, "0123456789abcdef")
	assert.NotContains(t, redacted, "/home/alice")
	assert.Empty(t, cli.RedactError(nil))
}
