package memmgmt_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufield/wabbit/internal/adapters/metrics"
	"github.com/sufield/wabbit/internal/adapters/secondary/memmgmt"
	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
	"github.com/sufield/wabbit/internal/core/ports"
)

type bean struct{ name string }

func startedRegistry(t *testing.T, opts ...memmgmt.Option) *memmgmt.Registry {
	t.Helper()
	r := memmgmt.New(opts...)
	require.NoError(t, r.Configure(context.Background(), ports.PluginConfig{
		ID:   domain.MustNameParams("jmx"),
		Kind: ports.KindManagement,
	}))
	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(func() { _ = r.Stop(context.Background()) })
	return r
}

func TestRegistry_RegAndDereg(t *testing.T) {
	r := startedRegistry(t)
	ctx := context.Background()
	target := &bean{name: "cache"}

	on, err := r.Reg(ctx, target, "wabbit", "cache", map[string]string{"type": "store"})
	require.NoError(t, err)
	assert.Equal(t, "wabbit:name=cache,type=store", on.String())
	assert.Equal(t, 1, r.Len())

	reg, ok := r.Lookup(on)
	require.True(t, ok)
	assert.Same(t, target, reg.Target)
	assert.False(t, reg.RegisteredAt.IsZero())

	require.NoError(t, r.Dereg(ctx, on))
	assert.Equal(t, 0, r.Len())
	_, ok = r.Lookup(on)
	assert.False(t, ok)
}

func TestRegistry_DuplicateNameConflicts(t *testing.T) {
	r := startedRegistry(t)
	ctx := context.Background()

	first, err := r.Reg(ctx, &bean{}, "wabbit", "cache", map[string]string{"type": "store"})
	require.NoError(t, err)

	_, err = r.Reg(ctx, &bean{}, "wabbit", "cache", map[string]string{"type": "store"})
	assert.ErrorIs(t, err, errors.ErrAlreadyRegistered)

	reg, ok := r.Lookup(first)
	require.True(t, ok)
	assert.NotNil(t, reg.Target, "the first registration is kept")

	_, err = r.Reg(ctx, &bean{}, "wabbit", "cache", map[string]string{"type": "other"})
	assert.NoError(t, err, "different key properties make a different name")
}

func TestRegistry_DeregUnknownHandleFails(t *testing.T) {
	r := startedRegistry(t)
	ctx := context.Background()

	unknown, err := domain.NewObjectName("wabbit", map[string]string{"name": "ghost"})
	require.NoError(t, err)
	assert.ErrorIs(t, r.Dereg(ctx, unknown), errors.ErrNotRegistered)

	on, err := r.Reg(ctx, &bean{}, "wabbit", "once", nil)
	require.NoError(t, err)
	require.NoError(t, r.Dereg(ctx, on))
	assert.ErrorIs(t, r.Dereg(ctx, on), errors.ErrNotRegistered, "double dereg")

	assert.ErrorIs(t, r.Dereg(ctx, domain.ObjectName{}), errors.ErrInvalidArgument)
}

func TestRegistry_RegInvalidInput(t *testing.T) {
	r := startedRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		target any
		dom    string
		bean   string
		paths  map[string]string
	}{
		{"nil target", nil, "wabbit", "x", nil},
		{"empty name", &bean{}, "wabbit", "", nil},
		{"empty domain", &bean{}, "", "x", nil},
		{"paths redefine name", &bean{}, "wabbit", "x", map[string]string{"name": "y"}},
		{"bad path value", &bean{}, "wabbit", "x", map[string]string{"k": "a,b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Reg(ctx, tt.target, tt.dom, tt.bean, tt.paths)
			assert.ErrorIs(t, err, errors.ErrInvalidArgument)
		})
	}
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ResetReleasesEverything(t *testing.T) {
	r := startedRegistry(t)
	ctx := context.Background()

	var handles []domain.ObjectName
	for i := 0; i < 5; i++ {
		on, err := r.Reg(ctx, &bean{}, "wabbit", fmt.Sprintf("b%d", i), nil)
		require.NoError(t, err)
		handles = append(handles, on)
	}
	require.Equal(t, 5, r.Len())

	require.NoError(t, r.Reset(ctx))
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Names())
	for _, h := range handles {
		assert.ErrorIs(t, r.Dereg(ctx, h), errors.ErrNotRegistered)
	}

	_, err := r.Reg(ctx, &bean{}, "wabbit", "b0", nil)
	assert.NoError(t, err, "names are reusable after reset")
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := startedRegistry(t)
	ctx := context.Background()

	for _, n := range []string{"zeta", "alpha", "mid"} {
		_, err := r.Reg(ctx, &bean{}, "wabbit", n, nil)
		require.NoError(t, err)
	}

	var got []string
	for _, on := range r.Names() {
		got = append(got, on.String())
	}
	assert.Equal(t, []string{"wabbit:name=alpha", "wabbit:name=mid", "wabbit:name=zeta"}, got)
}

func TestRegistry_Limit(t *testing.T) {
	ctx := context.Background()
	r := memmgmt.New()
	require.NoError(t, r.Configure(ctx, ports.PluginConfig{
		ID:       domain.MustNameParams("jmx"),
		Settings: map[string]any{"max_registrations": 2},
	}))
	require.NoError(t, r.Start(ctx))
	defer func() { require.NoError(t, r.Stop(ctx)) }()

	for i := 0; i < 2; i++ {
		_, err := r.Reg(ctx, &bean{}, "wabbit", fmt.Sprintf("b%d", i), nil)
		require.NoError(t, err)
	}
	_, err := r.Reg(ctx, &bean{}, "wabbit", "b2", nil)
	assert.ErrorIs(t, err, errors.ErrRegistryFull)

	assert.Error(t, memmgmt.New().Configure(ctx, ports.PluginConfig{
		ID:       domain.MustNameParams("jmx"),
		Settings: map[string]any{"max_registrations": -1},
	}))
	assert.Error(t, memmgmt.New().Configure(ctx, ports.PluginConfig{
		ID:       domain.MustNameParams("jmx"),
		Settings: map[string]any{"unknown": true},
	}))
}

func TestRegistry_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := memmgmt.New()

	_, err := r.Reg(ctx, &bean{}, "wabbit", "early", nil)
	assert.ErrorIs(t, err, errors.ErrPluginClosed)
	assert.ErrorIs(t, r.Reset(ctx), errors.ErrPluginClosed)

	require.NoError(t, r.Start(ctx))
	assert.Error(t, r.Start(ctx))
	_, err = r.Reg(ctx, &bean{}, "wabbit", "b", nil)
	require.NoError(t, err)

	require.NoError(t, r.Stop(ctx))
	assert.Equal(t, 0, r.Len(), "stop releases registrations")
	require.NoError(t, r.Stop(ctx))
}

func TestRegistry_ConcurrentReg(t *testing.T) {
	r := startedRegistry(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			on, err := r.Reg(ctx, &bean{}, "wabbit", "b", map[string]string{"idx": fmt.Sprint(i % 10)})
			if err == nil {
				assert.Equal(t, "wabbit", on.Domain())
			} else {
				assert.ErrorIs(t, err, errors.ErrAlreadyRegistered)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 10, r.Len())
}

func TestRegistry_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := startedRegistry(t, memmgmt.WithMetrics(metrics.NewPrometheusMetrics(reg)))
	ctx := context.Background()

	on, err := r.Reg(ctx, &bean{}, "wabbit", "a", nil)
	require.NoError(t, err)
	_, err = r.Reg(ctx, &bean{}, "wabbit", "b", nil)
	require.NoError(t, err)
	require.NoError(t, r.Dereg(ctx, on))

	expected := `
# HELP wabbit_mgmt_registrations Number of objects currently registered for management
# TYPE wabbit_mgmt_registrations gauge
wabbit_mgmt_registrations 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "wabbit_mgmt_registrations"))
}
