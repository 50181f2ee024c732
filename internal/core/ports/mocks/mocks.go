// Package mocks provides testify mocks of the plugin ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/ports"
)

// MockPluggable mocks ports.Pluggable.
type MockPluggable struct {
	mock.Mock
}

func (m *MockPluggable) Configure(ctx context.Context, cfg ports.PluginConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

func (m *MockPluggable) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPluggable) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockHandlerPlugin is a MockPluggable that also accepts messages.
type MockHandlerPlugin struct {
	MockPluggable
}

func (m *MockHandlerPlugin) Handle(ctx context.Context, msg ports.PlugMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockManagementPlugin mocks ports.ManagementPlugin.
type MockManagementPlugin struct {
	MockPluggable
}

func (m *MockManagementPlugin) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockManagementPlugin) Reg(ctx context.Context, target any, dom, name string, paths map[string]string) (domain.ObjectName, error) {
	args := m.Called(ctx, target, dom, name, paths)
	return args.Get(0).(domain.ObjectName), args.Error(1)
}

func (m *MockManagementPlugin) Dereg(ctx context.Context, handle domain.ObjectName) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

// MockAuthPlugin mocks ports.AuthPlugin over string accounts and actions.
type MockAuthPlugin struct {
	MockPluggable
}

func (m *MockAuthPlugin) CheckAction(ctx context.Context, account, action string) error {
	args := m.Called(ctx, account, action)
	return args.Error(0)
}

func (m *MockAuthPlugin) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}

func (m *MockAuthPlugin) AddAccount(ctx context.Context, opts domain.AccountOptions) (string, error) {
	args := m.Called(ctx, opts)
	return args.String(0), args.Error(1)
}

func (m *MockAuthPlugin) HasAccount(ctx context.Context, query domain.AccountQuery) (bool, error) {
	args := m.Called(ctx, query)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthPlugin) Roles(ctx context.Context, account string) ([]string, error) {
	args := m.Called(ctx, account)
	roles, _ := args.Get(0).([]string)
	return roles, args.Error(1)
}

func (m *MockAuthPlugin) Accounts(ctx context.Context, query domain.AccountQuery) ([]string, error) {
	args := m.Called(ctx, query)
	accounts, _ := args.Get(0).([]string)
	return accounts, args.Error(1)
}

var (
	_ ports.Pluggable                  = (*MockPluggable)(nil)
	_ ports.MessageHandler             = (*MockHandlerPlugin)(nil)
	_ ports.ManagementPlugin           = (*MockManagementPlugin)(nil)
	_ ports.AuthPlugin[string, string] = (*MockAuthPlugin)(nil)
)
