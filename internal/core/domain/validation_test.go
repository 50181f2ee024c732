package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sufield/wabbit/internal/core/domain"
	"github.com/sufield/wabbit/internal/core/errors"
)

func TestValidateAccountOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    domain.AccountOptions
		wantErr bool
	}{
		{"valid", domain.AccountOptions{Login: "alice", Password: "correct-horse", Roles: []string{"admin"}}, false},
		{"email login", domain.AccountOptions{Login: "bob@corp.io", Password: "correct-horse"}, false},
		{"missing login", domain.AccountOptions{Password: "correct-horse"}, true},
		{"short password", domain.AccountOptions{Login: "alice", Password: "short"}, true},
		{"bad login chars", domain.AccountOptions{Login: "-alice", Password: "correct-horse"}, true},
		{"bad role", domain.AccountOptions{Login: "alice", Password: "correct-horse", Roles: []string{"Admin"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.ValidateStruct(tt.opts)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidArgument)
		})
	}
}

func TestValidate_RedactsPassword(t *testing.T) {
	err := domain.ValidateStruct(domain.AccountOptions{Login: "alice", Password: "tiny"})
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "tiny")
}

func TestValidateVar_CustomTags(t *testing.T) {
	v := domain.NewValidator()

	assert.NoError(t, v.ValidateVar("jmx/host#9010", "name_params"))
	assert.Error(t, v.ValidateVar("/oops", "name_params"))
	assert.Error(t, v.ValidateVar("auth/a,b", "name_params"))
	assert.Error(t, v.ValidateVar("auth/k=v", "name_params"))
	assert.NoError(t, v.ValidateVar("beans:write", "action"))
	assert.Error(t, v.ValidateVar("beans", "action"))
}
