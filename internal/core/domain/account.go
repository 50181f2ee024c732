package domain

import "time"

// AccountOptions describe an account to create.
type AccountOptions struct {
	Login             string    `mapstructure:"login" yaml:"login" validate:"required,login"`
	Password          string    `mapstructure:"password" yaml:"-" validate:"required,min=8,max=72"`
	Roles             []string  `mapstructure:"roles" yaml:"roles" validate:"dive,role"`
	PasswordExpiresAt time.Time `mapstructure:"password_expires_at" yaml:"password_expires_at,omitempty"`
	Disabled          bool      `mapstructure:"disabled" yaml:"disabled,omitempty"`
}

// AccountQuery filters accounts. Login may be an exact login or a glob
// pattern such as "svc-*". Role restricts results to holders of that role.
// At least one criterion must be set.
type AccountQuery struct {
	Login string `validate:"omitempty,max=128"`
	Role  string `validate:"omitempty,role"`
}

// IsEmpty reports whether the query carries no criteria.
func (q AccountQuery) IsEmpty() bool {
	return q.Login == "" && q.Role == ""
}
