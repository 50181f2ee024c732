package memauth

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/sufield/wabbit/internal/core/domain"
)

// Settings is the decoded form of an auth plugin's PluginConfig.Settings.
type Settings struct {
	SessionTTL           time.Duration           `mapstructure:"session_ttl" validate:"min=0"`
	SessionSweepInterval time.Duration           `mapstructure:"session_sweep_interval" validate:"min=0"`
	BcryptCost           int                     `mapstructure:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
	Permissions          map[string][]string     `mapstructure:"permissions" validate:"dive,keys,role,endkeys,dive,action"`
	Accounts             []domain.AccountOptions `mapstructure:"accounts" validate:"dive"`
}

// DecodeSettings decodes and validates raw plugin settings. Durations may be
// given as strings ("30m") and timestamps as RFC 3339.
func DecodeSettings(raw map[string]any) (Settings, error) {
	var s Settings
	if len(raw) == 0 {
		return s, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
		ErrorUnused: true,
		Result:      &s,
	})
	if err != nil {
		return s, fmt.Errorf("create settings decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return s, fmt.Errorf("decode auth settings: %w", err)
	}
	if err := domain.ValidateStruct(s); err != nil {
		return s, fmt.Errorf("invalid auth settings: %w", err)
	}
	return s, nil
}

func (s Settings) grants() (map[string][]domain.Action, error) {
	out := make(map[string][]domain.Action, len(s.Permissions))
	for role, actions := range s.Permissions {
		for _, raw := range actions {
			a, err := domain.ParseAction(raw)
			if err != nil {
				return nil, fmt.Errorf("role %s: %w", role, err)
			}
			out[role] = append(out[role], a)
		}
	}
	return out, nil
}
