package config_test

import (
	"github.com/go-viper/mapstructure/v2"

	"github.com/sufield/wabbit/internal/adapters/secondary/config"
)

func decode(input, out any) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: config.DecodeHook(),
		Result:     out,
	})
	if err != nil {
		return err
	}
	return d.Decode(input)
}
