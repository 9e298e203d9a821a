package config

import "github.com/caarlos0/env/v11"

// parseEnv overlays values from TRUSTKEEPER_* environment variables. Unset
// variables leave the current value alone; durations use Go syntax ("30m").
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
