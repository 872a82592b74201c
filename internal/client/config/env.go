package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

const envPrefix = "PARK_"

// parseEnv overlays cfg with PARK_* variables. Unset variables leave the
// current value alone.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
