package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env tag declared on configuration structs.
const EnvPrefix = "UNDERCROFT_"

// ParseEnv loads configuration from environment variables. Struct tags are
// declared without EnvPrefix; it is applied here.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
