// Package config loads typed configuration structs from the process
// environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from environment variables using its `env` struct tags
// (envDefault for fallbacks, envSeparator for list fields). cfg must be a
// pointer to a struct.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
