package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.PasswordHashCost < bcrypt.MinCost || c.Auth.PasswordHashCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.password_hash_cost must be within [%d,%d] (got %d)",
			bcrypt.MinCost, bcrypt.MaxCost, c.Auth.PasswordHashCost)
	}

	if err := c.Ingest.validate(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	return nil
}

func (c *IngestConfig) validate() error {
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be >= 1 (got %d)", c.MaxBatchSize)
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate_limit_per_minute must be >= 1 (got %d)", c.RateLimitPerMinute)
	}
	if c.JitterRing < 0 {
		return fmt.Errorf("jitter_ring must be >= 0 (got %d)", c.JitterRing)
	}
	return nil
}
