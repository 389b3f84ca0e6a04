package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be >= 0 (got %d)", c.Server.RateLimit)
	}

	if err := c.Ranking.validate(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}

	if err := c.Scheduler.validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers()) == 0 {
			return fmt.Errorf("kafka: brokers must be set when kafka is enabled")
		}
		if c.Kafka.Topic == "" || c.Kafka.GroupID == "" {
			return fmt.Errorf("kafka: topic and group_id are required")
		}
	}

	return nil
}

func (r *RankingConfig) validate() error {
	if r.RetryMaxAttempts < 1 {
		return fmt.Errorf("retry_max_attempts must be >= 1 (got %d)", r.RetryMaxAttempts)
	}
	if r.RetryInitialBackoff <= 0 {
		return fmt.Errorf("retry_initial_backoff must be > 0 (got %v)", r.RetryInitialBackoff)
	}
	if r.MaxLimit <= 0 {
		return fmt.Errorf("max_limit must be > 0 (got %d)", r.MaxLimit)
	}
	if r.DefaultLimit <= 0 || r.DefaultLimit > r.MaxLimit {
		return fmt.Errorf("default_limit must be in 1..%d (got %d)", r.MaxLimit, r.DefaultLimit)
	}
	return nil
}

func (s *SchedulerConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(s.WindowSweepSpec); err != nil {
		return fmt.Errorf("window_sweep_spec %q: %w", s.WindowSweepSpec, err)
	}
	if _, err := cron.ParseStandard(s.RecomputeSpec); err != nil {
		return fmt.Errorf("recompute_spec %q: %w", s.RecomputeSpec, err)
	}
	return nil
}
