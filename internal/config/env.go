package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/multierr"
)

// FromEnv overlays LIMITQ_* environment variables onto cfg.
//
// Unset or empty variables leave cfg untouched. Malformed values are
// skipped and reported together in the returned error.
func FromEnv(cfg *Config) error {
	var err error

	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = multierr.Append(err, fmt.Errorf("%s: %w", key, perr))
				return
			}
			*dst = n
		}
	}
	envDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = multierr.Append(err, fmt.Errorf("%s: %w", key, perr))
				return
			}
			*dst = d
		}
	}

	envInt("LIMITQ_WORKERS", &cfg.Workers)
	envInt("LIMITQ_RETRIES", &cfg.Retries)
	envDuration("LIMITQ_TIMEOUT", &cfg.Timeout)
	envInt("LIMITQ_QUEUE_SIZE", &cfg.QueueSize)
	envDuration("LIMITQ_BACKOFF_INITIAL", &cfg.BackoffInitial)
	envDuration("LIMITQ_BACKOFF_MAX", &cfg.BackoffMax)

	if v := os.Getenv("LIMITQ_RETRY_FRONT"); v != "" {
		if b, perr := strconv.ParseBool(v); perr == nil {
			cfg.RetryFront = b
		} else {
			err = multierr.Append(err, fmt.Errorf("LIMITQ_RETRY_FRONT: %w", perr))
		}
	}
	if v := os.Getenv("LIMITQ_RATE"); v != "" {
		if f, perr := strconv.ParseFloat(v, 64); perr == nil {
			cfg.Rate = f
		} else {
			err = multierr.Append(err, fmt.Errorf("LIMITQ_RATE: %w", perr))
		}
	}
	if v := os.Getenv("LIMITQ_SHELL"); v != "" {
		cfg.Shell = v
	}

	return err
}
