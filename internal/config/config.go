package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/multierr"

	"github.com/azargarov/limitq"
)

// Config is the resolved configuration of a limitq run.
type Config struct {
	// Workers is the number of commands allowed to run at once.
	Workers int
	// Retries is how many times a failed command is run again.
	// A negative value retries forever.
	Retries int
	// Timeout bounds each attempt. Zero or negative disables it.
	Timeout time.Duration
	// QueueSize bounds the number of waiting commands. Negative is unbounded.
	QueueSize int
	// RetryFront puts failed commands back at the head of the queue.
	RetryFront bool
	// Rate limits how many commands are started per second. Zero is unlimited.
	Rate float64
	// BackoffInitial enables delayed retries when positive.
	BackoffInitial time.Duration
	// BackoffMax caps the retry delay.
	BackoffMax time.Duration
	// Shell runs each command as `Shell -c line`.
	Shell string
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Workers:   runtime.NumCPU(),
		Retries:   0,
		Timeout:   0,
		QueueSize: 1024,
		Shell:     "/bin/sh",
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var err error
	if c.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.QueueSize == 0 {
		err = multierr.Append(err, errors.New("queue size must not be 0"))
	}
	if c.Rate < 0 {
		err = multierr.Append(err, fmt.Errorf("rate must not be negative, got %v", c.Rate))
	}
	if c.BackoffInitial < 0 || c.BackoffMax < 0 {
		err = multierr.Append(err, errors.New("backoff durations must not be negative"))
	}
	if c.Shell == "" {
		err = multierr.Append(err, errors.New("shell must not be empty"))
	}
	return err
}

// Apply copies the queue limits of c into opts.
func (c Config) Apply(opts *limitq.Options[string]) {
	opts.MaxWorkers = c.Workers
	opts.MaxRetries = c.Retries
	opts.MaxQueueSize = c.QueueSize
	opts.RetryAtFront = c.RetryFront

	opts.MaxWait = limitq.NoTimeout
	if c.Timeout > 0 {
		opts.MaxWait = c.Timeout
	}

	opts.RetryBackoff = nil
	if c.BackoffInitial > 0 {
		opts.RetryBackoff = &limitq.RetryPolicy{Initial: c.BackoffInitial, Max: c.BackoffMax}
	}
}
