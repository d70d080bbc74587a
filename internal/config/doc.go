// Package config resolves the limitq CLI configuration. It exposes a
// Default() baseline, an environment overlay for LIMITQ_* variables and
// a helper that turns the result into queue options.
//
// Example:
//
//	cfg := config.Default()
//	if err := config.FromEnv(&cfg); err != nil {
//	    return err
//	}
//	// command line flags override cfg here
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	opts := limitq.DefaultOptions[string]()
//	cfg.Apply(&opts)
package config
