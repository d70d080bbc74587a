package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/spf13/cobra"

	"github.com/azargarov/limitq/internal/config"
	"github.com/azargarov/limitq/internal/runner"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(opts ...runner.Option) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "limitq",
		Short: "Run shell commands through a bounded retrying work queue",
		Long: "limitq reads shell commands, one per line, and runs them with a bounded\n" +
			"number of workers, per-attempt timeouts and retries.",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the limitq version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "limitq", version)
		},
	}
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newRunCmd(opts...))
	return rootCmd
}

func newRunCmd(opts ...runner.Option) *cobra.Command {
	runCmd := &cobra.Command{
		Use:          "run",
		Short:        "Run commands from --file or stdin",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if path, _ := cmd.Flags().GetString("file"); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			r, err := runner.New(cfg, opts...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			lg.FromContext(ctx).Info("starting run",
				lg.Int("workers", cfg.Workers),
				lg.Int("retries", cfg.Retries),
				lg.Int("queue_size", cfg.QueueSize),
				lg.String("timeout", cfg.Timeout.String()),
			)

			sum, err := r.Run(ctx, in)
			printSummary(cmd.ErrOrStderr(), sum)
			return err
		},
	}

	def := config.Default()
	runCmd.Flags().StringP("file", "f", "", "Read commands from this file instead of stdin")
	runCmd.Flags().IntP("workers", "w", def.Workers, "Maximum number of commands running at once (env LIMITQ_WORKERS)")
	runCmd.Flags().IntP("retries", "r", def.Retries, "Retries per failed command, -1 for unlimited (env LIMITQ_RETRIES)")
	runCmd.Flags().DurationP("timeout", "t", def.Timeout, "Per-attempt timeout, 0 disables (env LIMITQ_TIMEOUT)")
	runCmd.Flags().Int("queue-size", def.QueueSize, "Maximum number of waiting commands, -1 for unbounded (env LIMITQ_QUEUE_SIZE)")
	runCmd.Flags().Bool("retry-front", def.RetryFront, "Retry failed commands before waiting ones (env LIMITQ_RETRY_FRONT)")
	runCmd.Flags().Float64("rate", def.Rate, "Commands started per second, 0 for unlimited (env LIMITQ_RATE)")
	runCmd.Flags().Duration("backoff-initial", def.BackoffInitial, "First retry delay, 0 retries immediately (env LIMITQ_BACKOFF_INITIAL)")
	runCmd.Flags().Duration("backoff-max", def.BackoffMax, "Retry delay cap (env LIMITQ_BACKOFF_MAX)")
	runCmd.Flags().String("shell", def.Shell, "Shell that runs each command with -c (env LIMITQ_SHELL)")
	return runCmd
}

// resolveConfig layers defaults, LIMITQ_* variables and explicitly set flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if err := config.FromEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	fl := cmd.Flags()
	if fl.Changed("workers") {
		cfg.Workers, _ = fl.GetInt("workers")
	}
	if fl.Changed("retries") {
		cfg.Retries, _ = fl.GetInt("retries")
	}
	if fl.Changed("timeout") {
		cfg.Timeout, _ = fl.GetDuration("timeout")
	}
	if fl.Changed("queue-size") {
		cfg.QueueSize, _ = fl.GetInt("queue-size")
	}
	if fl.Changed("retry-front") {
		cfg.RetryFront, _ = fl.GetBool("retry-front")
	}
	if fl.Changed("rate") {
		cfg.Rate, _ = fl.GetFloat64("rate")
	}
	if fl.Changed("backoff-initial") {
		cfg.BackoffInitial, _ = fl.GetDuration("backoff-initial")
	}
	if fl.Changed("backoff-max") {
		cfg.BackoffMax, _ = fl.GetDuration("backoff-max")
	}
	if fl.Changed("shell") {
		cfg.Shell, _ = fl.GetString("shell")
	}

	return cfg, cfg.Validate()
}

func printSummary(w io.Writer, s runner.Summary) {
	fmt.Fprintf(w, "queued=%d succeeded=%d dropped=%d failed_attempts=%d retried=%d timed_out=%d rejected=%d\n",
		s.Queued, s.Succeeded, s.Dropped, s.Failed, s.Retried, s.TimedOut, s.Rejected)
}
