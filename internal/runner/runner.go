// Package runner feeds newline-delimited shell commands through a
// limitq.Queue and waits for every command to finish.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/azargarov/limitq"
	"github.com/azargarov/limitq/internal/config"
)

const (
	admitInitialWait = time.Millisecond
	admitMaxWait     = 100 * time.Millisecond
)

// ExecFunc runs one command line with shell.
type ExecFunc func(ctx context.Context, shell, line string) error

// Summary counts what happened during a run.
type Summary struct {
	Queued    int
	Rejected  int
	Succeeded int
	Failed    int
	Retried   int
	TimedOut  int
	Dropped   int
}

// Runner executes commands with the limits of its config.
type Runner struct {
	cfg     config.Config
	exec    ExecFunc
	limiter *rate.Limiter
	stdout  io.Writer
	stderr  io.Writer
}

// Option customizes a Runner.
type Option func(*Runner)

// WithExec replaces the shell executor.
func WithExec(fn ExecFunc) Option {
	return func(r *Runner) { r.exec = fn }
}

// WithOutput sets where command output is written. Defaults to the
// process stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// New validates cfg and returns a Runner.
func New(cfg config.Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &Runner{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Inf, 1),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	r.exec = r.shellExec
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) shellExec(ctx context.Context, shell, line string) error {
	cmd := exec.CommandContext(ctx, shell, "-c", line)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	return cmd.Run()
}

// Run reads commands from in, one per line, and returns once the input is
// exhausted and every admitted command has succeeded or been dropped.
// Blank lines and lines starting with '#' are skipped.
//
// The returned error combines one entry per dropped command. When ctx is
// cancelled Run stops dispatching and returns without waiting for
// commands already running.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Summary, error) {
	logger := lg.FromContext(ctx)
	m := &limitq.AtomicMetrics{}
	idle := make(chan struct{}, 1)

	var (
		mu       sync.Mutex
		failures error
	)

	opts := limitq.DefaultOptions[string]()
	r.cfg.Apply(&opts)
	opts.Ctx = ctx
	opts.Metrics = m
	opts.Process = limitq.Blocking(func(ctx context.Context, line string, attempts int) error {
		if attempts > 0 {
			logger.Info("retrying command", lg.String("command", line), lg.Int("attempt", attempts+1))
		}
		return r.exec(ctx, r.cfg.Shell, line)
	})
	opts.OnFailure = func(f limitq.Failure[string]) {
		err := fmt.Errorf("%q failed after %d attempts: %w", f.Payload, f.Attempts, f.Err())
		mu.Lock()
		failures = multierr.Append(failures, err)
		mu.Unlock()
	}
	opts.OnProgress = func(size, active int) {
		if size == 0 && active == 0 {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	}

	q := limitq.New(opts)
	g, gctx := errgroup.WithContext(ctx)
	fed := make(chan struct{})

	g.Go(func() error {
		defer close(fed)
		return r.feed(gctx, q, in)
	})
	g.Go(func() error {
		select {
		case <-fed:
		case <-gctx.Done():
			return gctx.Err()
		}
		for !q.Idle() {
			select {
			case <-idle:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		q.Stop()
		logger.Warn("run aborted", lg.Any("error", err))
	}

	mu.Lock()
	err = multierr.Append(err, failures)
	mu.Unlock()

	sum := Summary{
		Queued:    int(m.Queued()),
		Rejected:  int(m.Rejected()),
		Succeeded: int(m.Executed()),
		Failed:    int(m.Failed()),
		Retried:   int(m.Retried()),
		TimedOut:  int(m.TimedOut()),
		Dropped:   int(m.Terminal()),
	}
	logger.Info("run finished",
		lg.Int("succeeded", sum.Succeeded),
		lg.Int("dropped", sum.Dropped),
		lg.Int("retried", sum.Retried),
	)
	return sum, err
}

// feed admits every command line from in, honouring the rate limit.
func (r *Runner) feed(ctx context.Context, q *limitq.Queue[string], in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := admit(ctx, q, line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// admit appends line, backing off while the queue is full.
func admit(ctx context.Context, q *limitq.Queue[string], line string) error {
	var next func() time.Duration
	for !q.Append(line) {
		if next == nil {
			bo := boff.New(admitInitialWait, admitMaxWait, time.Now().UnixNano())
			next = bo.Next
		}
		timer := time.NewTimer(next())
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %q: %w", limitq.ErrQueueFull, line, ctx.Err())
		}
	}
	return nil
}
