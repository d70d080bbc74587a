package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/azargarov/limitq/internal/runner"
)

type execLog struct {
	mu    sync.Mutex
	lines []string
	shell string
}

func (e *execLog) run(_ context.Context, shell, line string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shell = shell
	e.lines = append(e.lines, line)
	if line == "fail" {
		return errors.New("exit status 1")
	}
	return nil
}

func execute(t *testing.T, stdin string, el *execLog, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd(runner.WithExec(el.run))
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", &execLog{}, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "limitq "+version {
		t.Fatalf("output = %q", out)
	}
}

func TestRunFromStdin(t *testing.T) {
	el := &execLog{}
	_, stderr, err := execute(t, "one\ntwo\n", el, "run", "--workers", "1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(el.lines) != 2 || el.lines[0] != "one" || el.lines[1] != "two" {
		t.Fatalf("executed %v; want [one two]", el.lines)
	}
	if !strings.Contains(stderr, "succeeded=2") {
		t.Fatalf("summary missing from stderr: %q", stderr)
	}
}

func TestRunFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmds.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	el := &execLog{}
	if _, _, err := execute(t, "ignored\n", el, "run", "-f", path); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(el.lines) != 3 {
		t.Fatalf("executed %v; want 3 lines from file", el.lines)
	}
}

func TestRunFailureIsError(t *testing.T) {
	el := &execLog{}
	_, stderr, err := execute(t, "ok\nfail\n", el, "run", "--retries", "1")
	if err == nil {
		t.Fatal("expected an error when a command is dropped")
	}
	if !strings.Contains(err.Error(), `"fail"`) {
		t.Fatalf("error %q does not name the command", err)
	}
	if !strings.Contains(stderr, "dropped=1") || !strings.Contains(stderr, "retried=1") {
		t.Fatalf("summary = %q", stderr)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LIMITQ_SHELL", "/bin/env-shell")

	el := &execLog{}
	if _, _, err := execute(t, "x\n", el, "run"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if el.shell != "/bin/env-shell" {
		t.Fatalf("shell = %q; want env value", el.shell)
	}

	el = &execLog{}
	if _, _, err := execute(t, "x\n", el, "run", "--shell", "/bin/flag-shell"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if el.shell != "/bin/flag-shell" {
		t.Fatalf("shell = %q; want flag value", el.shell)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	if _, _, err := execute(t, "x\n", &execLog{}, "run", "--workers", "0"); err == nil {
		t.Fatal("expected an error for --workers 0")
	}

	t.Setenv("LIMITQ_WORKERS", "lots")
	if _, _, err := execute(t, "x\n", &execLog{}, "run"); err == nil {
		t.Fatal("expected an error for malformed LIMITQ_WORKERS")
	}
}
