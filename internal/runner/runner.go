package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"bot-launcher/internal/logger"
)

// Result is the outcome of one external command.
//
// LaunchErr is set when the process could not be started at all (missing or not
// executable); in that case Code is 1 and Stdout is empty. Otherwise Code is the
// exit status reported by the command itself.
type Result struct {
	Code      int
	Stdout    string
	Stderr    string
	LaunchErr error
}

// Launched reports whether the command actually ran.
func (r Result) Launched() bool {
	return r.LaunchErr == nil
}

// OK reports whether the command ran and exited with status 0.
func (r Result) OK() bool {
	return r.LaunchErr == nil && r.Code == 0
}

// Runner executes external commands synchronously. Arguments are passed as a list
// and never interpreted by a shell.
type Runner interface {
	// Run captures stdout and stderr. Stdout is returned trimmed.
	Run(ctx context.Context, name string, args ...string) Result
	// RunAttached connects the command to the launcher's own stdin, stdout and stderr.
	RunAttached(ctx context.Context, name string, args ...string) Result
}

// Exec runs commands on the host through os/exec.
type Exec struct {
	Dir string // Working directory for every command; empty means the current one
}

// New returns an Exec running commands inside dir.
func New(dir string) *Exec {
	return &Exec{Dir: dir}
}

// Run executes name with args and captures its output.
func (e *Exec) Run(ctx context.Context, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	// Capture both streams separately; some tools report on stderr only
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("[DEBUG] Running command: %s\n", strings.Join(cmd.Args, " "))
	err := cmd.Run()
	res := e.result(cmd, err)
	// Output only exists when the process actually started
	if res.Launched() {
		res.Stdout = strings.TrimSpace(stdout.String())
		res.Stderr = strings.TrimSpace(stderr.String())
	}
	logger.Debug("[DEBUG] Command exited with %d\n", res.Code)
	return res
}

// RunAttached executes name with args in the foreground, sharing the terminal.
func (e *Exec) RunAttached(ctx context.Context, name string, args ...string) Result {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	// Share the terminal so the child can prompt and print directly
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Debug("[DEBUG] Running attached command: %s\n", strings.Join(cmd.Args, " "))
	return e.result(cmd, cmd.Run())
}

// result turns the error returned by cmd.Run into a Result, separating
// "could not start" from "ran and failed".
func (e *Exec) result(cmd *exec.Cmd, err error) Result {
	if err == nil {
		return Result{Code: 0}
	}

	// Ran but exited non-zero
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{Code: exitErr.ExitCode()}
	}

	// Missing binary, permission denied or similar
	logger.Error("[ERROR] Error running command: %s\n%v\n", strings.Join(cmd.Args, " "), err)
	return Result{Code: 1, LaunchErr: err}
}
