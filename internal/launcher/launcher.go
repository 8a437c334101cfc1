package launcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"bot-launcher/internal/config"
	"bot-launcher/internal/logger"
	"bot-launcher/internal/probe"
	"bot-launcher/internal/runner"
)

var (
	// ErrVCSUnavailable is returned by branch operations when git was not found.
	ErrVCSUnavailable = errors.New("git is not available")
	// ErrNoCurrentBranch is returned by ResetBranch when the checked out branch is unknown.
	ErrNoCurrentBranch = errors.New("current branch is unknown")
	// ErrCanceled is returned when the user declines a confirmation.
	ErrCanceled = errors.New("canceled by user")
	// ErrNotImplemented is returned by placeholder operations.
	ErrNotImplemented = errors.New("not implemented yet")
)

// CommandError reports an external command that could not start or exited non-zero.
type CommandError struct {
	Op     string
	Argv   []string
	Result runner.Result
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Result.LaunchErr != nil {
		return fmt.Sprintf("%s: cannot run %s: %v", e.Op, e.Argv[0], e.Result.LaunchErr)
	}
	return fmt.Sprintf("%s: %s exited with code %d", e.Op, strings.Join(e.Argv, " "), e.Result.Code)
}

// Unwrap exposes the launch failure, if any, to errors.Is and errors.As.
func (e *CommandError) Unwrap() error {
	return e.Result.LaunchErr
}

// Launcher runs the user-facing operations against a probed environment.
// Each operation logs its own outcome and returns a non-nil error on failure.
type Launcher struct {
	Env      *probe.Env
	Prober   *probe.Prober
	Settings config.Settings
	Runner   runner.Runner
	Prompt   probe.Confirmer
	Fs       afero.Fs
}

// New returns a Launcher sharing the prober's environment, runner and prompt.
func New(p *probe.Prober) *Launcher {
	return &Launcher{
		Env:      p.Env,
		Prober:   p,
		Settings: p.Settings,
		Runner:   p.Runner,
		Prompt:   p.Prompt,
		Fs:       p.Fs,
	}
}

// path resolves a settings path against the installation root.
func (l *Launcher) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.Env.Root, rel)
}

// interpreter returns the discovered Python. Probe guarantees it is present.
func (l *Launcher) interpreter() string {
	python, _ := l.Env.Interpreter.Path()
	return python
}

// run executes argv and converts a failed result into a *CommandError named after op.
func (l *Launcher) run(ctx context.Context, op string, argv ...string) error {
	res := l.Runner.Run(ctx, argv[0], argv[1:]...)
	if !res.OK() {
		// stderr is noisy for pip; keep it for --debug only
		if res.Stderr != "" {
			logger.Debug("[DEBUG] %s stderr:\n%s\n", op, res.Stderr)
		}
		return &CommandError{Op: op, Argv: argv, Result: res}
	}
	return nil
}

// UpdateDependency installs the requirements manifest with pip and upgrades pip itself.
func (l *Launcher) UpdateDependency(ctx context.Context) error {
	logger.Info("[INFO] Updating dependencies...\n")
	err := l.run(ctx, "update dependencies",
		l.interpreter(), "-m", "pip", "install", "-r", l.Settings.Bot.Requirements, "--upgrade", "pip")
	if err != nil {
		logger.Error("[ERROR] Dependency update failed, please retry manually: %v\n", err)
		return err
	}
	logger.Info("[INFO] Dependencies updated\n")
	return nil
}

// SwitchBranch creates target and checks it out.
func (l *Launcher) SwitchBranch(ctx context.Context, target string) error {
	git, ok := l.Env.VCS.Path()
	if !ok {
		logger.Error("[ERROR] Git is not available, branch switching is disabled\n")
		return ErrVCSUnavailable
	}

	// -b creates the branch; an existing name makes git fail
	logger.Info("[INFO] Switching branch...\n")
	if err := l.run(ctx, "switch branch", git, "checkout", "-b", target); err != nil {
		logger.Error("[ERROR] Failed to switch branch: %v\n", err)
		return err
	}

	l.Env.CurrentBranch = target
	logger.Info("[INFO] Switched branch, current branch is %s\n", target)
	return nil
}

// ResetBranch discards local changes by hard-resetting to the current branch.
func (l *Launcher) ResetBranch(ctx context.Context) error {
	git, ok := l.Env.VCS.Path()
	if !ok {
		logger.Error("[ERROR] Git is not available, branch reset is disabled\n")
		return ErrVCSUnavailable
	}

	if l.Env.CurrentBranch == "" && l.Prober != nil {
		l.Prober.ListBranches(ctx)
	}
	if l.Env.CurrentBranch == "" {
		logger.Error("[ERROR] Failed to reset branch: %v\n", ErrNoCurrentBranch)
		return ErrNoCurrentBranch
	}

	logger.Info("[INFO] Resetting branch...\n")
	if err := l.run(ctx, "reset branch", git, "reset", "--hard", l.Env.CurrentBranch); err != nil {
		logger.Error("[ERROR] Failed to reset branch: %v\n", err)
		return err
	}
	logger.Info("[INFO] Branch %s reset\n", l.Env.CurrentBranch)
	return nil
}

// UpdateConfig runs the configuration migration script after the user confirms.
func (l *Launcher) UpdateConfig(ctx context.Context) error {
	logger.Warn("[WARN] Back up important data first: the current configuration file will be modified.\n")
	if !l.Prompt.Confirm("Continue?") {
		logger.Info("[INFO] Configuration update canceled\n")
		return ErrCanceled
	}

	logger.Info("[INFO] Updating configuration file...\n")
	if err := l.run(ctx, "update config", l.interpreter(), l.path(l.Settings.Bot.UpdateScript)); err != nil {
		logger.Error("[ERROR] Configuration update failed: %v\n", err)
		return err
	}
	logger.Info("[INFO] Configuration file updated\n")
	return nil
}

// UpdateBot is reserved for self-update of the bot installation.
func (l *Launcher) UpdateBot(ctx context.Context) error {
	logger.Warn("[WARN] Updating the bot is not implemented yet\n")
	return ErrNotImplemented
}
