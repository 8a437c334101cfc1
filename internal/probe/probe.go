package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"bot-launcher/internal/config"
	"bot-launcher/internal/logger"
	"bot-launcher/internal/runner"
)

// ErrInterpreterNotFound is returned when neither an isolated environment nor a
// Python on PATH is available. The launcher cannot continue without one.
var ErrInterpreterNotFound = errors.New("python interpreter not found")

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(question string) bool
}

// Prober fills an Env by inspecting the host.
type Prober struct {
	Env      *Env
	Settings config.Settings
	Runner   runner.Runner
	Prompt   Confirmer
	Fs       afero.Fs
	LookPath func(file string) (string, error)
}

// New returns a Prober using the OS filesystem and exec.LookPath.
func New(env *Env, settings config.Settings, r runner.Runner, prompt Confirmer) *Prober {
	return &Prober{
		Env:      env,
		Settings: settings,
		Runner:   r,
		Prompt:   prompt,
		Fs:       afero.NewOsFs(),
		LookPath: exec.LookPath,
	}
}

// Probe runs every discovery step in order: interpreter, version control,
// environment manager, database service. Only a missing interpreter is an error.
func (p *Prober) Probe(ctx context.Context) error {
	if err := p.LocateInterpreter(ctx); err != nil {
		return err
	}
	p.LocateVCS()
	p.LocateEnvManager()
	p.CheckDatabaseService(ctx)
	return nil
}

// LocateInterpreter prefers the interpreter bundled in the isolated environment
// directory and falls back to PATH. The bundled path is used as soon as the
// directory exists; the interpreter file itself is not checked.
func (p *Prober) LocateInterpreter(ctx context.Context) error {
	venv := filepath.Join(p.Env.Root, p.Settings.Interpreter.VenvDir)
	if ok, _ := afero.DirExists(p.Fs, venv); ok {
		p.Env.Interpreter = Found(filepath.Join(venv, p.Settings.Interpreter.VenvPython))
		logger.Info("[INFO] Using isolated environment interpreter: %s\n", p.Env.Interpreter)
		p.ValidateInterpreter(ctx)
		return nil
	}

	logger.Info("[INFO] Looking for a Python interpreter...\n")
	path, err := p.LookPath(p.Settings.Interpreter.Name)
	if err != nil || path == "" {
		logger.Error("[ERROR] Python interpreter not found on PATH\n")
		return ErrInterpreterNotFound
	}

	logger.Info("[INFO] Found Python interpreter: %s\n", path)
	p.Env.Interpreter = Found(path)
	p.ValidateInterpreter(ctx)
	return nil
}

// ValidateInterpreter runs the interpreter with --version and reports whether it
// meets the minimum version. The outcome is only logged; the interpreter stays in use.
func (p *Prober) ValidateInterpreter(ctx context.Context) VersionStatus {
	python, ok := p.Env.Interpreter.Path()
	if !ok {
		logger.Error("[ERROR] Python interpreter validation failed: no interpreter\n")
		return VersionInvalid
	}

	res := p.Runner.Run(ctx, python, "--version")
	if !res.OK() {
		logger.Error("[ERROR] Python interpreter is not usable (exit code %d)\n", res.Code)
		return VersionInvalid
	}

	// Python 2 printed its version on stderr.
	out := res.Stdout
	if out == "" {
		out = res.Stderr
	}

	major, minor, err := ParseVersion(out)
	if err != nil {
		logger.Warn("[WARN] Cannot read Python version from %q: %v\n", out, err)
		return VersionUnparsable
	}

	want := p.Settings.Interpreter
	if !MeetsMinimum(major, minor, want.MinMajor, want.MinMinor) {
		logger.Warn("[WARN] Python %d.%d is too old, %d.%d or newer is required\n", major, minor, want.MinMajor, want.MinMinor)
		return VersionTooLow
	}

	logger.Info("[INFO] Python %d.%d interpreter validated\n", major, minor)
	return VersionOK
}

// LocateVCS looks for the version control client on PATH. Branch operations are
// disabled when it is missing.
func (p *Prober) LocateVCS() {
	logger.Info("[INFO] Looking for Git...\n")
	path, err := p.LookPath(p.Settings.Tools.VCS)
	if err != nil || path == "" {
		logger.Warn("[WARN] Git not found. Install it and add it to PATH to enable branch switching\n")
		p.Env.VCS = NotFound()
		return
	}
	logger.Info("[INFO] Found Git: %s\n", path)
	p.Env.VCS = Found(path)
}

// LocateEnvManager looks for the environment manager on PATH.
func (p *Prober) LocateEnvManager() {
	if p.Settings.Tools.EnvManager == "" {
		p.Env.EnvManager = NotFound()
		return
	}
	path, err := p.LookPath(p.Settings.Tools.EnvManager)
	if err != nil || path == "" {
		logger.Info("[INFO] Conda not detected\n")
		p.Env.EnvManager = NotFound()
		return
	}
	logger.Info("[INFO] Found Conda: %s\n", path)
	p.Env.EnvManager = Found(path)
}

// CheckDatabaseService queries the service manager for the database service. If it
// is not running the user is asked whether to start it with elevated privileges.
func (p *Prober) CheckDatabaseService(ctx context.Context) {
	db := p.Settings.Database
	p.Env.DatabaseEnabled = false

	// Ask the service manager which services are running
	res := p.Runner.Run(ctx, db.Query[0], db.Query[1:]...)
	if !res.OK() {
		logger.Error("[ERROR] System error, cannot query services\n")
		return
	}
	if strings.Contains(res.Stdout, db.Match) {
		logger.Info("[INFO] %s service is running\n", db.Match)
		p.Env.DatabaseEnabled = true
		return
	}

	// Starting needs elevation, so only do it when the user agrees
	logger.Warn("[WARN] %s service is not running\n", db.Match)
	if !p.Prompt.Confirm(fmt.Sprintf("Try to start the %s service?", db.Match)) {
		logger.Warn("[WARN] %s service is not running, the bot will not be able to reach its database!\n", db.Match)
		return
	}

	// Attached so sudo or UAC can prompt on the terminal
	logger.Info("[INFO] Starting %s service...\n", db.Match)
	start := p.Runner.RunAttached(ctx, db.Start[0], db.Start[1:]...)
	if !start.OK() {
		logger.Error("[ERROR] Failed to start %s service, please check the installation\n", db.Match)
		return
	}

	// The start command succeeding does not mean the service came up; query again
	res = p.Runner.Run(ctx, db.Query[0], db.Query[1:]...)
	if !res.OK() || !strings.Contains(res.Stdout, db.Match) {
		logger.Error("[ERROR] Failed to start %s service, please check the installation\n", db.Match)
		return
	}
	logger.Info("[INFO] %s service started\n", db.Match)
	p.Env.DatabaseEnabled = true
}

// ListBranches reads every local and remote branch and remembers the checked out one.
// It does nothing when git is unavailable.
func (p *Prober) ListBranches(ctx context.Context) {
	git, ok := p.Env.VCS.Path()
	if !ok {
		return
	}

	res := p.Runner.Run(ctx, git, "branch", "-a")
	if !res.OK() {
		logger.Error("[ERROR] Failed to get current branch\n")
		return
	}

	branches, current := ParseBranches(res.Stdout)
	p.Env.Branches = branches
	if current != "" {
		p.Env.CurrentBranch = current
		logger.Info("[INFO] Current branch: %s\n", current)
	}
}

// ParseBranches parses `git branch -a` output. The line marked with "*" names the
// current branch; every other line contributes its last field, so
// "remotes/origin/HEAD -> origin/main" yields "origin/main".
func ParseBranches(out string) (branches []string, current string) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if rest, ok := strings.CutPrefix(line, "*"); ok {
			fields := strings.Fields(rest)
			// "* (HEAD detached at 1a2b3c4)" has no current branch
			if len(fields) == 0 || strings.HasPrefix(fields[0], "(") {
				continue
			}
			branches = append(branches, fields[0])
			current = fields[0]
			continue
		}

		fields := strings.Fields(line)
		branches = append(branches, fields[len(fields)-1])
	}
	return branches, current
}

// VersionStatus is the result of interpreter validation.
type VersionStatus int

const (
	VersionOK VersionStatus = iota
	VersionTooLow
	VersionUnparsable
	VersionInvalid
)

func (s VersionStatus) String() string {
	switch s {
	case VersionOK:
		return "ok"
	case VersionTooLow:
		return "too low"
	case VersionUnparsable:
		return "unparsable"
	default:
		return "invalid"
	}
}

// ParseVersion extracts major and minor from output like "Python 3.11.4".
func ParseVersion(out string) (major, minor int, err error) {
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("unexpected version output %q", out)
	}

	parts := strings.Split(fields[1], ".")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version %q", fields[1])
	}

	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("bad major version: %w", err)
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("bad minor version: %w", err)
	}
	return major, minor, nil
}

// MeetsMinimum reports whether major.minor is at least minMajor.minMinor.
func MeetsMinimum(major, minor, minMajor, minMinor int) bool {
	if major != minMajor {
		return major > minMajor
	}
	return minor >= minMinor
}
