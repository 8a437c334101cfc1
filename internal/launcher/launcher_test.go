package launcher

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bot-launcher/internal/config"
	"bot-launcher/internal/probe"
	"bot-launcher/internal/prompt"
	"bot-launcher/internal/runner"
	"bot-launcher/internal/runner/runnertest"
)

const (
	python = "/usr/bin/python"
	git    = "/usr/bin/git"
)

// newTestLauncher builds a Launcher over an in-memory filesystem with python and git found.
func newTestLauncher(t *testing.T, root, answers string) (*Launcher, *runnertest.Fake) {
	t.Helper()
	fake := runnertest.New()
	env := probe.NewEnv(root)
	env.Interpreter = probe.Found(python)
	env.VCS = probe.Found(git)

	p := &probe.Prober{
		Env:      env,
		Settings: config.Defaults("linux"),
		Runner:   fake,
		Prompt:   prompt.New(strings.NewReader(answers), &bytes.Buffer{}),
		Fs:       afero.NewMemMapFs(),
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
	}
	return New(p), fake
}

func TestUpdateDependency(t *testing.T) {
	l, fake := newTestLauncher(t, "/srv/bot", "")

	require.NoError(t, l.UpdateDependency(context.Background()))
	assert.Equal(t, []string{python + " -m pip install -r requirements.txt --upgrade pip"}, fake.Lines())

	fake.Default = runner.Result{Code: 1, Stderr: "No matching distribution"}
	err := l.UpdateDependency(context.Background())
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.Result.Code)
	assert.Contains(t, err.Error(), "exited with code 1")
}

func TestSwitchBranch(t *testing.T) {
	l, fake := newTestLauncher(t, "/srv/bot", "")

	require.NoError(t, l.SwitchBranch(context.Background(), "feature-x"))
	require.Len(t, fake.Calls, 1)
	assert.Equal(t, []string{git, "checkout", "-b", "feature-x"}, fake.Calls[0].Argv)
	assert.Equal(t, "feature-x", l.Env.CurrentBranch)
}

func TestSwitchBranch_KeepsNameAsSingleArgument(t *testing.T) {
	l, fake := newTestLauncher(t, "/srv/bot", "")

	require.NoError(t, l.SwitchBranch(context.Background(), "x; rm -rf /"))
	assert.Equal(t, []string{git, "checkout", "-b", "x; rm -rf /"}, fake.Calls[0].Argv)
}

func TestSwitchBranch_Failure(t *testing.T) {
	l, fake := newTestLauncher(t, "/srv/bot", "")
	l.Env.CurrentBranch = "main"
	fake.On(git+" checkout -b main", runner.Result{Code: 128})

	err := l.SwitchBranch(context.Background(), "main")
	assert.Error(t, err)
	assert.Equal(t, "main", l.Env.CurrentBranch)
}

func TestBranchOperations_NoVCS(t *testing.T) {
	l, fake := newTestLauncher(t, "/srv/bot", "")
	l.Env.VCS = probe.NotFound()

	assert.ErrorIs(t, l.SwitchBranch(context.Background(), "dev"), ErrVCSUnavailable)
	assert.ErrorIs(t, l.ResetBranch(context.Background()), ErrVCSUnavailable)
	assert.Empty(t, fake.Calls)
}

func TestResetBranch(t *testing.T) {
	t.Run("KnownBranch", func(t *testing.T) {
		l, fake := newTestLauncher(t, "/srv/bot", "")
		l.Env.CurrentBranch = "dev"

		require.NoError(t, l.ResetBranch(context.Background()))
		assert.Equal(t, []string{git + " reset --hard dev"}, fake.Lines())
	})

	t.Run("ResolvesCurrentBranch", func(t *testing.T) {
		l, fake := newTestLauncher(t, "/srv/bot", "")
		fake.On(git+" branch -a", runner.Result{Stdout: "  dev\n* main"})

		require.NoError(t, l.ResetBranch(context.Background()))
		assert.Equal(t, []string{git + " branch -a", git + " reset --hard main"}, fake.Lines())
	})

	t.Run("DetachedHead", func(t *testing.T) {
		l, fake := newTestLauncher(t, "/srv/bot", "")
		fake.On(git+" branch -a", runner.Result{Stdout: "* (HEAD detached at 1a2b3c4)\n  main"})

		assert.ErrorIs(t, l.ResetBranch(context.Background()), ErrNoCurrentBranch)
		assert.Equal(t, []string{git + " branch -a"}, fake.Lines())
	})

	t.Run("UnknownBranch", func(t *testing.T) {
		l, fake := newTestLauncher(t, "/srv/bot", "")
		fake.On(git+" branch -a", runner.Result{Code: 128})

		assert.ErrorIs(t, l.ResetBranch(context.Background()), ErrNoCurrentBranch)
		assert.Equal(t, []string{git + " branch -a"}, fake.Lines())
	})
}

func TestUpdateConfig(t *testing.T) {
	t.Run("Confirmed", func(t *testing.T) {
		l, fake := newTestLauncher(t, "/srv/bot", "y\n")

		require.NoError(t, l.UpdateConfig(context.Background()))
		script := filepath.Join("/srv/bot", "config", "auto_update.py")
		assert.Equal(t, []string{python, script}, fake.Calls[0].Argv)
	})

	t.Run("Declined", func(t *testing.T) {
		l, fake := newTestLauncher(t, "/srv/bot", "n\n")

		assert.ErrorIs(t, l.UpdateConfig(context.Background()), ErrCanceled)
		assert.Empty(t, fake.Calls)
	})

	t.Run("ScriptFails", func(t *testing.T) {
		l, fake := newTestLauncher(t, "/srv/bot", "y\n")
		fake.Default = runner.Result{Code: 2}

		assert.Error(t, l.UpdateConfig(context.Background()))
	})
}

func TestUpdateBot(t *testing.T) {
	l, fake := newTestLauncher(t, "/srv/bot", "")
	assert.ErrorIs(t, l.UpdateBot(context.Background()), ErrNotImplemented)
	assert.Empty(t, fake.Calls)
}

func TestModifyConfig(t *testing.T) {
	root := "/srv/bot"
	cfg := filepath.Join(root, "config", "bot_config.toml")
	tmpl := filepath.Join(root, "template", "bot_config_template.toml")

	t.Run("CopiesTemplate", func(t *testing.T) {
		l, _ := newTestLauncher(t, root, "")
		require.NoError(t, afero.WriteFile(l.Fs, tmpl, []byte("[bot]\nname = \"bot\"\n"), 0644))

		require.NoError(t, l.ModifyConfig())

		data, err := afero.ReadFile(l.Fs, cfg)
		require.NoError(t, err)
		assert.Equal(t, "[bot]\nname = \"bot\"\n", string(data))
	})

	t.Run("KeepsExisting", func(t *testing.T) {
		l, _ := newTestLauncher(t, root, "")
		require.NoError(t, afero.WriteFile(l.Fs, tmpl, []byte("template"), 0644))
		require.NoError(t, afero.WriteFile(l.Fs, cfg, []byte("edited by user"), 0644))

		require.NoError(t, l.ModifyConfig())

		data, err := afero.ReadFile(l.Fs, cfg)
		require.NoError(t, err)
		assert.Equal(t, "edited by user", string(data))
	})

	t.Run("MissingTemplate", func(t *testing.T) {
		l, _ := newTestLauncher(t, root, "")

		assert.Error(t, l.ModifyConfig())
		exists, err := afero.Exists(l.Fs, cfg)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestStartBot(t *testing.T) {
	root := t.TempDir()
	l, fake := newTestLauncher(t, root, "")

	require.NoError(t, l.StartBot(context.Background()))

	require.Len(t, fake.Calls, 2)
	assert.Equal(t, python+" -m pip install -r requirements.txt --upgrade pip", fake.Calls[0].Line())
	assert.False(t, fake.Calls[0].Attached)
	assert.Equal(t, []string{python, filepath.Join(root, "bot.py")}, fake.Calls[1].Argv)
	assert.True(t, fake.Calls[1].Attached)

	// The lock is released once the bot has exited.
	fl := flock.New(filepath.Join(root, ".launcher.lock"))
	locked, err := fl.TryLock()
	require.NoError(t, err)
	assert.True(t, locked)
	require.NoError(t, fl.Unlock())
}

func TestStartBot_ContinuesAfterDependencyFailure(t *testing.T) {
	root := t.TempDir()
	l, fake := newTestLauncher(t, root, "")
	fake.On(python+" -m pip install -r requirements.txt --upgrade pip", runner.Result{Code: 1})
	fake.On(python+" "+filepath.Join(root, "bot.py"), runner.Result{Code: 3})

	assert.NoError(t, l.StartBot(context.Background()), "a bot exit code is not a launcher failure")
	assert.Len(t, fake.Calls, 2)
}

func TestStartBot_LaunchFailure(t *testing.T) {
	root := t.TempDir()
	l, fake := newTestLauncher(t, root, "")
	fake.On(python+" "+filepath.Join(root, "bot.py"), runner.Result{Code: 1, LaunchErr: exec.ErrNotFound})

	err := l.StartBot(context.Background())
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestStartBot_AlreadyRunning(t *testing.T) {
	root := t.TempDir()
	l, fake := newTestLauncher(t, root, "")

	held := flock.New(filepath.Join(root, ".launcher.lock"))
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	assert.ErrorIs(t, l.StartBot(context.Background()), ErrBotRunning)
	assert.Empty(t, fake.Calls)
}

func TestInstallRuntime(t *testing.T) {
	root := t.TempDir()
	l, fake := newTestLauncher(t, root, "")
	l.Fs = afero.NewOsFs()
	l.Prober.Fs = l.Fs

	archive := filepath.Join(t.TempDir(), "runtime.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{"bin/python": "#!/bin/sh\n", "pyvenv.cfg": "home = /usr/bin\n"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	require.NoError(t, l.InstallRuntime(context.Background(), archive))

	want := filepath.Join(root, "venv", "bin", "python")
	assert.FileExists(t, want)
	path, ok := l.Env.Interpreter.Path()
	assert.True(t, ok)
	assert.Equal(t, want, path)
	assert.True(t, fake.Ran(want+" --version"))

	assert.Error(t, l.InstallRuntime(context.Background(), archive), "an installed runtime is never replaced")
}

func TestStatus(t *testing.T) {
	l, _ := newTestLauncher(t, t.TempDir(), "")
	l.Env.CurrentBranch = "main"
	l.Env.DatabaseEnabled = true

	var out bytes.Buffer
	require.NoError(t, l.Status(&out))

	text := out.String()
	assert.Contains(t, text, python)
	assert.Contains(t, text, git)
	assert.Regexp(t, `Conda:\s+not found`, text)
	assert.Regexp(t, `Database:\s+running`, text)
	assert.Regexp(t, `Branch:\s+main`, text)
	assert.Contains(t, text, "not a git checkout")
}
