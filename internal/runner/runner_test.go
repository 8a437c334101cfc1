package runner

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
	ctx := context.Background()
	r := New("")

	t.Run("TrimmedStdout", func(t *testing.T) {
		res := r.Run(ctx, "sh", "-c", "echo '  hello  '")
		assert.True(t, res.OK())
		assert.Equal(t, "hello", res.Stdout)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		res := r.Run(ctx, "sh", "-c", "echo out; echo err >&2; exit 3")
		assert.True(t, res.Launched())
		assert.False(t, res.OK())
		assert.Equal(t, 3, res.Code)
		assert.Equal(t, "out", res.Stdout)
		assert.Equal(t, "err", res.Stderr)
	})

	t.Run("LaunchFailure", func(t *testing.T) {
		res := r.Run(ctx, "definitely-not-an-executable-on-this-host")
		require.Error(t, res.LaunchErr)
		assert.False(t, res.Launched())
		assert.Equal(t, 1, res.Code)
		assert.Empty(t, res.Stdout)
	})

	t.Run("ArgumentsAreNotShellInterpreted", func(t *testing.T) {
		res := r.Run(ctx, "echo", "a b; $HOME", "`x`")
		assert.True(t, res.OK())
		assert.Equal(t, "a b; $HOME `x`", res.Stdout)
	})
}

func TestExec_RunsInDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses pwd")
	}
	dir := t.TempDir()
	res := New(dir).Run(context.Background(), "pwd")
	require.True(t, res.OK())

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(res.Stdout)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExec_RunAttached(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
	ctx := context.Background()
	r := New("")

	assert.True(t, r.RunAttached(ctx, "sh", "-c", "exit 0").OK())
	assert.Equal(t, 7, r.RunAttached(ctx, "sh", "-c", "exit 7").Code)
	assert.False(t, r.RunAttached(ctx, "definitely-not-an-executable-on-this-host").Launched())
}
