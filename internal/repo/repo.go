package repo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when the installation is not a git checkout.
var ErrNotRepository = errors.New("not a git repository")

// Head describes the checked out commit of the installation.
type Head struct {
	Branch  string // Short branch name, empty when HEAD is detached
	Commit  string // Full commit hash
	Summary string // First line of the commit message
	Dirty   bool   // Working tree has uncommitted changes
}

// Short returns the abbreviated commit hash.
func (h Head) Short() string {
	if len(h.Commit) > 7 {
		return h.Commit[:7]
	}
	return h.Commit
}

// Inspect reads HEAD of the repository at dir without running the git executable,
// so it also works when git is not installed.
func Inspect(dir string) (Head, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Head{}, ErrNotRepository
	}
	if err != nil {
		return Head{}, fmt.Errorf("failed to open repository %s: %w", dir, err)
	}

	ref, err := r.Head()
	if err != nil {
		return Head{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	head := Head{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		head.Branch = ref.Name().Short()
	}

	if commit, err := r.CommitObject(ref.Hash()); err == nil {
		head.Summary = firstLine(commit.Message)
	}

	if wt, err := r.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			head.Dirty = !status.IsClean()
		}
	}
	return head, nil
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' || c == '\r' {
			return s[:i]
		}
	}
	return s
}
