package launcher

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"bot-launcher/internal/repo"
)

// Status prints what the launcher knows about the installation.
func (l *Launcher) Status(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Root:\t%s\n", l.Env.Root)
	fmt.Fprintf(tw, "Python:\t%s\n", l.Env.Interpreter)
	fmt.Fprintf(tw, "Git:\t%s\n", l.Env.VCS)
	fmt.Fprintf(tw, "Conda:\t%s\n", l.Env.EnvManager)
	fmt.Fprintf(tw, "Database:\t%s\n", enabled(l.Env.DatabaseEnabled))

	branch := l.Env.CurrentBranch
	if branch == "" {
		branch = "unknown"
	}
	fmt.Fprintf(tw, "Branch:\t%s\n", branch)

	head, err := repo.Inspect(l.Env.Root)
	switch {
	case errors.Is(err, repo.ErrNotRepository):
		fmt.Fprintf(tw, "Commit:\tnot a git checkout\n")
	case err != nil:
		fmt.Fprintf(tw, "Commit:\terror: %v\n", err)
	default:
		dirty := ""
		if head.Dirty {
			dirty = " (modified)"
		}
		fmt.Fprintf(tw, "Commit:\t%s %s%s\n", head.Short(), head.Summary, dirty)
	}

	return tw.Flush()
}

func enabled(b bool) string {
	if b {
		return "running"
	}
	return "not running"
}
