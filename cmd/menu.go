package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"bot-launcher/internal/launcher"
	"bot-launcher/internal/logger"
)

// defaultBranch is offered when switching branches from the menu.
const defaultBranch = "main"

var menuItems = []string{
	"Update bot (not implemented)",
	"Start bot (updates dependencies first)",
	"Modify config",
	"Update dependencies",
	"Switch branch",
	"Reset branch",
	"Learn new knowledge (not available yet)",
	"Exit",
}

// operations is the part of the launcher reachable from the menu.
type operations interface {
	UpdateBot(ctx context.Context) error
	StartBot(ctx context.Context) error
	ModifyConfig() error
	UpdateDependency(ctx context.Context) error
	SwitchBranch(ctx context.Context, target string) error
	ResetBranch(ctx context.Context) error
}

// asker reads a free-form answer.
type asker interface {
	Ask(label, def string) string
}

// runMenu prints the header and menu, reads one choice and runs it.
// Failures are already logged by the operation and do not change the exit code.
func runMenu(ctx context.Context, l *launcher.Launcher, in asker, out io.Writer) {
	if l.Prober != nil {
		l.Prober.ListBranches(ctx)
	}

	branch := l.Env.CurrentBranch
	if branch == "" {
		branch = "unknown"
	}
	fmt.Fprintf(out, "Current branch: %s\n", branch)
	fmt.Fprintf(out, "Python: %s\n\n", l.Env.Interpreter)
	for i, item := range menuItems {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}

	choice := in.Ask("Select an option", "")
	dispatch(ctx, choice, l, l.Env.Branches, in, out)
}

// dispatch runs the operation selected by choice.
func dispatch(ctx context.Context, choice string, ops operations, branches []string, in asker, out io.Writer) {
	var err error
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "1":
		err = ops.UpdateBot(ctx)
	case "2":
		err = ops.StartBot(ctx)
	case "3":
		err = ops.ModifyConfig()
	case "4":
		err = ops.UpdateDependency(ctx)
	case "5":
		if len(branches) > 0 {
			fmt.Fprintf(out, "Known branches: %s\n", strings.Join(branches, ", "))
		}
		err = ops.SwitchBranch(ctx, in.Ask("Branch to switch to", defaultBranch))
	case "6":
		err = ops.ResetBranch(ctx)
	case "7":
		logger.Info("[INFO] Learning new knowledge is not available yet\n")
	case "8", "q", "quit", "exit":
		logger.Debug("[DEBUG] Exit selected\n")
	default:
		logger.Warn("[WARN] Unknown option %q\n", choice)
	}

	if err != nil {
		logger.Debug("[DEBUG] Menu option %s failed: %v\n", choice, err)
	}
}
