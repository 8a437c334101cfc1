package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bot-launcher/internal/launcher"
)

// logged marks an operation error as already reported so run only sets the exit code.
func logged(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errLogged, err)
}

// withLauncher probes the environment and runs op against the resulting launcher.
func withLauncher(op func(ctx context.Context, l *launcher.Launcher, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		l, _, err := bootstrap(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), true)
		if err != nil {
			return err
		}
		return logged(op(cmd.Context(), l, args))
	}
}

// startCmd updates dependencies and runs the bot until it exits.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Update dependencies and start the bot",
	Args:  cobra.NoArgs,
	RunE: withLauncher(func(ctx context.Context, l *launcher.Launcher, _ []string) error {
		return l.StartBot(ctx)
	}),
}

// depsCmd reinstalls the requirements manifest.
var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Install or upgrade the bot dependencies",
	Args:  cobra.NoArgs,
	RunE: withLauncher(func(ctx context.Context, l *launcher.Launcher, _ []string) error {
		return l.UpdateDependency(ctx)
	}),
}

// updateCmd is reserved for updating the bot itself.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the bot (not implemented yet)",
	Args:  cobra.NoArgs,
	RunE: withLauncher(func(ctx context.Context, l *launcher.Launcher, _ []string) error {
		return l.UpdateBot(ctx)
	}),
}

// statusCmd prints the discovered environment.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the discovered runtime, tools, database and branch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := bootstrap(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), true)
		if err != nil {
			return err
		}
		l.Prober.ListBranches(cmd.Context())
		return l.Status(cmd.OutOrStdout())
	},
}

// configCmd groups the bot configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the bot configuration file",
}

// configInitCmd copies the default configuration when none exists.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the default configuration if none exists",
	Args:  cobra.NoArgs,
	RunE: withLauncher(func(_ context.Context, l *launcher.Launcher, _ []string) error {
		return l.ModifyConfig()
	}),
}

// configUpdateCmd runs the configuration migration script.
var configUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Migrate the configuration file to the current format",
	Args:  cobra.NoArgs,
	RunE: withLauncher(func(ctx context.Context, l *launcher.Launcher, _ []string) error {
		return l.UpdateConfig(ctx)
	}),
}

// branchCmd groups the git branch commands.
var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Switch, reset or list branches",
}

// branchSwitchCmd creates and checks out a branch.
var branchSwitchCmd = &cobra.Command{
	Use:   "switch <branch>",
	Short: "Create and check out a branch",
	Args:  cobra.ExactArgs(1),
	RunE: withLauncher(func(ctx context.Context, l *launcher.Launcher, args []string) error {
		return l.SwitchBranch(ctx, args[0])
	}),
}

// branchResetCmd discards local changes on the current branch.
var branchResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Hard-reset the current branch",
	Args:  cobra.NoArgs,
	RunE: withLauncher(func(ctx context.Context, l *launcher.Launcher, _ []string) error {
		return l.ResetBranch(ctx)
	}),
}

// branchListCmd prints every known branch, marking the current one.
var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local and remote branches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := bootstrap(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), true)
		if err != nil {
			return err
		}
		if !l.Env.VCS.Enabled() {
			return launcher.ErrVCSUnavailable
		}
		l.Prober.ListBranches(cmd.Context())

		out := cmd.OutOrStdout()
		for _, b := range l.Env.Branches {
			marker := " "
			if b == l.Env.CurrentBranch {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, b)
		}
		return nil
	},
}

// runtimeCmd groups the isolated environment commands.
var runtimeCmd = &cobra.Command{
	Use:   "runtime",
	Short: "Manage the bundled Python environment",
}

// runtimeInstallCmd unpacks a runtime bundle. It does not need a Python beforehand.
var runtimeInstallCmd = &cobra.Command{
	Use:   "install <archive|url>",
	Short: "Install a portable Python environment from an archive (.zip, .7z, .tar.gz, .tar.xz, .tar.bz2)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := bootstrap(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), false)
		if err != nil {
			return err
		}
		source := strings.TrimSpace(args[0])
		return logged(l.InstallRuntime(cmd.Context(), source))
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configUpdateCmd)
	branchCmd.AddCommand(branchSwitchCmd, branchResetCmd, branchListCmd)
	runtimeCmd.AddCommand(runtimeInstallCmd)

	rootCmd.AddCommand(startCmd, depsCmd, updateCmd, statusCmd, configCmd, branchCmd, runtimeCmd)
}
