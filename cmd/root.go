package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bot-launcher/internal/config"
	"bot-launcher/internal/launcher"
	"bot-launcher/internal/logger"
	"bot-launcher/internal/probe"
	"bot-launcher/internal/prompt"
	"bot-launcher/internal/runner"
)

// Global flags shared by every command.
var (
	debug      bool   // --debug enables debug logging
	rootDir    string // --root is the bot installation; defaults to the launcher's directory
	configPath string // --config points at launcher.yaml; defaults to <root>/launcher.yaml
	logFile    string // --log-file receives a JSON copy of the log; empty disables it
	assumeYes  bool   // --yes answers every confirmation with yes
)

// rootCmd shows the interactive menu when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "bot-launcher",
	Short: "Set up, update and start the chat bot",
	Long: `bot-launcher checks the Python runtime, git and the database service of a
bot installation, then runs one operation: start the bot, update dependencies,
install the default configuration or switch branches.

Without a subcommand an interactive menu is shown.`,
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRunE resolves the installation root and sets up logging before any command.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(rootDir)
		if err != nil {
			return err
		}
		rootDir = root

		if !cmd.Flags().Changed("log-file") {
			logFile = filepath.Join(rootDir, "logs", "launcher.log")
		}
		logger.Init(logger.Options{Debug: debug, FilePath: logFile})
		logger.Debug("[DEBUG] Installation root: %s\n", rootDir)
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		l, console, err := bootstrap(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), true)
		if err != nil {
			return err
		}
		runMenu(cmd.Context(), l, console, cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Bot installation directory (default: directory of the launcher)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Launcher configuration file (default: <root>/launcher.yaml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "JSON log file, empty to disable (default: <root>/logs/launcher.log)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation")
}

// Execute runs the command line and exits with the resulting status code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run executes the command tree with the given arguments and streams and returns the
// process exit code: 1 when the interpreter is missing or a subcommand failed.
func run(args []string, in io.Reader, out io.Writer) int {
	defer logger.Sync()

	rootCmd.SetArgs(args)
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, probe.ErrInterpreterNotFound) && !errors.Is(err, errLogged) {
			logger.Error("[ERROR] %v\n", err)
		}
		return 1
	}
	return 0
}

// errLogged marks failures that the operation has already reported.
var errLogged = errors.New("operation failed")

// resolveRoot returns dir as an absolute path, or the directory of the launcher
// executable when dir is empty.
func resolveRoot(dir string) (string, error) {
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("cannot locate launcher executable: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dir = filepath.Dir(exe)
	}
	return filepath.Abs(dir)
}

// bootstrap loads the settings and builds the launcher. With probe set the full
// discovery sequence runs first; a missing interpreter aborts with
// probe.ErrInterpreterNotFound.
func bootstrap(ctx context.Context, in io.Reader, out io.Writer, runProbe bool) (*launcher.Launcher, *prompt.Console, error) {
	path := configPath
	if path == "" {
		path = filepath.Join(rootDir, config.FileName)
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	console := prompt.New(in, out)
	console.AssumeYes(assumeYes)

	env := probe.NewEnv(rootDir)
	p := probe.New(env, settings, runner.New(rootDir), console)
	if runProbe {
		if err := p.Probe(ctx); err != nil {
			return nil, nil, err
		}
	}
	return launcher.New(p), console, nil
}
