package main

import (
	"bot-launcher/cmd" // Import the cmd package which contains the CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// bot-launcher prepares and operates a chat-bot installation:
//   - Finds the Python interpreter, preferring the bundled isolated environment (venv)
//     over the one on PATH, and warns when its version is too old
//   - Detects git (branch switching and reset) and conda
//   - Checks that the MongoDB service is running and offers to start it with elevated privileges
//   - Installs dependencies with pip, installs the default bot configuration,
//     migrates the configuration and starts the bot in the foreground
//
// Error handling strategy:
//   - A missing interpreter is the only fatal condition; the process exits with status 1
//     before any menu is shown
//   - Every other failure is logged and reported as a failed operation; nothing is retried
//
// Without arguments an interactive numbered menu runs exactly one operation.
// Every operation is also available as a subcommand for scripting.
func main() {
	cmd.Execute()
}
