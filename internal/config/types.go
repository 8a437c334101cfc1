package config

// Settings is the launcher configuration: which executables to look for, how to reach
// the database service and where the bot installation keeps its files.
// Every path in BotSettings is relative to the installation root.
type Settings struct {
	Interpreter InterpreterSettings `yaml:"interpreter"`
	Tools       ToolSettings        `yaml:"tools"`
	Database    DatabaseSettings    `yaml:"database"`
	Bot         BotSettings         `yaml:"bot"`
}

// InterpreterSettings describes the Python runtime used to run the bot.
// - Name: executable searched on PATH when no isolated environment exists.
// - VenvDir: isolated-environment directory under the root (e.g., venv).
// - VenvPython: interpreter path inside VenvDir (e.g., Scripts/python.exe on Windows).
// - MinMajor/MinMinor: lowest accepted version; older interpreters only produce a warning.
type InterpreterSettings struct {
	Name       string `yaml:"name"`
	VenvDir    string `yaml:"venv_dir"`
	VenvPython string `yaml:"venv_python"`
	MinMajor   int    `yaml:"min_major"`
	MinMinor   int    `yaml:"min_minor"`
}

// ToolSettings names the optional helper executables.
type ToolSettings struct {
	VCS        string `yaml:"vcs"`         // Version control client, used for branch operations
	EnvManager string `yaml:"env_manager"` // Environment manager, detected only
}

// DatabaseSettings describes how the database service is checked and started.
// - Match: text that must appear in the query output for the service to count as running.
// - Query: command listing running services.
// - Start: elevated command starting the service.
type DatabaseSettings struct {
	Match string   `yaml:"match"`
	Query []string `yaml:"query"`
	Start []string `yaml:"start"`
}

// BotSettings locates the files of the bot installation.
type BotSettings struct {
	Entry        string `yaml:"entry"`         // Script started by the interpreter
	Requirements string `yaml:"requirements"`  // pip requirements manifest
	ConfigFile   string `yaml:"config_file"`   // Live bot configuration
	Template     string `yaml:"template"`      // Default configuration copied when ConfigFile is missing
	UpdateScript string `yaml:"update_script"` // Configuration migration script
	LockFile     string `yaml:"lock_file"`     // Held while the bot runs
}
