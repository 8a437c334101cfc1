package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the launcher configuration file looked up in the installation root.
const FileName = "launcher.yaml"

// Defaults returns the settings used for the given GOOS when no configuration file overrides them.
func Defaults(goos string) Settings {
	s := Settings{
		Interpreter: InterpreterSettings{
			Name:       "python",
			VenvDir:    "venv",
			VenvPython: filepath.Join("bin", "python"),
			MinMajor:   3,
			MinMinor:   10,
		},
		Tools: ToolSettings{
			VCS:        "git",
			EnvManager: "conda",
		},
		Database: DatabaseSettings{
			Match: "MongoDB",
			Query: []string{"systemctl", "list-units", "--type=service", "--state=running", "--no-pager", "--plain"},
			Start: []string{"sudo", "systemctl", "start", "mongod"},
		},
		Bot: BotSettings{
			Entry:        "bot.py",
			Requirements: "requirements.txt",
			ConfigFile:   filepath.Join("config", "bot_config.toml"),
			Template:     filepath.Join("template", "bot_config_template.toml"),
			UpdateScript: filepath.Join("config", "auto_update.py"),
			LockFile:     ".launcher.lock",
		},
	}

	switch goos {
	case "windows":
		s.Interpreter.VenvPython = filepath.Join("Scripts", "python.exe")
		s.Database.Query = []string{"sc", "query"}
		s.Database.Start = []string{
			"powershell", "-NoProfile", "-Command",
			"Start-Process -Verb RunAs -Wait cmd -ArgumentList '/c net start MongoDB'",
		}
	case "darwin":
		s.Database.Match = "mongodb"
		s.Database.Query = []string{"brew", "services", "list"}
		s.Database.Start = []string{"brew", "services", "start", "mongodb-community"}
	}

	return s
}

// Load reads the YAML file at path on top of the defaults for the running OS.
// A missing file is not an error: the defaults are returned unchanged.
func Load(path string) (Settings, error) {
	s := Defaults(runtime.GOOS)

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid %s: %w", path, err)
	}
	return s, nil
}

// Validate reports the first required field left empty.
func (s Settings) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"interpreter.name", s.Interpreter.Name},
		{"interpreter.venv_dir", s.Interpreter.VenvDir},
		{"interpreter.venv_python", s.Interpreter.VenvPython},
		{"tools.vcs", s.Tools.VCS},
		{"database.match", s.Database.Match},
		{"bot.entry", s.Bot.Entry},
		{"bot.requirements", s.Bot.Requirements},
		{"bot.config_file", s.Bot.ConfigFile},
		{"bot.template", s.Bot.Template},
		{"bot.update_script", s.Bot.UpdateScript},
		{"bot.lock_file", s.Bot.LockFile},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s must not be empty", r.name)
		}
	}
	if len(s.Database.Query) == 0 {
		return errors.New("database.query must not be empty")
	}
	if len(s.Database.Start) == 0 {
		return errors.New("database.start must not be empty")
	}
	return nil
}
