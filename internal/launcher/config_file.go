package launcher

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"bot-launcher/internal/logger"
)

// ModifyConfig installs the default bot configuration when none exists yet.
// An existing configuration is never overwritten.
func (l *Launcher) ModifyConfig() error {
	dst := l.path(l.Settings.Bot.ConfigFile)
	src := l.path(l.Settings.Bot.Template)

	exists, err := afero.Exists(l.Fs, dst)
	if err != nil {
		logger.Error("[ERROR] Cannot check %s: %v\n", dst, err)
		return err
	}
	if exists {
		logger.Info("[INFO] Configuration file %s already exists\n", dst)
		return nil
	}

	if err := copyFile(l.Fs, src, dst); err != nil {
		logger.Error("[ERROR] Failed to install default configuration: %v\n", err)
		return err
	}
	logger.Info("[INFO] Default configuration copied to %s\n", dst)
	return nil
}

// copyFile copies src to dst, creating missing directories on the way.
// The source file mode is preserved.
func copyFile(fs afero.Fs, src, dst string) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source failed: %w", err)
	}
	defer in.Close()

	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("mkdir failed: %w", err)
	}

	out, err := fs.Create(dst)
	if err != nil {
		return fmt.Errorf("create target failed: %w", err)
	}
	defer func() {
		cerr := out.Close()
		if err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}

	if stat, err := fs.Stat(src); err == nil {
		return fs.Chmod(dst, stat.Mode())
	}
	return nil
}
