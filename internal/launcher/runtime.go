package launcher

import (
	"context"

	"bot-launcher/internal/bundle"
	"bot-launcher/internal/logger"
)

// InstallRuntime unpacks a portable Python environment from source (archive path or
// URL) into the isolated-environment directory, then switches to its interpreter.
func (l *Launcher) InstallRuntime(ctx context.Context, source string) error {
	dest := l.path(l.Settings.Interpreter.VenvDir)
	if err := bundle.Install(ctx, source, dest); err != nil {
		logger.Error("[ERROR] Failed to install runtime bundle: %v\n", err)
		return err
	}

	if l.Prober != nil {
		if err := l.Prober.LocateInterpreter(ctx); err != nil {
			return err
		}
	}
	return nil
}
