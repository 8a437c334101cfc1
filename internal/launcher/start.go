package launcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"bot-launcher/internal/logger"
)

// ErrBotRunning is returned by StartBot when another launcher already runs the bot
// from the same installation.
var ErrBotRunning = errors.New("the bot is already running from this installation")

// StartBot updates dependencies and runs the bot in the foreground until it exits.
// A failed dependency update is reported but does not stop the start.
// The installation lock is held for as long as the bot runs.
func (l *Launcher) StartBot(ctx context.Context) error {
	lock, err := l.lock()
	if err != nil {
		logger.Error("[ERROR] Cannot start the bot: %v\n", err)
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("[WARN] Failed to release %s: %v\n", lock.Path(), err)
		}
	}()

	_ = l.UpdateDependency(ctx)

	logger.Info("[INFO] Starting the bot...\n")
	argv := []string{l.interpreter(), l.path(l.Settings.Bot.Entry)}
	res := l.Runner.RunAttached(ctx, argv[0], argv[1:]...)
	if !res.Launched() {
		err := &CommandError{Op: "start bot", Argv: argv, Result: res}
		logger.Error("[ERROR] Failed to start the bot: %v\n", err)
		return err
	}

	if res.Code != 0 {
		logger.Warn("[WARN] The bot exited with code %d\n", res.Code)
	}
	logger.Info("[INFO] The bot has stopped, launcher exiting\n")
	return nil
}

// lock takes the installation-wide lock file without blocking.
func (l *Launcher) lock() (*flock.Flock, error) {
	fl := flock.New(l.path(l.Settings.Bot.LockFile))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return nil, ErrBotRunning
	}
	return fl, nil
}
