package bootstrap

import (
	"errors"

	"go-raidguard/internal/logging"
)

// Shutdown stops intake first, then monitoring, then storage. Pending mute
// and unlock timers are dropped with the process.
func Shutdown(c *Components) error {
	logging.Info("[BOOT] Starting graceful shutdown...")
	var errs []error

	if c.Session != nil {
		logging.Info("[BOOT] Closing Discord session...")
		if err := c.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Watchdog != nil {
		logging.Info("[BOOT] Stopping watchdog...")
		c.Watchdog.Stop()
	}

	if c.Exporter != nil {
		logging.Info("[BOOT] Stopping health endpoint...")
		if err := c.Exporter.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Duplicates != nil {
		c.Duplicates.Close()
	}

	if n := pendingMutes(c); n > 0 {
		logging.Warn("[BOOT] %d mutes still pending; their roles stay until removed by hand", n)
	}

	closeStorage(c)

	logging.Info("[BOOT] Graceful shutdown complete")
	return errors.Join(errs...)
}

func pendingMutes(c *Components) int {
	if c.Executor == nil {
		return 0
	}
	return c.Executor.PendingMutes()
}
