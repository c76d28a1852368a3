// Package systemd reports service state to systemd through sd_notify.
//
// All calls are no-ops when the process is not started by systemd
// (NOTIFY_SOCKET unset), so the supervisor can run the same way in a
// terminal and as a Type=notify unit.
package systemd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/smazurov/mcsupervisor/internal/events"
)

// Notifier sends state changes to the service manager.
type Notifier struct {
	logger *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Ready reports that the game server accepts players.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping reports that shutdown has begun.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(format string, args ...any) {
	n.send("STATUS=" + fmt.Sprintf(format, args...))
}

func (n *Notifier) send(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("sd_notify sent", "state", state)
	}
}

// Attach keeps systemd informed from game events: READY=1 once the server
// has opened and a status line with the player count. The returned
// function detaches from the bus.
func (n *Notifier) Attach(bus *events.Bus) func() {
	unsubscribers := []func(){
		bus.Subscribe(func(e events.ServerOpenedEvent) {
			n.Ready()
			n.Status("Server %s open", e.ServerName)
		}),
		bus.Subscribe(func(e events.PlayerJoinedEvent) {
			n.Status("Server %s open, %d online", e.ServerName, e.Online)
		}),
		bus.Subscribe(func(e events.PlayerLeftEvent) {
			n.Status("Server %s open, %d online", e.ServerName, e.Online)
		}),
		bus.Subscribe(func(e events.ServerClosedEvent) {
			n.Status("Server %s closed with exit code %d", e.ServerName, e.ExitCode)
		}),
	}
	return func() {
		for _, unsub := range unsubscribers {
			unsub()
		}
	}
}

// RunWatchdog pings the watchdog at half the configured interval until ctx
// is done. It returns immediately when WatchdogSec is not set for the unit.
func (n *Notifier) RunWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		n.logger.Warn("Failed to read watchdog settings", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	n.logger.Info("Watchdog enabled", "interval", interval)
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
