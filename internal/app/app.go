// Package app wires the supervisor together: it builds the classifier,
// handler, notifier and process supervisor from a Config and runs the game
// server until it exits or the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/smazurov/mcsupervisor/internal/api"
	"github.com/smazurov/mcsupervisor/internal/config"
	"github.com/smazurov/mcsupervisor/internal/console"
	"github.com/smazurov/mcsupervisor/internal/events"
	"github.com/smazurov/mcsupervisor/internal/game"
	"github.com/smazurov/mcsupervisor/internal/logging"
	"github.com/smazurov/mcsupervisor/internal/metrics"
	"github.com/smazurov/mcsupervisor/internal/notify"
	"github.com/smazurov/mcsupervisor/internal/process"
	"github.com/smazurov/mcsupervisor/internal/serverlog"
	"github.com/smazurov/mcsupervisor/internal/systemd"
)

// ExitLaunchFailed is returned by Run when the server could not be started.
const ExitLaunchFailed = 1

// Config holds everything needed to run one supervised server.
type Config struct {
	// ConfigPath is watched for runtime changes when WatchConfig is set.
	ConfigPath  string
	WatchConfig bool

	GameDirectory    string
	RunServerCommand string
	Executable       string
	ServerLogRegex   string
	ServerName       string
	SaveCooldown     time.Duration
	SaveCommand      string
	StopCommand      string
	StopTimeout      time.Duration
	EchoLevel        string

	WebhookURL      string
	WebhookChannel  string
	WebhookUsername string
	NotifyQueueSize int
	NotifyTimeout   time.Duration

	APIEnabled   bool
	APIAddr      string
	AuthUsername string
	AuthPassword string
	HistorySize  int

	// Stdin is relayed to the server console. Nil disables the relay.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// App is a configured, not yet started supervisor.
type App struct {
	cfg    Config
	logger *slog.Logger

	filter     *serverlog.Filter
	bus        *events.Bus
	queue      *notify.Queue
	handler    *game.Handler
	history    *serverlog.History
	supervisor *process.Supervisor
	systemd    *systemd.Notifier
}

// New validates cfg and builds every component. Nothing is started.
func New(cfg Config) (*App, error) {
	logger := logging.GetLogger("main")

	classifier, err := serverlog.NewClassifier(cfg.ServerLogRegex)
	if err != nil {
		return nil, fmt.Errorf("minecraft.server_log_regex: %w", err)
	}

	echoLevel, err := serverlog.ParseSeverity(cfg.EchoLevel)
	if err != nil {
		return nil, fmt.Errorf("minecraft.echo_level: %w", err)
	}

	args, err := process.ParseCommand(cfg.RunServerCommand)
	if err != nil {
		return nil, fmt.Errorf("minecraft.run_server_command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("minecraft.run_server_command: %w", process.ErrEmptyCommand)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		filter:  serverlog.NewFilter(echoLevel),
		bus:     events.New(),
		history: serverlog.NewHistory(cfg.HistorySize),
		systemd: systemd.NewNotifier(logging.GetLogger("systemd")),
	}

	var notifier notify.Notifier = notify.Discard
	if cfg.WebhookURL != "" {
		var opts []notify.WebhookOption
		if cfg.WebhookChannel != "" {
			opts = append(opts, notify.WithChannel(cfg.WebhookChannel))
		}
		if cfg.WebhookUsername != "" {
			opts = append(opts, notify.WithUsername(cfg.WebhookUsername))
		}
		a.queue = notify.NewQueue(notify.NewWebhook(cfg.WebhookURL, opts...), cfg.NotifyQueueSize, cfg.NotifyTimeout, logging.GetLogger("notify"))
		notifier = a.queue
	} else {
		logger.Info("No webhook configured, notifications disabled")
	}

	a.handler = game.NewHandler(game.Options{
		State:        game.NewState(cfg.ServerName),
		Notifier:     notifier,
		Events:       a.bus,
		SaveCooldown: cfg.SaveCooldown,
		SaveCommand:  cfg.SaveCommand,
		Logger:       logging.GetLogger("game"),
	})

	a.supervisor = process.NewSupervisor(process.Options{
		Args:            args,
		Executable:      cfg.Executable,
		Dir:             cfg.GameDirectory,
		Classifier:      classifier,
		Handler:         serverlog.Handlers{a.handler, a.history},
		Filter:          a.filter,
		Stdout:          cfg.Stdout,
		Stderr:          cfg.Stderr,
		Logger:          logging.GetLogger("process"),
		StopCommand:     cfg.StopCommand,
		GracefulTimeout: cfg.StopTimeout,
	})
	a.handler.SetCommandSender(a.supervisor)

	return a, nil
}

// Supervisor returns the process supervisor.
func (a *App) Supervisor() *process.Supervisor {
	return a.supervisor
}

// Handler returns the game event handler.
func (a *App) Handler() *game.Handler {
	return a.handler
}

// Bus returns the game event bus.
func (a *App) Bus() *events.Bus {
	return a.bus
}

// Run starts the server and blocks until it exits. When ctx is cancelled
// the server is shut down gracefully. Run returns the server's exit code,
// or ExitLaunchFailed with the launch error.
func (a *App) Run(ctx context.Context) (int, error) {
	if a.queue != nil {
		a.queue.Start()
		defer a.stopQueue()
	}

	detach := a.systemd.Attach(a.bus)
	defer detach()

	watchdogCtx, stopWatchdog := context.WithCancel(context.Background())
	defer stopWatchdog()
	go a.systemd.RunWatchdog(watchdogCtx)

	if a.cfg.WatchConfig && a.cfg.ConfigPath != "" {
		if stop := a.watchConfig(ctx); stop != nil {
			defer stop()
		}
	}

	if a.cfg.APIEnabled {
		stop := a.serveAPI()
		defer stop()
	}

	a.logger.Info("Starting server",
		"command", a.cfg.RunServerCommand,
		"directory", a.cfg.GameDirectory,
		"echo_level", a.filter.Minimum().String(),
		"save_cooldown", a.cfg.SaveCooldown)

	if err := a.supervisor.Start(); err != nil {
		var launchErr *process.LaunchError
		if errors.As(err, &launchErr) {
			a.logger.Error("Failed to launch server", "path", launchErr.Path, "error", launchErr.Err)
		}
		return ExitLaunchFailed, err
	}

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	if a.cfg.Stdin != nil {
		go func() {
			if err := console.Relay(relayCtx, a.cfg.Stdin, a.supervisor, logging.GetLogger("console")); err != nil {
				a.logger.Warn("Console relay stopped", "error", err)
			}
		}()
	}

	select {
	case <-a.supervisor.Done():
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
		a.systemd.Stopping()
		if err := a.supervisor.Shutdown(context.Background()); err != nil {
			a.logger.Error("Server shutdown failed", "error", err)
		}
		<-a.supervisor.Done()
	}

	code, _ := a.supervisor.ExitCode()
	a.logger.Info("Server exited", "exit_code", code)
	a.handler.ServerClosed(code)
	return code, nil
}

// stopQueue flushes pending notifications, bounded by the delivery timeout.
func (a *App) stopQueue() {
	timeout := a.cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()
	if err := a.queue.Stop(ctx); err != nil {
		a.logger.Warn("Pending notifications dropped", "error", err)
	}
}

// watchConfig applies runtime settings whenever the config file changes.
func (a *App) watchConfig(ctx context.Context) func() {
	if _, err := os.Stat(a.cfg.ConfigPath); err != nil {
		a.logger.Debug("Config file not found, hot reload disabled", "path", a.cfg.ConfigPath)
		return nil
	}

	watcher := config.NewConfigWatcher(a.cfg.ConfigPath, config.LoadRuntime, logging.GetLogger("config"))
	watcher.OnReload(a.applyRuntime)
	watcher.OnReload(func(config.Runtime) {
		logging.Initialize(config.LoadLoggingConfig(a.cfg.ConfigPath))
	})

	if err := watcher.Start(ctx); err != nil {
		a.logger.Warn("Failed to watch config file", "path", a.cfg.ConfigPath, "error", err)
		return nil
	}
	return func() {
		if err := watcher.Stop(); err != nil {
			a.logger.Debug("Config watcher close failed", "error", err)
		}
	}
}

// applyRuntime updates the echo filter and save cooldown.
func (a *App) applyRuntime(rt config.Runtime) {
	level, err := serverlog.ParseSeverity(rt.EchoLevel)
	if err != nil {
		a.logger.Warn("Ignoring invalid echo level", "value", rt.EchoLevel, "error", err)
	} else if level != a.filter.Minimum() {
		a.filter.Set(level)
		a.logger.Info("Echo level changed", "echo_level", level.String())
	}

	if cooldown := rt.SaveCooldown(); cooldown != a.handler.SaveCooldown() {
		a.handler.SetSaveCooldown(cooldown)
		a.logger.Info("Save cooldown changed", "save_cooldown", cooldown)
	}
}

// serveAPI starts the HTTP API in the background and returns its stop function.
func (a *App) serveAPI() func() {
	if a.cfg.AuthUsername == "" || a.cfg.AuthPassword == "" {
		a.logger.Warn("API enabled without credentials, console commands are unauthenticated")
	}

	server := api.NewServer(&api.Options{
		AuthUsername:      a.cfg.AuthUsername,
		AuthPassword:      a.cfg.AuthPassword,
		Process:           a.supervisor,
		Game:              a.handler,
		Console:           a.history,
		Bus:               a.bus,
		PrometheusHandler: metrics.HTTPHandler(),
	})

	go func() {
		if err := server.Start(a.cfg.APIAddr); err != nil {
			a.logger.Error("API server failed", "error", err)
		}
	}()

	return func() {
		if err := server.Stop(); err != nil {
			a.logger.Warn("Error stopping API server", "error", err)
		}
	}
}
