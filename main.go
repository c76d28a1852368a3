package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/mcsupervisor/cmd"
	"github.com/smazurov/mcsupervisor/internal/app"
	"github.com/smazurov/mcsupervisor/internal/config"
	"github.com/smazurov/mcsupervisor/internal/logging"
	"github.com/smazurov/mcsupervisor/internal/process"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `doc:"Path to configuration file" short:"c" default:"config.toml"`

	// Minecraft settings
	GameDirectory    string `doc:"Directory the server runs in" default:"." toml:"minecraft.game_directory" env:"MINECRAFT_GAME_DIRECTORY"`
	RunServerCommand string `doc:"Command line that starts the server" default:"java -Xmx1024M -Xms1024M -jar server.jar nogui" toml:"minecraft.run_server_command" env:"MINECRAFT_RUN_SERVER_COMMAND"`
	Executable       string `doc:"Binary to run instead of the command's first word" toml:"minecraft.executable" env:"MINECRAFT_EXECUTABLE"`
	ServerLogRegex   string `doc:"Log line pattern with hour, minute, second, thread, level and message groups" toml:"minecraft.server_log_regex" env:"MINECRAFT_SERVER_LOG_REGEX"`
	ServerName       string `doc:"Server name used in notifications, defaults to the announced address" toml:"minecraft.server_name" env:"MINECRAFT_SERVER_NAME"`
	SaveCoolTime     string `doc:"Seconds since the last save before an empty server is saved again" default:"60" toml:"minecraft.save_cool_time" env:"MINECRAFT_SAVE_COOL_TIME"`
	LogoutCoolTime   string `doc:"Accepted for compatibility, unused" default:"0" toml:"minecraft.logout_cool_time" env:"MINECRAFT_LOGOUT_COOL_TIME"`
	SaveCommand      string `doc:"Console command sent when the last player leaves" default:"save-all flush" toml:"minecraft.save_command" env:"MINECRAFT_SAVE_COMMAND"`
	StopCommand      string `doc:"Console command sent on shutdown before any signal" default:"stop" toml:"minecraft.stop_command" env:"MINECRAFT_STOP_COMMAND"`
	StopTimeout      int    `doc:"Seconds to wait for the stop command before SIGTERM" default:"30" toml:"minecraft.stop_timeout" env:"MINECRAFT_STOP_TIMEOUT"`
	EchoLevel        string `doc:"Minimum severity echoed to the terminal (INFO, WARN, ERROR)" default:"INFO" toml:"minecraft.echo_level" env:"MINECRAFT_ECHO_LEVEL"`

	// Slack settings
	SlackWebhookURL string `doc:"Incoming webhook URL, empty disables notifications" toml:"slack.webhook_url" env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `doc:"Channel override" toml:"slack.channel" env:"SLACK_CHANNEL"`
	SlackUsername   string `doc:"Poster name override" toml:"slack.username" env:"SLACK_USERNAME"`

	// Notify settings
	NotifyQueueSize int `doc:"Pending notifications kept before dropping" default:"64" toml:"notify.queue_size" env:"NOTIFY_QUEUE_SIZE"`
	NotifyTimeout   int `doc:"Seconds allowed for one webhook post" default:"10" toml:"notify.timeout" env:"NOTIFY_TIMEOUT"`

	// Server settings
	APIEnabled  bool   `doc:"Serve the status API" default:"false" toml:"server.api_enabled" env:"SERVER_API_ENABLED"`
	Port        string `doc:"API listen address" short:"p" default:":8095" toml:"server.port" env:"SERVER_PORT"`
	HistorySize int    `doc:"Console lines kept for the API" default:"500" toml:"server.history_size" env:"SERVER_HISTORY_SIZE"`
	WatchConfig bool   `doc:"Reload echo level, save cooldown and log levels when the config file changes" default:"true" toml:"server.watch_config" env:"SERVER_WATCH_CONFIG"`

	// Auth settings
	AuthUsername string `doc:"Basic auth username" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `doc:"Basic auth password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `doc:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `doc:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingMain    string `doc:"Main logging level" toml:"logging.main" env:"LOGGING_MAIN"`
	LoggingProcess string `doc:"Process supervisor logging level" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingGame    string `doc:"Game event logging level" toml:"logging.game" env:"LOGGING_GAME"`
	LoggingNotify  string `doc:"Notification logging level" toml:"logging.notify" env:"LOGGING_NOTIFY"`
	LoggingAPI     string `doc:"API logging level" toml:"logging.api" env:"LOGGING_API"`
	LoggingConfig  string `doc:"Config watcher logging level" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingConsole string `doc:"Console relay logging level" toml:"logging.console" env:"LOGGING_CONSOLE"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"main":    opts.LoggingMain,
				"process": opts.LoggingProcess,
				"game":    opts.LoggingGame,
				"notify":  opts.LoggingNotify,
				"api":     opts.LoggingAPI,
				"config":  opts.LoggingConfig,
				"console": opts.LoggingConsole,
			},
		})

		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		exitCode := make(chan int, 1)

		hooks.OnStart(func() {
			code := run(ctx, opts, logger)
			exitCode <- code
			os.Exit(code)
		})

		hooks.OnStop(func() {
			logger.Info("Received shutdown signal")
			cancel()
			os.Exit(<-exitCode)
		})
	})

	cli.Root().Use = "mcsupervisor"
	cli.Root().Short = "Run a Minecraft server, relay its console and notify on player events"

	cli.Root().AddCommand(cmd.CreateClassifyCmd())
	cli.Root().AddCommand(cmd.CreateNotifyCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}

// run supervises the server until it exits and returns the process exit code.
func run(ctx context.Context, opts *Options, logger *slog.Logger) int {
	saveCooldown, err := parseSeconds(opts.SaveCoolTime)
	if err != nil {
		logger.Error("Invalid minecraft.save_cool_time", "value", opts.SaveCoolTime, "error", err)
		return 2
	}

	supervisor, err := app.New(app.Config{
		ConfigPath:       opts.Config,
		WatchConfig:      opts.WatchConfig,
		GameDirectory:    opts.GameDirectory,
		RunServerCommand: opts.RunServerCommand,
		Executable:       opts.Executable,
		ServerLogRegex:   opts.ServerLogRegex,
		ServerName:       opts.ServerName,
		SaveCooldown:     saveCooldown,
		SaveCommand:      opts.SaveCommand,
		StopCommand:      opts.StopCommand,
		StopTimeout:      time.Duration(opts.StopTimeout) * time.Second,
		EchoLevel:        opts.EchoLevel,
		WebhookURL:       opts.SlackWebhookURL,
		WebhookChannel:   opts.SlackChannel,
		WebhookUsername:  opts.SlackUsername,
		NotifyQueueSize:  opts.NotifyQueueSize,
		NotifyTimeout:    time.Duration(opts.NotifyTimeout) * time.Second,
		APIEnabled:       opts.APIEnabled,
		APIAddr:          opts.Port,
		AuthUsername:     opts.AuthUsername,
		AuthPassword:     opts.AuthPassword,
		HistorySize:      opts.HistorySize,
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
	})
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		return 2
	}

	code, err := supervisor.Run(ctx)
	if err != nil {
		var launchErr *process.LaunchError
		if !errors.As(err, &launchErr) {
			logger.Error("Supervisor failed", "error", err)
		}
	}
	return code
}

// parseSeconds converts a decimal number of seconds to a duration.
func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, errors.New("must not be negative")
	}
	return config.Seconds(f), nil
}
