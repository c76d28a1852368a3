package cmd

import (
	"time"

	"github.com/smazurov/mcsupervisor/internal/config"
	"github.com/spf13/cobra"
)

// settings is the subset of the root options the subcommands use.
// Field names match the root flags so LoadConfig honours flags set on the command line.
type settings struct {
	Config string

	ServerLogRegex string `toml:"minecraft.server_log_regex" env:"MINECRAFT_SERVER_LOG_REGEX"`
	ServerName     string `toml:"minecraft.server_name" env:"MINECRAFT_SERVER_NAME"`
	SaveCommand    string `toml:"minecraft.save_command" env:"MINECRAFT_SAVE_COMMAND"`
	SaveCoolTime   string `toml:"minecraft.save_cool_time" env:"MINECRAFT_SAVE_COOL_TIME"`

	SlackWebhookURL string `toml:"slack.webhook_url" env:"SLACK_WEBHOOK_URL"`
	SlackChannel    string `toml:"slack.channel" env:"SLACK_CHANNEL"`
	SlackUsername   string `toml:"slack.username" env:"SLACK_USERNAME"`
	NotifyTimeout   int    `toml:"notify.timeout" env:"NOTIFY_TIMEOUT"`
}

// loadSettings reads the inherited root flags, then applies the config
// file and environment on top of every flag not set explicitly.
func loadSettings(cmd *cobra.Command) (settings, error) {
	s := settings{
		Config:          flagString(cmd, "config"),
		ServerLogRegex:  flagString(cmd, "server-log-regex"),
		ServerName:      flagString(cmd, "server-name"),
		SaveCommand:     flagString(cmd, "save-command"),
		SaveCoolTime:    flagString(cmd, "save-cool-time"),
		SlackWebhookURL: flagString(cmd, "slack-webhook-url"),
		SlackChannel:    flagString(cmd, "slack-channel"),
		SlackUsername:   flagString(cmd, "slack-username"),
		NotifyTimeout:   10,
	}
	if v, err := cmd.Flags().GetInt64("notify-timeout"); err == nil {
		s.NotifyTimeout = int(v)
	}

	if err := config.LoadConfig(&s, cmd); err != nil {
		return s, err
	}
	return s, nil
}

// notifyTimeout returns the webhook timeout as a duration.
func (s settings) notifyTimeout() time.Duration {
	if s.NotifyTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.NotifyTimeout) * time.Second
}

// flagString returns the flag's value, or "" when the command has no such flag.
func flagString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}
