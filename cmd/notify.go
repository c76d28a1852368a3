package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smazurov/mcsupervisor/internal/notify"
	"github.com/spf13/cobra"
)

// ErrNoWebhook is returned by the notify command when no webhook URL is configured.
var ErrNoWebhook = errors.New("no webhook configured, set slack.webhook_url")

// CreateNotifyCmd creates the notify command.
func CreateNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify <text>...",
		Short: "Send one test notification to the configured webhook",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if s.SlackWebhookURL == "" {
				return ErrNoWebhook
			}

			var opts []notify.WebhookOption
			if s.SlackChannel != "" {
				opts = append(opts, notify.WithChannel(s.SlackChannel))
			}
			if s.SlackUsername != "" {
				opts = append(opts, notify.WithUsername(s.SlackUsername))
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), s.notifyTimeout())
			defer cancel()

			text := strings.Join(args, " ")
			if err := notify.NewWebhook(s.SlackWebhookURL, opts...).Notify(ctx, text); err != nil {
				return fmt.Errorf("send notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Notification sent")
			return nil
		},
	}
}
