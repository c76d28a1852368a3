package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/smazurov/mcsupervisor/internal/config"
	"github.com/smazurov/mcsupervisor/internal/game"
	"github.com/smazurov/mcsupervisor/internal/logging"
	"github.com/smazurov/mcsupervisor/internal/notify"
	"github.com/smazurov/mcsupervisor/internal/serverlog"
	"github.com/spf13/cobra"
)

// CreateClassifyCmd creates the classify command.
func CreateClassifyCmd() *cobra.Command {
	var stderr bool

	cmd := &cobra.Command{
		Use:   "classify [log-file]",
		Short: "Replay a server log through the classifier in dry-run mode",
		Long: `Reads server output from a file (or stdin when no file or "-" is given), classifies every line ` +
			`and runs it through the event handler. Notifications and console commands are printed instead of sent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, openErr := os.Open(args[0])
				if openErr != nil {
					return openErr
				}
				defer f.Close()
				in = f
			}

			source := serverlog.SourceStdout
			if stderr {
				source = serverlog.SourceStderr
			}

			cooldown := 60 * time.Second
			if s.SaveCoolTime != "" {
				secs, parseErr := strconv.ParseFloat(s.SaveCoolTime, 64)
				if parseErr != nil {
					return fmt.Errorf("invalid save cool time %q: %w", s.SaveCoolTime, parseErr)
				}
				cooldown = config.Seconds(secs)
			}

			return replay(in, cmd.OutOrStdout(), replayOptions{
				Pattern:      s.ServerLogRegex,
				ServerName:   s.ServerName,
				SaveCommand:  s.SaveCommand,
				SaveCooldown: cooldown,
				Source:       source,
			})
		},
	}

	cmd.Flags().BoolVar(&stderr, "stderr", false, "Treat the input as the server's stderr stream")

	return cmd
}

type replayOptions struct {
	Pattern      string
	ServerName   string
	SaveCommand  string
	SaveCooldown time.Duration
	Source       serverlog.Source
}

// dryRun prints the side effects the handler would cause.
type dryRun struct {
	out io.Writer
}

func (d dryRun) Notify(_ context.Context, text string) error {
	_, err := fmt.Fprintf(d.out, "    notify: %s\n", text)
	return err
}

func (d dryRun) SendMessage(text string) (int, error) {
	if _, err := fmt.Fprintf(d.out, "    command: %s\n", text); err != nil {
		return -1, err
	}
	return len(text) + 1, nil
}

// replay classifies every line of in and prints the result with the actions
// the handler takes for it.
func replay(in io.Reader, out io.Writer, opts replayOptions) error {
	classifier, err := serverlog.NewClassifier(opts.Pattern)
	if err != nil {
		return err
	}

	sink := dryRun{out: out}
	handler := game.NewHandler(game.Options{
		State:        game.NewState(opts.ServerName),
		Notifier:     notify.Notifier(sink),
		Commands:     sink,
		SaveCooldown: opts.SaveCooldown,
		SaveCommand:  opts.SaveCommand,
		Logger:       logging.GetLogger("game"),
	})

	var matched, unmatched int
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := classifier.Classify(scanner.Text(), opts.Source)
		if m, ok := line.Matched(); ok {
			matched++
			fmt.Fprintf(out, "%s %-5s [%s] %s\n", line.Source, m.Level, m.Thread, m.Message)
		} else {
			unmatched++
			fmt.Fprintf(out, "%s %-5s %s\n", line.Source, line.Severity(), line.Raw)
		}
		handler.HandleLine(line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	snap := handler.Snapshot()
	fmt.Fprintf(out, "\n%d matched, %d unmatched, server %q, %d online\n",
		matched, unmatched, snap.ServerName, len(snap.Players))
	return nil
}
