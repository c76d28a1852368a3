// Package console forwards operator input to the server's stdin.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
)

// Sender writes one console command to the server.
type Sender interface {
	SendMessage(text string) (int, error)
}

// Relay forwards each line read from r to sender until r reaches EOF or
// ctx is done. A failed write is logged and the relay keeps reading.
// Relay returns the reader's error, or nil at EOF and on cancellation.
func Relay(ctx context.Context, r io.Reader, sender Sender, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			if _, err := sender.SendMessage(line); err != nil {
				logger.Warn("Failed to forward console command", "command", line, "error", err)
				continue
			}
			logger.Debug("Forwarded console command", "command", line)
		}
	}
}
