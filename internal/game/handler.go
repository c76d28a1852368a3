// Package game reacts to classified server output: it tracks player sessions,
// resolves the server name, requests saves when the server empties, and
// sends notifications for the events players care about.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/smazurov/mcsupervisor/internal/events"
	"github.com/smazurov/mcsupervisor/internal/metrics"
	"github.com/smazurov/mcsupervisor/internal/notify"
	"github.com/smazurov/mcsupervisor/internal/serverlog"
)

// DefaultSaveCommand flushes all chunks to disk on a vanilla server.
const DefaultSaveCommand = "save-all flush"

// CommandSender writes a console command to the server.
type CommandSender interface {
	SendMessage(text string) (int, error)
}

// Publisher broadcasts game events. *events.Bus satisfies it.
type Publisher interface {
	Publish(ev events.Event)
}

// Options configures a Handler.
type Options struct {
	// State is the owned server state. If nil, an empty state is created.
	State *State

	Notifier notify.Notifier
	Commands CommandSender
	Events   Publisher

	// SaveCooldown is the minimum time between the last observed save and
	// a save triggered by the last player leaving.
	SaveCooldown time.Duration

	// SaveCommand defaults to DefaultSaveCommand.
	SaveCommand string

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// rule is one entry of the ordered dispatch table.
type rule struct {
	name  string
	re    *regexp.Regexp
	apply func(h *Handler, msg string, groups []string)
}

var rules = []rule{
	{name: "join", re: regexp.MustCompile(`^(?P<name>.+) joined the game$`), apply: (*Handler).onJoin},
	{name: "leave", re: regexp.MustCompile(`^(?P<name>.+) left the game$`), apply: (*Handler).onLeave},
	{name: "address", re: regexp.MustCompile(`^Starting (?P<engine>.+) server on (?P<ip>.+):(?P<port>[0-9]+)`), apply: (*Handler).onAddress},
	{name: "opened", re: regexp.MustCompile(`^Done`), apply: (*Handler).onOpened},
	{name: "saved", re: regexp.MustCompile(`^Sav(?:ing|ed)`), apply: (*Handler).onSaved},
}

// Handler applies the dispatch table to every classified line.
// HandleLine is safe to call from both stream readers; calls are serialized
// so state mutation and the resulting side effects happen atomically.
type Handler struct {
	mu sync.Mutex

	state       *State
	notifier    notify.Notifier
	commands    CommandSender
	events      Publisher
	cooldown    time.Duration
	saveCommand string
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		state:       opts.State,
		notifier:    opts.Notifier,
		commands:    opts.Commands,
		events:      opts.Events,
		cooldown:    opts.SaveCooldown,
		saveCommand: opts.SaveCommand,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if h.state == nil {
		h.state = NewState("")
	}
	if h.state.Sessions == nil {
		h.state.Sessions = make(Sessions)
	}
	if h.notifier == nil {
		h.notifier = notify.Discard
	}
	if h.saveCommand == "" {
		h.saveCommand = DefaultSaveCommand
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// SetCommandSender sets the save command target. It exists because the
// supervisor needs the handler before it can itself be constructed.
func (h *Handler) SetCommandSender(commands CommandSender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = commands
}

// SetSaveCooldown changes the save cooldown.
func (h *Handler) SetSaveCooldown(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cooldown = d
}

// SaveCooldown returns the current save cooldown.
func (h *Handler) SaveCooldown() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cooldown
}

// Snapshot returns a copy of the current state.
func (h *Handler) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Snapshot{
		ServerName:   h.state.ServerName,
		LastSave:     h.state.LastSave,
		Players:      h.state.Sessions.Players(),
		SessionCount: h.state.Sessions.Total(),
	}
}

// HandleLine runs the first rule whose pattern matches the line's message.
func (h *Handler) HandleLine(line serverlog.Line) {
	msg := line.Message()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range rules {
		groups := r.re.FindStringSubmatch(msg)
		if groups == nil {
			continue
		}
		h.logger.Debug("Matched server event", "rule", r.name, "source", line.Source)
		r.apply(h, msg, groups)
		return
	}
}

// ServerClosed announces that the server process exited.
func (h *Handler) ServerClosed(exitCode int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.notify(fmt.Sprintf("Server `%s` closed.", h.state.ServerName))
	h.publish(events.ServerClosedEvent{
		ServerName: h.state.ServerName,
		ExitCode:   exitCode,
		Timestamp:  h.timestamp(),
	})
}

func (h *Handler) onJoin(msg string, groups []string) {
	name := groups[1]
	count := h.state.Sessions.Join(name)

	metrics.ObservePlayerEvent("join")
	metrics.SetPlayersOnline(len(h.state.Sessions))
	h.logger.Info("Player joined", "player", name, "sessions", count)

	h.notify(fmt.Sprintf("%s `%s`.", msg, h.state.ServerName))
	h.publish(events.PlayerJoinedEvent{
		Player:     name,
		Sessions:   count,
		Online:     len(h.state.Sessions),
		ServerName: h.state.ServerName,
		Timestamp:  h.timestamp(),
	})
}

func (h *Handler) onLeave(msg string, groups []string) {
	name := groups[1]
	remaining := h.state.Sessions.Leave(name)

	metrics.ObservePlayerEvent("leave")
	metrics.SetPlayersOnline(len(h.state.Sessions))
	h.logger.Info("Player left", "player", name, "sessions", remaining)

	h.notify(fmt.Sprintf("%s `%s`.", msg, h.state.ServerName))
	h.publish(events.PlayerLeftEvent{
		Player:     name,
		Sessions:   remaining,
		Online:     len(h.state.Sessions),
		ServerName: h.state.ServerName,
		Timestamp:  h.timestamp(),
	})

	if h.state.Sessions.Empty() && h.saveDue() {
		h.requestSave()
	}
}

func (h *Handler) onAddress(_ string, groups []string) {
	engine, address := groups[1], groups[2]+":"+groups[3]
	if h.state.ServerName == "" {
		h.state.ServerName = address
		h.logger.Info("Resolved server name from address", "server_name", address)
	}

	h.publish(events.ServerAddressEvent{
		Engine:     engine,
		Address:    address,
		ServerName: h.state.ServerName,
		Timestamp:  h.timestamp(),
	})
}

func (h *Handler) onOpened(_ string, _ []string) {
	h.logger.Info("Server opened", "server_name", h.state.ServerName)
	h.notify(fmt.Sprintf("Server `%s` opened.", h.state.ServerName))
	h.publish(events.ServerOpenedEvent{
		ServerName: h.state.ServerName,
		Timestamp:  h.timestamp(),
	})
}

func (h *Handler) onSaved(msg string, _ []string) {
	h.state.LastSave = h.now()
	metrics.ObserveWorldSave()

	h.notify(fmt.Sprintf("%s `%s`.", msg, h.state.ServerName))
	h.publish(events.WorldSavedEvent{
		Message:    msg,
		ServerName: h.state.ServerName,
		Timestamp:  h.timestamp(),
	})
}

// saveDue reports whether the cooldown since the last observed save has elapsed.
func (h *Handler) saveDue() bool {
	if h.state.LastSave.IsZero() {
		return true
	}
	return h.now().Sub(h.state.LastSave) >= h.cooldown
}

// requestSave sends the save command. LastSave is not touched here; it is
// updated when the server reports the save.
func (h *Handler) requestSave() {
	if h.commands == nil {
		h.logger.Warn("No command target, skipping save")
		return
	}

	sent := true
	if _, err := h.commands.SendMessage(h.saveCommand); err != nil {
		sent = false
		metrics.ObserveSaveRequest(metrics.ResultFailed)
		h.logger.Warn("Failed to send save command", "command", h.saveCommand, "error", err)
	} else {
		metrics.ObserveSaveRequest(metrics.ResultSent)
		h.logger.Info("Server empty, save requested", "command", h.saveCommand)
	}

	h.publish(events.SaveRequestedEvent{
		Command:    h.saveCommand,
		Sent:       sent,
		ServerName: h.state.ServerName,
		Timestamp:  h.timestamp(),
	})
}

// notify sends text. Failures are logged and never interrupt line handling.
func (h *Handler) notify(text string) {
	if err := h.notifier.Notify(context.Background(), text); err != nil {
		h.logger.Warn("Notification failed", "error", err)
	}
}

func (h *Handler) publish(ev events.Event) {
	if h.events != nil {
		h.events.Publish(ev)
	}
}

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}
