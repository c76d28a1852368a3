// Package metrics provides Prometheus metrics for the supervised server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mcsupervisor"

var (
	logLines = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "log_lines_total",
		Help:      "Lines read from the server, by stream and severity",
	}, []string{"source", "level"})

	playersOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "players_online",
		Help:      "Distinct players with at least one active session",
	})

	playerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "player_events_total",
		Help:      "Join and leave lines observed",
	}, []string{"event"})

	worldSaves = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "world_saves_total",
		Help:      "Save lines observed in server output",
	})

	saveRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "save_requests_total",
		Help:      "Save commands issued after the last player left",
	}, []string{"result"})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Webhook notifications by outcome",
	}, []string{"result"})

	serverRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_running",
		Help:      "1 while the server process is running",
	})

	serverExitCode = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_exit_code",
		Help:      "Exit code of the last server process",
	})
)

// Notification outcomes.
const (
	ResultSent    = "sent"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// ObserveLine counts one classified line.
func ObserveLine(source, level string) {
	logLines.WithLabelValues(source, level).Inc()
}

// SetPlayersOnline sets the number of distinct connected players.
func SetPlayersOnline(n int) {
	playersOnline.Set(float64(n))
}

// ObservePlayerEvent counts a "join" or "leave".
func ObservePlayerEvent(event string) {
	playerEvents.WithLabelValues(event).Inc()
}

// ObserveWorldSave counts a save line.
func ObserveWorldSave() {
	worldSaves.Inc()
}

// ObserveSaveRequest counts a save command by result ("sent" or "failed").
func ObserveSaveRequest(result string) {
	saveRequests.WithLabelValues(result).Inc()
}

// ObserveNotification counts a notification outcome.
func ObserveNotification(result string) {
	notifications.WithLabelValues(result).Inc()
}

// SetServerRunning records whether the server process is alive.
func SetServerRunning(running bool) {
	if running {
		serverRunning.Set(1)
		return
	}
	serverRunning.Set(0)
}

// SetServerExitCode records the exit code of the server process.
func SetServerExitCode(code int) {
	serverExitCode.Set(float64(code))
}

// HTTPHandler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}
