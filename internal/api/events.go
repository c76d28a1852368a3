package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/mcsupervisor/internal/api/models"
	"github.com/smazurov/mcsupervisor/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of player, save and server lifecycle events. The first event is the current status.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"status":         models.StatusData{},
		"player-joined":  events.PlayerJoinedEvent{},
		"player-left":    events.PlayerLeftEvent{},
		"server-address": events.ServerAddressEvent{},
		"server-opened":  events.ServerOpenedEvent{},
		"world-saved":    events.WorldSavedEvent{},
		"save-requested": events.SaveRequestedEvent{},
		"server-closed":  events.ServerClosedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		if s.options.Bus != nil {
			unsubscribe := events.SubscribeAll(s.options.Bus, eventCh)
			defer unsubscribe()
		}

		if err := send.Data(s.status()); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
