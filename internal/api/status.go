package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/mcsupervisor/internal/api/models"
	"github.com/smazurov/mcsupervisor/internal/process"
)

// registerServerRoutes registers status, command and console endpoints.
func (s *Server) registerServerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Server Status",
		Description: "Get process state, players online and the last observed save",
		Tags:        []string{"server"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "send-command",
		Method:        http.MethodPost,
		Path:          "/api/command",
		Summary:       "Send Console Command",
		Description:   "Write a command line to the server console",
		Tags:          []string{"server"},
		Security:      withAuth(),
		Errors:        []int{401, 409, 503},
		DefaultStatus: http.StatusAccepted,
	}, func(_ context.Context, input *models.CommandRequest) (*models.CommandResponse, error) {
		if s.options.Process == nil {
			return nil, huma.Error503ServiceUnavailable("No server process configured")
		}

		n, err := s.options.Process.SendMessage(input.Body.Command)
		if err != nil {
			if errors.Is(err, process.ErrPipeClosed) || errors.Is(err, process.ErrNotRunning) {
				return nil, huma.Error409Conflict("Server is not running", err)
			}
			return nil, huma.Error500InternalServerError("Failed to send command", err)
		}

		s.logger.Info("Console command sent via API", "command", input.Body.Command)
		return &models.CommandResponse{
			Body: models.CommandData{
				Command: input.Body.Command,
				Bytes:   n,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-console",
		Method:      http.MethodGet,
		Path:        "/api/console",
		Summary:     "Console History",
		Description: "Get the most recent lines of server output from both streams",
		Tags:        []string{"server"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.ConsoleRequest) (*models.ConsoleResponse, error) {
		lines := []models.ConsoleLine{}
		if s.options.Console != nil {
			for _, entry := range s.options.Console.Lines(input.Limit) {
				lines = append(lines, models.ConsoleLine{
					Time:   entry.Time,
					Source: string(entry.Source),
					Level:  entry.Level,
					Text:   entry.Text,
				})
			}
		}
		return &models.ConsoleResponse{
			Body: models.ConsoleData{
				Lines: lines,
				Count: len(lines),
			},
		}, nil
	})
}

// status builds the status payload from the process and the game state.
func (s *Server) status() models.StatusData {
	data := models.StatusData{
		State:   string(process.StateNotStarted),
		Players: []string{},
	}

	if s.options.Process != nil {
		info := s.options.Process.Info()
		data.State = string(info.State)
		data.Running = info.State == process.StateRunning
		data.PID = info.PID
		if !info.StartedAt.IsZero() {
			started := info.StartedAt
			data.StartedAt = &started
		}
		if info.Exited {
			code := info.ExitCode
			data.ExitCode = &code
		}
	}

	if s.options.Game != nil {
		snap := s.options.Game.Snapshot()
		data.ServerName = snap.ServerName
		data.SessionCount = snap.SessionCount
		if snap.Players != nil {
			data.Players = snap.Players
		}
		if !snap.LastSave.IsZero() {
			lastSave := snap.LastSave
			data.LastSave = &lastSave
		}
		data.SaveCooldown = s.options.Game.SaveCooldown().Seconds()
	}

	return data
}
