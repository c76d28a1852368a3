package events

// Event type constants for kelindar/event.
const (
	TypePlayerJoined uint32 = iota + 1
	TypePlayerLeft
	TypeServerAddress
	TypeServerOpened
	TypeWorldSaved
	TypeSaveRequested
	TypeServerClosed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PlayerJoinedEvent is published when a join line is observed.
type PlayerJoinedEvent struct {
	Player     string `json:"player" example:"Alice" doc:"Player name"`
	Sessions   int    `json:"sessions" example:"1" doc:"Active sessions for this player after the join"`
	Online     int    `json:"online" example:"3" doc:"Distinct players online after the join"`
	ServerName string `json:"server_name" example:"0.0.0.0:25565" doc:"Server name"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlayerJoinedEvent.
func (e PlayerJoinedEvent) Type() uint32 { return TypePlayerJoined }

// PlayerLeftEvent is published when a leave line is observed.
type PlayerLeftEvent struct {
	Player     string `json:"player" example:"Alice" doc:"Player name"`
	Sessions   int    `json:"sessions" example:"0" doc:"Active sessions for this player after the leave"`
	Online     int    `json:"online" example:"2" doc:"Distinct players online after the leave"`
	ServerName string `json:"server_name" example:"0.0.0.0:25565" doc:"Server name"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PlayerLeftEvent.
func (e PlayerLeftEvent) Type() uint32 { return TypePlayerLeft }

// ServerAddressEvent is published when the server announces its listen address.
type ServerAddressEvent struct {
	Engine     string `json:"engine" example:"minecraft" doc:"Engine name from the startup line"`
	Address    string `json:"address" example:"0.0.0.0:25565" doc:"Announced address"`
	ServerName string `json:"server_name" example:"0.0.0.0:25565" doc:"Effective server name"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ServerAddressEvent.
func (e ServerAddressEvent) Type() uint32 { return TypeServerAddress }

// ServerOpenedEvent is published when the server finishes starting.
type ServerOpenedEvent struct {
	ServerName string `json:"server_name" example:"0.0.0.0:25565" doc:"Server name"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ServerOpenedEvent.
func (e ServerOpenedEvent) Type() uint32 { return TypeServerOpened }

// WorldSavedEvent is published for every save line.
type WorldSavedEvent struct {
	Message    string `json:"message" example:"Saved the game" doc:"Save line message"`
	ServerName string `json:"server_name" example:"0.0.0.0:25565" doc:"Server name"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for WorldSavedEvent.
func (e WorldSavedEvent) Type() uint32 { return TypeWorldSaved }

// SaveRequestedEvent is published when the supervisor issues a save command.
type SaveRequestedEvent struct {
	Command    string `json:"command" example:"save-all flush" doc:"Command sent to the server"`
	Sent       bool   `json:"sent" example:"true" doc:"Whether the command reached the server"`
	ServerName string `json:"server_name" example:"0.0.0.0:25565" doc:"Server name"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SaveRequestedEvent.
func (e SaveRequestedEvent) Type() uint32 { return TypeSaveRequested }

// ServerClosedEvent is published after the server process exits.
type ServerClosedEvent struct {
	ServerName string `json:"server_name" example:"0.0.0.0:25565" doc:"Server name"`
	ExitCode   int    `json:"exit_code" example:"0" doc:"Process exit code"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ServerClosedEvent.
func (e ServerClosedEvent) Type() uint32 { return TypeServerClosed }
