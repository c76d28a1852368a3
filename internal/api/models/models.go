package models

import "time"

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Status models
type StatusData struct {
	State        string     `json:"state" example:"running" enum:"not_started,running,exited" doc:"Supervisor state"`
	Running      bool       `json:"running" example:"true" doc:"Whether the server process is running"`
	PID          int        `json:"pid,omitempty" example:"4242" doc:"Server process ID"`
	StartedAt    *time.Time `json:"started_at,omitempty" doc:"When the server process was started"`
	ExitCode     *int       `json:"exit_code,omitempty" example:"0" doc:"Exit code, present once the process has exited"`
	ServerName   string     `json:"server_name" example:"0.0.0.0:25565" doc:"Server name"`
	Players      []string   `json:"players" example:"[\"Alice\",\"Bob\"]" doc:"Connected players, sorted"`
	SessionCount int        `json:"session_count" example:"2" doc:"Active sessions across all players"`
	LastSave     *time.Time `json:"last_save,omitempty" doc:"When the last save line was observed"`
	SaveCooldown float64    `json:"save_cooldown_seconds" example:"60" doc:"Current save cooldown in seconds"`
}

type StatusResponse struct {
	Body StatusData
}

// Command models
type CommandRequestData struct {
	Command string `json:"command" minLength:"1" pattern:"^[^\r\n]+$" patternDescription:"single line" example:"say hello" doc:"One console command line to send to the server"`
}

type CommandRequest struct {
	Body CommandRequestData
}

type CommandData struct {
	Command string `json:"command" example:"say hello" doc:"Command that was sent"`
	Bytes   int    `json:"bytes" example:"10" doc:"Bytes written to the server console"`
}

type CommandResponse struct {
	Body CommandData
}

// Console history models
type ConsoleRequest struct {
	Limit int `query:"limit" default:"100" minimum:"0" maximum:"10000" doc:"Maximum number of lines, newest last. 0 returns everything held"`
}

type ConsoleLine struct {
	Time   time.Time `json:"time" doc:"When the line was read"`
	Source string    `json:"source" example:"stdout" enum:"stdout,stderr" doc:"Stream the line came from"`
	Level  string    `json:"level" example:"INFO" doc:"Classified severity"`
	Text   string    `json:"text" example:"[12:00:00] [Server thread/INFO]: Done (3.2s)!" doc:"Raw line"`
}

type ConsoleData struct {
	Lines []ConsoleLine `json:"lines" doc:"Console lines, oldest first"`
	Count int           `json:"count" example:"1" doc:"Number of lines returned"`
}

type ConsoleResponse struct {
	Body ConsoleData
}
