package game

import (
	"slices"
	"time"
)

// Sessions counts active connections per player. A player may hold more than
// one session when a reconnect is logged before the matching leave.
// Present names always have a count of at least one.
type Sessions map[string]int

// Join adds a session for name and returns the new count.
func (s Sessions) Join(name string) int {
	s[name]++
	return s[name]
}

// Leave removes a session for name and returns the remaining count.
// Leaving a name with no sessions is a no-op.
func (s Sessions) Leave(name string) int {
	n, ok := s[name]
	if !ok {
		return 0
	}
	if n <= 1 {
		delete(s, name)
		return 0
	}
	s[name] = n - 1
	return n - 1
}

// Count returns the active sessions for name.
func (s Sessions) Count(name string) int {
	return s[name]
}

// Empty reports whether no player is connected.
func (s Sessions) Empty() bool {
	return len(s) == 0
}

// Players returns connected player names in sorted order.
func (s Sessions) Players() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Total returns the number of active sessions across all players.
func (s Sessions) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// State is the mutable view of the supervised server.
// It is owned by a Handler and must only be mutated through it.
type State struct {
	// ServerName is set from configuration or, if empty, from the
	// first address announcement. Once set it never changes.
	ServerName string

	// LastSave is the time the last save line was observed. Zero means never.
	LastSave time.Time

	Sessions Sessions
}

// NewState creates a state with an optional preconfigured server name.
func NewState(serverName string) *State {
	return &State{
		ServerName: serverName,
		Sessions:   make(Sessions),
	}
}

// Snapshot is a point-in-time copy of State.
type Snapshot struct {
	ServerName   string
	LastSave     time.Time
	Players      []string
	SessionCount int
}
