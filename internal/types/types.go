package types

import (
	"github.com/DoyleJ11/live-memory-backend/internal/engine"
	"github.com/DoyleJ11/live-memory-backend/internal/session"
)

// ClientMessage is what a viewer (the host's board) may send.
type ClientMessage struct {
	Type string `json:"type"` // "Restart" | "Connect"
}

// RelayMessage is one frame from the live-stream relay.
type RelayMessage struct {
	Type              string `json:"type"` // "connected" | "disconnected" | "chat" | "streamEnd"
	RoomID            string `json:"roomId,omitempty"`
	Reason            string `json:"reason,omitempty"`
	UniqueID          string `json:"uniqueId,omitempty"`
	Nickname          string `json:"nickname,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	Comment           string `json:"comment,omitempty"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "StateSnapshot" | "Error"
	Version int            `json:"version,omitempty"`
	State   *session.State `json:"state,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type RoomResponse struct {
	Code string `json:"code"`
}

type ViewResponse struct {
	Version    int           `json:"version"`
	NumClients int           `json:"numClients"`
	State      session.State `json:"state"`
}

type LeaderboardResponse struct {
	Scope   string              `json:"scope"` // "session" | "alltime"
	Entries []engine.ScoreEntry `json:"entries"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
