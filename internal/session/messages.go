package session

import (
	"github.com/DoyleJ11/live-memory-backend/internal/chat"
	"github.com/DoyleJ11/live-memory-backend/internal/engine"
)

type Msg interface{ isSessionMsg() }

// Connect records that the host asked the relay to attach to a stream.
type Connect struct{}

func (Connect) isSessionMsg() {}

// FromTransport carries one relay event into the session.
type FromTransport struct {
	Event chat.Event
}

func (FromTransport) isSessionMsg() {}

// Restart deals a fresh round regardless of phase.
type Restart struct{}

func (Restart) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

// revealElapsed is posted by the reveal timer.
type revealElapsed struct {
	Token engine.RevealToken
}

func (revealElapsed) isSessionMsg() {}
