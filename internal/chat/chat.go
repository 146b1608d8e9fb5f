package chat

import (
	"regexp"
	"strconv"

	"github.com/DoyleJ11/live-memory-backend/internal/engine"
)

type EventType string

const (
	EventConnected    EventType = "connected"
	EventDisconnected EventType = "disconnected"
	EventChat         EventType = "chat"
	EventStreamEnd    EventType = "streamEnd"
)

// Event is one item from the live-stream relay.
type Event struct {
	Type    EventType
	RoomID  string // connected
	Reason  string // disconnected
	Sender  engine.PlayerRef
	Comment string
}

func Connected(roomID string) Event { return Event{Type: EventConnected, RoomID: roomID} }

func Disconnected(reason string) Event { return Event{Type: EventDisconnected, Reason: reason} }

func StreamEnd() Event { return Event{Type: EventStreamEnd, Reason: "Stream Ended"} }

func Chat(sender engine.PlayerRef, comment string) Event {
	return Event{Type: EventChat, Sender: sender, Comment: comment}
}

var digits = regexp.MustCompile(`\d+`)

// ParseMove pulls the first two integers out of free-form text. Anything
// after them is ignored; fewer than two, or an integer too large to hold,
// yields no move.
func ParseMove(comment string) (int, int, bool) {
	found := digits.FindAllString(comment, 2)
	if len(found) < 2 {
		return 0, 0, false
	}
	first, err := strconv.Atoi(found[0])
	if err != nil {
		return 0, 0, false
	}
	second, err := strconv.Atoi(found[1])
	if err != nil {
		return 0, 0, false
	}
	return first, second, true
}

// Move turns a chat event into a move request.
func (e Event) Move() (engine.MoveRequest, bool) {
	if e.Type != EventChat {
		return engine.MoveRequest{}, false
	}
	first, second, ok := ParseMove(e.Comment)
	if !ok {
		return engine.MoveRequest{}, false
	}
	return engine.MoveRequest{FirstCardID: first, SecondCardID: second, Requester: e.Sender}, true
}
