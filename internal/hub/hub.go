package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/session"
)

// Factory builds the session for a room code.
type Factory func(ctx context.Context, code string) *session.Session

type HubMsg interface{ isHubMsg() }

// CreateSession replies nil when the code is already taken.
type CreateSession struct {
	Code  string
	Reply chan *session.Session
}

type GetSession struct {
	Code  string
	Reply chan *session.Session
}

// EnsureSession returns the live session for Code, creating it (and loading
// its stored ledger) when there is none.
type EnsureSession struct {
	Code  string
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

type ListSessions struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (EnsureSession) isHubMsg() {}
func (RemoveSession) isHubMsg() {}
func (ListSessions) isHubMsg()  {}
func (ShutdownHub) isHubMsg()   {}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session.Session
	factory  Factory
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context, factory Factory, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session.Session),
		factory:  factory,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after every session has been told to stop.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if h.sessions[msg.Code] != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.create(msg.Code)

			case GetSession:
				msg.Reply <- h.live(msg.Code) // May be nil

			case EnsureSession:
				if s := h.live(msg.Code); s != nil {
					msg.Reply <- s
					break
				}
				msg.Reply <- h.create(msg.Code)

			case RemoveSession:
				if s := h.sessions[msg.Code]; s != nil {
					// Wait for the persister flush so a recreated room loads the final ledger.
					s.Send(session.Shutdown{})
					<-s.Done()
					delete(h.sessions, msg.Code)
					h.log.Info("session removed", zap.String("room", msg.Code))
				}

			case ListSessions:
				codes := make([]string, 0, len(h.sessions))
				for code := range h.sessions {
					codes = append(codes, code)
				}
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(code string) *session.Session {
	s := h.factory(h.ctx, code)
	h.sessions[code] = s
	h.log.Info("session created", zap.String("room", code))
	return s
}

// live returns the session for code, forgetting it if its loop has exited.
func (h *Hub) live(code string) *session.Session {
	s := h.sessions[code]
	if s == nil {
		return nil
	}
	select {
	case <-s.Done():
		delete(h.sessions, code)
		return nil
	default:
		return s
	}
}

func (h *Hub) shutdown() {
	for code, s := range h.sessions {
		s.Send(session.Shutdown{})
		<-s.Done()
		delete(h.sessions, code)
	}
	h.cancel()
}
