package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/hub"
	"github.com/DoyleJ11/live-memory-backend/internal/session"
	"github.com/DoyleJ11/live-memory-backend/internal/types"
)

const writeTimeout = 3 * time.Second

var (
	errBadJSON     = []byte(`{"type":"Error","error":"bad json"}`)
	errUnknownType = []byte(`{"type":"Error","error":"unknown type"}`)
)

// Handler streams snapshots of one room to a viewer and accepts Restart and
// Connect commands from it.
func Handler(h *hub.Hub, originPatterns []string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, h)
		if !ok {
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			log.Debug("viewer accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan session.Snapshot, 8)
		clientID := uuid.NewString()
		clog := log.With(zap.String("room", s.Room()), zap.String("client", clientID))

		if !s.Send(session.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "room closed")
			return
		}
		defer s.Send(session.Leave{ClientID: clientID})
		clog.Debug("viewer joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case snap, ok := <-out:
					if !ok {
						conn.Close(websocket.StatusGoingAway, "dropped")
						return
					}
					msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &snap.State}
					payload, _ := json.Marshal(msg)
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					clog.Debug("viewer left")
				default:
					clog.Debug("viewer read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText, errBadJSON)
				continue
			}

			msg, ok := toSessionMsg(cm)
			if !ok {
				_ = conn.Write(r.Context(), websocket.MessageText, errUnknownType)
				continue
			}
			s.Send(msg)
		}
	}
}

func toSessionMsg(m types.ClientMessage) (session.Msg, bool) {
	switch m.Type {
	case "Restart":
		return session.Restart{}, true
	case "Connect":
		return session.Connect{}, true
	default:
		return nil, false
	}
}

func lookup(w http.ResponseWriter, r *http.Request, h *hub.Hub) (*session.Session, bool) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return nil, false
	}

	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
	s := <-reply
	if s == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}
