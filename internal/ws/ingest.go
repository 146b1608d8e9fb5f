package ws

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/chat"
	"github.com/DoyleJ11/live-memory-backend/internal/engine"
	"github.com/DoyleJ11/live-memory-backend/internal/hub"
	"github.com/DoyleJ11/live-memory-backend/internal/session"
	"github.com/DoyleJ11/live-memory-backend/internal/types"
)

const socketDisconnected = "Socket Disconnected"

// IngestHandler accepts relay frames for one room and forwards them as
// transport events. Losing the socket counts as a disconnect.
func IngestHandler(h *hub.Hub, originPatterns []string, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, h)
		if !ok {
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			log.Debug("relay accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		rlog := log.With(zap.String("room", s.Room()))
		rlog.Info("relay attached")

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				rlog.Info("relay detached", zap.Error(err))
				s.Send(session.FromTransport{Event: chat.Disconnected(socketDisconnected)})
				return
			}

			var rm types.RelayMessage
			if err := json.Unmarshal(data, &rm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText, errBadJSON)
				continue
			}
			ev, ok := toChatEvent(rm)
			if !ok {
				_ = conn.Write(r.Context(), websocket.MessageText, errUnknownType)
				continue
			}
			if !s.Send(session.FromTransport{Event: ev}) {
				conn.Close(websocket.StatusGoingAway, "room closed")
				return
			}
		}
	}
}

func toChatEvent(m types.RelayMessage) (chat.Event, bool) {
	switch chat.EventType(m.Type) {
	case chat.EventConnected:
		return chat.Connected(m.RoomID), true
	case chat.EventDisconnected:
		return chat.Disconnected(m.Reason), true
	case chat.EventStreamEnd:
		return chat.StreamEnd(), true
	case chat.EventChat:
		if m.UniqueID == "" {
			return chat.Event{}, false
		}
		return chat.Chat(engine.PlayerRef{
			UniqueID:    m.UniqueID,
			DisplayName: m.Nickname,
			AvatarURL:   m.ProfilePictureURL,
		}, m.Comment), true
	default:
		return chat.Event{}, false
	}
}
