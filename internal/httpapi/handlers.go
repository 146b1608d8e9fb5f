package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/hub"
	"github.com/DoyleJ11/live-memory-backend/internal/session"
	"github.com/DoyleJ11/live-memory-backend/internal/types"
)

const (
	maxCodeAttempts = 10
	maxCodeLen      = 32
)

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			code, err := GenerateCode()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate code")
				return
			}
			reply := make(chan *session.Session, 1)
			h.Inbox() <- hub.CreateSession{Code: code, Reply: reply}
			if <-reply != nil {
				writeJSON(w, http.StatusCreated, types.RoomResponse{Code: code})
				return
			}
			log.Debug("collision on code, regenerating", zap.String("code", code))
		}
		writeError(w, http.StatusServiceUnavailable, "no free room code")
	}
}

// ValidCode reports whether code can name a room: 1 to 32 letters, digits,
// '-' or '_'.
func ValidCode(code string) bool {
	if code == "" || len(code) > maxCodeLen {
		return false
	}
	for _, c := range code {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// OpenRoom creates the room under a code the host chooses, or returns it if it
// is already live. A room opened under a code used before picks up the
// all-time leaderboard stored for that code.
func OpenRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if !ValidCode(code) {
			writeError(w, http.StatusBadRequest, "invalid room code")
			return
		}
		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.EnsureSession{Code: code, Reply: reply}
		s := <-reply
		v, err := s.View(r.Context())
		if err != nil {
			writeViewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ViewResponse{Version: v.Version, NumClients: v.NumClients, State: v.State})
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := roomFromPath(w, r, h)
		if !ok {
			return
		}
		v, err := s.View(r.Context())
		if err != nil {
			writeViewError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ViewResponse{Version: v.Version, NumClients: v.NumClients, State: v.State})
	}
}

// Command returns a handler that posts msg to the room and answers with the
// resulting view.
func Command(h *hub.Hub, msg session.Msg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := roomFromPath(w, r, h)
		if !ok {
			return
		}
		if !s.Send(msg) {
			writeError(w, http.StatusGone, session.ErrClosed.Error())
			return
		}
		// The inbox is FIFO, so this view already reflects msg.
		v, err := s.View(r.Context())
		if err != nil {
			writeViewError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, types.ViewResponse{Version: v.Version, NumClients: v.NumClients, State: v.State})
	}
}

func Leaderboard(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := roomFromPath(w, r, h)
		if !ok {
			return
		}
		scope := r.URL.Query().Get("scope")
		if scope == "" {
			scope = "alltime"
		}
		if scope != "session" && scope != "alltime" {
			writeError(w, http.StatusBadRequest, "scope must be session or alltime")
			return
		}
		v, err := s.View(r.Context())
		if err != nil {
			writeViewError(w, err)
			return
		}
		entries := v.State.AllTimeScores
		if scope == "session" {
			entries = v.State.SessionScores
		}
		writeJSON(w, http.StatusOK, types.LeaderboardResponse{Scope: scope, Entries: entries})
	}
}

func DeleteRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := roomFromPath(w, r, h); !ok {
			return
		}
		h.Inbox() <- hub.RemoveSession{Code: chi.URLParam(r, "code")}
		w.WriteHeader(http.StatusNoContent)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func roomFromPath(w http.ResponseWriter, r *http.Request, h *hub.Hub) (*session.Session, bool) {
	reply := make(chan *session.Session, 1)
	h.Inbox() <- hub.GetSession{Code: chi.URLParam(r, "code"), Reply: reply}
	s := <-reply
	if s == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return nil, false
	}
	return s, true
}

func writeViewError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrClosed) {
		writeError(w, http.StatusGone, err.Error())
		return
	}
	writeError(w, http.StatusServiceUnavailable, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}
