package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/chat"
	"github.com/DoyleJ11/live-memory-backend/internal/deck"
	"github.com/DoyleJ11/live-memory-backend/internal/engine"
	"github.com/DoyleJ11/live-memory-backend/internal/hub"
	"github.com/DoyleJ11/live-memory-backend/internal/session"
	"github.com/DoyleJ11/live-memory-backend/internal/storage"
	"github.com/DoyleJ11/live-memory-backend/internal/types"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h, _ := newRouterOver(t, storage.NewMemoryStore())
	return h
}

// pairDealer deals ids 1..4 with icons A B A B.
type pairDealer struct{}

func (pairDealer) Generate(int, deck.Theme) ([]engine.Card, error) {
	return []engine.Card{{ID: 1, IconID: 3}, {ID: 2, IconID: 5}, {ID: 3, IconID: 3}, {ID: 4, IconID: 5}}, nil
}

func newRouterOver(t *testing.T, store storage.Store, opts ...session.Option) (http.Handler, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := session.Config{GridSize: 16, Theme: deck.ThemeMixed, RevealDelay: 20 * time.Millisecond}
	h := hub.NewHub(ctx, hub.StoreFactory(store, "LB", cfg, time.Second, zap.NewNop(), opts...), zap.NewNop())
	return SetupRoutes(h, []string{"http://localhost:5173"}, zap.NewNop()), h
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createRoom(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/rooms")
	require.Equal(t, http.StatusCreated, rec.Code)
	code := decode[types.RoomResponse](t, rec).Code
	require.Len(t, code, 6)
	return code
}

func TestGenerateCode(t *testing.T) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, charset, string(c))
		}
	}
}

func TestRoomLifecycle(t *testing.T) {
	h := newTestRouter(t)
	code := createRoom(t, h)

	rec := do(t, h, http.MethodGet, "/rooms/"+code)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[types.ViewResponse](t, rec)
	assert.Equal(t, session.PhaseIdle, view.State.Phase)
	assert.Empty(t, view.State.Cards)

	rec = do(t, h, http.MethodPost, "/rooms/"+code+"/connect")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, session.PhaseConnecting, decode[types.ViewResponse](t, rec).State.Phase)

	rec = do(t, h, http.MethodPost, "/rooms/"+code+"/restart")
	require.Equal(t, http.StatusAccepted, rec.Code)
	view = decode[types.ViewResponse](t, rec)
	assert.Equal(t, session.PhasePlaying, view.State.Phase)
	require.Len(t, view.State.Cards, 16)
	for _, c := range view.State.Cards {
		assert.Equal(t, -1, c.IconID, "face-down icons stay hidden")
	}

	rec = do(t, h, http.MethodDelete, "/rooms/"+code)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/rooms/"+code).Code)
}

func TestLeaderboard(t *testing.T) {
	h := newTestRouter(t)
	code := createRoom(t, h)

	rec := do(t, h, http.MethodGet, "/rooms/"+code+"/leaderboard")
	require.Equal(t, http.StatusOK, rec.Code)
	lb := decode[types.LeaderboardResponse](t, rec)
	assert.Equal(t, "alltime", lb.Scope)
	assert.NotNil(t, lb.Entries)
	assert.Empty(t, lb.Entries)

	rec = do(t, h, http.MethodGet, "/rooms/"+code+"/leaderboard?scope=session")
	assert.Equal(t, "session", decode[types.LeaderboardResponse](t, rec).Scope)

	rec = do(t, h, http.MethodGet, "/rooms/"+code+"/leaderboard?scope=weekly")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoom(t *testing.T) {
	h := newTestRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/rooms/NOPE00"},
		{http.MethodPost, "/rooms/NOPE00/connect"},
		{http.MethodPost, "/rooms/NOPE00/restart"},
		{http.MethodGet, "/rooms/NOPE00/leaderboard"},
		{http.MethodDelete, "/rooms/NOPE00"},
	} {
		rec := do(t, h, tc.method, tc.path)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Equal(t, "room not found", decode[types.ErrorResponse](t, rec).Error)
	}
}

func TestHealthz(t *testing.T) {
	assert.Equal(t, http.StatusOK, do(t, newTestRouter(t), http.MethodGet, "/healthz").Code)
}

func TestCORS(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/rooms", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPut, rec.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodOptions, "/rooms", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), "unlisted method")

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginHosts(t *testing.T) {
	got := OriginHosts([]string{"http://localhost:5173", "https://board.example.com", "*.example.org", ""})
	assert.Equal(t, []string{"localhost:5173", "board.example.com", "*.example.org"}, got)
}

func TestOpenRoom_ValidatesCode(t *testing.T) {
	h := newTestRouter(t)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/rooms/has.dot").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/rooms/"+strings.Repeat("A", 33)).Code)

	rec := do(t, h, http.MethodPut, "/rooms/my-stream_1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.PhaseIdle, decode[types.ViewResponse](t, rec).State.Phase)

	// Opening a live room again returns the same room.
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/rooms/my-stream_1/restart").Code)
	rec = do(t, h, http.MethodPut, "/rooms/my-stream_1")
	assert.Equal(t, session.PhasePlaying, decode[types.ViewResponse](t, rec).State.Phase)
}

func TestOpenRoom_AllTimeLeaderboardSurvivesRestart(t *testing.T) {
	store := storage.NewMemoryStore()
	alice := engine.PlayerRef{UniqueID: "alice", DisplayName: "Alice"}

	first, h1 := newRouterOver(t, store, session.WithDealer(pairDealer{}))
	require.Equal(t, http.StatusOK, do(t, first, http.MethodPut, "/rooms/STREAM").Code)

	reply := make(chan *session.Session, 1)
	h1.Inbox() <- hub.GetSession{Code: "STREAM", Reply: reply}
	s := <-reply
	require.NotNil(t, s)
	s.Send(session.FromTransport{Event: chat.Connected("stream")})
	s.Send(session.FromTransport{Event: chat.Chat(alice, "1 3")})

	require.Eventually(t, func() bool {
		rec := do(t, first, http.MethodGet, "/rooms/STREAM/leaderboard")
		return len(decode[types.LeaderboardResponse](t, rec).Entries) == 1
	}, time.Second, 5*time.Millisecond)

	h1.Inbox() <- hub.ShutdownHub{}
	<-h1.Done()

	second, _ := newRouterOver(t, store, session.WithDealer(pairDealer{}))
	assert.Equal(t, http.StatusNotFound, do(t, second, http.MethodGet, "/rooms/STREAM").Code)
	require.Equal(t, http.StatusOK, do(t, second, http.MethodPut, "/rooms/STREAM").Code)

	rec := do(t, second, http.MethodGet, "/rooms/STREAM/leaderboard?scope=alltime")
	entries := decode[types.LeaderboardResponse](t, rec).Entries
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Player.UniqueID)
	assert.Equal(t, 1, entries[0].Score)

	rec = do(t, second, http.MethodGet, "/rooms/STREAM/leaderboard?scope=session")
	assert.Empty(t, decode[types.LeaderboardResponse](t, rec).Entries)
}
