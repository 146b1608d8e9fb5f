package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/hub"
	"github.com/DoyleJ11/live-memory-backend/internal/session"
	"github.com/DoyleJ11/live-memory-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, allowedOrigins []string, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(CORS(allowedOrigins))

	patterns := OriginHosts(allowedOrigins)
	wsLog := log.Named("ws")

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, patterns, wsLog))
	r.Get("/ingest", ws.IngestHandler(h, patterns, wsLog))

	r.Route("/rooms", func(r chi.Router) {
		r.Post("/", CreateRoom(h, log))
		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", GetRoom(h))
			r.Put("/", OpenRoom(h))
			r.Delete("/", DeleteRoom(h))
			r.Post("/connect", Command(h, session.Connect{}))
			r.Post("/restart", Command(h, session.Restart{}))
			r.Get("/leaderboard", Leaderboard(h))
		})
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
