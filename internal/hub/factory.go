package hub

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/session"
	"github.com/DoyleJ11/live-memory-backend/internal/storage"
)

// StoreFactory returns a Factory whose sessions load and persist their
// all-time ledger under storage.LeaderboardKey(keyPrefix, code).
func StoreFactory(store storage.Store, keyPrefix string, tmpl session.Config, timeout time.Duration, log *zap.Logger, opts ...session.Option) Factory {
	return func(ctx context.Context, code string) *session.Session {
		key := storage.LeaderboardKey(keyPrefix, code)

		loadCtx, cancel := context.WithTimeout(ctx, timeout)
		allTime := storage.LoadLeaderboard(loadCtx, store, key, log.Named("storage"))
		cancel()

		cfg := tmpl
		cfg.Room = code
		all := append([]session.Option{
			session.WithSaver(storage.NewPersister(store, key, timeout, log.Named("persister"))),
			session.WithLogger(log.Named("session")),
		}, opts...)
		return session.New(ctx, cfg, allTime, all...)
	}
}
