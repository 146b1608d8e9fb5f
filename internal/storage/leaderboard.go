package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/engine"
)

// LeaderboardKey namespaces the all-time ledger of one room under prefix.
func LeaderboardKey(prefix, room string) string {
	if room == "" {
		return prefix
	}
	return prefix + ":" + room
}

func EncodeLeaderboard(l *engine.Ledger) ([]byte, error) {
	return json.Marshal(l)
}

func DecodeLeaderboard(data []byte) (*engine.Ledger, error) {
	l := engine.NewLedger()
	if err := json.Unmarshal(data, l); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadLeaderboard reads the all-time ledger. Missing, unreadable or corrupt
// data all come back as an empty ledger.
func LoadLeaderboard(ctx context.Context, s Store, key string, log *zap.Logger) *engine.Ledger {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return engine.NewLedger()
	}
	if err != nil {
		log.Warn("leaderboard read failed, starting empty", zap.String("key", key), zap.Error(err))
		return engine.NewLedger()
	}
	l, err := DecodeLeaderboard(data)
	if err != nil {
		log.Warn("leaderboard corrupt, starting empty", zap.String("key", key), zap.Error(err))
		return engine.NewLedger()
	}
	return l
}

// Persister writes encoded ledgers in the background. Save never blocks: if a
// write is still queued it is replaced by the newer value. Writes happen in
// Save order and failures are logged and dropped.
type Persister struct {
	store   Store
	key     string
	timeout time.Duration
	log     *zap.Logger

	pending chan []byte
	done    chan struct{}
	once    sync.Once
}

func NewPersister(store Store, key string, timeout time.Duration, log *zap.Logger) *Persister {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	p := &Persister{
		store:   store,
		key:     key,
		timeout: timeout,
		log:     log,
		pending: make(chan []byte, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// Save must be called from a single goroutine.
func (p *Persister) Save(data []byte) {
	for {
		select {
		case p.pending <- data:
			return
		default:
			select {
			case <-p.pending:
			default:
			}
		}
	}
}

// Close writes whatever is still queued, then stops the writer.
func (p *Persister) Close() {
	p.once.Do(func() {
		close(p.pending)
		<-p.done
	})
}

func (p *Persister) run() {
	defer close(p.done)
	for data := range p.pending {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.store.Set(ctx, p.key, data)
		cancel()
		if err != nil {
			p.log.Warn("leaderboard write failed", zap.String("key", p.key), zap.Error(err))
			continue
		}
		p.log.Debug("leaderboard saved", zap.String("key", p.key), zap.Int("bytes", len(data)))
	}
}
