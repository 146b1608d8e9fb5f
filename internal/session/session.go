package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/live-memory-backend/internal/chat"
	"github.com/DoyleJ11/live-memory-backend/internal/deck"
	"github.com/DoyleJ11/live-memory-backend/internal/engine"
	"github.com/DoyleJ11/live-memory-backend/internal/storage"
)

type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseConnecting Phase = "CONNECTING"
	PhasePlaying    Phase = "PLAYING"
	PhaseGameOver   Phase = "GAME_OVER"
)

const statusIdle = "Waiting for comments..."

var ErrClosed = errors.New("session closed")

// Dealer produces the deck for a new round.
type Dealer interface {
	Generate(size int, theme deck.Theme) ([]engine.Card, error)
}

// Saver receives the encoded all-time ledger after every change.
type Saver interface {
	Save(data []byte)
	Close()
}

type Config struct {
	Room        string
	GridSize    int
	Theme       deck.Theme
	RevealDelay time.Duration
}

type Connection struct {
	IsConnected bool   `json:"isConnected"`
	RoomID      string `json:"roomId,omitempty"`
	Error       string `json:"error,omitempty"`
}

// State is what viewers see. Face-down cards report IconID -1.
type State struct {
	Phase         Phase               `json:"phase"`
	Status        string              `json:"status"`
	Round         int                 `json:"round"`
	Resolving     bool                `json:"resolving"`
	QueueLen      int                 `json:"queueLength"`
	Connection    Connection          `json:"connection"`
	Cards         []engine.Card       `json:"cards"`
	SessionScores []engine.ScoreEntry `json:"sessionScores"`
	AllTimeScores []engine.ScoreEntry `json:"allTimeScores"`
}

type Snapshot struct {
	Version int
	State   State
}

type View struct {
	Version    int
	NumClients int
	State      State
}

type Option func(*Session)

func WithDealer(d Dealer) Option { return func(s *Session) { s.dealer = d } }

func WithSaver(sv Saver) Option { return func(s *Session) { s.saver = sv } }

func WithLogger(log *zap.Logger) Option { return func(s *Session) { s.log = log } }

func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Session) { s.engineOpts = append(s.engineOpts, opts...) }
}

// Session is the lifecycle controller for one stream. A single goroutine owns
// the engine; everything else talks to it through the inbox.
type Session struct {
	inbox   chan Msg
	cfg     Config
	game    *engine.Game
	phase   Phase
	status  string
	conn    Connection
	version int
	clients map[string]chan Snapshot
	timers  map[engine.RevealToken]*time.Timer

	dealer     Dealer
	saver      Saver
	log        *zap.Logger
	engineOpts []engine.Option

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New starts a session around the room's all-time ledger.
func New(parent context.Context, cfg Config, allTime *engine.Ledger, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:   make(chan Msg, 64),
		cfg:     cfg,
		phase:   PhaseIdle,
		status:  statusIdle,
		clients: make(map[string]chan Snapshot),
		timers:  make(map[engine.RevealToken]*time.Timer),
		log:     zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dealer == nil {
		s.dealer = deck.New(nil)
	}
	s.log = s.log.With(zap.String("room", cfg.Room))
	s.game = engine.NewGame(allTime, s.engineOpts...)

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.clients[msg.ClientID] = msg.Outbox
				select {
				case msg.Outbox <- s.snapshot():
				default:
					close(msg.Outbox)
					delete(s.clients, msg.ClientID)
				}

			case Leave:
				delete(s.clients, msg.ClientID)

			case Connect:
				if s.conn.IsConnected {
					break
				}
				s.phase = PhaseConnecting
				s.status = "Connecting to live stream..."
				s.publish()

			case FromTransport:
				s.handleTransport(msg.Event)

			case Restart:
				s.startRound()

			case revealElapsed:
				delete(s.timers, msg.Token)
				s.apply(s.game.Resolve(msg.Token))

			case GetState:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.clients),
					State:      s.state(),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) handleTransport(ev chat.Event) {
	switch ev.Type {
	case chat.EventConnected:
		s.conn = Connection{IsConnected: true, RoomID: ev.RoomID}
		if s.game.Active() {
			s.phase = PhasePlaying
			s.status = "Reconnected. Resuming game..."
			s.log.Info("stream reconnected, resuming round", zap.Int("round", s.game.Round()))
			s.publish()
			return
		}
		s.startRound()

	case chat.EventDisconnected, chat.EventStreamEnd:
		reason := ev.Reason
		if reason == "" {
			reason = string(ev.Type)
		}
		s.conn.IsConnected = false
		s.conn.Error = reason
		if s.game.Active() {
			s.phase = PhasePlaying
			s.status = fmt.Sprintf("Connection lost (%s). Waiting for reconnect...", reason)
		} else {
			s.phase = PhaseIdle
			s.status = statusIdle
		}
		s.log.Info("stream disconnected", zap.String("reason", reason), zap.Bool("roundActive", s.game.Active()))
		s.publish()

	case chat.EventChat:
		if s.phase != PhasePlaying {
			return
		}
		move, ok := ev.Move()
		if !ok {
			return
		}
		s.apply(s.game.Submit(move))
	}
}

func (s *Session) startRound() {
	cards, err := s.dealer.Generate(s.cfg.GridSize, s.cfg.Theme)
	if err != nil {
		s.log.Error("deal failed", zap.Error(err))
		return
	}
	events, err := s.game.StartRound(cards)
	if err != nil {
		s.log.Error("start round failed", zap.Error(err))
		return
	}
	s.phase = PhasePlaying
	s.log.Info("round started", zap.Int("round", s.game.Round()), zap.Int("cards", len(cards)))
	s.apply(events)
}

// apply reacts to engine events: arms reveal timers, persists the all-time
// ledger, tracks game over, and publishes one snapshot for the batch. A batch
// of discarded moves alone publishes nothing.
func (s *Session) apply(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	matched, visible := false, false
	for _, ev := range events {
		if ev.Type != engine.EvtMoveDiscarded {
			visible = true
		}
		switch ev.Type {
		case engine.EvtRevealScheduled:
			s.armReveal(ev.Token)
		case engine.EvtPairMatched:
			matched = true
			s.log.Info("pair matched",
				zap.Int("round", ev.Round),
				zap.String("player", ev.Move.Requester.UniqueID),
				zap.Int("sessionScore", ev.Entry.Score))
		case engine.EvtRoundCompleted:
			s.phase = PhaseGameOver
			s.log.Info("round completed", zap.Int("round", ev.Round), zap.Int("droppedMoves", ev.Dropped))
		case engine.EvtMoveDiscarded:
			s.log.Debug("move discarded",
				zap.String("player", ev.Move.Requester.UniqueID),
				zap.Int("first", ev.Move.FirstCardID),
				zap.Int("second", ev.Move.SecondCardID),
				zap.Error(ev.Err))
		}
	}
	if matched {
		s.persist()
	}
	if !visible {
		return
	}
	if msg, ok := engine.LastMessage(events); ok {
		s.status = msg
	}
	s.publish()
}

func (s *Session) armReveal(tok engine.RevealToken) {
	s.timers[tok] = time.AfterFunc(s.cfg.RevealDelay, func() {
		select {
		case s.inbox <- revealElapsed{Token: tok}:
		case <-s.ctx.Done():
		}
	})
}

func (s *Session) persist() {
	if s.saver == nil {
		return
	}
	data, err := storage.EncodeLeaderboard(s.game.AllTimeScores())
	if err != nil {
		s.log.Warn("encode leaderboard", zap.Error(err))
		return
	}
	s.saver.Save(data)
}

func (s *Session) publish() {
	s.version++
	s.broadcast(s.snapshot())
}

func (s *Session) state() State {
	cards := s.game.Cards()
	for i := range cards {
		if !cards[i].IsFlipped && !cards[i].IsMatched {
			cards[i].IconID = -1
		}
	}
	return State{
		Phase:         s.phase,
		Status:        s.status,
		Round:         s.game.Round(),
		Resolving:     s.game.State() == engine.StateResolving,
		QueueLen:      s.game.QueueLen(),
		Connection:    s.conn,
		Cards:         cards,
		SessionScores: s.game.SessionScores().Ranking(),
		AllTimeScores: s.game.AllTimeScores().Ranking(),
	}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{Version: s.version, State: s.state()}
}

func (s *Session) shutdown() {
	for tok, t := range s.timers {
		t.Stop()
		delete(s.timers, tok)
	}
	for id, ch := range s.clients {
		close(ch) // Tell client no more snapshots
		delete(s.clients, id)
	}
	if s.saver != nil {
		s.saver.Close()
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.clients {
		select {
		case ch <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(s.clients, id)
		}
	}
}

// Expose the inbox so tests or the transport layers can send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Send delivers m unless the session has already stopped.
func (s *Session) Send(m Msg) bool {
	select {
	case s.inbox <- m:
		return true
	case <-s.done:
		return false
	}
}

// View asks the loop for its current state.
func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if !s.Send(GetState{Reply: reply}) {
		return View{}, ErrClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Room() string { return s.cfg.Room }
