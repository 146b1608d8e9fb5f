package engine

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidCard = errors.New("no such card")
var ErrSameCard = errors.New("same card twice")
var ErrCardMatched = errors.New("card already matched")
var ErrCardFlipped = errors.New("card already face up")
var ErrNoRound = errors.New("no round in progress")
var ErrRoundOver = errors.New("round already completed")
var ErrBadDeck = errors.New("deck must hold an even, non-zero number of cards")

// State is the engine's view of the current round.
type State string

const (
	StateIdle      State = "idle"
	StateReady     State = "ready"
	StateResolving State = "resolving"
	StateGameOver  State = "game_over"
)

type EventType string

const (
	EvtRoundStarted    EventType = "RoundStarted"
	EvtMoveQueued      EventType = "MoveQueued"
	EvtMoveDiscarded   EventType = "MoveDiscarded"
	EvtCardsFlipped    EventType = "CardsFlipped"
	EvtRevealScheduled EventType = "RevealScheduled"
	EvtPairMatched     EventType = "PairMatched"
	EvtPairMissed      EventType = "PairMissed"
	EvtRoundCompleted  EventType = "RoundCompleted"
)

/*
	Submit (idle engine, valid move) -> EvtCardsFlipped -> EvtRevealScheduled
	Submit (busy engine)             -> EvtMoveQueued
	Submit (invalid move)            -> EvtMoveDiscarded
	Resolve (matching icons)         -> EvtPairMatched [-> EvtRoundCompleted]
	Resolve (different icons)        -> EvtPairMissed
	Every Resolve then drains the queue, which can emit any of the Submit events again.
*/

// Event describes one observable step. Message is the status line it implies,
// empty when the step should not change what viewers see.
type Event struct {
	Type    EventType
	Round   int
	Move    MoveRequest
	Token   RevealToken
	Entry   ScoreEntry // session standing after a match
	Dropped int        // queued moves discarded when the round ended
	Err     error
	Message string
}

// RevealToken tags one scheduled reveal. A token from a replaced round, or one
// that is no longer pending, is ignored by Resolve.
type RevealToken struct {
	Round int
	Seq   int
}

type pendingReveal struct {
	token  RevealToken
	move   MoveRequest
	first  int
	second int
}

type Option func(*Game)

// WithClock overrides the time source used for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// Game owns the grid, the pending queue and both ledgers. It performs no IO
// and starts no goroutines: the caller arms a timer for every
// EvtRevealScheduled and calls Resolve with its token once it fires.
type Game struct {
	round   int
	seq     int
	started bool
	over    bool
	cards   []Card
	queue   MoveQueue
	reveal  *pendingReveal
	session *Ledger
	allTime *Ledger
	now     func() time.Time
}

// NewGame builds an idle engine around an all-time ledger that outlives every
// round. A nil ledger starts empty.
func NewGame(allTime *Ledger, opts ...Option) *Game {
	if allTime == nil {
		allTime = NewLedger()
	}
	g := &Game{
		allTime: allTime,
		session: NewLedger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// StartRound replaces the grid wholesale, clears the queue and the session
// ledger, and invalidates any reveal still in flight.
func (g *Game) StartRound(cards []Card) ([]Event, error) {
	if len(cards) == 0 || len(cards)%2 != 0 {
		return nil, ErrBadDeck
	}
	g.round++
	g.seq = 0
	g.started = true
	g.over = false
	g.cards = CloneCards(cards)
	g.queue.Clear()
	g.reveal = nil
	g.session = NewLedger()

	return []Event{{
		Type:    EvtRoundStarted,
		Round:   g.round,
		Message: `Game Started! Type two numbers (e.g., "1 5") to flip!`,
	}}, nil
}

// Submit evaluates a move now, or queues it behind a reveal in flight or any
// move already waiting.
func (g *Game) Submit(req MoveRequest) []Event {
	if !g.started {
		return []Event{{Type: EvtMoveDiscarded, Round: g.round, Move: req, Err: ErrNoRound}}
	}
	if g.over {
		return []Event{{Type: EvtMoveDiscarded, Round: g.round, Move: req, Err: ErrRoundOver}}
	}
	if g.reveal != nil || g.queue.Len() > 0 {
		g.queue.Enqueue(req)
		return []Event{{Type: EvtMoveQueued, Round: g.round, Move: req}}
	}
	events := g.evaluate(req, nil)
	return g.drain(events)
}

// Resolve settles the reveal identified by tok, then keeps evaluating queued
// moves until one is waiting on a reveal or the queue is empty.
func (g *Game) Resolve(tok RevealToken) []Event {
	if g.reveal == nil || g.reveal.token != tok {
		return nil
	}
	p := g.reveal
	g.reveal = nil

	var events []Event
	a, b := g.cards[p.first], g.cards[p.second]
	if a.IconID == b.IconID {
		at := g.now()
		g.cards = MarkMatched(g.cards, p.move.Requester, p.first, p.second)
		entry := g.session.Apply(p.move.Requester, 1, at)
		g.allTime.Apply(p.move.Requester, 1, at)
		events = append(events, Event{
			Type:    EvtPairMatched,
			Round:   g.round,
			Move:    p.move,
			Token:   tok,
			Entry:   entry,
			Message: fmt.Sprintf("MATCH! %s gets a point!", p.move.Requester.Name()),
		})

		if Unmatched(g.cards) == 0 {
			g.over = true
			events = append(events, Event{
				Type:    EvtRoundCompleted,
				Round:   g.round,
				Dropped: g.queue.Clear(),
				Message: "GAME OVER! All pairs found!",
			})
			return events
		}
	} else {
		g.cards = Unflip(g.cards, p.first, p.second)
		events = append(events, Event{
			Type:    EvtPairMissed,
			Round:   g.round,
			Move:    p.move,
			Token:   tok,
			Message: "No match. Try again!",
		})
	}

	return g.drain(events)
}

func (g *Game) evaluate(req MoveRequest, events []Event) []Event {
	i, j, err := validateMove(g.cards, req.FirstCardID, req.SecondCardID)
	if err != nil {
		return append(events, Event{Type: EvtMoveDiscarded, Round: g.round, Move: req, Err: err})
	}

	g.cards = Flip(g.cards, i, j)
	g.seq++
	tok := RevealToken{Round: g.round, Seq: g.seq}
	g.reveal = &pendingReveal{token: tok, move: req, first: i, second: j}

	return append(events,
		Event{
			Type:    EvtCardsFlipped,
			Round:   g.round,
			Move:    req,
			Token:   tok,
			Message: fmt.Sprintf("%s guessed %d & %d...", req.Requester.Name(), req.FirstCardID, req.SecondCardID),
		},
		Event{Type: EvtRevealScheduled, Round: g.round, Move: req, Token: tok},
	)
}

func (g *Game) drain(events []Event) []Event {
	for g.reveal == nil && !g.over {
		req, ok := g.queue.Next()
		if !ok {
			break
		}
		events = g.evaluate(req, events)
	}
	return events
}

func validateMove(cards []Card, firstID, secondID int) (int, int, error) {
	i, j := IndexOf(cards, firstID), IndexOf(cards, secondID)
	if i < 0 || j < 0 {
		return -1, -1, ErrInvalidCard
	}
	if i == j {
		return -1, -1, ErrSameCard
	}
	if cards[i].IsMatched || cards[j].IsMatched {
		return -1, -1, ErrCardMatched
	}
	if cards[i].IsFlipped || cards[j].IsFlipped {
		return -1, -1, ErrCardFlipped
	}
	return i, j, nil
}

func (g *Game) State() State {
	switch {
	case !g.started:
		return StateIdle
	case g.over:
		return StateGameOver
	case g.reveal != nil:
		return StateResolving
	default:
		return StateReady
	}
}

// Active reports whether a round exists and has pairs left to find.
func (g *Game) Active() bool { return g.started && !g.over }

func (g *Game) Round() int { return g.round }

func (g *Game) QueueLen() int { return g.queue.Len() }

// Cards returns a copy of the current grid.
func (g *Game) Cards() []Card { return CloneCards(g.cards) }

// Pending returns a copy of the queued moves.
func (g *Game) Pending() []MoveRequest { return g.queue.Pending() }

func (g *Game) SessionScores() *Ledger { return g.session.Clone() }

func (g *Game) AllTimeScores() *Ledger { return g.allTime.Clone() }
