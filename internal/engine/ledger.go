package engine

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

var ErrCorruptLedger = errors.New("corrupt ledger")

// ScoreEntry is one player's standing in a ledger. Order records when the
// player first entered the ledger and breaks ranking ties.
type ScoreEntry struct {
	Player        PlayerRef `json:"player"`
	Score         int       `json:"score"`
	LastMatchTime time.Time `json:"lastMatchTime"`
	Order         int       `json:"order"`
}

// Ledger accumulates points keyed by PlayerRef.UniqueID.
type Ledger struct {
	entries map[string]ScoreEntry
	next    int
}

func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]ScoreEntry)}
}

// ApplyPoints adds points for player and returns the ledger, allocating one if
// l is nil.
func ApplyPoints(l *Ledger, player PlayerRef, points int, at time.Time) *Ledger {
	if l == nil {
		l = NewLedger()
	}
	l.Apply(player, points, at)
	return l
}

// Apply credits points to player. Existing entries take the incoming display
// name and avatar; new entries start at points. Points below one are refused
// and leave the ledger untouched; the returned entry is whatever it held.
func (l *Ledger) Apply(player PlayerRef, points int, at time.Time) ScoreEntry {
	if l.entries == nil {
		l.entries = make(map[string]ScoreEntry)
	}
	e, ok := l.entries[player.UniqueID]
	if points < 1 {
		return e
	}
	if !ok {
		e = ScoreEntry{Order: l.next}
		l.next++
	}
	e.Player = player
	e.Score += points
	e.LastMatchTime = at
	l.entries[player.UniqueID] = e
	return e
}

func (l *Ledger) Get(uniqueID string) (ScoreEntry, bool) {
	if l == nil {
		return ScoreEntry{}, false
	}
	e, ok := l.entries[uniqueID]
	return e, ok
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Entries returns a copy of the underlying mapping.
func (l *Ledger) Entries() map[string]ScoreEntry {
	if l == nil {
		return map[string]ScoreEntry{}
	}
	return maps.Clone(l.entries)
}

func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return NewLedger()
	}
	return &Ledger{entries: maps.Clone(l.entries), next: l.next}
}

// Ranking orders entries by score descending, then by who reached it first,
// then by insertion order.
func (l *Ledger) Ranking() []ScoreEntry {
	if l == nil {
		return nil
	}
	out := make([]ScoreEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b ScoreEntry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := a.LastMatchTime.Compare(b.LastMatchTime); c != 0 {
			return c
		}
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	if l == nil || l.entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(l.entries)
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var raw map[string]ScoreEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptLedger, err)
	}
	entries := make(map[string]ScoreEntry, len(raw))
	next := 0
	for id, e := range raw {
		if id == "" || e.Score < 0 {
			return fmt.Errorf("%w: bad entry %q", ErrCorruptLedger, id)
		}
		if e.Player.UniqueID == "" {
			e.Player.UniqueID = id
		}
		if e.Player.UniqueID != id {
			return fmt.Errorf("%w: key %q holds %q", ErrCorruptLedger, id, e.Player.UniqueID)
		}
		entries[id] = e
		next = max(next, e.Order+1)
	}
	l.entries = entries
	l.next = next
	return nil
}
