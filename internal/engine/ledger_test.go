package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPoints_InsertsThenMerges(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	l := ApplyPoints(nil, alice, 1, t0)
	require.Equal(t, 1, l.Len())

	renamed := PlayerRef{UniqueID: "alice", DisplayName: "Alice B", AvatarURL: "new.png"}
	l = ApplyPoints(l, renamed, 2, t0.Add(time.Minute))

	e, ok := l.Get("alice")
	require.True(t, ok)
	assert.Equal(t, 3, e.Score)
	assert.Equal(t, renamed, e.Player)
	assert.Equal(t, t0.Add(time.Minute), e.LastMatchTime)
	assert.Equal(t, 1, l.Len())
}

func TestRanking_ScoreThenEarliestThenInsertion(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	carol := PlayerRef{UniqueID: "carol"}
	dave := PlayerRef{UniqueID: "dave"}

	l := NewLedger()
	l.Apply(alice, 2, t0.Add(2*time.Second))
	l.Apply(bob, 2, t0.Add(time.Second))
	l.Apply(dave, 1, t0)
	l.Apply(carol, 1, t0)

	var ids []string
	for _, e := range l.Ranking() {
		ids = append(ids, e.Player.UniqueID)
	}
	assert.Equal(t, []string{"bob", "alice", "dave", "carol"}, ids)
}

func TestLedger_JSONRoundTrip(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLedger()
	l.Apply(alice, 1, t0)
	l.Apply(bob, 4, t0.Add(time.Hour))
	l.Apply(alice, 1, t0.Add(2*time.Hour))

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var back Ledger
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, l.Entries(), back.Entries())

	// New players keep getting fresh insertion slots after a reload.
	e := back.Apply(PlayerRef{UniqueID: "erin"}, 1, t0)
	assert.Equal(t, 2, e.Order)
}

func TestLedger_UnmarshalRejectsCorruptData(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{{`},
		{name: "wrong shape", data: `[1,2,3]`},
		{name: "negative score", data: `{"a":{"player":{"uniqueId":"a"},"score":-1}}`},
		{name: "key mismatch", data: `{"a":{"player":{"uniqueId":"b"},"score":1}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var l Ledger
			assert.ErrorIs(t, l.UnmarshalJSON([]byte(tc.data)), ErrCorruptLedger)
		})
	}
}

func TestLedger_UnmarshalFillsMissingID(t *testing.T) {
	var l Ledger
	require.NoError(t, json.Unmarshal([]byte(`{"zed":{"score":3}}`), &l))
	e, ok := l.Get("zed")
	require.True(t, ok)
	assert.Equal(t, "zed", e.Player.UniqueID)
	assert.Equal(t, 3, e.Score)
}

func TestLedger_NilSafe(t *testing.T) {
	var l *Ledger
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Ranking())
	_, ok := l.Get("x")
	assert.False(t, ok)
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestApply_RefusesNonPositivePoints(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLedger()

	l.Apply(alice, 0, t0)
	l.Apply(bob, -3, t0)
	assert.Equal(t, 0, l.Len(), "refused points must not create entries")

	l.Apply(alice, 2, t0)
	e := l.Apply(PlayerRef{UniqueID: "alice", DisplayName: "Renamed"}, -1, t0.Add(time.Minute))
	assert.Equal(t, 2, e.Score)
	assert.Equal(t, alice, e.Player)
	assert.Equal(t, t0, e.LastMatchTime)

	got, _ := l.Get("alice")
	assert.Equal(t, e, got)
}
