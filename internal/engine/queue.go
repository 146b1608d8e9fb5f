package engine

// MoveRequest is one chat attempt to flip two cards.
type MoveRequest struct {
	FirstCardID  int
	SecondCardID int
	Requester    PlayerRef
}

// MoveQueue buffers moves that arrive while a reveal is in flight. Strict
// FIFO, unbounded, no de-duplication.
type MoveQueue struct {
	items []MoveRequest
}

func (q *MoveQueue) Enqueue(r MoveRequest) {
	q.items = append(q.items, r)
}

// Next pops the oldest request.
func (q *MoveQueue) Next() (MoveRequest, bool) {
	if len(q.items) == 0 {
		return MoveRequest{}, false
	}
	r := q.items[0]
	q.items[0] = MoveRequest{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return r, true
}

func (q *MoveQueue) Len() int { return len(q.items) }

// Clear drops everything still queued and reports how many were dropped.
func (q *MoveQueue) Clear() int {
	n := len(q.items)
	q.items = nil
	return n
}

// Pending returns a copy of the queued requests in order.
func (q *MoveQueue) Pending() []MoveRequest {
	out := make([]MoveRequest, len(q.items))
	copy(out, q.items)
	return out
}
