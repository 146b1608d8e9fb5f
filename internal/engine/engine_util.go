package engine

func ContainsEvent(events []Event, eventType EventType) bool {
	_, ok := FindEvent(events, eventType)
	return ok
}

// FindEvent returns the first event of the given type.
func FindEvent(events []Event, eventType EventType) (Event, bool) {
	for _, event := range events {
		if event.Type == eventType {
			return event, true
		}
	}
	return Event{}, false
}

// LastMessage returns the status line implied by the latest event that
// carries one.
func LastMessage(events []Event) (string, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Message != "" {
			return events[i].Message, true
		}
	}
	return "", false
}

// Matched counts matched cards.
func Matched(cards []Card) int {
	return len(cards) - Unmatched(cards)
}
