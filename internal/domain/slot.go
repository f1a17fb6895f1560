package domain

import "time"

// SlotWindow is an operator-configured interval during which the stand takes orders.
type SlotWindow struct {
	ID    int64
	Label string
	Start time.Time
	End   time.Time
}

// Contains treats both ends as inclusive.
func (w SlotWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w SlotWindow) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrTimestampRequired
	}
	if w.Start.After(w.End) {
		return ErrInvalidSlotRange
	}
	return nil
}
