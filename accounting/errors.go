package accounting

import (
	"fmt"

	"github.com/robinvdvleuten/costbasis/event"
)

// OrderError is returned when an event is older than the one before it.
type OrderError struct {
	Index     int
	Previous  event.Timestamp
	Timestamp event.Timestamp
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("event %d at %s is older than the previous event at %s; events must be sorted by time",
		e.Index, e.Timestamp, e.Previous)
}

func (e *OrderError) GetTime() event.Timestamp {
	return e.Timestamp
}
