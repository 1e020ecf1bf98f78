package stats

import "peek/internal/tracker"

// Window is the field summary of the tasks created within one lookback duration.
type Window struct {
	Days    int                  `json:"days"`
	Summary tracker.FieldSummary `json:"summary"`
}

// History holds windows in reporting order. Tables keep this order.
type History []Window

// Find returns the index of the window for days, or -1.
func (h History) Find(days int) int {
	for i, w := range h {
		if w.Days == days {
			return i
		}
	}
	return -1
}
