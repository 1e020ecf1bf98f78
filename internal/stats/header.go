package stats

import "slices"

// Header maps a summary field to every value observed for it, sorted.
// A duration that never saw a value still gets a column for it.
type Header map[string][]string

// DiscoverHeader collects the distinct values of every field across all windows.
func DiscoverHeader(history History) Header {
	h := make(Header)
	for _, w := range history {
		for field, counts := range w.Summary {
			values := make([]string, 0, len(counts))
			for v := range counts {
				values = append(values, v)
			}
			h.add(field, values)
		}
	}
	return h
}

// Merge unions other into h. Values already in h are never dropped.
func (h Header) Merge(other Header) {
	for field, values := range other {
		h.add(field, values)
	}
}

func (h Header) add(field string, values []string) {
	merged := make([]string, 0, len(h[field])+len(values))
	merged = append(merged, h[field]...)
	merged = append(merged, values...)
	slices.Sort(merged)
	h[field] = slices.Compact(merged)
}
