package queue

import "nathanbeddoewebdev/eventwatch/internal/events/domain"

// UniqueEvents collapses repeated event ids, which the API can return when a
// record moves between pages mid-fetch. events is expected in fetch order:
// for each id the last record wins, and it takes the position of the first
// occurrence. Applying UniqueEvents to its own output is a no-op.
func UniqueEvents(events []domain.Event) []domain.Event {
	out := make([]domain.Event, 0, len(events))
	index := make(map[int64]int, len(events))
	for _, e := range events {
		if i, ok := index[e.ID]; ok {
			out[i] = e
			continue
		}
		index[e.ID] = len(out)
		out = append(out, e)
	}
	return out
}
