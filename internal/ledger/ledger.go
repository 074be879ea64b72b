// Package ledger derives current assignment state from append-only binding
// history. Rows are events; the current binding is a pure fold over them, so
// the log can always be replayed without loss.
package ledger

import "time"

// Event is one append-only binding row. A nil Target means the entity was
// explicitly unbound at that point.
type Event struct {
	Seq        uint
	EntityID   uint
	Target     *uint
	RecordedAt time.Time
}

// Current returns the target of the chronologically last event, nil when the
// history is empty or ends in an unbind. Ties on RecordedAt are broken by Seq,
// the insertion order.
func Current(events []Event) *uint {
	var latest *Event
	for i := range events {
		e := &events[i]
		if latest == nil || after(e, latest) {
			latest = e
		}
	}
	if latest == nil {
		return nil
	}
	return latest.Target
}

// CurrentByEntity folds a mixed history into each entity's current target.
// Entities whose history ends in an unbind map to a nil target.
func CurrentByEntity(events []Event) map[uint]*uint {
	latest := make(map[uint]*Event, len(events))
	for i := range events {
		e := &events[i]
		prev, ok := latest[e.EntityID]
		if !ok || after(e, prev) {
			latest[e.EntityID] = e
		}
	}
	out := make(map[uint]*uint, len(latest))
	for id, e := range latest {
		out[id] = e.Target
	}
	return out
}

// Holder scans a history for the entity currently bound to target, returning
// (0, false) when no entity resolves to it.
func Holder(events []Event, target uint) (uint, bool) {
	for entity, current := range CurrentByEntity(events) {
		if current != nil && *current == target {
			return entity, true
		}
	}
	return 0, false
}

func after(a, b *Event) bool {
	if a.RecordedAt.Equal(b.RecordedAt) {
		return a.Seq > b.Seq
	}
	return a.RecordedAt.After(b.RecordedAt)
}
