// Package model provides the ordered, replayable event buffer used by the
// engine for queued replacements, gathered subtrees and injected fragments.
package model

import "github.com/weftml/weft/internal/event"

// Model is an ordered, mutable buffer of events representing a subtree or
// an arbitrary batch.
//
// Replaying a Model never mutates the Model itself: Process hands out the
// buffered events in order and leaves the buffer intact, so the same Model
// can be replayed any number of times (iteration does exactly that).
type Model struct {
	events []event.Event
}

// New returns an empty model.
func New() *Model {
	return &Model{}
}

// Add appends a defensive copy of one event.
func (m *Model) Add(ev event.Event) {
	m.events = append(m.events, ev.Clone())
}

// AddModel appends all events of another model. The events are copied, so
// later mutations of either model never reach the other.
func (m *Model) AddModel(other *Model) {
	if other == nil {
		return
	}
	for _, ev := range other.events {
		m.events = append(m.events, ev.Clone())
	}
}

// InsertModel inserts all events of another model at the given position.
// Position 0 prepends.
func (m *Model) InsertModel(pos int, other *Model) {
	if other == nil || len(other.events) == 0 {
		return
	}
	ins := make([]event.Event, len(other.events))
	for i, ev := range other.events {
		ins[i] = ev.Clone()
	}
	m.events = append(m.events[:pos], append(ins, m.events[pos:]...)...)
}

// Reset empties the model, keeping its backing storage for reuse.
func (m *Model) Reset() {
	m.events = m.events[:0]
}

// Size returns the number of buffered events.
func (m *Model) Size() int {
	return len(m.events)
}

// Get returns the event at position i.
func (m *Model) Get(i int) event.Event {
	return m.events[i]
}

// Set replaces the event at position i. Whole-subtree directives rewrite
// their gathered model with it.
func (m *Model) Set(i int, ev event.Event) {
	m.events[i] = ev.Clone()
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := &Model{events: make([]event.Event, len(m.events))}
	for i, ev := range m.events {
		c.events[i] = ev.Clone()
	}
	return c
}

// Process replays the buffered events, in order, into the handler. The
// handler decides what replay means: the engine re-runs directives on the
// events, a sink just writes them out. The first handler error aborts the
// replay and is returned.
func (m *Model) Process(h event.Handler) error {
	for _, ev := range m.events {
		if err := h.Handle(ev); err != nil {
			return err
		}
	}
	return nil
}
