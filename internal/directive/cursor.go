package directive

// Cursor iterates the ordered list of directives applicable to one element
// occurrence. It survives suspension: when an occurrence is resumed, the
// cursor continues where it left off instead of restarting, which is what
// keeps an iterate directive from re-triggering on replay.
//
// Repeat mode supports the two-phase whole-subtree protocol: the engine
// marks the directive it just received to be handed out once more on the
// next call, and LastWasRepeated tells the second invocation apart from the
// first.
type Cursor struct {
	entries      []ElementEntry
	next         int
	repeat       bool
	lastRepeated bool
}

// Reset re-targets the cursor at a new list of directives, clearing all
// progress. Used when a pooled execution level is reused.
func (c *Cursor) Reset(entries []ElementEntry) {
	c.entries = entries
	c.next = 0
	c.repeat = false
	c.lastRepeated = false
}

// Next returns the next directive to run, or ok=false when the list is
// exhausted. In repeat mode it returns the previously returned directive
// once more.
func (c *Cursor) Next() (*ElementEntry, bool) {
	if c.repeat {
		c.repeat = false
		c.lastRepeated = true
		return &c.entries[c.next-1], true
	}
	c.lastRepeated = false
	if c.next >= len(c.entries) {
		return nil, false
	}
	e := &c.entries[c.next]
	c.next++
	return e, true
}

// RepeatCurrent marks the directive most recently returned by Next to be
// returned again on the following call.
func (c *Cursor) RepeatCurrent() {
	c.repeat = true
}

// LastWasRepeated reports whether the directive most recently returned by
// Next was a repeat.
func (c *Cursor) LastWasRepeated() bool {
	return c.lastRepeated
}

// CloneInto copies the cursor's full progress into dst. Iteration uses
// this to restore the suspended cursor position before each item replay.
func (c *Cursor) CloneInto(dst *Cursor) {
	dst.entries = c.entries
	dst.next = c.next
	dst.repeat = c.repeat
	dst.lastRepeated = c.lastRepeated
}
