package engine

import (
	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/model"
)

// SkipBody tells the gathering controller what to do with the body of an
// open element once its directive loop has completed.
type SkipBody int

const (
	// SkipNone processes the body normally.
	SkipNone SkipBody = iota
	// SkipAll suppresses every body event until the matching close.
	SkipAll
	// SkipAllButFirstChild suppresses every child element occurrence
	// after the first; non-element events still flow.
	SkipAllButFirstChild
)

// execLevel bundles the processing state for one element occurrence at one
// nesting depth of handler execution.
//
// Levels form a stack strictly paired with element handling, except while
// suspended: a suspended level survives the return from its handling call
// and is picked up again by a later call for the same occurrence (gathering
// replay, or the synthesized events of a standalone body rewrite).
//
// Levels are pooled for the lifetime of a render and fully reset before
// reuse; a partially-reset level would leak state between unrelated sibling
// elements.
type execLevel struct {
	suspended bool

	// queue holds events pending replay for this occurrence.
	queue *model.Model
	// queueProcessable routes the replay: back through the engine, or
	// straight to the sink.
	queueProcessable bool
	// queueBeforeDelegate replays the queue before forwarding the current
	// event instead of after.
	queueBeforeDelegate bool

	discardEvent bool
	skipBody     SkipBody
	skipCloseTag bool

	cursor directive.Cursor
}

func newExecLevel() *execLevel {
	l := &execLevel{queue: model.New()}
	l.reset()
	return l
}

func (l *execLevel) resetQueue() {
	l.queue.Reset()
	l.queueProcessable = false
	l.queueBeforeDelegate = false
}

func (l *execLevel) reset() {
	l.resetQueue()
	l.suspended = false
	l.discardEvent = false
	l.skipBody = SkipNone
	l.skipCloseTag = false
	l.cursor.Reset(nil)
}

// snapshot captures the level's full state so iteration can restore the
// suspended occurrence before each item replay.
func (l *execLevel) snapshot() *execLevel {
	s := newExecLevel()
	l.copyInto(s)
	return s
}

func (l *execLevel) copyInto(dst *execLevel) {
	dst.suspended = l.suspended
	dst.queue.Reset()
	dst.queue.AddModel(l.queue)
	dst.queueProcessable = l.queueProcessable
	dst.queueBeforeDelegate = l.queueBeforeDelegate
	dst.discardEvent = l.discardEvent
	dst.skipBody = l.skipBody
	dst.skipCloseTag = l.skipCloseTag
	l.cursor.CloneInto(&dst.cursor)
}
