package engine

import (
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
	"github.com/weftml/weft/internal/scope"
)

// gatherMode identifies the gathering state.
type gatherMode int

const (
	gatherNone gatherMode = iota
	// gatherIterated captures a subtree once for per-item replay.
	gatherIterated
	// gatherDelayed captures a subtree for a whole-subtree directive's
	// second invocation.
	gatherDelayed
)

// gathered is a completed capture handed from the controller to the engine.
type gathered struct {
	mode     gatherMode
	captured *model.Model

	// Iteration request, for gatherIterated.
	iterVar             string
	statusVar           string
	source              any
	precedingWhitespace *event.Event
}

// skipState is the per-nesting-level body policy. It extends the public
// SkipBody with the transitional state entered once the first child of a
// SkipAllButFirstChild body has completed.
type skipState int

const (
	stateProcess skipState = iota
	stateSkipAll
	// stateSkipElements suppresses element occurrences but lets
	// non-element events through.
	stateSkipElements
	// stateProcessOne processes events until the first child element
	// occurrence completes, then becomes stateSkipElements.
	stateProcessOne
)

// modelLevel is per-nesting-depth routing state.
type modelLevel struct {
	skip skipState
	// skipClose suppresses forwarding of this level's matching close tag.
	skipClose bool
	// openProcessed records whether this level's open tag was forwarded
	// into processing at all.
	openProcessed bool
	// scopePushed records whether this level pushed a variable scope, so
	// the matching close pops exactly what was pushed.
	scopePushed bool
	// firstOfProcessOne marks the first child element of a
	// SkipAllButFirstChild body; its close flips the parent level to
	// stateSkipElements.
	firstOfProcessOne bool
}

// modelController decides, for every incoming event, whether it is routed
// to normal processing, buffered into an in-progress subtree capture, or
// suppressed by a skip policy. It tracks markup nesting depth independently
// of the execution-level stack and owns the scope push/pop pairing for open
// elements.
//
// At most one capture is active at a time; while it is, every event is
// appended verbatim (defensively copied) to the capture buffer and never
// forwarded. The capture ends exactly when the matching close at the start
// depth is consumed.
type modelController struct {
	scopes *scope.Stack

	levels []modelLevel
	depth  int

	mode     gatherMode
	buffer   *model.Model
	gDepth   int
	finished bool
	request  gathered
}

func newModelController(scopes *scope.Stack) *modelController {
	c := &modelController{
		scopes: scopes,
		levels: make([]modelLevel, 1, 16),
	}
	return c
}

// ModelLevel returns the current markup nesting depth. Zero at template
// boundaries of a well-formed render.
func (c *modelController) ModelLevel() int {
	return c.depth
}

// EffectiveDepth includes the depth accumulated inside an active capture,
// so the nesting bound holds while gathering too.
func (c *modelController) EffectiveDepth() int {
	return c.depth + c.gDepth
}

func (c *modelController) gathering() bool {
	return c.mode != gatherNone
}

// GatheringFinished reports whether an active capture just consumed its
// matching close.
func (c *modelController) GatheringFinished() bool {
	return c.gathering() && c.finished
}

// TakeGathered hands off the completed capture and returns the controller
// to idle.
func (c *modelController) TakeGathered() *gathered {
	g := c.request
	g.mode = c.mode
	g.captured = c.buffer
	c.mode = gatherNone
	c.buffer = nil
	c.gDepth = 0
	c.finished = false
	c.request = gathered{}
	return &g
}

// StartIterated begins iterated gathering on the given triggering tag. For
// an open tag the controller rolls back the nesting level (and scope) it
// pushed for that tag, because every item replay re-delivers the tag and
// pushes its own.
func (c *modelController) StartIterated(trigger event.Event, iterVar, statusVar string, source any, precedingWhitespace *event.Event) {
	c.mode = gatherIterated
	c.buffer = model.New()
	c.buffer.Add(trigger)
	c.request = gathered{
		iterVar:             iterVar,
		statusVar:           statusVar,
		source:              source,
		precedingWhitespace: precedingWhitespace,
	}
	switch trigger.Kind {
	case event.KindOpenElement:
		c.rollbackOpen()
		c.gDepth = 1
		c.finished = false
	default: // standalone: the capture is already complete
		c.gDepth = 0
		c.finished = true
	}
}

// StartDelayed begins delayed gathering on the given open tag for a
// whole-subtree directive. The tag's nesting level is rolled back for the
// same reason as in StartIterated: the capture replay re-delivers it.
func (c *modelController) StartDelayed(trigger event.Event) {
	c.mode = gatherDelayed
	c.buffer = model.New()
	c.buffer.Add(trigger)
	c.request = gathered{}
	c.rollbackOpen()
	c.gDepth = 1
	c.finished = false
}

// rollbackOpen undoes the level push done by ShouldProcessOpen for the
// gathering trigger tag.
func (c *modelController) rollbackOpen() {
	lvl := c.levels[c.depth]
	if lvl.scopePushed {
		c.scopes.Decrease()
	}
	c.depth--
}

// ShouldProcessNonElement routes a text, comment, CDATA, DOCTYPE, XML
// declaration or processing-instruction event.
func (c *modelController) ShouldProcessNonElement(ev event.Event) bool {
	if c.gathering() {
		c.buffer.Add(ev)
		return false
	}
	return c.levels[c.depth].skip != stateSkipAll
}

// ShouldProcessStandalone routes a standalone element event.
func (c *modelController) ShouldProcessStandalone(ev event.Event) bool {
	if c.gathering() {
		c.buffer.Add(ev)
		return false
	}
	lvl := &c.levels[c.depth]
	switch lvl.skip {
	case stateProcess:
		return true
	case stateProcessOne:
		// A standalone occurrence completes immediately; siblings after
		// it are skipped.
		lvl.skip = stateSkipElements
		return true
	default:
		return false
	}
}

// ShouldProcessOpen routes an open element event. Whether processed or
// skipped, a nesting level is pushed; the matching close pops it.
func (c *modelController) ShouldProcessOpen(ev event.Event) bool {
	if c.gathering() {
		c.buffer.Add(ev)
		c.gDepth++
		return false
	}
	parent := &c.levels[c.depth]
	var process bool
	var child modelLevel
	switch parent.skip {
	case stateProcess:
		process = true
	case stateProcessOne:
		process = true
		child.firstOfProcessOne = true
	default:
		process = false
	}
	if process {
		child.skip = stateProcess
		child.openProcessed = true
		child.scopePushed = true
		c.scopes.Increase()
	} else {
		child.skip = stateSkipAll
	}
	c.push(child)
	return process
}

// ShouldProcessClose routes a matched close element event, popping the
// nesting level its open pushed. It returns whether the close itself should
// be forwarded.
func (c *modelController) ShouldProcessClose(ev event.Event) bool {
	if c.gathering() {
		c.buffer.Add(ev)
		c.gDepth--
		if c.gDepth == 0 {
			c.finished = true
		}
		return false
	}
	lvl := c.levels[c.depth]
	c.depth--
	if lvl.scopePushed {
		c.scopes.Decrease()
	}
	if lvl.firstOfProcessOne && lvl.openProcessed {
		c.levels[c.depth].skip = stateSkipElements
	}
	return lvl.openProcessed && !lvl.skipClose
}

// ShouldProcessUnmatchedClose routes an unmatched close element event. It
// does not change nesting depth and is suppressed only under SkipAll.
func (c *modelController) ShouldProcessUnmatchedClose(ev event.Event) bool {
	if c.gathering() {
		c.buffer.Add(ev)
		return false
	}
	return c.levels[c.depth].skip != stateSkipAll
}

// SetSkip applies an open element's completed directive loop decision to
// the level that element just pushed: its body policy and whether its
// matching close tag is suppressed.
func (c *modelController) SetSkip(skip SkipBody, skipClose bool) {
	lvl := &c.levels[c.depth]
	switch skip {
	case SkipAll:
		lvl.skip = stateSkipAll
	case SkipAllButFirstChild:
		lvl.skip = stateProcessOne
	default:
		// Body already set to process when the open was routed.
	}
	if skipClose {
		lvl.skipClose = true
	}
}

func (c *modelController) push(lvl modelLevel) {
	c.depth++
	if c.depth == len(c.levels) {
		c.levels = append(c.levels, lvl)
		return
	}
	c.levels[c.depth] = lvl
}
