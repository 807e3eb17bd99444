// Package engine implements the directive-execution core of the weft
// template engine.
//
// The engine consumes an ordered stream of parsed document events and runs,
// per event, the registered directives that may rewrite, replace, remove or
// expand that event before forwarding a transformed stream to the sink.
//
// ARCHITECTURE:
//
// Single-threaded re-entrant dispatch:
// One engine instance walks one linear event stream depth-first. There is
// no scheduler and no parallelism inside a render; "suspend" is an ordinary
// return that defers the remainder of an occurrence's directive loop to a
// later re-entrant call supplying the gathered subtree. Recursion depth
// equals markup nesting plus iteration and whole-subtree expansions.
//
// Event processing flow per element occurrence:
//  1. Gathering routing: an in-progress subtree capture swallows the event.
//  2. Fast path: no applicable directives, forward unchanged.
//  3. Otherwise push (or resume) an execution level and loop directives
//     through its cursor, applying one structural outcome per invocation.
//  4. Replay queued models before/after forwarding, apply skip policies,
//     pop the level.
//
// INVARIANTS:
//   - Execution levels nest strictly with open/close pairing, except while
//     suspended.
//   - Scope pushes and pops pair exactly with element nesting, including
//     across suspension; an unpaired push/pop is fatal.
//   - At template end, execution-level depth, gathering depth and scope
//     depth must all be back at their start values. Any mismatch aborts
//     the render; nothing is silently corrected.
package engine

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
	"github.com/weftml/weft/internal/scope"
)

// Mode selects markup-mode behavior. It only affects the cosmetic
// preceding-whitespace rule for iteration.
type Mode int

const (
	// ModeHTML replicates preceding whitespace only for block-level tags.
	ModeHTML Mode = iota
	// ModeXML replicates preceding whitespace for every tag.
	ModeXML
)

// iterationWhitespaceTags is the fixed set of HTML block-level elements for
// which a pure-whitespace text event preceding an iterated tag is
// replicated before each item, so iterated markup stays readable.
var iterationWhitespaceTags = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "audio": {}, "blockquote": {},
	"canvas": {}, "dd": {}, "div": {}, "dl": {}, "dt": {}, "fieldset": {},
	"figcaption": {}, "figure": {}, "footer": {}, "form": {}, "h1": {},
	"h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "header": {},
	"hgroup": {}, "hr": {}, "li": {}, "main": {}, "nav": {}, "noscript": {},
	"ol": {}, "option": {}, "output": {}, "p": {}, "pre": {}, "section": {},
	"table": {}, "tbody": {}, "td": {}, "tfoot": {}, "th": {}, "tr": {},
	"ul": {}, "video": {},
}

// Option configures an Engine.
type Option func(*Engine)

// WithMode sets the markup mode. Default is ModeHTML.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithLogger sets the structured logger. Default discards nothing but logs
// only at Debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithTemplateName sets the template name used in error locations.
func WithTemplateName(name string) Option {
	return func(e *Engine) { e.templateName = name }
}

// WithMaxNestingDepth bounds markup nesting (and with it recursion). Zero
// means unbounded. Exceeding the bound aborts the render with a located
// error instead of truncating silently.
func WithMaxNestingDepth(n int) Option {
	return func(e *Engine) { e.maxDepth = n }
}

// Engine is the per-render event dispatcher. All mutable per-render state
// (level index, last-text pointer, gathered-model pointer) lives on the
// instance; nothing is process-wide. Concurrent renders must each use
// their own Engine.
type Engine struct {
	reg  *directive.Registry
	sink event.Handler

	scopes *scope.Stack
	mode   Mode
	log    *slog.Logger

	templateName string
	renderID     string
	maxDepth     int

	// Execution-level stack, pooled across sibling elements. level is the
	// index of the top; -1 when empty.
	levels []*execLevel
	level  int

	controller *modelController

	// lastText is a defensive copy of the last handled event, if it was a
	// text event. It feeds the iteration preceding-whitespace rule.
	lastText *event.Event

	// gathered carries a completed delayed capture from the point it
	// finishes to the repeated directive invocation that consumes it.
	gathered *model.Model

	initialScopeDepth int
}

// New creates an engine that runs directives from reg and forwards the
// transformed stream to sink.
func New(reg *directive.Registry, sink event.Handler, opts ...Option) *Engine {
	e := &Engine{
		reg:      reg,
		sink:     sink,
		scopes:   scope.New(),
		log:      slog.Default(),
		renderID: uuid.NewString(),
		level:    -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.controller = newModelController(e.scopes)
	return e
}

// Scopes exposes the render's variable scope stack so callers can seed
// context variables at the base level before the first event.
func (e *Engine) Scopes() *scope.Stack {
	return e.scopes
}

// ctx returns the read-only context view handed to directives.
func (e *Engine) ctx() directive.Context {
	return renderContext{e}
}

type renderContext struct{ e *Engine }

func (c renderContext) Variable(name string) (any, bool) { return c.e.scopes.Get(name) }
func (c renderContext) SelectionTarget() (any, bool)     { return c.e.scopes.SelectionTarget() }
func (c renderContext) Inliner() (any, bool)             { return c.e.scopes.Inliner() }
func (c renderContext) TemplateData() (any, bool)        { return c.e.scopes.TemplateData() }
func (c renderContext) TemplateName() string             { return c.e.templateName }

// Handle dispatches one document event. It implements event.Handler, which
// is also how queued models replay back through the engine.
func (e *Engine) Handle(ev event.Event) error {
	switch ev.Kind {
	case event.KindTemplateStart:
		return e.handleTemplateStart(ev)
	case event.KindTemplateEnd:
		return e.handleTemplateEnd(ev)
	case event.KindText, event.KindComment, event.KindCDATA,
		event.KindDocType, event.KindXMLDeclaration, event.KindProcessingInstruction:
		return e.handleNonElement(ev)
	case event.KindStandaloneElement:
		return e.handleStandaloneElement(ev)
	case event.KindOpenElement:
		return e.handleOpenElement(ev)
	case event.KindCloseElement:
		return e.handleCloseElement(ev)
	}
	return newProcessingError(ErrCodeStructure, ev.Template, ev.Line, ev.Col,
		"unknown event kind %d", int(ev.Kind))
}

func (e *Engine) pushLevel() *execLevel {
	e.level++
	if e.level == len(e.levels) {
		e.levels = append(e.levels, newExecLevel())
	} else {
		e.levels[e.level].reset()
	}
	return e.levels[e.level]
}

func (e *Engine) popLevel() {
	e.level--
}

// resumeOrPush returns the suspended top level if there is one, clearing
// its suspended flag, or pushes a fresh level targeted at the tag's
// directives.
func (e *Engine) resumeOrPush(ev event.Event) (lvl *execLevel, resumed bool) {
	if e.level >= 0 && e.levels[e.level].suspended {
		lvl = e.levels[e.level]
		lvl.suspended = false
		return lvl, true
	}
	lvl = e.pushLevel()
	lvl.cursor.Reset(e.reg.ElementDirectives(ev))
	return lvl, false
}

// replayQueue routes a level's queue per its processable flag.
func (e *Engine) replayQueue(lvl *execLevel) error {
	if lvl.queueProcessable {
		return lvl.queue.Process(e)
	}
	return lvl.queue.Process(e.sink)
}

// whitespaceApplies reports whether the preceding-whitespace rule applies
// to the given iterated tag.
func (e *Engine) whitespaceApplies(ev event.Event) bool {
	if e.mode == ModeXML {
		return true
	}
	_, ok := iterationWhitespaceTags[ev.Name]
	return ok
}

// textEvent synthesizes a text event at the location of src.
func textEvent(text string, src event.Event) event.Event {
	return event.Event{
		Kind:      event.KindText,
		Text:      text,
		Synthetic: true,
		Template:  src.Template,
		Line:      src.Line,
		Col:       src.Col,
	}
}

// synthesizeOpenClose builds the open/close pair equivalent to a standalone
// tag whose body a directive has just set.
func synthesizeOpenClose(tag event.Event) (event.Event, event.Event) {
	open := tag.Clone()
	open.Kind = event.KindOpenElement
	open.Synthetic = true
	closing := event.Event{
		Kind:      event.KindCloseElement,
		Name:      tag.Name,
		Synthetic: true,
		Template:  tag.Template,
		Line:      tag.Line,
		Col:       tag.Col,
	}
	return open, closing
}

// applyScopeOps applies a directive's requested scope mutations, in order.
func (e *Engine) applyScopeOps(ops []directive.ScopeOp) {
	for _, op := range ops {
		switch op.Kind {
		case directive.ScopeSetVariable:
			e.scopes.Set(op.Name, op.Value)
		case directive.ScopeRemoveVariable:
			e.scopes.Remove(op.Name)
		case directive.ScopeSetSelectionTarget:
			e.scopes.SetSelectionTarget(op.Value)
		case directive.ScopeSetInliner:
			e.scopes.SetInliner(op.Value)
		case directive.ScopeSetTemplateData:
			e.scopes.SetTemplateData(op.Value)
		}
	}
}

// applyAttrOps applies a directive's requested attribute mutations to the
// working element.
func applyAttrOps(ev *event.Event, ops []directive.AttrOp) {
	for _, op := range ops {
		if op.Remove {
			ev.RemoveAttr(op.Name)
		} else {
			ev.SetAttr(op.Name, op.Value)
		}
	}
}

// checkConflict turns a multi-action outcome into a fatal error.
func checkConflict(out *directive.Outcome, ev event.Event) error {
	if first, second, conflicted := out.Conflict(); conflicted {
		return newProcessingError(ErrCodeOutcomeConflict, ev.Template, ev.Line, ev.Col,
			"directive set conflicting structural outcomes %s and %s", first, second)
	}
	return nil
}
