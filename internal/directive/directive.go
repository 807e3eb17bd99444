// Package directive defines the contract between the engine and directive
// implementations: the directive interfaces, the per-invocation Outcome
// record, the ordered registry and the per-occurrence cursor.
//
// Directives never touch engine state directly. They receive a read-only
// view of the render context plus the current event (or gathered model) and
// populate a freshly-reset Outcome; the engine applies the outcome. A
// directive setting more than one structural result is a directive bug and
// aborts the render.
package directive

import (
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
)

// Context is the read-only view of the running render that directives
// receive. Writes go through the Outcome instead, so the engine can apply
// them at well-defined points.
type Context interface {
	// Variable resolves a scoped variable, innermost level first.
	Variable(name string) (any, bool)

	// SelectionTarget returns the innermost selection target, if set.
	SelectionTarget() (any, bool)

	// Inliner returns the innermost inliner, if set.
	Inliner() (any, bool)

	// TemplateData returns the innermost template-scoped data, if set.
	TemplateData() (any, bool)

	// TemplateName returns the name of the template being rendered.
	TemplateName() string
}

// TagDirective runs against a single element tag event. It sees the tag and
// may rewrite its attributes or request any of the structural outcomes of
// the element outcome table.
type TagDirective interface {
	ProcessTag(ctx Context, tag *event.Event, out *Outcome) error
}

// ModelDirective runs against the complete subtree of its element,
// delivered as a gathered model whose first and last events are the
// element's own open and close tags. The engine applies its result as a
// whole-model replacement.
//
// Gathering is two-phase: the engine invokes the directive only after the
// matching close tag has been consumed, so a ModelDirective is never called
// with a partial body.
type ModelDirective interface {
	ProcessModel(ctx Context, m *model.Model, out *Outcome) error
}

// KindDirective runs against non-element events: text, comments, CDATA,
// DOCTYPEs, XML declarations, processing instructions, and the template
// boundaries.
type KindDirective interface {
	ProcessEvent(ctx Context, ev *event.Event, out *Outcome) error
}

// Matcher selects the element occurrences an element directive applies to.
// Empty fields match anything, so a Matcher with only Attribute set matches
// that attribute on any tag.
type Matcher struct {
	// Element matches the tag name, if non-empty.
	Element string
	// Attribute requires the named attribute to be present, if non-empty.
	Attribute string
}

// Matches reports whether the matcher applies to the given tag event.
func (m Matcher) Matches(ev event.Event) bool {
	if m.Element != "" && m.Element != ev.Name {
		return false
	}
	if m.Attribute != "" && !ev.HasAttr(m.Attribute) {
		return false
	}
	return true
}

// ElementEntry is one registered element directive: a matcher, its
// precedence, and exactly one of Tag or Model set. Which field is set is
// the directive's kind; the engine matches on it exhaustively and treats
// an entry with neither set as a fatal registration bug.
type ElementEntry struct {
	Matcher    Matcher
	Precedence int

	Tag   TagDirective
	Model ModelDirective

	// seq is the registration order tiebreaker.
	seq int
}
