// Package event defines the document events that flow through the render
// pipeline.
//
// An Event is one unit of parsed document structure, delivered in document
// order by an upstream source and consumed by the engine and, eventually, a
// downstream sink. Events are modeled as a single struct with a Kind tag and
// kind-specific fields, matched exhaustively with switches rather than type
// assertions.
//
// Buffer reuse contract: an upstream source may reuse its buffers between
// calls. Any event retained past the call that delivered it (gathering
// buffers, the engine's last-text pointer, queued models) MUST be copied
// with Clone first.
package event

import "strings"

// Kind distinguishes the document event kinds.
type Kind int

const (
	// KindTemplateStart marks the beginning of a render. Always delivered
	// first, exactly once.
	KindTemplateStart Kind = iota + 1
	// KindTemplateEnd marks the end of a render. Always delivered last,
	// exactly once.
	KindTemplateEnd
	// KindText is character data between tags.
	KindText
	// KindComment is a markup comment.
	KindComment
	// KindCDATA is a CDATA section.
	KindCDATA
	// KindDocType is a DOCTYPE clause.
	KindDocType
	// KindXMLDeclaration is an XML declaration.
	KindXMLDeclaration
	// KindProcessingInstruction is a processing instruction.
	KindProcessingInstruction
	// KindStandaloneElement is an element with no body (<br/>).
	KindStandaloneElement
	// KindOpenElement opens a nested element.
	KindOpenElement
	// KindCloseElement closes a nested element. Unmatched closes are
	// flagged on the event itself.
	KindCloseElement
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindTemplateStart:
		return "template-start"
	case KindTemplateEnd:
		return "template-end"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	case KindCDATA:
		return "cdata"
	case KindDocType:
		return "doctype"
	case KindXMLDeclaration:
		return "xml-declaration"
	case KindProcessingInstruction:
		return "processing-instruction"
	case KindStandaloneElement:
		return "standalone-element"
	case KindOpenElement:
		return "open-element"
	case KindCloseElement:
		return "close-element"
	}
	return "unknown"
}

// IsElement reports whether the kind opens an element occurrence that the
// execution-level stack cares about.
func (k Kind) IsElement() bool {
	return k == KindStandaloneElement || k == KindOpenElement
}

// Attribute is one name/value pair on an element tag.
type Attribute struct {
	Name  string
	Value string
}

// Event is one parsed document event.
//
// Field usage by kind:
//   - Name: element name (standalone/open/close), doctype root name.
//   - Attrs: standalone/open elements only.
//   - Text: text/comment/CDATA content, processing-instruction content,
//     doctype raw clause, XML declaration raw clause.
//   - Target: processing-instruction target.
//   - Unmatched: close elements with no matching open.
//   - Synthetic: events fabricated by the engine (never came from source).
type Event struct {
	Kind Kind

	Name   string
	Attrs  []Attribute
	Text   string
	Target string

	Unmatched bool
	Synthetic bool

	// Source location, for error reporting.
	Template string
	Line     int
	Col      int
}

// Clone returns a deep copy of the event. Attrs get their own backing
// array, so mutations on the copy never reach the original.
func (e Event) Clone() Event {
	c := e
	if len(e.Attrs) > 0 {
		c.Attrs = make([]Attribute, len(e.Attrs))
		copy(c.Attrs, e.Attrs)
	}
	return c
}

// Attr returns the value of the named attribute and whether it is present.
func (e Event) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (e Event) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// SetAttr sets or replaces the named attribute, preserving the position of
// an existing attribute of the same name.
func (e *Event) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attribute{Name: name, Value: value})
}

// RemoveAttr removes the named attribute if present.
func (e *Event) RemoveAttr(name string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs = append(e.Attrs[:i:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// IsWhitespace reports whether a text event contains only whitespace.
// Non-text events are never whitespace.
func (e Event) IsWhitespace() bool {
	if e.Kind != KindText {
		return false
	}
	return strings.TrimSpace(e.Text) == "" && e.Text != ""
}

// Handler consumes a stream of events. Both the engine and the downstream
// sink implement it; a Model replays into one.
type Handler interface {
	Handle(ev Event) error
}
