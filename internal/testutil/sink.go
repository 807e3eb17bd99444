// Package testutil provides deterministic helpers for engine tests: a
// recording sink that captures the exact event sequence a render emits, and
// terse builders for hand-written input sequences.
package testutil

import (
	"strings"

	"github.com/weftml/weft/internal/event"
)

// RecordingSink captures every event it receives, in order.
//
// Engines drive a single sink from a single goroutine, so the sink does no
// locking. Events are cloned on capture: later mutation of the engine's
// buffers cannot change what a test observed.
type RecordingSink struct {
	Events []event.Event

	// FailAfter, when positive, makes the sink return an error once that
	// many events have been accepted. Used to test mid-render abort.
	FailAfter int
	// Err is the error returned when FailAfter triggers.
	Err error
}

// Handle records the event.
//
// Implements event.Handler.
func (s *RecordingSink) Handle(ev event.Event) error {
	if s.FailAfter > 0 && len(s.Events) >= s.FailAfter {
		return s.Err
	}
	s.Events = append(s.Events, ev.Clone())
	return nil
}

// Kinds returns the captured event kinds, in order. Convenient for
// asserting the shape of an output sequence without comparing payloads.
func (s *RecordingSink) Kinds() []event.Kind {
	kinds := make([]event.Kind, len(s.Events))
	for i, ev := range s.Events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// Trace renders the captured sequence as one line per event, e.g.
//
//	open:li
//	text:"first"
//	close:li
//
// Traces compare well with require.Equal and read well in failure output.
func (s *RecordingSink) Trace() string {
	var b strings.Builder
	for i, ev := range s.Events {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(traceLine(ev))
	}
	return b.String()
}

func traceLine(ev event.Event) string {
	var b strings.Builder
	switch ev.Kind {
	case event.KindTemplateStart:
		b.WriteString("template-start")
	case event.KindTemplateEnd:
		b.WriteString("template-end")
	case event.KindText:
		b.WriteString("text:")
		b.WriteString(`"` + ev.Text + `"`)
	case event.KindComment:
		b.WriteString("comment:")
		b.WriteString(`"` + ev.Text + `"`)
	case event.KindCDATA:
		b.WriteString("cdata:")
		b.WriteString(`"` + ev.Text + `"`)
	case event.KindDocType:
		b.WriteString("doctype")
	case event.KindXMLDeclaration:
		b.WriteString("xml-decl")
	case event.KindProcessingInstruction:
		b.WriteString("pi:" + ev.Target)
	case event.KindStandaloneElement:
		b.WriteString("standalone:" + ev.Name)
	case event.KindOpenElement:
		b.WriteString("open:" + ev.Name)
	case event.KindCloseElement:
		if ev.Unmatched {
			b.WriteString("unmatched-close:" + ev.Name)
		} else {
			b.WriteString("close:" + ev.Name)
		}
	default:
		b.WriteString(ev.Kind.String())
	}
	for _, a := range ev.Attrs {
		b.WriteString(" " + a.Name + "=" + `"` + a.Value + `"`)
	}
	return b.String()
}
