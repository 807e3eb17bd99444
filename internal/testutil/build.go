package testutil

import "github.com/weftml/weft/internal/event"

// Builders for hand-written event sequences. Attrs alternate name/value:
//
//	testutil.Open("li", "w:text", "${msg}")
//
// An odd trailing name gets an empty value.

// TemplateStart returns a template-start boundary event.
func TemplateStart() event.Event {
	return event.Event{Kind: event.KindTemplateStart, Template: "test", Line: 1, Col: 1}
}

// TemplateEnd returns a template-end boundary event.
func TemplateEnd() event.Event {
	return event.Event{Kind: event.KindTemplateEnd, Template: "test"}
}

// Text returns a text event.
func Text(text string) event.Event {
	return event.Event{Kind: event.KindText, Text: text, Template: "test"}
}

// Comment returns a comment event.
func Comment(text string) event.Event {
	return event.Event{Kind: event.KindComment, Text: text, Template: "test"}
}

// Open returns an open-element event.
func Open(name string, attrs ...string) event.Event {
	return element(event.KindOpenElement, name, attrs)
}

// Standalone returns a standalone-element event.
func Standalone(name string, attrs ...string) event.Event {
	return element(event.KindStandaloneElement, name, attrs)
}

// Close returns a matched close-element event.
func Close(name string) event.Event {
	return event.Event{Kind: event.KindCloseElement, Name: name, Template: "test"}
}

// UnmatchedClose returns an unmatched close-element event.
func UnmatchedClose(name string) event.Event {
	return event.Event{Kind: event.KindCloseElement, Name: name, Unmatched: true, Template: "test"}
}

func element(kind event.Kind, name string, attrs []string) event.Event {
	ev := event.Event{Kind: kind, Name: name, Template: "test"}
	for i := 0; i < len(attrs); i += 2 {
		value := ""
		if i+1 < len(attrs) {
			value = attrs[i+1]
		}
		ev.Attrs = append(ev.Attrs, event.Attribute{Name: attrs[i], Value: value})
	}
	return ev
}

// Feed delivers the events to the handler in order, stopping at the first
// error.
func Feed(h event.Handler, events ...event.Event) error {
	for _, ev := range events {
		if err := h.Handle(ev); err != nil {
			return err
		}
	}
	return nil
}
