// Package source adapts a parsed markup document into the event stream the
// engine consumes. Parsing itself stays outside the core: this adapter only
// maps stdlib XML tokens to document events, bracketing them with the
// template boundaries.
package source

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/weftml/weft/internal/event"
)

// Feed reads markup from r and delivers it, one event per call, to the
// handler: TemplateStart first, TemplateEnd last, elements well-formed in
// between (the stdlib decoder rejects unmatched closes outright).
//
// Self-closing tags are reported by the stdlib decoder as an open
// immediately followed by its close; an open whose close follows with
// nothing in between is collapsed back into a standalone event.
func Feed(r io.Reader, templateName string, h event.Handler) error {
	tracker := &lineTracker{r: r}
	dec := xml.NewDecoder(tracker)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	if err := h.Handle(event.Event{Kind: event.KindTemplateStart, Template: templateName, Line: 1, Col: 1}); err != nil {
		return err
	}

	// One token of lookahead, for collapsing empty elements.
	var pending *event.Event

	flush := func() error {
		if pending == nil {
			return nil
		}
		ev := *pending
		pending = nil
		return h.Handle(ev)
	}

	for {
		line, col := tracker.position(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read template %s: %w", templateName, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := flush(); err != nil {
				return err
			}
			ev := event.Event{
				Kind:     event.KindOpenElement,
				Name:     t.Name.Local,
				Template: templateName,
				Line:     line,
				Col:      col,
			}
			for _, a := range t.Attr {
				name := a.Name.Local
				if a.Name.Space != "" {
					name = a.Name.Space + ":" + a.Name.Local
				}
				ev.Attrs = append(ev.Attrs, event.Attribute{Name: name, Value: a.Value})
			}
			pending = &ev

		case xml.EndElement:
			if pending != nil && pending.Name == t.Name.Local {
				pending.Kind = event.KindStandaloneElement
				if err := flush(); err != nil {
					return err
				}
				continue
			}
			if err := flush(); err != nil {
				return err
			}
			if err := h.Handle(event.Event{
				Kind:     event.KindCloseElement,
				Name:     t.Name.Local,
				Template: templateName,
				Line:     line,
				Col:      col,
			}); err != nil {
				return err
			}

		case xml.CharData:
			if err := flush(); err != nil {
				return err
			}
			if err := h.Handle(event.Event{
				Kind:     event.KindText,
				Text:     string(t),
				Template: templateName,
				Line:     line,
				Col:      col,
			}); err != nil {
				return err
			}

		case xml.Comment:
			if err := flush(); err != nil {
				return err
			}
			if err := h.Handle(event.Event{
				Kind:     event.KindComment,
				Text:     string(t),
				Template: templateName,
				Line:     line,
				Col:      col,
			}); err != nil {
				return err
			}

		case xml.ProcInst:
			if err := flush(); err != nil {
				return err
			}
			ev := event.Event{
				Kind:     event.KindProcessingInstruction,
				Target:   t.Target,
				Text:     strings.TrimSpace(string(t.Inst)),
				Template: templateName,
				Line:     line,
				Col:      col,
			}
			if t.Target == "xml" {
				ev.Kind = event.KindXMLDeclaration
				ev.Target = ""
			}
			if err := h.Handle(ev); err != nil {
				return err
			}

		case xml.Directive:
			if err := flush(); err != nil {
				return err
			}
			raw := strings.TrimSpace(string(t))
			ev := event.Event{
				Kind:     event.KindComment,
				Text:     raw,
				Template: templateName,
				Line:     line,
				Col:      col,
			}
			if rest, ok := strings.CutPrefix(raw, "DOCTYPE "); ok {
				ev.Kind = event.KindDocType
				ev.Text = rest
			}
			if err := h.Handle(ev); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}
	return h.Handle(event.Event{Kind: event.KindTemplateEnd, Template: templateName})
}

// lineTracker records newline offsets as the decoder consumes input, so a
// byte offset can be mapped back to a line/column pair. The stdlib decoder
// only exposes offsets.
type lineTracker struct {
	r        io.Reader
	consumed int64
	newlines []int64
}

func (t *lineTracker) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	for i := 0; i < n; i++ {
		if p[i] == '\n' {
			t.newlines = append(t.newlines, t.consumed+int64(i))
		}
	}
	t.consumed += int64(n)
	return n, err
}

func (t *lineTracker) position(offset int64) (line, col int) {
	lo, hi := 0, len(t.newlines)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.newlines[mid] < offset {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	line = lo + 1
	start := int64(0)
	if lo > 0 {
		start = t.newlines[lo-1] + 1
	}
	return line, int(offset-start) + 1
}
