// Package serialize provides the downstream sink that writes the final
// event stream back out as markup text.
package serialize

import (
	"fmt"
	"io"
	"strings"

	"github.com/weftml/weft/internal/event"
)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", "\"", "&quot;")

// Writer is an event.Handler that serializes events to an io.Writer. It is
// the terminal stage of a render: events arriving here are final.
type Writer struct {
	w io.Writer
}

// NewWriter returns a sink writing markup to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Handle writes one event.
func (s *Writer) Handle(ev event.Event) error {
	switch ev.Kind {
	case event.KindTemplateStart, event.KindTemplateEnd:
		// Boundaries produce no markup.
		return nil
	case event.KindText:
		return s.write(textEscaper.Replace(ev.Text))
	case event.KindComment:
		return s.write("<!--" + ev.Text + "-->")
	case event.KindCDATA:
		return s.write("<![CDATA[" + ev.Text + "]]>")
	case event.KindDocType:
		return s.write("<!DOCTYPE " + ev.Text + ">")
	case event.KindXMLDeclaration:
		return s.write("<?xml " + ev.Text + "?>")
	case event.KindProcessingInstruction:
		if ev.Text == "" {
			return s.write("<?" + ev.Target + "?>")
		}
		return s.write("<?" + ev.Target + " " + ev.Text + "?>")
	case event.KindStandaloneElement:
		return s.write("<" + ev.Name + attrs(ev) + "/>")
	case event.KindOpenElement:
		return s.write("<" + ev.Name + attrs(ev) + ">")
	case event.KindCloseElement:
		return s.write("</" + ev.Name + ">")
	}
	return fmt.Errorf("serialize: unknown event kind %d", int(ev.Kind))
}

func (s *Writer) write(out string) error {
	_, err := io.WriteString(s.w, out)
	return err
}

func attrs(ev event.Event) string {
	if len(ev.Attrs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range ev.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Value))
		b.WriteByte('"')
	}
	return b.String()
}
