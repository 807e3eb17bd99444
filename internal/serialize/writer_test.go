package serialize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftml/weft/internal/event"
)

func render(t *testing.T, events ...event.Event) string {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, ev := range events {
		require.NoError(t, w.Handle(ev))
	}
	return buf.String()
}

func TestWriter_BoundariesEmitNothing(t *testing.T) {
	out := render(t,
		event.Event{Kind: event.KindTemplateStart},
		event.Event{Kind: event.KindTemplateEnd},
	)
	assert.Empty(t, out)
}

func TestWriter_TextIsEscaped(t *testing.T) {
	out := render(t, event.Event{Kind: event.KindText, Text: `a < b & c > "d"`})
	assert.Equal(t, `a &lt; b &amp; c &gt; "d"`, out)
}

func TestWriter_Elements(t *testing.T) {
	out := render(t,
		event.Event{Kind: event.KindOpenElement, Name: "div",
			Attrs: []event.Attribute{{Name: "class", Value: `say "hi" & go`}}},
		event.Event{Kind: event.KindStandaloneElement, Name: "br"},
		event.Event{Kind: event.KindCloseElement, Name: "div"},
	)
	assert.Equal(t, `<div class="say &quot;hi&quot; &amp; go"><br/></div>`, out)
}

func TestWriter_NonElementKinds(t *testing.T) {
	assert.Equal(t, "<!--note-->", render(t, event.Event{Kind: event.KindComment, Text: "note"}))
	assert.Equal(t, "<![CDATA[raw <stuff>]]>", render(t, event.Event{Kind: event.KindCDATA, Text: "raw <stuff>"}))
	assert.Equal(t, "<!DOCTYPE html>", render(t, event.Event{Kind: event.KindDocType, Text: "html"}))
	assert.Equal(t, `<?xml version="1.0"?>`, render(t, event.Event{Kind: event.KindXMLDeclaration, Text: `version="1.0"`}))
	assert.Equal(t, `<?php echo?>`, render(t, event.Event{Kind: event.KindProcessingInstruction, Target: "php", Text: "echo"}))
	assert.Equal(t, `<?marker?>`, render(t, event.Event{Kind: event.KindProcessingInstruction, Target: "marker"}))
}

func TestWriter_UnknownKindErrors(t *testing.T) {
	w := NewWriter(&bytes.Buffer{})
	err := w.Handle(event.Event{Kind: event.Kind(99)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event kind")
}
