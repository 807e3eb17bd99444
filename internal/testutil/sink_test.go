package testutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftml/weft/internal/event"
)

func TestRecordingSinkTrace(t *testing.T) {
	sink := &RecordingSink{}
	require.NoError(t, Feed(sink,
		TemplateStart(),
		Open("li", "class", "odd"),
		Text("first"),
		Close("li"),
		Standalone("br"),
		UnmatchedClose("p"),
		Comment("note"),
		TemplateEnd(),
	))

	want := "template-start\n" +
		`open:li class="odd"` + "\n" +
		`text:"first"` + "\n" +
		"close:li\n" +
		"standalone:br\n" +
		"unmatched-close:p\n" +
		`comment:"note"` + "\n" +
		"template-end"
	assert.Equal(t, want, sink.Trace())
}

func TestRecordingSinkKinds(t *testing.T) {
	sink := &RecordingSink{}
	require.NoError(t, Feed(sink, TemplateStart(), Text("x"), TemplateEnd()))

	assert.Equal(t, []event.Kind{event.KindTemplateStart, event.KindText, event.KindTemplateEnd}, sink.Kinds())
}

func TestRecordingSinkClonesOnCapture(t *testing.T) {
	sink := &RecordingSink{}
	ev := Open("p", "id", "a")
	require.NoError(t, sink.Handle(ev))

	ev.Attrs[0].Value = "mutated"
	got, _ := sink.Events[0].Attr("id")
	assert.Equal(t, "a", got)
}

func TestRecordingSinkFailAfter(t *testing.T) {
	boom := errors.New("sink full")
	sink := &RecordingSink{FailAfter: 2, Err: boom}

	require.NoError(t, sink.Handle(TemplateStart()))
	require.NoError(t, sink.Handle(Text("x")))
	err := sink.Handle(TemplateEnd())
	require.ErrorIs(t, err, boom)
	assert.Len(t, sink.Events, 2)
}

func TestBuilderOddAttrs(t *testing.T) {
	ev := Open("input", "disabled")
	require.Len(t, ev.Attrs, 1)
	assert.Equal(t, "disabled", ev.Attrs[0].Name)
	assert.Equal(t, "", ev.Attrs[0].Value)
}
