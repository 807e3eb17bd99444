package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/testutil"
)

func feed(t *testing.T, markup string) *testutil.RecordingSink {
	t.Helper()
	var sink testutil.RecordingSink
	require.NoError(t, Feed(strings.NewReader(markup), "test", &sink))
	return &sink
}

func TestFeed_BracketsWithBoundaries(t *testing.T) {
	sink := feed(t, "<p>x</p>")

	kinds := sink.Kinds()
	require.NotEmpty(t, kinds)
	assert.Equal(t, event.KindTemplateStart, kinds[0])
	assert.Equal(t, event.KindTemplateEnd, kinds[len(kinds)-1])
}

func TestFeed_ElementsAndText(t *testing.T) {
	sink := feed(t, `<div class="a">hi</div>`)

	assert.Equal(t, []event.Kind{
		event.KindTemplateStart,
		event.KindOpenElement,
		event.KindText,
		event.KindCloseElement,
		event.KindTemplateEnd,
	}, sink.Kinds())

	open := sink.Events[1]
	assert.Equal(t, "div", open.Name)
	v, ok := open.Attr("class")
	require.True(t, ok)
	assert.Equal(t, "a", v)
}

func TestFeed_SelfClosingBecomesStandalone(t *testing.T) {
	sink := feed(t, `<div><hr/></div>`)

	assert.Equal(t, []event.Kind{
		event.KindTemplateStart,
		event.KindOpenElement,
		event.KindStandaloneElement,
		event.KindCloseElement,
		event.KindTemplateEnd,
	}, sink.Kinds())
	assert.Equal(t, "hr", sink.Events[2].Name)
}

func TestFeed_EmptyElementPairCollapses(t *testing.T) {
	// An open immediately followed by its close reads the same as a
	// self-closing tag.
	sink := feed(t, `<p></p>`)

	assert.Equal(t, []event.Kind{
		event.KindTemplateStart,
		event.KindStandaloneElement,
		event.KindTemplateEnd,
	}, sink.Kinds())
}

func TestFeed_PrefixedAttributesKeepPrefix(t *testing.T) {
	sink := feed(t, `<p w:text="${msg}">x</p>`)

	open := sink.Events[1]
	v, ok := open.Attr("w:text")
	require.True(t, ok, "prefixed attribute should keep its prefix: %v", open.Attrs)
	assert.Equal(t, "${msg}", v)
}

func TestFeed_CommentAndDoctype(t *testing.T) {
	sink := feed(t, "<!DOCTYPE html><!-- note --><p>x</p>")

	assert.Equal(t, event.KindDocType, sink.Events[1].Kind)
	assert.Equal(t, "html", sink.Events[1].Text)
	assert.Equal(t, event.KindComment, sink.Events[2].Kind)
	assert.Equal(t, " note ", sink.Events[2].Text)
}

func TestFeed_Positions(t *testing.T) {
	sink := feed(t, "<div>\n  <p>x</p>\n</div>")

	var p event.Event
	for _, ev := range sink.Events {
		if ev.Kind == event.KindOpenElement && ev.Name == "p" {
			p = ev
		}
	}
	require.NotZero(t, p.Kind, "p open event not found")
	assert.Equal(t, 2, p.Line)
	assert.Equal(t, "test", p.Template)
}

func TestFeed_HandlerErrorAborts(t *testing.T) {
	calls := 0
	h := handlerFunc(func(ev event.Event) error {
		calls++
		if ev.Kind == event.KindOpenElement {
			return assert.AnError
		}
		return nil
	})

	err := Feed(strings.NewReader("<div><p>x</p></div>"), "test", h)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, calls, "feed should stop at the failing event")
}

type handlerFunc func(event.Event) error

func (f handlerFunc) Handle(ev event.Event) error { return f(ev) }
