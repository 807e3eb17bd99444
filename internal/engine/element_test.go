package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
	"github.com/weftml/weft/internal/testutil"
)

// tagOutcome registers a single tag directive on the named element that
// applies the given outcome once.
func tagOutcome(name string, apply func(out *directive.Outcome)) func(*directive.Registry) {
	return func(reg *directive.Registry) {
		reg.RegisterTag(directive.Matcher{Element: name}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			apply(out)
			return nil
		}))
	}
}

func textModel(texts ...string) *model.Model {
	m := model.New()
	for _, s := range texts {
		m.Add(event.Event{Kind: event.KindText, Text: s})
	}
	return m
}

func TestElement_SetBodyText_OnOpen(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("p", func(out *directive.Outcome) {
		out.SetBodyText("new body", false)
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("old body"),
		testutil.Standalone("br"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\nopen:p\ntext:\"new body\"\nclose:p\ntemplate-end", sink.Trace())
}

func TestElement_SetBodyText_OnStandalone(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("span", func(out *directive.Outcome) {
		out.SetBodyText("filled", false)
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Standalone("span"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	// The standalone becomes an equivalent open/body/close sequence
	assert.Equal(t, "template-start\nopen:span\ntext:\"filled\"\nclose:span\ntemplate-end", sink.Trace())
}

func TestElement_SetBodyModel_ProcessableRunsDirectives(t *testing.T) {
	inner := model.New()
	inner.Add(testutil.Standalone("x"))

	eng, sink := newTestEngine(func(reg *directive.Registry) {
		reg.RegisterTag(directive.Matcher{Element: "p"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.SetBodyModel(inner, true)
			return nil
		}))
		reg.RegisterTag(directive.Matcher{Element: "x"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.ReplaceWithText("expanded", false)
			return nil
		}))
	})

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("old"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\nopen:p\ntext:\"expanded\"\nclose:p\ntemplate-end", sink.Trace())
}

func TestElement_InsertBefore(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("p", func(out *directive.Outcome) {
		out.InsertBefore(textModel("lead"))
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("body"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\ntext:\"lead\"\nopen:p\ntext:\"body\"\nclose:p\ntemplate-end", sink.Trace())
}

func TestElement_InsertAfter(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("p", func(out *directive.Outcome) {
		out.InsertAfter(textModel("injected"), false)
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("body"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	// Injected model lands immediately after the open tag, before the body
	assert.Equal(t, "template-start\nopen:p\ntext:\"injected\"\ntext:\"body\"\nclose:p\ntemplate-end", sink.Trace())
}

func TestElement_ReplaceWithText(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("p", func(out *directive.Outcome) {
		out.ReplaceWithText("stand-in", false)
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("body"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	// Tags and body are gone; only the replacement remains
	assert.Equal(t, "template-start\ntext:\"stand-in\"\ntemplate-end", sink.Trace())
}

func TestElement_ReplaceWithModelUnprocessable(t *testing.T) {
	replacement := model.New()
	replacement.Add(testutil.Standalone("x"))

	xRuns := 0
	eng, sink := newTestEngine(func(reg *directive.Registry) {
		reg.RegisterTag(directive.Matcher{Element: "p"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.ReplaceWithModel(replacement, false)
			return nil
		}))
		reg.RegisterTag(directive.Matcher{Element: "x"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			xRuns++
			out.ReplaceWithText("expanded", false)
			return nil
		}))
	})

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("body"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	// The replacement model goes straight to the sink: the directive
	// registered on its element never runs
	assert.Equal(t, "template-start\nstandalone:x\ntemplate-end", sink.Trace())
	assert.Zero(t, xRuns)
}

func TestElement_ReplaceWithModelProcessable(t *testing.T) {
	replacement := model.New()
	replacement.Add(testutil.Standalone("x"))

	eng, sink := newTestEngine(func(reg *directive.Registry) {
		reg.RegisterTag(directive.Matcher{Element: "p"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.ReplaceWithModel(replacement, true)
			return nil
		}))
		reg.RegisterTag(directive.Matcher{Element: "x"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.ReplaceWithText("expanded", false)
			return nil
		}))
	})

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("body"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\ntext:\"expanded\"\ntemplate-end", sink.Trace())
}

func TestElement_RemoveElement_OnOpen(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("p", func(out *directive.Outcome) {
		out.RemoveElement()
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Text("before"),
		testutil.Open("p"),
		testutil.Text("body"),
		testutil.Close("p"),
		testutil.Text("after"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\ntext:\"before\"\ntext:\"after\"\ntemplate-end", sink.Trace())
}

func TestElement_RemoveElement_OnStandalone(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("img", func(out *directive.Outcome) {
		out.RemoveElement()
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Standalone("img"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\ntemplate-end", sink.Trace())
}

func TestElement_RemoveTags(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("div", func(out *directive.Outcome) {
		out.RemoveTags()
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("div"),
		testutil.Text("unwrapped"),
		testutil.Standalone("br"),
		testutil.Close("div"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\ntext:\"unwrapped\"\nstandalone:br\ntemplate-end", sink.Trace())
}

func TestElement_RemoveBody(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("div", func(out *directive.Outcome) {
		out.RemoveBody()
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("div"),
		testutil.Text("dropped"),
		testutil.Open("span"),
		testutil.Text("also dropped"),
		testutil.Close("span"),
		testutil.Close("div"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	assert.Equal(t, "template-start\nopen:div\nclose:div\ntemplate-end", sink.Trace())
}

func TestElement_RemoveAllButFirstChild(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("ul", func(out *directive.Outcome) {
		out.RemoveAllButFirstChild()
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("ul"),
		testutil.Text("a"),
		testutil.Open("li"),
		testutil.Text("first"),
		testutil.Close("li"),
		testutil.Text("b"),
		testutil.Open("li"),
		testutil.Text("second"),
		testutil.Close("li"),
		testutil.Standalone("hr"),
		testutil.Text("c"),
		testutil.Close("ul"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	// The first child element survives whole; later element occurrences
	// vanish; non-element events keep flowing.
	assert.Equal(t, "template-start\nopen:ul\ntext:\"a\"\nopen:li\ntext:\"first\"\nclose:li\ntext:\"b\"\ntext:\"c\"\nclose:ul\ntemplate-end", sink.Trace())
}

func TestElement_AttrOpsApplyToForwardedTag(t *testing.T) {
	eng, sink := newTestEngine(func(reg *directive.Registry) {
		reg.RegisterTag(directive.Matcher{Attribute: "x:mark"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.RemoveAttribute("x:mark")
			out.SetAttribute("class", "marked")
			return nil
		}))
	})

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p", "x:mark", "1"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	open := sink.Events[1]
	assert.False(t, open.HasAttr("x:mark"))
	v, ok := open.Attr("class")
	require.True(t, ok)
	assert.Equal(t, "marked", v)
}

func TestElement_ScopeOpsVisibleInsideOnly(t *testing.T) {
	var inside, outside any
	var insideOK, outsideOK bool

	eng, _ := newTestEngine(func(reg *directive.Registry) {
		reg.RegisterTag(directive.Matcher{Element: "div"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.SetVariable("x", 42)
			return nil
		}))
		reg.RegisterKind(event.KindText, kindFunc(func(ctx directive.Context, ev *event.Event, out *directive.Outcome) error {
			if ev.Text == "inside" {
				inside, insideOK = ctx.Variable("x")
			} else {
				outside, outsideOK = ctx.Variable("x")
			}
			return nil
		}))
	})

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("div"),
		testutil.Text("inside"),
		testutil.Close("div"),
		testutil.Text("outside"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	require.True(t, insideOK)
	assert.Equal(t, 42, inside)
	assert.False(t, outsideOK, "binding must not survive the element: got %v", outside)
}

func TestElement_OrderedDirectivesChainOnSameTag(t *testing.T) {
	eng, sink := newTestEngine(func(reg *directive.Registry) {
		// Higher precedence value runs later
		reg.RegisterTag(directive.Matcher{Element: "p"}, 200, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			v, _ := tag.Attr("data-step")
			out.SetAttribute("data-step", v+"2")
			return nil
		}))
		reg.RegisterTag(directive.Matcher{Element: "p"}, 100, tagFunc(func(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
			out.SetAttribute("data-step", "1")
			return nil
		}))
	})

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	v, ok := sink.Events[1].Attr("data-step")
	require.True(t, ok)
	assert.Equal(t, "12", v, "the later directive sees the earlier one's attribute write")
}

func TestElement_LevelReuseAcrossSiblings(t *testing.T) {
	eng, sink := newTestEngine(tagOutcome("p", func(out *directive.Outcome) {
		out.SetBodyText("same", false)
	}))

	err := testutil.Feed(eng,
		testutil.TemplateStart(),
		testutil.Open("p"),
		testutil.Text("one"),
		testutil.Close("p"),
		testutil.Open("p"),
		testutil.Text("two"),
		testutil.Close("p"),
		testutil.TemplateEnd(),
	)
	require.NoError(t, err)

	// The pooled level resets fully between siblings
	assert.Equal(t, "template-start\nopen:p\ntext:\"same\"\nclose:p\nopen:p\ntext:\"same\"\nclose:p\ntemplate-end", sink.Trace())
}
