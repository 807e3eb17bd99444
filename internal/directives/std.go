// Package directives ships the standard attribute-driven directive set.
// Every directive is keyed on a prefixed attribute (default prefix "w", so
// w:each, w:text, ...) and removes that attribute from the tag it fires on,
// so replayed markup never triggers the same directive twice and the
// attribute never reaches the output.
package directives

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
)

// DefaultPrefix is the attribute prefix the standard set registers under
// when none is given.
const DefaultPrefix = "w"

// Directive precedences, ascending. Iteration runs before conditionals so
// conditions see the per-item scope; body rewrites run late so earlier
// directives observe the original body.
const (
	precedenceEach   = 200
	precedenceIf     = 300
	precedenceUnless = 400
	precedenceWith   = 600
	precedenceRemove = 1000
	precedenceText   = 1300
	precedenceCase   = 1400
)

// Register adds the standard directive set to the registry under the given
// attribute prefix.
func Register(reg *directive.Registry, prefix string) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	attr := func(name string) string { return prefix + ":" + name }

	reg.RegisterTag(directive.Matcher{Attribute: attr("each")}, precedenceEach, &eachDirective{attr: attr("each")})
	reg.RegisterTag(directive.Matcher{Attribute: attr("if")}, precedenceIf, &ifDirective{attr: attr("if")})
	reg.RegisterTag(directive.Matcher{Attribute: attr("unless")}, precedenceUnless, &ifDirective{attr: attr("unless"), negate: true})
	reg.RegisterTag(directive.Matcher{Attribute: attr("with")}, precedenceWith, &withDirective{attr: attr("with")})
	reg.RegisterTag(directive.Matcher{Attribute: attr("remove")}, precedenceRemove, &removeDirective{attr: attr("remove")})
	reg.RegisterTag(directive.Matcher{Attribute: attr("text")}, precedenceText, &textDirective{attr: attr("text")})
	reg.RegisterModel(directive.Matcher{Attribute: attr("uppercase")}, precedenceCase,
		&caseDirective{attr: attr("uppercase"), caser: cases.Upper(language.Und)})
	reg.RegisterModel(directive.Matcher{Attribute: attr("lowercase")}, precedenceCase,
		&caseDirective{attr: attr("lowercase"), caser: cases.Lower(language.Und)})
}

// eachDirective iterates the element over a source: w:each="item : ${items}"
// or, with a status variable, w:each="item, stat : ${items}".
type eachDirective struct {
	attr string
}

func (d *eachDirective) ProcessTag(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
	val, _ := tag.Attr(d.attr)
	vars, srcExpr, found := strings.Cut(val, ":")
	if !found {
		return fmt.Errorf("malformed %s value %q: want \"item : source\"", d.attr, val)
	}

	iterVar := strings.TrimSpace(vars)
	statusVar := ""
	if name, status, ok := strings.Cut(vars, ","); ok {
		iterVar = strings.TrimSpace(name)
		statusVar = strings.TrimSpace(status)
	}
	if iterVar == "" {
		return fmt.Errorf("malformed %s value %q: empty iteration variable", d.attr, val)
	}

	out.RemoveAttribute(d.attr)
	out.Iterate(iterVar, statusVar, resolve(ctx, srcExpr))
	return nil
}

// ifDirective removes the element unless its condition holds; with negate
// set it is the unless form.
type ifDirective struct {
	attr   string
	negate bool
}

func (d *ifDirective) ProcessTag(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
	val, _ := tag.Attr(d.attr)
	out.RemoveAttribute(d.attr)
	if truthy(resolve(ctx, val)) == d.negate {
		out.RemoveElement()
	}
	return nil
}

// withDirective binds variables for the element's scope:
// w:with="name=${expr}" with comma-separated pairs.
type withDirective struct {
	attr string
}

func (d *withDirective) ProcessTag(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
	val, _ := tag.Attr(d.attr)
	out.RemoveAttribute(d.attr)
	for _, pair := range strings.Split(val, ",") {
		name, expr, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return fmt.Errorf("malformed %s pair %q: want \"name=value\"", d.attr, pair)
		}
		out.SetVariable(name, resolve(ctx, expr))
	}
	return nil
}

// removeDirective maps its value onto the structural removal outcomes.
type removeDirective struct {
	attr string
}

func (d *removeDirective) ProcessTag(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
	val, _ := tag.Attr(d.attr)
	out.RemoveAttribute(d.attr)
	switch strings.TrimSpace(val) {
	case "all":
		out.RemoveElement()
	case "tag":
		out.RemoveTags()
	case "body":
		out.RemoveBody()
	case "all-but-first":
		out.RemoveAllButFirstChild()
	case "none", "":
		// Keep everything; useful when the value is computed.
	default:
		return fmt.Errorf("unknown %s value %q", d.attr, val)
	}
	return nil
}

// textDirective replaces the element body with the resolved value. The
// replacement is literal text; the serializer escapes it on output.
type textDirective struct {
	attr string
}

func (d *textDirective) ProcessTag(ctx directive.Context, tag *event.Event, out *directive.Outcome) error {
	val, _ := tag.Attr(d.attr)
	out.RemoveAttribute(d.attr)
	out.SetBodyText(stringify(resolve(ctx, val)), false)
	return nil
}

// caseDirective rewrites every text event of its element's subtree through
// a caser. It runs as a whole-subtree directive, so nested markup survives
// untouched.
type caseDirective struct {
	attr  string
	caser cases.Caser
}

func (d *caseDirective) ProcessModel(ctx directive.Context, m *model.Model, out *directive.Outcome) error {
	// The replacement model is re-processed from scratch; strip the
	// triggering attribute so the first tag does not fire this directive
	// again.
	first := m.Get(0).Clone()
	first.RemoveAttr(d.attr)
	m.Set(0, first)

	for i := 0; i < m.Size(); i++ {
		ev := m.Get(i)
		if ev.Kind != event.KindText {
			continue
		}
		ev.Text = d.caser.String(ev.Text)
		m.Set(i, ev)
	}
	return nil
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
