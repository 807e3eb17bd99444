package directive

import (
	"sort"

	"github.com/weftml/weft/internal/event"
)

// Registry holds the registered directives for one template mode.
//
// Element directives carry a precedence; the effective order is ascending
// precedence with registration order breaking ties, and it is fixed at
// registration time. The engine consumes the order as-is and never
// re-sorts. Non-element directives run in plain registration order.
//
// A Registry is built up front and then only read; it is not safe to
// register while a render is running.
type Registry struct {
	elements []ElementEntry
	kinds    map[event.Kind][]KindDirective
	nextSeq  int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[event.Kind][]KindDirective),
	}
}

// RegisterTag registers a tag directive for the matched elements.
func (r *Registry) RegisterTag(m Matcher, precedence int, d TagDirective) {
	r.insert(ElementEntry{Matcher: m, Precedence: precedence, Tag: d})
}

// RegisterModel registers a whole-subtree directive for the matched
// elements.
func (r *Registry) RegisterModel(m Matcher, precedence int, d ModelDirective) {
	r.insert(ElementEntry{Matcher: m, Precedence: precedence, Model: d})
}

func (r *Registry) insert(e ElementEntry) {
	e.seq = r.nextSeq
	r.nextSeq++
	r.elements = append(r.elements, e)
	sort.SliceStable(r.elements, func(i, j int) bool {
		if r.elements[i].Precedence != r.elements[j].Precedence {
			return r.elements[i].Precedence < r.elements[j].Precedence
		}
		return r.elements[i].seq < r.elements[j].seq
	})
}

// RegisterKind registers a directive for a non-element event kind or a
// template boundary.
func (r *Registry) RegisterKind(k event.Kind, d KindDirective) {
	r.kinds[k] = append(r.kinds[k], d)
}

// ElementDirectives returns the ordered directives applicable to the given
// tag event. A nil result is the fast path: no level needs to be set up.
func (r *Registry) ElementDirectives(ev event.Event) []ElementEntry {
	var out []ElementEntry
	for _, e := range r.elements {
		if e.Matcher.Matches(ev) {
			out = append(out, e)
		}
	}
	return out
}

// HasElementDirectives reports whether any element directive applies,
// without building the slice.
func (r *Registry) HasElementDirectives(ev event.Event) bool {
	for _, e := range r.elements {
		if e.Matcher.Matches(ev) {
			return true
		}
	}
	return false
}

// KindDirectives returns the directives registered for a non-element kind,
// in registration order.
func (r *Registry) KindDirectives(k event.Kind) []KindDirective {
	return r.kinds[k]
}
