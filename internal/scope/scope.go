// Package scope implements the leveled variable environment a render runs
// against.
//
// Levels nest with element nesting: the engine pushes a level when it opens
// an element occurrence and pops it at the matching close. Variable lookups
// walk levels from innermost to outermost; setting a variable at an inner
// level masks the outer binding without touching it, and removing it at the
// inner level restores visibility of the outer one. Selection target,
// inliner and template data follow the same masking discipline.
//
// The depth at template end MUST equal the depth at template start; the
// engine treats any mismatch as a fatal consistency error.
package scope

// removed is the sentinel stored when a variable is masked out at a level
// while an outer level still binds it.
type removed struct{}

var removedMark = removed{}

// level holds the bindings introduced at one nesting depth.
type level struct {
	vars map[string]any

	selectionTarget    any
	hasSelectionTarget bool

	inliner    any
	hasInliner bool

	templateData    any
	hasTemplateData bool
}

// Stack is the variable-scope stack for one render. Not safe for concurrent
// use; each render owns its own instance.
type Stack struct {
	levels []level
}

// New returns a stack with a single base level.
func New() *Stack {
	return &Stack{levels: make([]level, 1, 8)}
}

// Depth returns the current nesting depth. The base level is depth 0.
func (s *Stack) Depth() int {
	return len(s.levels) - 1
}

// Increase pushes a new level.
func (s *Stack) Increase() {
	s.levels = append(s.levels, level{})
}

// Decrease pops the current level, discarding everything bound at it.
// Popping the base level panics: that is always an engine pairing bug, not
// a recoverable condition.
func (s *Stack) Decrease() {
	if len(s.levels) == 1 {
		panic("scope: decrease below base level")
	}
	s.levels = s.levels[:len(s.levels)-1]
}

// Set binds a variable at the current level.
func (s *Stack) Set(name string, value any) {
	top := &s.levels[len(s.levels)-1]
	if top.vars == nil {
		top.vars = make(map[string]any, 4)
	}
	top.vars[name] = value
}

// Remove masks a variable at the current level. Outer bindings reappear
// when the level is popped.
func (s *Stack) Remove(name string) {
	top := &s.levels[len(s.levels)-1]
	if top.vars == nil {
		top.vars = make(map[string]any, 4)
	}
	top.vars[name] = removedMark
}

// Get resolves a variable, innermost level first.
func (s *Stack) Get(name string) (any, bool) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if v, ok := s.levels[i].vars[name]; ok {
			if _, masked := v.(removed); masked {
				return nil, false
			}
			return v, true
		}
	}
	return nil, false
}

// Has reports whether a variable is visible at the current level.
func (s *Stack) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// SetSelectionTarget sets the selection target at the current level.
func (s *Stack) SetSelectionTarget(target any) {
	top := &s.levels[len(s.levels)-1]
	top.selectionTarget = target
	top.hasSelectionTarget = true
}

// SelectionTarget resolves the innermost selection target.
func (s *Stack) SelectionTarget() (any, bool) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if s.levels[i].hasSelectionTarget {
			return s.levels[i].selectionTarget, true
		}
	}
	return nil, false
}

// SetInliner sets the inliner at the current level.
func (s *Stack) SetInliner(inliner any) {
	top := &s.levels[len(s.levels)-1]
	top.inliner = inliner
	top.hasInliner = true
}

// Inliner resolves the innermost inliner.
func (s *Stack) Inliner() (any, bool) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if s.levels[i].hasInliner {
			return s.levels[i].inliner, true
		}
	}
	return nil, false
}

// SetTemplateData sets template-scoped data at the current level.
func (s *Stack) SetTemplateData(data any) {
	top := &s.levels[len(s.levels)-1]
	top.templateData = data
	top.hasTemplateData = true
}

// TemplateData resolves the innermost template-scoped data.
func (s *Stack) TemplateData() (any, bool) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if s.levels[i].hasTemplateData {
			return s.levels[i].templateData, true
		}
	}
	return nil, false
}
