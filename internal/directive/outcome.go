package directive

import "github.com/weftml/weft/internal/model"

// Action identifies the single structural result of a directive invocation.
type Action int

const (
	// ActionNone means the directive made no structural request.
	ActionNone Action = iota

	// ActionIterate starts iterated gathering of the element's subtree.
	ActionIterate
	// ActionSetBodyText replaces the element body with literal text.
	ActionSetBodyText
	// ActionSetBodyModel replaces the element body with a model.
	ActionSetBodyModel
	// ActionInsertBefore inserts a model before the element.
	ActionInsertBefore
	// ActionInsertAfter inserts a model immediately after the open tag.
	ActionInsertAfter
	// ActionReplaceWithText replaces the whole element with literal text.
	ActionReplaceWithText
	// ActionReplaceWithModel replaces the whole element with a model.
	ActionReplaceWithModel
	// ActionRemoveElement removes the element including its body.
	ActionRemoveElement
	// ActionRemoveTags removes the tags only, unwrapping the body.
	ActionRemoveTags
	// ActionRemoveBody removes the body, keeping the tags.
	ActionRemoveBody
	// ActionRemoveAllButFirstChild removes every child element occurrence
	// after the first.
	ActionRemoveAllButFirstChild

	// ActionSetContent replaces the content of a non-element event.
	ActionSetContent
	// ActionRemoveEvent drops a non-element event.
	ActionRemoveEvent

	// ActionInsertText injects literal text at a template boundary.
	ActionInsertText
	// ActionInsertModel injects a model at a template boundary.
	ActionInsertModel
)

// String returns the action name for diagnostics.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionIterate:
		return "iterate"
	case ActionSetBodyText:
		return "set-body-text"
	case ActionSetBodyModel:
		return "set-body-model"
	case ActionInsertBefore:
		return "insert-before"
	case ActionInsertAfter:
		return "insert-after"
	case ActionReplaceWithText:
		return "replace-with-text"
	case ActionReplaceWithModel:
		return "replace-with-model"
	case ActionRemoveElement:
		return "remove-element"
	case ActionRemoveTags:
		return "remove-tags"
	case ActionRemoveBody:
		return "remove-body"
	case ActionRemoveAllButFirstChild:
		return "remove-all-but-first-child"
	case ActionSetContent:
		return "set-content"
	case ActionRemoveEvent:
		return "remove-event"
	case ActionInsertText:
		return "insert-text"
	case ActionInsertModel:
		return "insert-model"
	}
	return "unknown"
}

// ScopeOpKind identifies one scope mutation request.
type ScopeOpKind int

const (
	// ScopeSetVariable binds a variable at the current level.
	ScopeSetVariable ScopeOpKind = iota + 1
	// ScopeRemoveVariable masks a variable at the current level.
	ScopeRemoveVariable
	// ScopeSetSelectionTarget sets the selection target.
	ScopeSetSelectionTarget
	// ScopeSetInliner sets the inliner.
	ScopeSetInliner
	// ScopeSetTemplateData sets template-scoped data.
	ScopeSetTemplateData
)

// ScopeOp is one requested scope mutation. Ops apply in request order,
// independently of the structural action.
type ScopeOp struct {
	Kind  ScopeOpKind
	Name  string
	Value any
}

// AttrOp is one requested attribute mutation on the working element.
type AttrOp struct {
	Remove bool
	Name   string
	Value  string
}

// Outcome is the per-invocation record a directive populates. The engine
// resets it before every invocation, so directives never see stale state.
//
// At most one structural action may be set per invocation; a second one
// flags a conflict that the engine turns into a fatal error. Scope and
// attribute mutations are independent of the structural action and of each
// other.
type Outcome struct {
	action      Action
	conflict    bool
	conflictTwo Action

	text        string
	mdl         *model.Model
	processable bool

	iterVar   string
	statusVar string
	iterSrc   any

	scopeOps []ScopeOp
	attrOps  []AttrOp
}

// Reset clears the outcome for the next invocation, keeping backing slices.
func (o *Outcome) Reset() {
	o.action = ActionNone
	o.conflict = false
	o.conflictTwo = ActionNone
	o.text = ""
	o.mdl = nil
	o.processable = false
	o.iterVar = ""
	o.statusVar = ""
	o.iterSrc = nil
	o.scopeOps = o.scopeOps[:0]
	o.attrOps = o.attrOps[:0]
}

func (o *Outcome) setAction(a Action) {
	if o.action != ActionNone {
		o.conflict = true
		o.conflictTwo = a
		return
	}
	o.action = a
}

// Iterate requests iterated gathering: the element's subtree is captured
// once and replayed once per item of source, binding iterVar (and, if
// non-empty, statusVar) in a fresh scope level per item.
func (o *Outcome) Iterate(iterVar, statusVar string, source any) {
	o.setAction(ActionIterate)
	o.iterVar = iterVar
	o.statusVar = statusVar
	o.iterSrc = source
}

// SetBodyText replaces the element body with literal text.
func (o *Outcome) SetBodyText(text string, processable bool) {
	o.setAction(ActionSetBodyText)
	o.text = text
	o.processable = processable
}

// SetBodyModel replaces the element body with a model.
func (o *Outcome) SetBodyModel(m *model.Model, processable bool) {
	o.setAction(ActionSetBodyModel)
	o.mdl = m
	o.processable = processable
}

// InsertBefore inserts a model before the element. The model is never
// re-processed: it goes straight to the sink.
func (o *Outcome) InsertBefore(m *model.Model) {
	o.setAction(ActionInsertBefore)
	o.mdl = m
	o.processable = false
}

// InsertAfter inserts a model immediately after the element's open tag,
// before any existing body queue.
func (o *Outcome) InsertAfter(m *model.Model, processable bool) {
	o.setAction(ActionInsertAfter)
	o.mdl = m
	o.processable = processable
}

// ReplaceWithText replaces the whole element with literal text.
func (o *Outcome) ReplaceWithText(text string, processable bool) {
	o.setAction(ActionReplaceWithText)
	o.text = text
	o.processable = processable
}

// ReplaceWithModel replaces the whole element with a model.
func (o *Outcome) ReplaceWithModel(m *model.Model, processable bool) {
	o.setAction(ActionReplaceWithModel)
	o.mdl = m
	o.processable = processable
}

// RemoveElement removes the element and its whole body.
func (o *Outcome) RemoveElement() {
	o.setAction(ActionRemoveElement)
}

// RemoveTags removes the element's tags, leaving the body in place.
func (o *Outcome) RemoveTags() {
	o.setAction(ActionRemoveTags)
}

// RemoveBody removes the element's body, keeping the tags. Open elements
// only.
func (o *Outcome) RemoveBody() {
	o.setAction(ActionRemoveBody)
}

// RemoveAllButFirstChild removes every child element occurrence after the
// first. Open elements only.
func (o *Outcome) RemoveAllButFirstChild() {
	o.setAction(ActionRemoveAllButFirstChild)
}

// SetContent replaces the content of a non-element event.
func (o *Outcome) SetContent(text string) {
	o.setAction(ActionSetContent)
	o.text = text
}

// RemoveEvent drops a non-element event, along with any replacement a
// previous directive queued for it.
func (o *Outcome) RemoveEvent() {
	o.setAction(ActionRemoveEvent)
}

// InsertText injects literal text at a template boundary.
func (o *Outcome) InsertText(text string, processable bool) {
	o.setAction(ActionInsertText)
	o.text = text
	o.processable = processable
}

// InsertModel injects a model at a template boundary.
func (o *Outcome) InsertModel(m *model.Model, processable bool) {
	o.setAction(ActionInsertModel)
	o.mdl = m
	o.processable = processable
}

// SetVariable requests binding a variable at the current scope level.
func (o *Outcome) SetVariable(name string, value any) {
	o.scopeOps = append(o.scopeOps, ScopeOp{Kind: ScopeSetVariable, Name: name, Value: value})
}

// RemoveVariable requests masking a variable at the current scope level.
func (o *Outcome) RemoveVariable(name string) {
	o.scopeOps = append(o.scopeOps, ScopeOp{Kind: ScopeRemoveVariable, Name: name})
}

// SetSelectionTarget requests setting the selection target.
func (o *Outcome) SetSelectionTarget(target any) {
	o.scopeOps = append(o.scopeOps, ScopeOp{Kind: ScopeSetSelectionTarget, Value: target})
}

// SetInliner requests setting the inliner.
func (o *Outcome) SetInliner(inliner any) {
	o.scopeOps = append(o.scopeOps, ScopeOp{Kind: ScopeSetInliner, Value: inliner})
}

// SetTemplateData requests setting template-scoped data.
func (o *Outcome) SetTemplateData(data any) {
	o.scopeOps = append(o.scopeOps, ScopeOp{Kind: ScopeSetTemplateData, Value: data})
}

// SetAttribute requests setting an attribute on the working element.
func (o *Outcome) SetAttribute(name, value string) {
	o.attrOps = append(o.attrOps, AttrOp{Name: name, Value: value})
}

// RemoveAttribute requests removing an attribute from the working element.
func (o *Outcome) RemoveAttribute(name string) {
	o.attrOps = append(o.attrOps, AttrOp{Remove: true, Name: name})
}

// Action returns the structural action set by the directive.
func (o *Outcome) Action() Action {
	return o.action
}

// Conflict reports whether more than one structural action was set, and
// which two collided.
func (o *Outcome) Conflict() (first, second Action, conflicted bool) {
	return o.action, o.conflictTwo, o.conflict
}

// Text returns the literal text payload of the structural action.
func (o *Outcome) Text() string {
	return o.text
}

// Model returns the model payload of the structural action.
func (o *Outcome) Model() *model.Model {
	return o.mdl
}

// Processable reports whether the structural payload should be replayed
// through the engine (true) or forwarded straight to the sink (false).
func (o *Outcome) Processable() bool {
	return o.processable
}

// Iteration returns the iteration request payload.
func (o *Outcome) Iteration() (iterVar, statusVar string, source any) {
	return o.iterVar, o.statusVar, o.iterSrc
}

// ScopeOps returns the requested scope mutations, in request order.
func (o *Outcome) ScopeOps() []ScopeOp {
	return o.scopeOps
}

// AttrOps returns the requested attribute mutations, in request order.
func (o *Outcome) AttrOps() []AttrOp {
	return o.attrOps
}
