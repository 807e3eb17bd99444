package engine

import (
	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
)

// handleStandaloneElement runs the element directive loop for a tag with no
// body. A standalone occurrence can still suspend: a body-setting outcome
// synthesizes an equivalent open/close pair and replays it, and an iterate
// outcome completes its (trivial) gathering immediately.
func (e *Engine) handleStandaloneElement(ev event.Event) error {
	if !e.controller.ShouldProcessStandalone(ev) {
		return nil
	}

	// The last-text pointer feeds the iteration whitespace rule for this
	// very tag, then resets.
	lastText := e.lastText
	e.lastText = nil

	wasSuspended := e.level >= 0 && e.levels[e.level].suspended

	if !wasSuspended && !e.reg.HasElementDirectives(ev) {
		// Fast path: no level, but the scope still brackets the tag.
		e.scopes.Increase()
		err := e.sink.Handle(ev)
		e.scopes.Decrease()
		return err
	}

	lvl, _ := e.resumeOrPush(ev)

	e.scopes.Increase()

	working := ev.Clone()
	var out directive.Outcome

	for !lvl.discardEvent {
		entry, ok := lvl.cursor.Next()
		if !ok {
			break
		}
		out.Reset()

		switch {
		case entry.Tag != nil:
			if err := entry.Tag.ProcessTag(e.ctx(), &working, &out); err != nil {
				return locateDirectiveError(err, working.Template, working.Line, working.Col)
			}
			if err := checkConflict(&out, working); err != nil {
				return err
			}
			e.applyScopeOps(out.ScopeOps())
			applyAttrOps(&working, out.AttrOps())

			done, err := e.applyStandaloneOutcome(lvl, &working, &out, lastText)
			if err != nil {
				return err
			}
			if done {
				return nil
			}

		case entry.Model != nil:
			// Standalone subtree == the tag itself, so there is nothing
			// to gather: single-phase invocation.
			if err := e.runModelDirectiveOnStandalone(lvl, working, entry.Model, &out); err != nil {
				return err
			}

		default:
			return newProcessingError(ErrCodeUnknownDirective,
				working.Template, working.Line, working.Col,
				"element %q carries a directive entry of no recognized kind", working.Name)
		}
	}

	if lvl.queueBeforeDelegate {
		if err := lvl.queue.Process(e.sink); err != nil {
			return err
		}
	}
	if !lvl.discardEvent {
		if err := e.sink.Handle(working); err != nil {
			return err
		}
	}
	if !lvl.queueBeforeDelegate {
		if err := e.replayQueue(lvl); err != nil {
			return err
		}
	}

	e.scopes.Decrease()
	e.popLevel()
	return nil
}

// applyStandaloneOutcome applies one tag directive outcome on a standalone
// occurrence. done=true means the handler must return immediately: the
// occurrence suspended and a re-entrant call owns the rest of its
// processing.
func (e *Engine) applyStandaloneOutcome(lvl *execLevel, working *event.Event, out *directive.Outcome, lastText *event.Event) (done bool, err error) {
	switch out.Action() {
	case directive.ActionNone:
		return false, nil

	case directive.ActionIterate:
		iterVar, statusVar, source := out.Iteration()
		ws := e.iterationWhitespace(lastText, *working)
		// Replays are self-contained: roll back this call's scope push so
		// each item brackets its own.
		e.scopes.Decrease()
		e.controller.StartIterated(*working, iterVar, statusVar, source, ws)
		lvl.suspended = true
		// Standalone capture is complete the moment it starts.
		g := e.controller.TakeGathered()
		return true, e.processIteration(g)

	case directive.ActionSetBodyText, directive.ActionSetBodyModel:
		lvl.resetQueue()
		if out.Action() == directive.ActionSetBodyText {
			lvl.queue.Add(textEvent(out.Text(), *working))
		} else {
			lvl.queue.AddModel(out.Model())
		}
		lvl.queueProcessable = out.Processable()

		// Suspend and replay the now-equivalent open/close pair; the open
		// resumes this level and emits the queued body.
		lvl.suspended = true
		open, closing := synthesizeOpenClose(*working)
		pm := model.New()
		pm.Add(open)
		pm.Add(closing)
		if err := pm.Process(e); err != nil {
			return true, err
		}
		e.scopes.Decrease()
		return true, nil

	case directive.ActionInsertBefore:
		lvl.resetQueue()
		lvl.queue.AddModel(out.Model())
		// Inserted-before models are never re-processed.
		lvl.queueProcessable = false
		lvl.queueBeforeDelegate = true
		return false, nil

	case directive.ActionInsertAfter:
		// A pending before-delegate queue makes no sense underneath an
		// after-insertion; drop it. Otherwise respect whatever is queued
		// and prepend.
		if lvl.queueBeforeDelegate {
			lvl.resetQueue()
		}
		lvl.queueProcessable = out.Processable()
		lvl.queue.InsertModel(0, out.Model())
		return false, nil

	case directive.ActionReplaceWithText:
		lvl.resetQueue()
		lvl.queueProcessable = out.Processable()
		lvl.queue.Add(textEvent(out.Text(), *working))
		lvl.discardEvent = true
		return false, nil

	case directive.ActionReplaceWithModel:
		lvl.resetQueue()
		lvl.queueProcessable = out.Processable()
		lvl.queue.AddModel(out.Model())
		lvl.discardEvent = true
		return false, nil

	case directive.ActionRemoveElement:
		lvl.resetQueue()
		lvl.discardEvent = true
		return false, nil

	case directive.ActionRemoveTags:
		lvl.discardEvent = true
		return false, nil

	case directive.ActionRemoveBody, directive.ActionRemoveAllButFirstChild:
		// A standalone tag has no body; nothing to do.
		return false, nil

	default:
		return false, newProcessingError(ErrCodeOutcomeConflict,
			working.Template, working.Line, working.Col,
			"structural outcome %s is not applicable to %s events", out.Action(), working.Kind)
	}
}

// runModelDirectiveOnStandalone invokes a whole-subtree directive on a
// standalone tag and applies its result as a processable whole-model
// replacement.
func (e *Engine) runModelDirectiveOnStandalone(lvl *execLevel, working event.Event, d directive.ModelDirective, out *directive.Outcome) error {
	if lvl.queue.Size() > 0 {
		return newProcessingError(ErrCodeBodyModified,
			working.Template, working.Line, working.Col,
			"cannot run whole-subtree directive on %q: the body was already modified by an earlier directive on the same tag", working.Name)
	}

	pm := model.New()
	pm.Add(working)
	if err := d.ProcessModel(e.ctx(), pm, out); err != nil {
		return locateDirectiveError(err, working.Template, working.Line, working.Col)
	}
	if err := e.applyModelDirectiveOutcome(working, out); err != nil {
		return err
	}

	lvl.resetQueue()
	lvl.queueProcessable = true
	lvl.queue.AddModel(pm)
	lvl.discardEvent = true
	return nil
}

// applyModelDirectiveOutcome applies the non-structural part of a
// whole-subtree directive's outcome. Whole-subtree directives express their
// structural result by mutating the model they were handed; a structural
// action on top of that is a directive bug.
func (e *Engine) applyModelDirectiveOutcome(working event.Event, out *directive.Outcome) error {
	if err := checkConflict(out, working); err != nil {
		return err
	}
	if out.Action() != directive.ActionNone {
		return newProcessingError(ErrCodeOutcomeConflict,
			working.Template, working.Line, working.Col,
			"whole-subtree directives rewrite their model; structural outcome %s is not applicable", out.Action())
	}
	e.applyScopeOps(out.ScopeOps())
	return nil
}

// handleOpenElement runs the element directive loop for an open tag.
func (e *Engine) handleOpenElement(ev event.Event) error {
	if e.maxDepth > 0 && e.controller.EffectiveDepth() >= e.maxDepth {
		return newProcessingError(ErrCodeDepthExceeded, ev.Template, ev.Line, ev.Col,
			"markup nesting exceeds the configured limit (%d)", e.maxDepth)
	}

	if !e.controller.ShouldProcessOpen(ev) {
		return nil
	}

	lastText := e.lastText
	e.lastText = nil

	wasSuspended := e.level >= 0 && e.levels[e.level].suspended

	if !wasSuspended && !e.reg.HasElementDirectives(ev) {
		return e.sink.Handle(ev)
	}

	lvl, _ := e.resumeOrPush(ev)

	working := ev.Clone()
	var out directive.Outcome

	for !lvl.discardEvent {
		entry, ok := lvl.cursor.Next()
		if !ok {
			break
		}
		out.Reset()

		switch {
		case entry.Tag != nil:
			if err := entry.Tag.ProcessTag(e.ctx(), &working, &out); err != nil {
				return locateDirectiveError(err, working.Template, working.Line, working.Col)
			}
			if err := checkConflict(&out, working); err != nil {
				return err
			}
			e.applyScopeOps(out.ScopeOps())
			applyAttrOps(&working, out.AttrOps())

			suspendedNow, err := e.applyOpenOutcome(lvl, &working, &out, lastText)
			if err != nil {
				return err
			}
			if suspendedNow {
				// Gathering owns every event from here to the matching
				// close; the suspended level waits for the replay.
				return nil
			}

		case entry.Model != nil:
			suspendedNow, err := e.runModelDirectiveOnOpen(lvl, working, entry.Model, &out)
			if err != nil {
				return err
			}
			if suspendedNow {
				return nil
			}

		default:
			return newProcessingError(ErrCodeUnknownDirective,
				working.Template, working.Line, working.Col,
				"element %q carries a directive entry of no recognized kind", working.Name)
		}
	}

	if lvl.queueBeforeDelegate {
		if err := lvl.queue.Process(e.sink); err != nil {
			return err
		}
	}
	if !lvl.discardEvent {
		if err := e.sink.Handle(working); err != nil {
			return err
		}
	}
	if !lvl.queueBeforeDelegate {
		if err := e.replayQueue(lvl); err != nil {
			return err
		}
	}

	// Body skip applies only after the queue has replayed: the queue is
	// this occurrence's output, the body is what gets suppressed.
	e.controller.SetSkip(lvl.skipBody, lvl.skipCloseTag)

	e.popLevel()
	return nil
}

// applyOpenOutcome applies one tag directive outcome on an open
// occurrence. suspended=true means gathering started and the handler must
// return without forwarding anything.
func (e *Engine) applyOpenOutcome(lvl *execLevel, working *event.Event, out *directive.Outcome, lastText *event.Event) (suspended bool, err error) {
	switch out.Action() {
	case directive.ActionNone:
		return false, nil

	case directive.ActionIterate:
		iterVar, statusVar, source := out.Iteration()
		ws := e.iterationWhitespace(lastText, *working)
		e.controller.StartIterated(*working, iterVar, statusVar, source, ws)
		lvl.suspended = true
		return true, nil

	case directive.ActionSetBodyText:
		lvl.resetQueue()
		lvl.queueProcessable = out.Processable()
		lvl.queue.Add(textEvent(out.Text(), *working))
		lvl.skipBody = SkipAll
		return false, nil

	case directive.ActionSetBodyModel:
		lvl.resetQueue()
		lvl.queueProcessable = out.Processable()
		lvl.queue.AddModel(out.Model())
		lvl.skipBody = SkipAll
		return false, nil

	case directive.ActionInsertBefore:
		lvl.resetQueue()
		lvl.queue.AddModel(out.Model())
		lvl.queueProcessable = false
		lvl.queueBeforeDelegate = true
		return false, nil

	case directive.ActionInsertAfter:
		if lvl.queueBeforeDelegate {
			lvl.resetQueue()
		}
		lvl.queueProcessable = out.Processable()
		lvl.queue.InsertModel(0, out.Model())
		return false, nil

	case directive.ActionReplaceWithText:
		lvl.resetQueue()
		lvl.queueProcessable = out.Processable()
		lvl.queue.Add(textEvent(out.Text(), *working))
		lvl.discardEvent = true
		lvl.skipBody = SkipAll
		lvl.skipCloseTag = true
		return false, nil

	case directive.ActionReplaceWithModel:
		lvl.resetQueue()
		lvl.queueProcessable = out.Processable()
		lvl.queue.AddModel(out.Model())
		lvl.discardEvent = true
		lvl.skipBody = SkipAll
		lvl.skipCloseTag = true
		return false, nil

	case directive.ActionRemoveElement:
		lvl.resetQueue()
		lvl.discardEvent = true
		lvl.skipBody = SkipAll
		lvl.skipCloseTag = true
		return false, nil

	case directive.ActionRemoveTags:
		// Body is preserved and unwrapped: only the tags disappear.
		lvl.discardEvent = true
		lvl.skipCloseTag = true
		return false, nil

	case directive.ActionRemoveBody:
		lvl.resetQueue()
		lvl.skipBody = SkipAll
		return false, nil

	case directive.ActionRemoveAllButFirstChild:
		lvl.resetQueue()
		lvl.skipBody = SkipAllButFirstChild
		return false, nil

	default:
		return false, newProcessingError(ErrCodeOutcomeConflict,
			working.Template, working.Line, working.Col,
			"structural outcome %s is not applicable to %s events", out.Action(), working.Kind)
	}
}

// runModelDirectiveOnOpen drives the two-phase whole-subtree protocol on an
// open tag. The first invocation starts delayed gathering, marks the cursor
// to repeat the same directive, and suspends with no output. The repeat
// invocation receives the completed capture and applies its result as a
// processable whole-model replacement.
func (e *Engine) runModelDirectiveOnOpen(lvl *execLevel, working event.Event, d directive.ModelDirective, out *directive.Outcome) (suspended bool, err error) {
	if !lvl.cursor.LastWasRepeated() {
		if lvl.queue.Size() > 0 {
			return false, newProcessingError(ErrCodeBodyModified,
				working.Template, working.Line, working.Col,
				"cannot run whole-subtree directive on %q: the body was already modified by an earlier directive on the same tag", working.Name)
		}

		e.controller.StartDelayed(working)
		lvl.cursor.RepeatCurrent()
		lvl.suspended = true
		return true, nil
	}

	// Second phase: the capture replay resumed this occurrence and the
	// gathered pointer carries the subtree.
	pm := e.gathered
	e.gathered = nil
	if pm == nil {
		return false, newProcessingError(ErrCodeStructure,
			working.Template, working.Line, working.Col,
			"whole-subtree directive on %q resumed without a gathered model", working.Name)
	}

	if err := d.ProcessModel(e.ctx(), pm, out); err != nil {
		return false, locateDirectiveError(err, working.Template, working.Line, working.Col)
	}
	if err := e.applyModelDirectiveOutcome(working, out); err != nil {
		return false, err
	}

	lvl.resetQueue()
	lvl.queueProcessable = true
	lvl.queue.AddModel(pm)
	lvl.discardEvent = true
	lvl.skipBody = SkipAll
	lvl.skipCloseTag = true
	return false, nil
}

// handleCloseElement closes the bracket its open started. Matched closes
// never run directives; unmatched closes skip the level stack entirely.
func (e *Engine) handleCloseElement(ev event.Event) error {
	if ev.Unmatched {
		if !e.controller.ShouldProcessUnmatchedClose(ev) {
			return nil
		}
		e.lastText = nil
		return e.sink.Handle(ev)
	}

	if !e.controller.gathering() && e.controller.ModelLevel() == 0 {
		return newProcessingError(ErrCodeStructure, ev.Template, ev.Line, ev.Col,
			"bad markup or processing sequence: close tag %q with no open element", ev.Name)
	}

	if !e.controller.ShouldProcessClose(ev) {
		// A swallowed close may be the one that completes a capture.
		if e.controller.GatheringFinished() {
			g := e.controller.TakeGathered()
			switch g.mode {
			case gatherDelayed:
				// Replay the capture: its open tag resumes the suspended
				// level, whose repeated directive reads this pointer; the
				// replayed body and close are then suppressed by the
				// replacement's skip flags.
				e.gathered = g.captured
				return g.captured.Process(e)
			case gatherIterated:
				return e.processIteration(g)
			}
		}
		return nil
	}

	e.lastText = nil
	return e.sink.Handle(ev)
}

// iterationWhitespace returns the whitespace event to replicate before each
// item replay, if the rule applies to this tag.
func (e *Engine) iterationWhitespace(lastText *event.Event, tag event.Event) *event.Event {
	if lastText == nil || !lastText.IsWhitespace() {
		return nil
	}
	if !e.whitespaceApplies(tag) {
		return nil
	}
	return lastText
}
