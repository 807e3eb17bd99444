package engine

import (
	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
)

// handleNonElement processes text, comments, CDATA, DOCTYPEs, XML
// declarations and processing instructions. One loop serves all six kinds:
// the directive list is keyed by kind and the outcome vocabulary is the
// same for each (replace content, remove, replace with text or model).
func (e *Engine) handleNonElement(ev event.Event) error {
	if !e.controller.ShouldProcessNonElement(ev) {
		return nil
	}

	// Track the last processed text event for the iteration
	// preceding-whitespace rule. The copy is required: the source may
	// reuse its buffer on the next call.
	if ev.Kind == event.KindText {
		c := ev.Clone()
		e.lastText = &c
	} else {
		e.lastText = nil
	}

	dirs := e.reg.KindDirectives(ev.Kind)
	if len(dirs) == 0 {
		return e.sink.Handle(ev)
	}

	working := ev.Clone()
	discard := false
	var queue *model.Model
	var queueProcessable bool
	var out directive.Outcome

	for _, d := range dirs {
		if discard {
			break
		}
		out.Reset()
		if err := d.ProcessEvent(e.ctx(), &working, &out); err != nil {
			return locateDirectiveError(err, working.Template, working.Line, working.Col)
		}
		if err := checkConflict(&out, working); err != nil {
			return err
		}

		e.applyScopeOps(out.ScopeOps())

		switch out.Action() {
		case directive.ActionNone:
		case directive.ActionSetContent:
			working.Text = out.Text()
		case directive.ActionReplaceWithText:
			queue = model.New()
			queue.Add(textEvent(out.Text(), working))
			queueProcessable = out.Processable()
			discard = true
		case directive.ActionReplaceWithModel:
			queue = model.New()
			queue.AddModel(out.Model())
			queueProcessable = out.Processable()
			discard = true
		case directive.ActionRemoveEvent:
			// Removal also drops any replacement queued so far.
			queue = nil
			discard = true
		default:
			return newProcessingError(ErrCodeOutcomeConflict,
				working.Template, working.Line, working.Col,
				"structural outcome %s is not applicable to %s events", out.Action(), working.Kind)
		}
	}

	if !discard {
		if err := e.sink.Handle(working); err != nil {
			return err
		}
	}

	// The replacement replays whether or not the original was forwarded.
	if queue != nil {
		if queueProcessable {
			return queue.Process(e)
		}
		return queue.Process(e.sink)
	}
	return nil
}
