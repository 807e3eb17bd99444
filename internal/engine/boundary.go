package engine

import (
	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/event"
	"github.com/weftml/weft/internal/model"
)

// handleTemplateStart runs boundary directives, forwards the start event
// and replays any injected leading model after it.
func (e *Engine) handleTemplateStart(ev event.Event) error {
	// Record the scope depth the render must return to.
	e.initialScopeDepth = e.scopes.Depth()

	e.log.Debug("render start",
		"render_id", e.renderID,
		"template", e.templateName,
	)

	dirs := e.reg.KindDirectives(event.KindTemplateStart)
	if len(dirs) == 0 {
		return e.sink.Handle(ev)
	}

	working := ev.Clone()
	queue, processable, err := e.runBoundaryDirectives(dirs, &working)
	if err != nil {
		return err
	}

	if err := e.sink.Handle(working); err != nil {
		return err
	}

	// Leading model replays after the boundary event itself.
	if queue != nil {
		return e.replayBoundaryQueue(queue, processable)
	}
	return nil
}

// handleTemplateEnd runs boundary directives, replays any injected trailing
// model before the end event, forwards it, and then verifies the render's
// consistency invariants. The checks run on every path, fast or not: a
// depth that did not return to its start value is a fatal bug, never
// something to pass through quietly.
func (e *Engine) handleTemplateEnd(ev event.Event) error {
	dirs := e.reg.KindDirectives(event.KindTemplateEnd)
	if len(dirs) > 0 {
		working := ev.Clone()
		queue, processable, err := e.runBoundaryDirectives(dirs, &working)
		if err != nil {
			return err
		}
		// Trailing model replays before the boundary event.
		if queue != nil {
			if err := e.replayBoundaryQueue(queue, processable); err != nil {
				return err
			}
		}
		if err := e.sink.Handle(working); err != nil {
			return err
		}
	} else {
		if err := e.sink.Handle(ev); err != nil {
			return err
		}
	}

	if e.level >= 0 {
		return newProcessingError(ErrCodeStructure, ev.Template, ev.Line, ev.Col,
			"bad markup or processing sequence: execution level is >= 0 (%d) at template end", e.level)
	}
	if ml := e.controller.ModelLevel(); ml != 0 {
		return newProcessingError(ErrCodeStructure, ev.Template, ev.Line, ev.Col,
			"bad markup or processing sequence: model level is != 0 (%d) at template end", ml)
	}
	if d := e.scopes.Depth(); d != e.initialScopeDepth {
		return newProcessingError(ErrCodeStructure, ev.Template, ev.Line, ev.Col,
			"bad markup or processing sequence: scope depth after render (%d) does not match depth before render (%d)", d, e.initialScopeDepth)
	}

	e.log.Debug("render end", "render_id", e.renderID)
	return nil
}

// runBoundaryDirectives runs the directive loop shared by both template
// boundaries: scope mutations apply, and at most the last insertion wins
// the queue.
func (e *Engine) runBoundaryDirectives(dirs []directive.KindDirective, working *event.Event) (*model.Model, bool, error) {
	var queue *model.Model
	var processable bool
	var out directive.Outcome

	for _, d := range dirs {
		out.Reset()
		if err := d.ProcessEvent(e.ctx(), working, &out); err != nil {
			return nil, false, locateDirectiveError(err, working.Template, working.Line, working.Col)
		}
		if err := checkConflict(&out, *working); err != nil {
			return nil, false, err
		}

		e.applyScopeOps(out.ScopeOps())

		switch out.Action() {
		case directive.ActionNone:
		case directive.ActionInsertText:
			queue = model.New()
			queue.Add(textEvent(out.Text(), *working))
			processable = out.Processable()
		case directive.ActionInsertModel:
			queue = model.New()
			queue.AddModel(out.Model())
			processable = out.Processable()
		default:
			return nil, false, newProcessingError(ErrCodeOutcomeConflict,
				working.Template, working.Line, working.Col,
				"structural outcome %s is not applicable to %s events", out.Action(), working.Kind)
		}
	}
	return queue, processable, nil
}

func (e *Engine) replayBoundaryQueue(queue *model.Model, processable bool) error {
	if processable {
		return queue.Process(e)
	}
	return queue.Process(e.sink)
}
