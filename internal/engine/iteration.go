package engine

import "github.com/weftml/weft/internal/iterate"

// processIteration replays a completed iterated capture once per item of
// the iteration source.
//
// The suspended execution level on top of the stack belongs to the
// triggering occurrence. Its state (including the cursor position past the
// iterate directive) is snapshotted once; each item replay starts from a
// fresh restore of that snapshot, so no item sees another item's progress.
// The first event of every replay is the triggering tag itself, which
// resumes the suspended level. That is what keeps the iterate directive
// from re-triggering: the cursor continues, it does not restart.
//
// Each item brackets its own variable scope level: pushed before the
// replay, holding only the iteration variable and status, popped after.
// Zero items produce zero output events; the suspended level is simply
// discarded.
func (e *Engine) processIteration(g *gathered) error {
	src := iterate.New(g.source)

	if src.Len() == 0 {
		e.popLevel()
		return nil
	}

	statusName := g.statusVar
	if statusName == "" {
		statusName = g.iterVar + "Stat"
	}

	// The level on top of the stack is the suspended occurrence; keep a
	// snapshot so items after the first (whose replay consumes the level)
	// can restore it.
	snapshot := e.levels[e.level].snapshot()

	for i := 0; i < src.Len(); i++ {
		item, status := src.Item(i)

		if i > 0 {
			restored := e.pushLevel()
			snapshot.copyInto(restored)
		}

		e.scopes.Increase()
		e.scopes.Set(g.iterVar, item)
		e.scopes.Set(statusName, status)

		// Cosmetic only: replicate the preceding whitespace so iterated
		// markup keeps its indentation.
		if g.precedingWhitespace != nil {
			if err := e.sink.Handle(*g.precedingWhitespace); err != nil {
				return err
			}
		}

		if err := g.captured.Process(e); err != nil {
			return err
		}

		e.scopes.Decrease()
	}

	return nil
}
