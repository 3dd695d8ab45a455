package engine

import "context"

// mergeRuns k-way merges runs into emit, closing and removing each run
// as it is exhausted.  The minimum is found by a linear scan over the
// live runs with ties going to the lowest run index, which keeps the
// output deterministic.  All runs must have been finished (lookahead
// primed) before the call.
func (e *Engine) mergeRuns(ctx context.Context, runs []*runFile, emit func([]byte) error) error {
	live := make([]*runFile, 0, len(runs))
	for _, r := range runs {
		if _, ok := r.peek(); !ok {
			if err := e.removeRun(r); err != nil {
				return err
			}
			continue
		}
		live = append(live, r)
	}
	for len(live) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		minIndex := 0
		minRec, _ := live[0].peek()
		for i := 1; i < len(live); i++ {
			rec, _ := live[i].peek()
			if e.cmp(rec, minRec) < 0 {
				minIndex, minRec = i, rec
			}
		}
		if err := emit(minRec); err != nil {
			return err
		}
		r := live[minIndex]
		if err := r.advance(); err != nil {
			return err
		}
		if _, ok := r.peek(); !ok {
			if err := e.removeRun(r); err != nil {
				return err
			}
			live = append(live[:minIndex], live[minIndex+1:]...)
		}
	}
	return nil
}

// preMerge merges every live run into a single fresh run, restoring
// headroom under the fan-in limit.  It costs an extra pass over the
// spilled data but bounds the number of simultaneously open files
// independent of input size.
func (e *Engine) preMerge(ctx context.Context) error {
	runs := e.liveRuns()
	merged, err := createRun(e.conf.TempDir)
	if err != nil {
		return err
	}
	if err := e.addRun(merged); err != nil {
		merged.closeAndRemove()
		return err
	}
	if err := e.mergeRuns(ctx, runs, merged.write); err != nil {
		return err
	}
	return merged.finish()
}
