package internal

// Effect is a side-effecting sink. It reuses the Computed machinery
// for tracking and validation; its "value" is never read, the closure
// runs for its side effects and may hand back a cleanup to run before
// the next cycle.
type Effect struct {
	*Computed

	cleanup func()
}

// NewEffect creates an effect and runs it eagerly once. fn may return
// a cleanup function (or nil); the cleanup runs before every re-run
// and once more at dispose.
func (r *Runtime) NewEffect(fn func() func()) *Effect {
	r.enter()
	defer r.exit()

	e := &Effect{}
	e.Computed = r.newComputed(func(*Computed) any {
		e.runCleanup()
		e.cleanup = fn()
		return nil
	}, &ComputedOptions{Name: "effect"})
	e.Computed.watcher = e

	e.OnDispose(func() {
		e.runCleanup()
	})

	r.recompute(e.Computed)

	// the first run may have scheduled work (it can write signals)
	if !r.batcher.IsBatching() {
		r.Flush()
	}

	return e
}

// Dispose stops the effect: children and cleanups run exactly once,
// all incoming edges are unlinked, and a queued run is skipped on
// dequeue. Subsequent writes to its former inputs never reach it.
func (e *Effect) Dispose() {
	r := e.rt
	r.enter()
	defer r.exit()

	e.Owner.Dispose()
}

// runCleanup invokes the cleanup returned by the previous run, in an
// untracked frame. A panicking cleanup is surfaced to the error
// handler chain and does not abort the run.
func (e *Effect) runCleanup() {
	if e.cleanup == nil {
		return
	}
	cleanup := e.cleanup
	e.cleanup = nil

	defer func() {
		if rec := recover(); rec != nil {
			e.rt.surface(e.Owner, asError(rec))
		}
	}()

	e.rt.tracker.RunUntracked(cleanup)
}
