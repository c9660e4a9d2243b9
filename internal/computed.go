package internal

import "iter"

// ComputedOptions configures computed behavior.
type ComputedOptions struct {
	Name   string
	Equals EqualsFunc
}

// Computed is a memoized derivation. Its cached output lives in the
// embedded Signal (value, version, subscribers); the Computed itself
// owns the consumer side: the dependency list, the status flags and
// the compute closure. Effects reuse all of this through the watcher
// back-pointer.
type Computed struct {
	*Owner
	*Signal

	flags nodeFlags

	compute func(*Computed) any

	depsHead *link
	depsTail *link

	// watcher is set when this node is the computation of an effect;
	// invalidation schedules it instead of walking subscribers
	watcher *Effect
}

func (r *Runtime) NewComputed(compute func(*Computed) any, opts ...*ComputedOptions) *Computed {
	r.enter()
	defer r.exit()

	return r.newComputed(compute, opts...)
}

func (r *Runtime) newComputed(compute func(*Computed) any, opts ...*ComputedOptions) *Computed {
	c := &Computed{
		Owner:   r.newOwner(),
		Signal:  r.NewSignal(nil),
		compute: compute,
	}
	c.Signal.name = "computed"
	c.Signal.derived = c

	// lazy: nothing runs until the first read
	c.flags = flagDirty

	if len(opts) > 0 && opts[0] != nil {
		if opts[0].Name != "" {
			c.Signal.name = opts[0].Name
		}
		if opts[0].Equals != nil {
			c.Signal.equals = opts[0].Equals
		}
	}

	if parent := r.tracker.currentOwner; parent != nil {
		parent.AddChild(c.Owner)
	}

	c.OnDispose(func() {
		r.clearDeps(c)
		r.clearSubs(c.Signal)
		c.flags = flagDisposed
	})

	return c
}

// Read validates the cached value and returns it, registering a
// dependency on the current observer if there is one.
func (c *Computed) Read() any {
	r := c.rt
	r.enter()
	defer r.exit()

	if c.flags.has(flagDisposed) {
		panic(&DisposedError{Node: c.name})
	}
	if c.flags.has(flagRunning) {
		panic(&CycleError{Node: c.name})
	}

	r.validate(c)
	r.track(c.Signal)

	return c.value
}

// Deps returns an iterator over all dependencies
func (c *Computed) Deps() iter.Seq[*Signal] {
	return func(yield func(*Signal) bool) {
		l := c.depsHead
		for l != nil {
			if !yield(l.dep) {
				return
			}

			l = l.nextDep
		}
	}
}

// invalidate pushes a producer's change downstream: direct consumers
// become dirty, everything further becomes pending. Consumers that
// are already downgraded stop the walk; their descendants were marked
// when they transitioned.
func (r *Runtime) invalidate(p *Signal) {
	for l := p.subsHead; l != nil; l = l.nextSub {
		r.mark(l.sub, flagDirty)
	}
}

func (r *Runtime) mark(c *Computed, state nodeFlags) {
	// a node on the evaluation stack consumes its inputs post-
	// validation; marking it here would only force a spurious re-run
	if c.flags.has(flagRunning | flagDisposed) {
		return
	}
	if c.flags&(flagPending|flagDirty) >= state {
		return
	}

	c.flags.replace(flagPending|flagDirty, state)

	if c.watcher != nil {
		r.schedule(c.watcher)
		return
	}

	for l := c.subsHead; l != nil; l = l.nextSub {
		r.mark(l.sub, flagPending)
	}
}

type validateFrame struct {
	node *Computed
	link *link
}

// validate brings c up to date before its value is handed out. Dirty
// nodes recompute immediately. Pending nodes scan their dependency
// list in order, descending into non-clean derived producers first,
// and only go dirty when a producer's current version has moved past
// the one recorded on the edge; a scan that finds no movement ends
// clean without recomputing. The scan is an explicit worklist so a
// deep chain of pending nodes does not grow the goroutine stack.
func (r *Runtime) validate(c *Computed) {
	if c.flags.has(flagDirty) {
		r.recompute(c)
		return
	}
	if !c.flags.has(flagPending) {
		return
	}

	// take ownership of the scratch stack; recomputes re-enter
	// validate through user reads and must not share it
	frames := r.frames
	r.frames = nil
	if frames == nil {
		frames = make([]validateFrame, 0, 8)
	}

	frames = append(frames, validateFrame{c, c.depsHead})

	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		n := f.node

		if n.flags.has(flagDirty) {
			r.recompute(n)
			frames = frames[:len(frames)-1]
			continue
		}
		if !n.flags.has(flagPending) {
			frames = frames[:len(frames)-1]
			continue
		}

		descended := false
		l := f.link
		for l != nil {
			if d := l.dep.derived; d != nil && d.flags.has(flagPending|flagDirty) {
				// resolve the producer first, then re-compare
				f.link = l
				frames = append(frames, validateFrame{d, d.depsHead})
				descended = true
				break
			}
			if l.dep.ver != l.ver {
				n.flags.replace(flagPending, flagDirty)
				break
			}
			l = l.nextDep
		}
		if descended {
			continue
		}
		if n.flags.has(flagDirty) {
			continue
		}

		// no producer actually changed
		n.flags.clear(flagPending)
		frames = frames[:len(frames)-1]
	}

	r.frames = frames[:0]
}

// recompute evaluates c's closure under tracking and reconciles its
// dependency set. The version bumps only when the new value differs
// under the node's equality predicate; an unchanged output absorbs
// the invalidation and spares everything downstream.
func (r *Runtime) recompute(c *Computed) {
	logger.WithField("node", c.name).Debug("recompute")

	t := r.tracker
	if c.childrenHead != nil || len(c.cleanups) > 0 {
		t.RunUntracked(func() {
			c.DisposeChildren()
			c.runCleanups()
		})
	}

	prevOwner := t.currentOwner
	prevObserver := t.currentObserver
	prevGID := t.executingGID
	t.currentOwner = c.Owner
	t.currentObserver = c
	t.executingGID = getGID()

	c.depsTail = nil
	c.flags.replace(flagPending|flagDirty, flagRunning)

	var value any
	func() {
		defer func() {
			t.currentOwner = prevOwner
			t.currentObserver = prevObserver
			t.executingGID = prevGID

			if rec := recover(); rec != nil {
				// keep the edges tracked so far, drop the stale rest,
				// and leave the node dirty for the next attempt
				r.trimDeps(c)
				c.flags.replace(flagRunning, flagDirty)
				panic(wrapClosureErr(c.name, rec))
			}
		}()

		value = c.compute(c)
	}()

	r.trimDeps(c)
	c.flags.clear(flagRunning)

	if !c.equals(c.value, value) {
		c.value = value
		c.ver++
		r.invalidate(c.Signal)
	}

	// a watcher that wrote one of its own inputs mid-run is stale
	// again already; put it back on the queue
	if c.watcher != nil {
		for l := c.depsHead; l != nil; l = l.nextDep {
			if l.dep.ver != l.ver {
				c.flags.set(flagDirty)
				r.schedule(c.watcher)
				break
			}
		}
	}
}
