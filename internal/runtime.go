package internal

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/petermattis/goid"
)

var (
	// runtimes holds the default engine context of each goroutine
	runtimes sync.Map
	// engaged maps a goroutine to the runtime it is currently
	// executing inside, so nodes bound to one context keep resolving
	// to it even when their effects run on another goroutine
	engaged sync.Map
)

// GetRuntime returns the engine context for the calling goroutine,
// creating one on first use.
func GetRuntime() *Runtime {
	gid := getGID()

	if r, ok := engaged.Load(gid); ok {
		return r.(*Runtime)
	}
	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r := NewRuntime()
	runtimes.Store(gid, r)
	return r
}

func getGID() int64 {
	return goid.Get()
}

// Runtime is one engine context. All graph state hangs off it: the
// tracking frame, the batch depth, the watcher queue and the link
// pool. A runtime is single-threaded and cooperative; entry points
// from other goroutines serialize on the owning lock.
type Runtime struct {
	mu       sync.Mutex
	ownerGID atomic.Int64
	depth    int

	tracker     *Tracker
	batcher     *Batcher
	scheduler   *Scheduler
	effectQueue *EffectQueue

	linkPool *link
	frames   []validateFrame

	onError func(error)
	settled []func()
}

func NewRuntime() *Runtime {
	return &Runtime{
		tracker:     NewTracker(),
		batcher:     NewBatcher(),
		scheduler:   NewScheduler(),
		effectQueue: NewEffectQueue(),
	}
}

// enter begins an engine operation. Reentry from the same goroutine
// is free; other goroutines wait for the runtime to go idle.
func (r *Runtime) enter() {
	gid := getGID()
	if r.ownerGID.Load() == gid {
		r.depth++
		return
	}

	r.mu.Lock()
	r.ownerGID.Store(gid)
	r.depth = 1
	engaged.Store(gid, r)
}

func (r *Runtime) exit() {
	r.depth--
	if r.depth > 0 {
		return
	}

	gid := r.ownerGID.Load()
	engaged.Delete(gid)
	r.ownerGID.Store(0)
	r.mu.Unlock()
}

// Flush drains the watcher queue until no effect schedules new work.
// Effect panics are caught per watcher, offered to the owner chain,
// and whatever nobody handled is aggregated and delivered once the
// drain is over.
func (r *Runtime) Flush() {
	var errs *multierror.Error

	runErr := r.scheduler.Run(func() {
		// snapshot: watchers scheduled by this round run in the next
		// one, so the scheduler's runaway guard keeps counting
		for n := r.effectQueue.Len(); n > 0; n-- {
			e := r.effectQueue.Dequeue()
			if e == nil {
				return
			}

			e.flags.clear(flagScheduled)
			if e.flags.has(flagDisposed) {
				continue
			}

			func() {
				defer func() {
					if rec := recover(); rec != nil {
						// handlers get the user's error, not the
						// engine's wrapper
						err := asError(rec)
						var closure *ClosureError
						if errors.As(err, &closure) {
							err = closure.Err
						}

						if !e.Owner.catch(err) {
							errs = multierror.Append(errs, err)
						}
					}
				}()

				r.validate(e.Computed)
			}()
		}
	})
	if runErr != nil {
		errs = multierror.Append(errs, runErr)
	}

	if !r.scheduler.IsRunning() {
		r.runSettled()
	}

	if err := errs.ErrorOrNil(); err != nil {
		if r.onError != nil {
			r.onError(err)
		} else {
			panic(err)
		}
	}
}

func (r *Runtime) runSettled() {
	for len(r.settled) > 0 {
		settled := r.settled
		r.settled = nil

		for _, fn := range settled {
			fn()
		}
	}
}

// surface delivers an error that must not abort the current
// operation: the owner chain first, the runtime handler next, the
// log as a last resort.
func (r *Runtime) surface(o *Owner, err error) {
	if o != nil && o.catch(err) {
		return
	}
	if r.onError != nil {
		r.onError(err)
		return
	}
	logger.WithError(err).Warn("unhandled reactive error")
}

// OnCleanup registers fn on the current owner. Outside any owner the
// cleanup has no lifecycle to attach to and is dropped.
func (r *Runtime) OnCleanup(fn func()) {
	r.enter()
	defer r.exit()

	if o := r.tracker.currentOwner; o != nil {
		o.OnCleanup(fn)
	}
}

// OnError registers an error handler on the current owner, or on the
// runtime itself when called outside any owner.
func (r *Runtime) OnError(fn func(error)) {
	r.enter()
	defer r.exit()

	if o := r.tracker.currentOwner; o != nil {
		o.OnError(fn)
		return
	}
	r.onError = fn
}

// OnSettled registers fn to run once, after the next drain finishes.
func (r *Runtime) OnSettled(fn func()) {
	r.enter()
	defer r.exit()

	r.settled = append(r.settled, fn)
}

// Untrack runs fn with dependency tracking suppressed.
func (r *Runtime) Untrack(fn func()) {
	r.enter()
	defer r.exit()

	r.tracker.RunUntracked(fn)
}

// CurrentOwner returns the owner of the computation being evaluated,
// if any.
func (r *Runtime) CurrentOwner() *Owner {
	return r.tracker.currentOwner
}
