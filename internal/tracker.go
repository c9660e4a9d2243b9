package internal

// Tracker holds the runtime's current observer frame. During a
// computed's or effect's evaluation the node sits in currentObserver
// and every tracked read links an edge to it.
type Tracker struct {
	tracking bool

	executingGID    int64     // to prevent cross-goroutine tracking issues
	currentOwner    *Owner    // for lifecycle/cleanup tracking
	currentObserver *Computed // for reactive dependency tracking
}

func NewTracker() *Tracker {
	return &Tracker{
		tracking: true,
	}
}

// track registers s as a dependency of the current observer, if any.
func (r *Runtime) track(s *Signal) {
	t := r.tracker
	if t.currentObserver == nil || !t.tracking {
		return
	}
	// make sure we're currently in the same goroutine as the observer
	// to avoid cross-goroutine tracking issues
	if t.executingGID != getGID() {
		return
	}

	r.linkDep(s, t.currentObserver)
}

// RunUntracked runs fn with dependency tracking suppressed. Reads
// still validate; they just don't register edges.
func (t *Tracker) RunUntracked(fn func()) {
	prev := t.tracking
	t.tracking = false
	defer func() { t.tracking = prev }()

	fn()
}
