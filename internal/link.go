package internal

// link is a directed producer → consumer edge. It is threaded through
// two intrusive lists at once: the subscriber's dependency list
// (nextDep, singly linked with a tail cursor) and the producer's
// subscriber list (prevSub/nextSub, doubly linked). ver records the
// producer's version at the moment the subscriber last consumed it;
// a producer whose current version differs has changed underneath us.
type link struct {
	dep *Signal
	sub *Computed

	ver uint64

	nextDep *link

	prevSub *link
	nextSub *link
}

// newLink takes a link from the runtime's free list, falling back to
// the allocator. Dependency sets churn on every evaluation, so links
// are recycled rather than garbage.
func (r *Runtime) newLink() *link {
	if l := r.linkPool; l != nil {
		r.linkPool = l.nextDep
		l.nextDep = nil
		return l
	}
	return &link{}
}

func (r *Runtime) freeLink(l *link) {
	*l = link{nextDep: r.linkPool}
	r.linkPool = l
}

// linkDep records that sub read dep during its current evaluation.
//
// While sub is recomputing, its depsTail acts as a cursor into last
// run's dependency list: if the next candidate link already points at
// dep, the link is reused in place and only its observed version is
// refreshed. Dependencies that repeat in the same order across runs
// (the overwhelmingly common case) therefore allocate nothing.
func (r *Runtime) linkDep(dep *Signal, sub *Computed) {
	// already tracked as the most recent dependency
	if sub.depsTail != nil && sub.depsTail.dep == dep {
		sub.depsTail.ver = dep.ver
		return
	}

	var nextDep *link
	if sub.flags.has(flagRunning) {
		if sub.depsTail != nil {
			nextDep = sub.depsTail.nextDep
		} else {
			nextDep = sub.depsHead
		}

		if nextDep != nil && nextDep.dep == dep {
			nextDep.ver = dep.ver
			sub.depsTail = nextDep
			return
		}
	}

	l := r.newLink()
	l.dep = dep
	l.sub = sub
	l.ver = dep.ver
	l.nextDep = nextDep

	if sub.depsTail != nil {
		sub.depsTail.nextDep = l
	} else {
		sub.depsHead = l
	}
	sub.depsTail = l

	l.prevSub = dep.subsTail
	if dep.subsTail != nil {
		dep.subsTail.nextSub = l
	} else {
		dep.subsHead = l
	}
	dep.subsTail = l
}

// unlinkSub detaches l from its producer's subscriber list, recycles
// it, and returns the next dependency link.
func (r *Runtime) unlinkSub(l *link) *link {
	dep := l.dep
	nextDep := l.nextDep

	if l.nextSub != nil {
		l.nextSub.prevSub = l.prevSub
	} else {
		dep.subsTail = l.prevSub
	}

	if l.prevSub != nil {
		l.prevSub.nextSub = l.nextSub
	} else {
		dep.subsHead = l.nextSub
	}

	r.freeLink(l)
	return nextDep
}

// trimDeps drops every dependency link after sub's tail cursor. At the
// end of an evaluation these are exactly the dependencies the previous
// run had and this run did not touch; a branch not taken this time
// stops propagating here.
func (r *Runtime) trimDeps(sub *Computed) {
	var toRemove *link
	if sub.depsTail != nil {
		toRemove = sub.depsTail.nextDep
		sub.depsTail.nextDep = nil
	} else {
		toRemove = sub.depsHead
		sub.depsHead = nil
	}

	for toRemove != nil {
		toRemove = r.unlinkSub(toRemove)
	}
}

// clearDeps removes all dependencies
func (r *Runtime) clearDeps(sub *Computed) {
	sub.depsTail = nil
	r.trimDeps(sub)
}

// clearSubs severs the producer side on disposal. Surviving consumers
// are left dirty so their next read recomputes against live inputs.
func (r *Runtime) clearSubs(p *Signal) {
	for l := p.subsHead; l != nil; {
		next := l.nextSub
		sub := l.sub

		removeDepLink(sub, l)
		r.freeLink(l)
		r.mark(sub, flagDirty)

		l = next
	}
	p.subsHead = nil
	p.subsTail = nil
}

// removeDepLink unsplices target from sub's dependency list. Cold
// path: only disposal reaches for it, so the scan is fine.
func removeDepLink(sub *Computed, target *link) {
	var prev *link
	for l := sub.depsHead; l != nil; prev, l = l, l.nextDep {
		if l != target {
			continue
		}

		if prev != nil {
			prev.nextDep = l.nextDep
		} else {
			sub.depsHead = l.nextDep
		}
		if sub.depsTail == target {
			sub.depsTail = prev
		}
		return
	}
}
