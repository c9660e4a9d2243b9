package internal

// EffectQueue is the FIFO of watchers waiting for the next drain.
// Duplicate scheduling is coalesced through the watcher's scheduled
// flag, so a watcher sits in the queue at most once per dirty-state.
type EffectQueue struct {
	effects []*Effect
}

func NewEffectQueue() *EffectQueue {
	return &EffectQueue{
		effects: make([]*Effect, 0),
	}
}

func (q *EffectQueue) Enqueue(e *Effect) {
	q.effects = append(q.effects, e)
}

func (q *EffectQueue) Dequeue() *Effect {
	if len(q.effects) == 0 {
		return nil
	}

	e := q.effects[0]
	q.effects[0] = nil
	q.effects = q.effects[1:]

	if len(q.effects) == 0 {
		q.effects = nil
	}

	return e
}

func (q *EffectQueue) Len() int {
	return len(q.effects)
}

// schedule enqueues e for the next drain unless it is already queued.
func (r *Runtime) schedule(e *Effect) {
	if e.flags.has(flagScheduled | flagDisposed) {
		return
	}

	e.flags.set(flagScheduled)
	r.effectQueue.Enqueue(e)
	r.scheduler.Schedule()
}
