package internal

type Batcher struct {
	// each nested batch increases the depth by 1
	// if depth > 0, watcher runs are held until the outermost batch completes
	depth int
}

func NewBatcher() *Batcher {
	return &Batcher{
		depth: 0,
	}
}

func (b *Batcher) IsBatching() bool {
	return b.depth > 0
}

func (b *Batcher) Batch(fn, onComplete func()) {
	b.depth++
	defer func() {
		b.depth--
		if b.depth == 0 && onComplete != nil {
			onComplete()
		}
	}()

	fn()
}

// NewBatch runs fn inside a batch scope. Writes apply immediately and
// are visible to reads within the batch; watchers drain when the
// outermost batch ends. Nested batches flatten.
func (r *Runtime) NewBatch(fn func()) {
	r.enter()
	defer r.exit()

	r.batcher.Batch(fn, r.Flush)
}
