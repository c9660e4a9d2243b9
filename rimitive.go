// Package rimitive is a reactive dataflow engine: writable signals,
// memoized computeds and re-running effects connected by a dependency
// graph that is tracked automatically during evaluation. Writes push
// invalidation downstream eagerly; reads pull fresh values lazily, so
// a reader never observes a derivation built from inconsistent inputs
// and unchanged intermediate values absorb the notification.
package rimitive

import "github.com/hejhi/rimitive/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// SignalOptions configures a signal. Equals overrides the change
// predicate used to decide whether a write propagates.
type SignalOptions[T any] struct {
	Name   string
	Equals func(a, b T) bool
}

type Signal[T any] struct {
	signal *internal.Signal
}

// NewSignal creates your tipical read/write signal.
func NewSignal[T any](initial T, opts ...SignalOptions[T]) *Signal[T] {
	var o *internal.SignalOptions
	if len(opts) > 0 {
		o = &internal.SignalOptions{
			Name:   opts[0].Name,
			Equals: wrapEquals(opts[0].Equals),
		}
	}

	return &Signal[T]{
		internal.GetRuntime().NewSignal(initial, o),
	}
}

// Read the current value of the signal, tracking the dependency if within a reactive context.
func (s *Signal[T]) Read() T {
	return as[T](s.signal.Read())
}

// Write a new value to the signal, triggering updates to any dependents.
// Writing a value equal to the current one is a no-op.
func (s *Signal[T]) Write(v T) {
	s.signal.Write(v)
}

// Update applies fn to the current value and writes the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.signal.Update(func(v any) any {
		return fn(as[T](v))
	})
}

// ComputedOptions configures a computed. Equals overrides the change
// predicate; a recomputation whose output compares equal keeps the
// old version and nothing downstream re-runs.
type ComputedOptions[T any] struct {
	Name   string
	Equals func(a, b T) bool
}

type Computed[T any] struct {
	computed *internal.Computed
}

// NewComputed creates a computed signal that derives its value from
// other signals (its a memo). Lazy: compute does not run until the
// first read.
func NewComputed[T any](compute func() T, opts ...ComputedOptions[T]) *Computed[T] {
	var o *internal.ComputedOptions
	if len(opts) > 0 {
		o = &internal.ComputedOptions{
			Name:   opts[0].Name,
			Equals: wrapEquals(opts[0].Equals),
		}
	}

	return &Computed[T]{
		internal.GetRuntime().NewComputed(func(c *internal.Computed) any {
			return compute()
		}, o),
	}
}

// Read the current value of the computed signal, tracking the dependency if within a reactive context.
func (c *Computed[T]) Read() T {
	return as[T](c.computed.Read())
}

// EffectComputation is either a plain effect body or a body returning
// a cleanup function to run before the next cycle.
type EffectComputation interface {
	func() | func() func()
}

type Effect struct {
	effect *internal.Effect
}

// NewEffect creates a reactive effect that runs the given function
// whenever its dependencies change. The first run is eager.
func NewEffect[T EffectComputation](computation T) *Effect {
	var fn func() func()
	switch computation := any(computation).(type) {
	case func():
		fn = func() func() {
			computation()
			return nil
		}
	case func() func():
		fn = computation
	}

	return &Effect{
		internal.GetRuntime().NewEffect(fn),
	}
}

// Dispose stops the effect and runs any pending cleanup exactly once.
func (e *Effect) Dispose() {
	e.effect.Dispose()
}

// NewBatch batches multiple signal writes into a single update cycle,
// instead of triggering updates after each write.
func NewBatch(fn func()) {
	internal.GetRuntime().NewBatch(fn)
}

// Batch is the result-returning variant of NewBatch.
func Batch[T any](fn func() T) T {
	var result T
	internal.GetRuntime().NewBatch(func() { result = fn() })
	return result
}

// Untrack runs the given function without tracking any reactive dependencies.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// OnCleanup registers a function to be called before the current
// computation re-runs, or when its owner is disposed.
func OnCleanup(fn func()) {
	internal.GetRuntime().OnCleanup(fn)
}

// OnError registers an error handler for panics escaping effects
// under the current owner; outside any owner it becomes the engine
// context's handler.
func OnError(fn func(error)) {
	internal.GetRuntime().OnError(fn)
}

// OnSettled registers a function to be called once the in-flight
// update cycle has fully drained.
func OnSettled(fn func()) {
	internal.GetRuntime().OnSettled(fn)
}

type Context[T any] struct {
	ctx *internal.Context
}

// NewContext creates a new reactive context with an initial value.
func NewContext[T any](initial T) *Context[T] {
	return &Context[T]{
		internal.GetRuntime().NewContext(initial),
	}
}

// Value retrieves the current value of the context,
// inheriting from parent owners if not set in the current owner.
func (c *Context[T]) Value() T {
	return as[T](c.ctx.Value())
}

// Set a new value for the context in the current owner.
func (c *Context[T]) Set(value T) {
	c.ctx.Set(value)
}

type Owner struct {
	owner *internal.Owner
}

// NewOwner creates a new reactive owner.
// An owner manages the lifecycle of reactive nodes created within its context.
func NewOwner() *Owner {
	return &Owner{
		internal.GetRuntime().NewOwner(),
	}
}

// Run a function within the context of this owner.
// Each reactive node created within the function will be a child of this owner,
// and will be disposed when owner.Dispose() is called on this owner.
func (o *Owner) Run(fn func() error) error { return o.owner.Run(fn) }

// Dispose this owner and all its children.
func (o *Owner) Dispose() { o.owner.Dispose() }

// Add a cleanup function to be called ONCE when the owner is disposed.
func (o *Owner) OnCleanup(fn func()) { o.owner.OnCleanup(fn) }

// Add a function to be called when the owner is disposed.
func (o *Owner) OnDispose(fn func()) { o.owner.OnDispose(fn) }

// Add a function to be called when a panic occurs within this owner.
// If no error listener is registered, the panic will propagate as usual.
func (o *Owner) OnError(fn func(error)) { o.owner.OnError(fn) }

func wrapEquals[T any](eq func(a, b T) bool) internal.EqualsFunc {
	if eq == nil {
		return nil
	}
	return func(a, b any) bool {
		return eq(as[T](a), as[T](b))
	}
}
