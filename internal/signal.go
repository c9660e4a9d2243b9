package internal

import (
	"iter"
	"reflect"
)

// EqualsFunc reports whether two values are interchangeable. Producers
// whose new value equals the old do not bump their version, and their
// consumers never hear about the write.
type EqualsFunc func(a, b any) bool

// SignalOptions configures signal behavior.
type SignalOptions struct {
	Name   string
	Equals EqualsFunc
}

// Signal is a writable leaf value. It doubles as the cached output of
// a Computed (see the derived back-pointer), so dependency links only
// ever point at signals.
type Signal struct {
	rt *Runtime

	name  string
	value any
	ver   uint64

	equals EqualsFunc

	subsHead *link
	subsTail *link

	// derived is set when this signal is the cached output of a
	// computed; validation descends through it
	derived *Computed
}

func (r *Runtime) NewSignal(initial any, opts ...*SignalOptions) *Signal {
	s := &Signal{
		rt:     r,
		name:   "signal",
		value:  initial,
		equals: defaultEquals,
	}

	if len(opts) > 0 && opts[0] != nil {
		if opts[0].Name != "" {
			s.name = opts[0].Name
		}
		if opts[0].Equals != nil {
			s.equals = opts[0].Equals
		}
	}

	return s
}

// Read returns the current value, registering a dependency on the
// current observer if there is one.
func (s *Signal) Read() any {
	r := s.rt
	r.enter()
	defer r.exit()

	r.track(s)

	return s.value
}

// Write replaces the value. A write that compares equal under the
// signal's equality predicate is a no-op: the version does not move
// and nothing downstream is notified. Otherwise the version bumps and
// invalidation pushes through the subscriber graph inside an implicit
// batch.
func (s *Signal) Write(v any) {
	r := s.rt
	r.enter()
	defer r.exit()

	if s.equals(s.value, v) {
		return
	}

	s.value = v
	s.ver++

	r.batcher.Batch(func() {
		r.invalidate(s)
	}, r.Flush)
}

// Update applies fn to the current value and writes the result.
func (s *Signal) Update(fn func(any) any) {
	s.Write(fn(s.value))
}

func (s *Signal) Name() string {
	return s.name
}

func (s *Signal) Version() uint64 {
	return s.ver
}

// Subs returns an iterator over all subscribers
func (s *Signal) Subs() iter.Seq[*Computed] {
	return func(yield func(*Computed) bool) {
		l := s.subsHead
		for l != nil {
			if !yield(l.sub) {
				return
			}

			l = l.nextSub
		}
	}
}

// defaultEquals compares with == where the dynamic type allows it.
// Non-comparable values (slices, maps, funcs) are never equal, so
// writes of such values always propagate.
func defaultEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}
