// Package slice exposes state objects as composable slices on top of
// the core signal graph. A store wraps each top-level key of its
// state in a signal; a slice selects some of those keys and builds a
// behavior value around tracked reads and batched writes, so change
// propagation between slices follows the engine's push-pull rules.
package slice

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/hejhi/rimitive"
)

// State is a state object: top-level keys mapped to arbitrary values.
type State map[string]any

// Store holds one signal per top-level key of the initial state.
type Store struct {
	signals map[string]*rimitive.Signal[any]
	keys    []string
}

// NewStore wraps every top-level key of initial in a signal.
func NewStore(initial State) *Store {
	st := &Store{
		signals: make(map[string]*rimitive.Signal[any], len(initial)),
	}

	for _, key := range slices.Sorted(maps.Keys(initial)) {
		st.signals[key] = rimitive.NewSignal[any](initial[key], rimitive.SignalOptions[any]{Name: key})
		st.keys = append(st.keys, key)
	}

	return st
}

// Keys returns the store's top-level keys in sorted order.
func (st *Store) Keys() []string {
	return slices.Clone(st.keys)
}

// Ctx is handed to a slice's behavior builder. Reads track, writes
// batch, and both are limited to the slice's selected keys.
type Ctx struct {
	store    *Store
	selected []string
}

// Get reads the current value of a selected key, registering a
// dependency when called inside a reactive computation.
func (c *Ctx) Get(key string) any {
	return c.sig(key).Read()
}

// Set applies all changes atomically: every write lands inside one
// batch, so observers see either none or all of them.
func (c *Ctx) Set(changes State) {
	sigs := make([]*rimitive.Signal[any], 0, len(changes))
	keys := slices.Sorted(maps.Keys(changes))
	for _, key := range keys {
		sigs = append(sigs, c.sig(key))
	}

	rimitive.NewBatch(func() {
		for i, key := range keys {
			sigs[i].Write(changes[key])
		}
	})
}

// Derive builds a computed accessor scoped to the slice.
func (c *Ctx) Derive(fn func() any) *rimitive.Computed[any] {
	return rimitive.NewComputed(fn)
}

func (c *Ctx) sig(key string) *rimitive.Signal[any] {
	if !slices.Contains(c.selected, key) {
		panic(errors.Errorf("slice: key %q is not in the slice selector", key))
	}
	return c.store.signals[key]
}

// Slice is a slice instance: the behavior value built by the builder
// plus a subscription surface over the selected keys.
type Slice[A any] struct {
	// API is the behavior value the builder returned.
	API A

	store    *Store
	selected []string

	listeners map[int]func()
	nextID    int
	watch     *rimitive.Effect
}

// New creates a slice of st over the selected keys. build receives a
// Ctx bound to the selection and returns the slice's behavior value.
func New[A any](st *Store, selector []string, build func(ctx *Ctx) A) (*Slice[A], error) {
	for _, key := range selector {
		if _, ok := st.signals[key]; !ok {
			return nil, errors.Errorf("slice: unknown state key %q", key)
		}
	}

	selected := slices.Clone(selector)
	ctx := &Ctx{store: st, selected: selected}

	return &Slice[A]{
		API:      build(ctx),
		store:    st,
		selected: selected,
	}, nil
}

// Subscribe registers listener to fire after the outermost batch
// drains whenever any selected key has changed. Notifications within
// a single drain are coalesced. The returned function unsubscribes.
func (s *Slice[A]) Subscribe(listener func()) (unsubscribe func()) {
	if s.listeners == nil {
		s.listeners = make(map[int]func())
	}

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	if s.watch == nil {
		first := true
		s.watch = rimitive.NewEffect(func() {
			for _, key := range s.selected {
				s.store.signals[key].Read()
			}

			if first {
				first = false
				return
			}

			for _, l := range s.listeners {
				l()
			}
		})
	}

	return func() {
		delete(s.listeners, id)

		if len(s.listeners) == 0 && s.watch != nil {
			s.watch.Dispose()
			s.watch = nil
		}
	}
}
