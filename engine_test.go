package rimitive

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPropagation(t *testing.T) {
	t.Run("diamond absorbs no-op change", func(t *testing.T) {
		runs := map[string]int{}
		effectRuns := 0

		a := NewSignal(0)
		b := NewComputed(func() int {
			runs["b"]++
			return a.Read() * 0
		})
		c := NewComputed(func() int {
			runs["c"]++
			return a.Read() * 0
		})
		d := NewComputed(func() int {
			runs["d"]++
			return b.Read() + c.Read()
		})

		NewEffect(func() {
			effectRuns++
			d.Read()
		})

		a.Write(5)
		assert.Equal(t, 0, d.Read())

		// b and c revalidated, but d never saw a change
		assert.Equal(t, map[string]int{"b": 2, "c": 2, "d": 1}, runs)
		assert.Equal(t, 1, effectRuns)
	})

	t.Run("diamond recomputes each node once", func(t *testing.T) {
		runs := map[string]int{}

		a := NewSignal(1)
		b := NewComputed(func() int {
			runs["b"]++
			return a.Read() * 2
		})
		c := NewComputed(func() int {
			runs["c"]++
			return a.Read() * 3
		})
		d := NewComputed(func() int {
			runs["d"]++
			return b.Read() + c.Read()
		})

		assert.Equal(t, 5, d.Read())

		a.Write(7)
		assert.Equal(t, 35, d.Read())

		assert.Equal(t, map[string]int{"b": 2, "c": 2, "d": 2}, runs)
	})

	t.Run("conditional dependencies drop the untaken branch", func(t *testing.T) {
		runs := 0

		cond := NewSignal(true)
		x := NewSignal(1)
		y := NewSignal(1)

		r := NewComputed(func() int {
			runs++
			if cond.Read() {
				return x.Read()
			}
			return y.Read()
		})

		assert.Equal(t, 1, r.Read())
		assert.Equal(t, 1, runs)

		y.Write(999) // not a dependency yet
		assert.Equal(t, 1, r.Read())
		assert.Equal(t, 1, runs)

		cond.Write(false)
		assert.Equal(t, 999, r.Read())
		assert.Equal(t, 2, runs)

		x.Write(500) // no longer a dependency
		assert.Equal(t, 999, r.Read())
		assert.Equal(t, 2, runs)
	})

	t.Run("batch coalesces writes into one run", func(t *testing.T) {
		var seen []int

		s := NewSignal(0)

		NewEffect(func() {
			seen = append(seen, s.Read())
		})

		NewBatch(func() {
			s.Write(1)
			s.Write(2)
			s.Write(3)
		})

		assert.Equal(t, []int{0, 3}, seen)
	})

	t.Run("same-value write reaches nothing", func(t *testing.T) {
		const depth = 50

		runs := 0
		effectRuns := 0

		a := NewSignal(1)

		prev := NewComputed(func() int {
			runs++
			return a.Read()
		})
		for i := 1; i < depth; i++ {
			inner := prev
			prev = NewComputed(func() int {
				runs++
				return inner.Read()
			})
		}
		last := prev

		NewEffect(func() {
			effectRuns++
			last.Read()
		})

		assert.Equal(t, depth, runs)
		assert.Equal(t, 1, effectRuns)

		a.Write(1) // same value

		assert.Equal(t, depth, runs)
		assert.Equal(t, 1, effectRuns)
	})

	t.Run("deep chain validates without recomputing", func(t *testing.T) {
		const depth = 50

		runs := 0

		a := NewSignal(1)
		floor := NewComputed(func() int {
			runs++
			if a.Read() > 0 {
				return 1
			}
			return 0
		})

		prev := floor
		for i := 1; i < depth; i++ {
			inner := prev
			prev = NewComputed(func() int {
				runs++
				return inner.Read()
			})
		}
		last := prev

		assert.Equal(t, 1, last.Read())
		assert.Equal(t, depth, runs)

		a.Write(5) // floor recomputes to the same value, the chain is spared
		assert.Equal(t, 1, last.Read())
		assert.Equal(t, depth+1, runs)
	})
}

func TestErrorHandling(t *testing.T) {
	t.Run("compute error propagates to the reader and retries", func(t *testing.T) {
		fail := true

		s := NewSignal(1)
		c := NewComputed(func() int {
			if fail {
				panic(errors.New("boom"))
			}
			return s.Read() * 2
		})

		assert.PanicsWithError(t, `"computed": boom`, func() {
			c.Read()
		})

		// the node stays dirty; the next read attempts the compute again
		fail = false
		assert.Equal(t, 2, c.Read())
	})

	t.Run("effect error during drain reaches the context handler", func(t *testing.T) {
		var caught []string

		OnError(func(err error) {
			caught = append(caught, err.Error())
		})

		s := NewSignal(0)

		NewEffect(func() {
			if s.Read() > 0 {
				panic(fmt.Errorf("effect blew up on %d", s.Read()))
			}
		})

		s.Write(1)

		assert.Len(t, caught, 1)
		assert.Contains(t, caught[0], "effect blew up on 1")
	})

	t.Run("effect error does not abort the drain", func(t *testing.T) {
		OnError(func(err error) {})

		var seen []int

		s := NewSignal(0)

		NewEffect(func() {
			if s.Read() > 0 {
				panic("broken effect")
			}
		})
		NewEffect(func() {
			seen = append(seen, s.Read())
		})

		s.Write(1)

		assert.Equal(t, []int{0, 1}, seen)
	})

	t.Run("read after dispose panics", func(t *testing.T) {
		s := NewSignal(1)

		var c *Computed[int]
		o := NewOwner()
		o.Run(func() error {
			c = NewComputed(func() int { return s.Read() * 2 }, ComputedOptions[int]{Name: "doubled"})
			return nil
		})

		assert.Equal(t, 2, c.Read())

		o.Dispose()

		assert.PanicsWithError(t, `"doubled" used after dispose`, func() {
			c.Read()
		})
	})
}
