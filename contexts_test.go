package rimitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

// Each goroutine owns an independent engine context; graphs built on
// one never observe another's writes or drains.
func TestIndependentContexts(t *testing.T) {
	var g errgroup.Group

	for i := 0; i < 8; i++ {
		g.Go(func() error {
			var seen []int

			count := NewSignal(0)
			double := NewComputed(func() int { return count.Read() * 2 })

			NewEffect(func() {
				seen = append(seen, double.Read())
			})

			for v := 1; v <= 10; v++ {
				count.Write(v)
			}

			assert.Equal(t, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20}, seen)
			return nil
		})
	}

	assert.NoError(t, g.Wait())
}
