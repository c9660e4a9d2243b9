package rimitive

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnSettled(t *testing.T) {
	t.Run("runs when flush finishes", func(t *testing.T) {
		log := []string{}

		count := NewSignal(0)

		NewEffect(func() {
			log = append(log, fmt.Sprintf("changed %d", count.Read()))

			OnCleanup(func() {
				log = append(log, "cleanup")
			})
		})

		OnSettled(func() {
			log = append(log, "settled")
		})

		count.Write(10)

		assert.Equal(t, []string{
			"changed 0",
			"cleanup",
			"changed 10",
			"settled",
		}, log)
	})

	t.Run("waits for chained effects", func(t *testing.T) {
		log := []string{}

		a := NewSignal(0)
		b := NewSignal(0)

		NewEffect(func() {
			log = append(log, fmt.Sprintf("A changed %d", a.Read()))

			b.Write(a.Read() * 2)

			OnCleanup(func() {
				log = append(log, "A cleanup")
			})
		})

		NewEffect(func() {
			log = append(log, fmt.Sprintf("B changed %d", b.Read()))

			OnCleanup(func() {
				log = append(log, "B cleanup")
			})
		})

		OnSettled(func() {
			log = append(log, "settled")
		})

		a.Write(10)

		assert.Equal(t, []string{
			"A changed 0",
			"B changed 0",
			"A cleanup",
			"A changed 10",
			"B cleanup",
			"B changed 20",
			"settled",
		}, log)
	})

	t.Run("runs once", func(t *testing.T) {
		log := []string{}

		count := NewSignal(0)
		NewEffect(func() {
			log = append(log, fmt.Sprintf("changed %d", count.Read()))

			OnCleanup(func() {
				log = append(log, "cleanup")
			})
		})

		OnSettled(func() {
			log = append(log, "settled")
		})

		count.Write(10)
		count.Write(20)

		assert.Equal(t, []string{
			"changed 0",
			"cleanup",
			"changed 10",
			"settled",
			"cleanup",
			"changed 20",
		}, log)
	})
}
