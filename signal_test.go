package rimitive

import (
	"errors"
	"fmt"
	"sync"
)

func ExampleSignal() {
	count := NewSignal(0)
	fmt.Println(count.Read())

	count.Write(10)
	fmt.Println(count.Read())

	// Output:
	// 0
	// 10
}

func ExampleSignal_concurrentRW() {
	var wg sync.WaitGroup
	count := NewSignal(0)

	wg.Go(func() {
		count.Write(count.Read() + 1)
	})

	wg.Wait()
	fmt.Println(count.Read())

	// Output:
	// 1
}

func ExampleSignal_zero() {
	err := NewSignal[error](nil)
	fmt.Println(err.Read())

	err.Write(errors.New("oops"))
	fmt.Println(err.Read())

	err.Write(nil)
	fmt.Println(err.Read())

	// Output:
	// <nil>
	// oops
	// <nil>
}

func ExampleSignal_update() {
	count := NewSignal(1)

	count.Update(func(v int) int { return v + 41 })
	fmt.Println(count.Read())

	// Output:
	// 42
}
