package internal

import (
	"fmt"

	"github.com/pkg/errors"
)

// CycleError is raised when a node is read while it is already on the
// evaluation stack. Cycles are a programming error, not a feature.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected through %q", e.Node)
}

// DisposedError is raised when a disposed computed is read. Writes are
// not checked.
type DisposedError struct {
	Node string
}

func (e *DisposedError) Error() string {
	return fmt.Sprintf("%q used after dispose", e.Node)
}

// ClosureError wraps a panic escaping a user compute or effect
// closure. The node is re-marked dirty before it propagates, so the
// next read attempts the computation again.
type ClosureError struct {
	Node string
	Err  error
}

func (e *ClosureError) Error() string {
	return fmt.Sprintf("%q: %v", e.Node, e.Err)
}

func (e *ClosureError) Unwrap() error {
	return e.Err
}

// asError normalizes a recovered panic value.
func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.Errorf("panic: %v", r)
}

// wrapClosureErr wraps user closure panics once, letting engine errors
// (cycles, disposed handles, already-wrapped closures) pass through.
func wrapClosureErr(node string, r any) error {
	err := asError(r)
	switch err.(type) {
	case *CycleError, *DisposedError, *ClosureError:
		return err
	}
	return &ClosureError{Node: node, Err: err}
}
