package rimitive

import (
	"github.com/sirupsen/logrus"

	"github.com/hejhi/rimitive/internal"
)

// Engine error types, surfaced as panic values at the call site that
// triggered the evaluation.
type (
	// CycleError reports a read of a node already being evaluated.
	CycleError = internal.CycleError
	// DisposedError reports use of a disposed handle.
	DisposedError = internal.DisposedError
	// ClosureError wraps a panic escaping a user compute or effect closure.
	ClosureError = internal.ClosureError
)

// SetLogger routes engine debug traces to l. The default logger discards.
func SetLogger(l *logrus.Logger) {
	internal.SetLogger(l)
}
