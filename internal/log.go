package internal

import (
	"io"

	"github.com/sirupsen/logrus"
)

// logger is shared by every runtime. It discards by default; embedders
// that want engine traces swap in their own via SetLogger.
var logger = newDiscardLogger()

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// SetLogger routes engine debug traces to l.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		logger = l
	}
}
