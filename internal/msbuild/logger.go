// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"io"

	"github.com/charmbracelet/log"
)

// Logger is the leveled, structured logging surface used by every component.
// *log.Logger from charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// loggerOrDiscard returns l, or a logger writing nowhere when l is nil.
func loggerOrDiscard(l Logger) Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}
