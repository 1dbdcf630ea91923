// Package vm - error handling with stack traces
package vm

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// StackFrame captures one call frame's worth of context for a
// RuntimeError's trace: which function was running and at what source
// line execution stood when the error was raised.
type StackFrame struct {
	Name       string // function name, or "" for the top-level script
	SourceLine int
}

// RuntimeError is raised for every failure the interpreter loop
// detects: type errors, undefined names, arity mismatches, non-callable
// values, stack overflow, and an unknown opcode in the bytecode being
// run.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame

	// SessionID identifies which VM raised this error, so a harness
	// driving several VMs at once (the test suite, an embedder running
	// more than one program concurrently) can tell their errors apart.
	SessionID uuid.UUID
}

// Error formats the message followed by a newest-first stack trace, one
// "[line N] in name()" entry per frame, matching clox's runtimeError
// reporting, plus a trailing session tag identifying the VM that raised
// it.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	for i := len(e.StackTrace) - 1; i >= 0; i-- {
		frame := e.StackTrace[i]
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf("[line %d] in ", frame.SourceLine))
		if frame.Name == "" {
			b.WriteString("script")
		} else {
			b.WriteString(frame.Name + "()")
		}
	}

	fmt.Fprintf(&b, "\n(vm %s)", e.SessionID)
	return b.String()
}

func newRuntimeError(message string, stack []StackFrame, sessionID uuid.UUID) *RuntimeError {
	return &RuntimeError{
		Message:    message,
		StackTrace: stack,
		SessionID:  sessionID,
	}
}
