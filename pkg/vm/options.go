package vm

import "io"

// Options configures one VM instance. All three debug flags are
// observability-only: they change what gets logged, never what the
// program computes.
type Options struct {
	// TraceExecution prints the stack and the next instruction before
	// every instruction the interpreter loop executes.
	TraceExecution bool
	// LogGC prints a line for every mark/blacken/free the collector
	// performs, plus a before/after summary for each collection cycle.
	LogGC bool
	// StressGC forces a collection before every single allocation,
	// instead of only once bytesAllocated crosses nextGC. Used to shake
	// out GC-reachability bugs that a normal run would rarely trigger.
	StressGC bool

	// Stdout receives everything OP_PRINT writes. Defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives the execution trace, the GC log and the debugger's
	// output. Runtime errors are returned to the caller, never written
	// here. Defaults to os.Stderr.
	Stderr io.Writer
}
