// Package vm - debugger support
package vm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kristofer/loxvm/pkg/runtime"
)

// Debugger provides interactive breakpoint/step debugging over a VM's
// execution, pausing the interpreter loop before the instruction at a
// breakpoint (or every instruction, in step mode) and handing control to
// a small prompt of its own.
type Debugger struct {
	vm          *VM
	breakpoints map[int]bool // chunk-relative ip offsets
	stepMode    bool
	enabled     bool
}

func newDebugger(vm *VM) *Debugger {
	return &Debugger{
		vm:          vm,
		breakpoints: make(map[int]bool),
	}
}

// Enable activates the debugger.
func (d *Debugger) Enable() { d.enabled = true }

// Disable deactivates the debugger; the interpreter loop stops checking
// breakpoints/step mode until it is enabled again.
func (d *Debugger) Disable() { d.enabled = false }

// SetStepMode enables or disables step mode. In step mode execution
// pauses before every instruction.
func (d *Debugger) SetStepMode(enabled bool) { d.stepMode = enabled }

// AddBreakpoint adds a breakpoint at the given chunk-relative offset.
func (d *Debugger) AddBreakpoint(ip int) { d.breakpoints[ip] = true }

// RemoveBreakpoint removes a breakpoint at the given offset.
func (d *Debugger) RemoveBreakpoint(ip int) { delete(d.breakpoints, ip) }

// ClearBreakpoints removes every breakpoint.
func (d *Debugger) ClearBreakpoints() { d.breakpoints = make(map[int]bool) }

// maybePause is called by the interpreter loop before every instruction.
// It returns false only if the user asked to abort execution.
func (d *Debugger) maybePause(frame *CallFrame) bool {
	if d.stepMode || d.breakpoints[frame.ip] {
		return d.interactivePrompt(frame)
	}
	return true
}

func (d *Debugger) showCurrentInstruction(frame *CallFrame) {
	chunk := &frame.closure.Function.Chunk
	if frame.ip >= len(chunk.Code) {
		fmt.Fprintln(d.vm.options.Stderr, "No current instruction")
		return
	}
	runtime.DisassembleInstruction(d.vm.options.Stderr, chunk, frame.ip)
}

// ShowStack prints the value stack, top to bottom.
func (d *Debugger) ShowStack() {
	out := d.vm.options.Stderr
	fmt.Fprintln(out, "Stack (top to bottom):")
	if d.vm.stackTop == 0 {
		fmt.Fprintln(out, "  (empty)")
		return
	}
	for i := d.vm.stackTop - 1; i >= 0; i-- {
		fmt.Fprintf(out, "  [%d] %s\n", i, d.vm.stack[i].String())
	}
}

// ShowLocals prints the current frame's local-variable window.
func (d *Debugger) ShowLocals(frame *CallFrame) {
	out := d.vm.options.Stderr
	fmt.Fprintln(out, "Local variables:")
	if d.vm.stackTop <= frame.slotsBase {
		fmt.Fprintln(out, "  (none set)")
		return
	}
	for i := frame.slotsBase; i < d.vm.stackTop; i++ {
		fmt.Fprintf(out, "  [%d] %s\n", i-frame.slotsBase, d.vm.stack[i].String())
	}
}

// ShowGlobals prints every defined global variable.
func (d *Debugger) ShowGlobals() {
	out := d.vm.options.Stderr
	fmt.Fprintln(out, "Global variables:")
	if d.vm.globals.Count() == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	d.vm.globals.Each(func(name *runtime.ObjString, v runtime.Value) {
		fmt.Fprintf(out, "  %s = %s\n", name.Chars, v.String())
	})
}

// ShowCallStack prints the call stack, innermost frame first.
func (d *Debugger) ShowCallStack() {
	out := d.vm.options.Stderr
	fmt.Fprintln(out, "Call stack (top to bottom):")
	if d.vm.frameCount == 0 {
		fmt.Fprintln(out, "  (empty)")
		return
	}
	for i := d.vm.frameCount - 1; i >= 0; i-- {
		frame := &d.vm.frames[i]
		name := "script"
		if frame.closure.Function.Name != nil {
			name = frame.closure.Function.Name.Chars
		}
		fmt.Fprintf(out, "  %s [ip: %d]\n", name, frame.ip)
	}
}

func (d *Debugger) listInstructions(frame *CallFrame) {
	out := d.vm.options.Stderr
	chunk := &frame.closure.Function.Chunk
	fmt.Fprintln(out, "Instructions:")
	for offset := 0; offset < len(chunk.Code); {
		marker := "  "
		if offset == frame.ip {
			marker = "->"
		} else if d.breakpoints[offset] {
			marker = "* "
		}
		fmt.Fprint(out, marker)
		offset = runtime.DisassembleInstruction(out, chunk, offset)
	}
}

// interactivePrompt pauses execution and reads commands from stdin
// until one resumes execution (continue/step/next) or aborts it (quit).
func (d *Debugger) interactivePrompt(frame *CallFrame) (continueExecution bool) {
	out := d.vm.options.Stderr
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Fprintln(out, "\n=== Debugger Paused ===")
	d.showCurrentInstruction(frame)

	for {
		fmt.Fprint(out, "debug> ")
		if !scanner.Scan() {
			return false
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		command := parts[0]

		switch command {
		case "help", "h", "?":
			d.printHelp()

		case "continue", "c":
			d.SetStepMode(false)
			return true

		case "step", "s", "next", "n":
			d.SetStepMode(true)
			return true

		case "stack", "st":
			d.ShowStack()

		case "locals", "l":
			d.ShowLocals(frame)

		case "globals", "g":
			d.ShowGlobals()

		case "callstack", "cs":
			d.ShowCallStack()

		case "instruction", "i":
			d.showCurrentInstruction(frame)

		case "breakpoint", "b":
			if len(parts) < 2 {
				fmt.Fprintln(out, "Usage: breakpoint <offset>")
				continue
			}
			ip, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Fprintln(out, "Invalid offset")
				continue
			}
			d.AddBreakpoint(ip)
			fmt.Fprintf(out, "Breakpoint added at offset %d\n", ip)

		case "delete", "d":
			if len(parts) < 2 {
				fmt.Fprintln(out, "Usage: delete <offset>")
				continue
			}
			ip, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Fprintln(out, "Invalid offset")
				continue
			}
			d.RemoveBreakpoint(ip)
			fmt.Fprintf(out, "Breakpoint removed at offset %d\n", ip)

		case "list", "ls":
			d.listInstructions(frame)

		case "quit", "q":
			return false

		default:
			fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", command)
		}
	}
}

func (d *Debugger) printHelp() {
	out := d.vm.options.Stderr
	fmt.Fprintln(out, "Debugger commands:")
	fmt.Fprintln(out, "  help, h, ?           Show this help")
	fmt.Fprintln(out, "  continue, c          Continue execution")
	fmt.Fprintln(out, "  step, s, next, n     Execute the next instruction")
	fmt.Fprintln(out, "  stack, st            Show the value stack")
	fmt.Fprintln(out, "  locals, l            Show the current frame's locals")
	fmt.Fprintln(out, "  globals, g           Show global variables")
	fmt.Fprintln(out, "  callstack, cs        Show the call stack")
	fmt.Fprintln(out, "  instruction, i       Show the current instruction")
	fmt.Fprintln(out, "  breakpoint <n>, b    Add a breakpoint at offset n")
	fmt.Fprintln(out, "  delete <n>, d        Remove the breakpoint at offset n")
	fmt.Fprintln(out, "  list, ls             List all instructions in the current chunk")
	fmt.Fprintln(out, "  quit, q              Abort execution")
}
