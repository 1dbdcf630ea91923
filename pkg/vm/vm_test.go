package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kristofer/loxvm/pkg/asm"
	"github.com/stretchr/testify/require"
)

func newTestVM(t *testing.T, opts Options) (*VM, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	opts.Stdout = &stdout
	opts.Stderr = &stderr
	return New(opts), &stdout, &stderr
}

func run(t *testing.T, src string) (stdout string, vm *VM, rerr *RuntimeError) {
	t.Helper()
	machine, out, _ := newTestVM(t, Options{})
	fn, err := asm.Assemble(src, machine.InternString)
	require.NoError(t, err)
	rerr = machine.Interpret(fn)
	return out.String(), machine, rerr
}

func TestArithmeticAndPrinting(t *testing.T) {
	out, _, rerr := run(t, `
.function main 0 0
  constant 1
  constant 2
  add
  constant 3
  multiply
  print
  nil
  return
.end
`)
	require.Nil(t, rerr)
	require.Equal(t, "9\n", out)
}

func TestGlobalsAndLocals(t *testing.T) {
	out, _, rerr := run(t, `
.function main 0 0
  constant 10
  define_global "x"
  get_global "x"
  constant 5
  subtract
  set_local 0
  get_local 0
  print
  nil
  return
.end
`)
	require.Nil(t, rerr)
	require.Equal(t, "5\n", out)
}

func TestLocalSlotReadModifyWrite(t *testing.T) {
	// The slot being read must be written first: slot 0 of the top-level
	// frame initially holds the running script closure itself, not a
	// caller-supplied zero, since there is no compiler reserving locals.
	out, _, rerr := run(t, `
.function main 0 0
  constant 41
  set_local 0
  get_local 0
  constant 1
  add
  set_local 0
  get_local 0
  print
  nil
  return
.end
`)
	require.Nil(t, rerr)
	require.Equal(t, "42\n", out)
}

func TestClosureCapturesAndMutatesUpvalueAcrossCalls(t *testing.T) {
	// Mirrors `fun make(){ var x=1; fun inc(){ x=x+1; return x; } return
	// inc; } var f = make(); print f(); print f();` — x must be captured
	// by reference, survive make's return (closed over), and persist its
	// mutation between the two separate calls to f.
	out, _, rerr := run(t, `
.function inc 0 1
  get_upvalue 0
  constant 1
  add
  set_upvalue 0
  get_upvalue 0
  return
.end
.function make 0 0
  constant 1
  set_local 0
  closure $inc local:0
  return
.end
.function main 0 0
  closure $make
  call 0
  define_global "f"
  get_global "f"
  call 0
  print
  get_global "f"
  call 0
  print
  nil
  return
.end
`)
	require.Nil(t, rerr)
	require.Equal(t, "2\n3\n", out)
}

func TestAddingNumberAndStringIsRuntimeError(t *testing.T) {
	_, _, rerr := run(t, `
.function main 0 0
  constant 1
  constant "a"
  add
  return
.end
`)
	require.NotNil(t, rerr)
	require.True(t, strings.HasPrefix(rerr.Error(), "Operands must be two numbers or two strings.\n[line 3] in script"))
	require.True(t, strings.Contains(rerr.Error(), "(vm "))
}

func TestClassInitConstructsAndSetsField(t *testing.T) {
	out, _, rerr := run(t, `
.function init 1 0
  get_local 0
  get_local 1
  set_property "value"
  pop
  get_local 0
  return
.end
.function main 0 0
  class "Box"
  closure $init
  method "init"
  define_global "Box"
  get_global "Box"
  constant 7
  call 1
  get_property "value"
  print
  nil
  return
.end
`)
	require.Nil(t, rerr)
	require.Equal(t, "7\n", out)
}

func TestInheritanceCopiesMethodsDown(t *testing.T) {
	out, _, rerr := run(t, `
.function greet 0 0
  constant "hi"
  print
  nil
  return
.end
.function main 0 0
  class "Animal"
  closure $greet
  method "greet"
  define_global "Animal"
  class "Dog"
  define_global "Dog"
  get_global "Animal"
  get_global "Dog"
  inherit
  pop
  get_global "Dog"
  call 0
  invoke "greet" 0
  pop
  nil
  return
.end
`)
	require.Nil(t, rerr)
	require.Equal(t, "hi\n", out)
}

func TestFieldShadowsMethodOnInvoke(t *testing.T) {
	out, _, rerr := run(t, `
.function sayHi 0 0
  constant "hi from method"
  print
  nil
  return
.end
.function shadow 0 0
  constant "hi from field"
  print
  nil
  return
.end
.function init 1 0
  get_local 0
  get_local 1
  set_property "sayHi"
  pop
  get_local 0
  return
.end
.function main 0 0
  class "Greeter"
  closure $sayHi
  method "sayHi"
  closure $init
  method "init"
  define_global "Greeter"
  get_global "Greeter"
  closure $shadow
  call 1
  invoke "sayHi" 0
  pop
  nil
  return
.end
`)
	require.Nil(t, rerr)
	require.Equal(t, "hi from field\n", out)
}

func TestRuntimeErrorReportsStackTrace(t *testing.T) {
	_, _, rerr := run(t, `
.function main 0 0
  nil
  negate
  return
.end
`)
	require.NotNil(t, rerr)
	require.True(t, strings.Contains(rerr.Error(), "Operand must be a number"))
	require.True(t, strings.Contains(rerr.Error(), "[line"))
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, _, rerr := run(t, `
.function main 0 0
  get_global "nope"
  return
.end
`)
	require.NotNil(t, rerr)
	require.True(t, strings.Contains(rerr.Error(), "Undefined variable"))
}

func TestStressGCDoesNotCorruptReachableState(t *testing.T) {
	machine, out, _ := newTestVM(t, Options{StressGC: true})
	src := `
.function main 0 0
  constant 1
  define_global "kept"
  constant "a"
  pop
  constant "b"
  pop
  constant "c"
  pop
  get_global "kept"
  print
  nil
  return
.end
`
	fn, err := asm.Assemble(src, machine.InternString)
	require.NoError(t, err)
	rerr := machine.Interpret(fn)
	require.Nil(t, rerr)
	require.Equal(t, "1\n", out.String())
}

func TestInternedStringsShareIdentity(t *testing.T) {
	machine, _, _ := newTestVM(t, Options{})
	a := machine.InternString("shared")
	b := machine.InternString("shared")
	require.Same(t, a, b)
}
