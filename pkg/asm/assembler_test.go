package asm

import (
	"testing"

	"github.com/kristofer/loxvm/pkg/runtime"
	"github.com/stretchr/testify/require"
)

func interner() Interner {
	pool := map[string]*runtime.ObjString{}
	return func(s string) *runtime.ObjString {
		if v, ok := pool[s]; ok {
			return v
		}
		v := runtime.NewObjString(s)
		pool[s] = v
		return v
	}
}

func TestAssembleSimpleArithmetic(t *testing.T) {
	src := `
.function main 0 0
  constant 1
  constant 2
  add
  return
.end
`
	fn, err := Assemble(src, interner())
	require.NoError(t, err)
	require.Equal(t, 0, fn.Arity)
	require.Len(t, fn.Chunk.Constants, 2)
	require.Equal(t, runtime.OpCode(fn.Chunk.Code[0]), runtime.OpConstant)
}

func TestAssembleJumpResolvesForwardLabel(t *testing.T) {
	src := `
.function main 0 0
  false
  jump_if_false skip
  true
  jump done
skip:
  false
done:
  return
.end
`
	fn, err := Assemble(src, interner())
	require.NoError(t, err)
	require.NotEmpty(t, fn.Chunk.Code)
}

func TestAssembleUnknownLabelErrors(t *testing.T) {
	src := `
.function main 0 0
  jump nowhere
  return
.end
`
	_, err := Assemble(src, interner())
	require.Error(t, err)
}

func TestAssembleClosureReferencesEarlierFunction(t *testing.T) {
	src := `
.function helper 0 0
  nil
  return
.end
.function main 0 0
  closure $helper
  return
.end
`
	fn, err := Assemble(src, interner())
	require.NoError(t, err)
	require.Equal(t, runtime.OpCode(fn.Chunk.Code[0]), runtime.OpClosure)
}
