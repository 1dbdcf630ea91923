package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEqualPrimitives(t *testing.T) {
	require.True(t, Equal(NilVal(), NilVal()))
	require.True(t, Equal(BoolVal(true), BoolVal(true)))
	require.False(t, Equal(BoolVal(true), BoolVal(false)))
	require.True(t, Equal(NumberVal(3), NumberVal(3)))
	require.False(t, Equal(NumberVal(3), NumberVal(4)))
	require.False(t, Equal(NilVal(), BoolVal(false)))
}

func TestEqualObjectsAreReferenceEqual(t *testing.T) {
	a := NewObjString("hi")
	b := NewObjString("hi")

	require.False(t, Equal(ObjVal(a), ObjVal(b)), "two distinct ObjStrings with equal content must not compare equal without interning")
	require.True(t, Equal(ObjVal(a), ObjVal(a)))
}

func TestIsFalsey(t *testing.T) {
	require.True(t, IsFalsey(NilVal()))
	require.True(t, IsFalsey(BoolVal(false)))
	require.False(t, IsFalsey(BoolVal(true)))
	require.False(t, IsFalsey(NumberVal(0)))
	require.False(t, IsFalsey(ObjVal(NewObjString(""))))
}

func TestValueString(t *testing.T) {
	require.Equal(t, "nil", NilVal().String())
	require.Equal(t, "true", BoolVal(true).String())
	require.Equal(t, "3", NumberVal(3).String())
	require.Equal(t, "3.5", NumberVal(3.5).String())
}

func TestHashStringStable(t *testing.T) {
	require.Equal(t, HashString("hello"), HashString("hello"))
	require.NotEqual(t, HashString("hello"), HashString("world"))
}
