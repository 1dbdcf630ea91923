package runtime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableSetGetDelete(t *testing.T) {
	var tbl Table
	key := NewObjString("answer")

	_, ok := tbl.Get(key)
	require.False(t, ok)

	isNew := tbl.Set(key, NumberVal(42))
	require.True(t, isNew)
	require.Equal(t, 1, tbl.Count())

	v, ok := tbl.Get(key)
	require.True(t, ok)
	require.Equal(t, NumberVal(42), v)

	isNew = tbl.Set(key, NumberVal(43))
	require.False(t, isNew, "re-setting an existing key must not count as new")

	require.True(t, tbl.Delete(key))
	_, ok = tbl.Get(key)
	require.False(t, ok, "deleted key must no longer be visible through Get")
}

func TestTableTombstoneDoesNotBreakProbing(t *testing.T) {
	var tbl Table
	a := NewObjString("a")
	b := NewObjString("b")

	tbl.Set(a, NumberVal(1))
	tbl.Set(b, NumberVal(2))
	tbl.Delete(a)

	v, ok := tbl.Get(b)
	require.True(t, ok, "deleting a colliding-or-not key must not hide keys inserted after it")
	require.Equal(t, NumberVal(2), v)
}

func TestTableGrowsPastLoadFactor(t *testing.T) {
	var tbl Table
	keys := make([]*ObjString, 0, 20)
	for i := 0; i < 20; i++ {
		k := NewObjString(fmt.Sprintf("key%d", i))
		keys = append(keys, k)
		tbl.Set(k, NumberVal(float64(i)))
	}

	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		require.Equal(t, NumberVal(float64(i)), v)
	}
}

func TestTableAddAll(t *testing.T) {
	var from, to Table
	k1, k2 := NewObjString("one"), NewObjString("two")
	from.Set(k1, NumberVal(1))
	from.Set(k2, NumberVal(2))

	from.AddAll(&to)

	v, ok := to.Get(k1)
	require.True(t, ok)
	require.Equal(t, NumberVal(1), v)
	v, ok = to.Get(k2)
	require.True(t, ok)
	require.Equal(t, NumberVal(2), v)
}

func TestTableFindStringContentAddressed(t *testing.T) {
	var tbl Table
	original := NewObjString("shared")
	tbl.Set(original, BoolVal(true))

	found := tbl.FindString("shared", HashString("shared"))
	require.NotNil(t, found)
	require.Same(t, original, found)

	require.Nil(t, tbl.FindString("nope", HashString("nope")))
}

func TestTableRemoveWhite(t *testing.T) {
	var tbl Table
	marked := NewObjString("kept")
	unmarked := NewObjString("swept")
	marked.SetMarked(true)

	tbl.Set(marked, BoolVal(true))
	tbl.Set(unmarked, BoolVal(true))

	tbl.RemoveWhite()

	require.NotNil(t, tbl.FindString("kept", HashString("kept")))
	require.Nil(t, tbl.FindString("swept", HashString("swept")))
}

func TestTableEach(t *testing.T) {
	var tbl Table
	tbl.Set(NewObjString("a"), NumberVal(1))
	tbl.Set(NewObjString("b"), NumberVal(2))

	seen := map[string]float64{}
	tbl.Each(func(key *ObjString, value Value) {
		seen[key.Chars] = AsNumber(value)
	})

	require.Equal(t, map[string]float64{"a": 1, "b": 2}, seen)
}
