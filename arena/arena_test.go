package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tauphase/statiming/arena"
)

func TestArena_InsertAtRemove(t *testing.T) {
	a := arena.New[string]()
	i0 := a.Insert("n0")
	i1 := a.Insert("n1")
	require.Equal(t, 2, a.Len())
	require.Equal(t, "n0", *a.At(i0))
	require.Equal(t, "n1", *a.At(i1))

	a.Remove(i0)
	require.Equal(t, 1, a.Len())
	require.Nil(t, a.At(i0))
	require.False(t, a.Valid(i0))
}

func TestArena_IndexReuseAfterRemove(t *testing.T) {
	a := arena.New[int]()
	i0 := a.Insert(10)
	a.Remove(i0)
	i1 := a.Insert(20)
	require.Equal(t, i0, i1, "freed index should be recycled")
	require.Equal(t, 20, *a.At(i1))
}

func TestArena_RemoveIsIdempotent(t *testing.T) {
	a := arena.New[int]()
	idx := a.Insert(1)
	a.Remove(idx)
	require.NotPanics(t, func() { a.Remove(idx) })
	require.NotPanics(t, func() { a.Remove(arena.Index(999)) })
}

func TestArena_ForEachSkipsHoles(t *testing.T) {
	a := arena.New[int]()
	ids := make([]arena.Index, 5)
	for i := range ids {
		ids[i] = a.Insert(i)
	}
	a.Remove(ids[1])
	a.Remove(ids[3])

	seen := map[int]bool{}
	a.ForEach(func(idx arena.Index, v *int) { seen[*v] = true })
	require.ElementsMatch(t, []int{0, 2, 4}, keysOf(seen))
	require.LessOrEqual(t, a.Len(), a.NumSlots())
}

func keysOf(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
