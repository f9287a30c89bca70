package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New[string, int]()
	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
}

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()

	require.True(t, r.Register("one", 1))
	require.True(t, r.Register("two", 2))

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestRegisterConflictKeepsExisting(t *testing.T) {
	r := New[string, string]()

	require.True(t, r.Register("key", "old"))
	assert.False(t, r.Register("key", "new"))

	v, ok := r.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "old", v)
	assert.Equal(t, 1, r.Len())
}

func TestRegistrationOrder(t *testing.T) {
	r := New[string, int]()
	for i, k := range []string{"c", "a", "d", "b"} {
		r.Register(k, i)
	}

	assert.Equal(t, []string{"c", "a", "d", "b"}, r.Keys())
	assert.Equal(t, []int{0, 1, 2, 3}, r.Values())

	_, ok := r.Unregister("a")
	require.True(t, ok)
	r.Register("a", 9)

	assert.Equal(t, []string{"c", "d", "b", "a"}, r.Keys())
	assert.Equal(t, []int{0, 2, 3, 9}, r.Values())
}

func TestUnregister(t *testing.T) {
	r := New[string, int]()
	r.Register("one", 1)

	v, ok := r.Unregister("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.False(t, r.Has("one"))

	_, ok = r.Unregister("one")
	assert.False(t, ok)
}

func TestSeqNeverReused(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	seqA, ok := r.Seq("a")
	require.True(t, ok)
	seqB, _ := r.Seq("b")
	assert.Less(t, seqA, seqB)

	r.Unregister("a")
	_, ok = r.Seq("a")
	assert.False(t, ok)

	r.Register("a", 3)
	seqA2, _ := r.Seq("a")
	assert.Greater(t, seqA2, seqB)
}

func TestValuesIsSnapshot(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)

	values := r.Values()
	r.Register("b", 2)

	assert.Equal(t, []int{1}, values)
}

func TestRange(t *testing.T) {
	r := New[int, string]()
	r.Register(3, "three")
	r.Register(1, "one")
	r.Register(2, "two")

	var seen []int
	r.Range(func(k int, _ string) bool {
		seen = append(seen, k)
		return k != 1
	})

	assert.Equal(t, []int{3, 1}, seen)
}

func TestClear(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	removed := r.Clear()

	assert.Equal(t, []int{1, 2}, removed)
	assert.Equal(t, 0, r.Len())
	assert.True(t, r.Register("a", 3))
}
