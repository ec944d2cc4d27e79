package contextset

import (
	"testing"

	"github.com/permkit/permctx/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutable_Add(t *testing.T) {
	m := NewMutable()

	err := m.Add("server", "lobby")
	require.NoError(t, err)
	assert.True(t, m.Contains("server", "lobby"))
	assert.Equal(t, 1, m.Size())

	// Duplicate entries collapse
	err = m.Add("server", "lobby")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Size())

	// Same key, different value is a distinct entry
	err = m.Add("server", "factions")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Size())
	assert.Equal(t, []string{"lobby", "factions"}, m.Values("server"))
}

func TestMutable_Add_Normalization(t *testing.T) {
	m := NewMutable()

	require.NoError(t, m.Add("  World ", " Nether "))

	// Keys are lower-cased and trimmed, values only trimmed
	assert.True(t, m.Contains("world", "Nether"))
	assert.True(t, m.ContainsKey("WORLD"))
	assert.False(t, m.Contains("world", "nether"))
}

func TestMutable_Add_Invalid(t *testing.T) {
	m := NewMutable()

	err := m.Add("", "value")
	assert.ErrorIs(t, err, errors.ErrEmptyContextKey)

	err = m.Add("   ", "value")
	assert.ErrorIs(t, err, errors.ErrEmptyContextKey)

	err = m.Add("key", "")
	assert.ErrorIs(t, err, errors.ErrEmptyContextValue)

	err = m.Add("key", "  ")
	assert.ErrorIs(t, err, errors.ErrEmptyContextValue)

	assert.True(t, m.IsEmpty())
}

func TestMutable_Remove(t *testing.T) {
	m := NewMutable()
	require.NoError(t, m.Add("world", "nether"))
	require.NoError(t, m.Add("world", "end"))
	require.NoError(t, m.Add("server", "lobby"))

	m.Remove("world", "nether")
	assert.False(t, m.Contains("world", "nether"))
	assert.True(t, m.Contains("world", "end"))

	m.RemoveKey("world")
	assert.False(t, m.ContainsKey("world"))
	assert.True(t, m.Contains("server", "lobby"))
}

func TestEqual_OrderIndependent(t *testing.T) {
	a := NewMutable()
	require.NoError(t, a.Add("server", "lobby"))
	require.NoError(t, a.Add("world", "nether"))

	b := NewMutable()
	require.NoError(t, b.Add("world", "nether"))
	require.NoError(t, b.Add("server", "lobby"))

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.True(t, a.Immutable().Equal(b))

	require.NoError(t, b.Add("gamemode", "creative"))
	assert.False(t, a.Equal(b))
}

func TestIterationOrderPreserved(t *testing.T) {
	m := NewMutable()
	require.NoError(t, m.Add("server", "alpha"))
	require.NoError(t, m.Add("world", "nether"))
	require.NoError(t, m.Add("server", "beta"))

	expected := []Pair{
		{Key: "server", Value: "alpha"},
		{Key: "world", Value: "nether"},
		{Key: "server", Value: "beta"},
	}
	assert.Equal(t, expected, m.Pairs())
	assert.Equal(t, expected, m.Immutable().Pairs())
}

func TestImmutable_Idempotent(t *testing.T) {
	m := NewMutable()
	require.NoError(t, m.Add("server", "lobby"))

	frozen := m.Immutable()
	// Freezing an already frozen set returns the same instance
	assert.Same(t, frozen, frozen.Immutable())

	// Further mutation of the builder does not leak into the frozen set
	require.NoError(t, m.Add("world", "nether"))
	assert.Equal(t, 1, frozen.Size())
	assert.False(t, frozen.ContainsKey("world"))
}

func TestImmutable_PairsIsACopy(t *testing.T) {
	m := NewMutable()
	require.NoError(t, m.Add("server", "lobby"))
	frozen := m.Immutable()

	pairs := frozen.Pairs()
	pairs[0] = Pair{Key: "server", Value: "hacked"}
	assert.True(t, frozen.Contains("server", "lobby"))
	assert.False(t, frozen.Contains("server", "hacked"))
}

func TestClone_Independent(t *testing.T) {
	m := NewMutable()
	require.NoError(t, m.Add("server", "lobby"))

	c := m.Clone()
	require.NoError(t, c.Add("world", "nether"))
	c.Remove("server", "lobby")

	assert.True(t, m.Contains("server", "lobby"))
	assert.False(t, m.ContainsKey("world"))
	assert.Equal(t, 1, m.Size())
}

func TestConstructors(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	assert.Same(t, Empty(), Empty().Immutable())

	single, err := Of("server", "lobby")
	require.NoError(t, err)
	assert.Equal(t, 1, single.Size())

	_, err = Of("", "lobby")
	assert.ErrorIs(t, err, errors.ErrEmptyContextKey)

	fromMap, err := FromMap(map[string]string{"world": "nether", "server": "lobby"})
	require.NoError(t, err)
	// Sorted key order makes map construction deterministic
	assert.Equal(t, []Pair{
		{Key: "server", Value: "lobby"},
		{Key: "world", Value: "nether"},
	}, fromMap.Pairs())

	fromPairs, err := FromPairs([]Pair{{Key: "server", Value: "alpha"}, {Key: "server", Value: "beta"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, fromPairs.Values("server"))
}

func TestMutableCopy(t *testing.T) {
	frozen, err := Of("server", "lobby")
	require.NoError(t, err)

	m := frozen.MutableCopy()
	require.NoError(t, m.Add("world", "nether"))

	assert.Equal(t, 1, frozen.Size())
	assert.Equal(t, 2, m.Size())
}
