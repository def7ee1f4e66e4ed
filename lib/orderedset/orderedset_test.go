package orderedset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	s := New("b", "a", "b", "c", "a")

	require.Equal(t, []string{"b", "a", "c"}, s.Values())
	require.Equal(t, 3, s.Len())

	require.False(t, s.Add("c"))
	require.True(t, s.Add("d"))
	require.True(t, s.Has("d"))
	require.False(t, s.Has("e"))
	require.Equal(t, []string{"b", "a", "c", "d"}, s.Values())
}
