package refcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerator_RoundTrip(t *testing.T) {
	g, err := NewGenerator("test-salt")
	require.NoError(t, err)

	for _, n := range []int64{1, 42, 1721900000000000000} {
		code, err := g.FromCounter(n)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(code, "VG-"))

		got, err := g.Decode(code)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestGenerator_DistinctCounters(t *testing.T) {
	g, err := NewGenerator("test-salt")
	require.NoError(t, err)

	seen := map[string]bool{}
	for n := int64(0); n < 1000; n++ {
		code, err := g.FromCounter(n)
		require.NoError(t, err)
		require.False(t, seen[code], "duplicate code %s for %d", code, n)
		seen[code] = true
	}
}

func TestGenerator_DecodeRejectsGarbage(t *testing.T) {
	g, err := NewGenerator("test-salt")
	require.NoError(t, err)

	for _, ref := range []string{"", "VG-", "VG-!!!", "not-a-code"} {
		_, err := g.Decode(ref)
		require.Error(t, err, "reference %q should not decode", ref)
	}
}

func TestGenerator_SaltChangesCodes(t *testing.T) {
	g1, err := NewGenerator("salt-one")
	require.NoError(t, err)
	g2, err := NewGenerator("salt-two")
	require.NoError(t, err)

	c1, err := g1.FromCounter(99)
	require.NoError(t, err)
	c2, err := g2.FromCounter(99)
	require.NoError(t, err)
	require.NotEqual(t, c1, c2)
}
