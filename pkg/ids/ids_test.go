package ids_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pql-lang/pqlc/pkg/ids"
)

func TestGen_NextIsMonotonic(t *testing.T) {
	g := ids.New[ids.CId]()
	require.Equal(t, ids.CId(0), g.Next())
	require.Equal(t, ids.CId(1), g.Next())
	require.Equal(t, ids.CId(2), g.Next())
}

func TestGen_PeekDoesNotAllocate(t *testing.T) {
	g := ids.New[ids.TId]()
	require.Equal(t, ids.TId(0), g.Peek())
	require.Equal(t, ids.TId(0), g.Peek())
	require.Equal(t, ids.TId(0), g.Next())
	require.Equal(t, ids.TId(1), g.Peek())
}

func TestGen_EnsureAtLeast(t *testing.T) {
	cases := []struct {
		name     string
		seed     []int
		used     int
		wantNext int
	}{
		{"bumps forward past a higher watermark", nil, 5, 6},
		{"no-op when already ahead", []int{0, 1, 2}, 1, 3},
		{"no-op when exactly at the watermark", nil, -1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := ids.New[ids.RIId]()
			for range tc.seed {
				g.Next()
			}
			g.EnsureAtLeast(ids.RIId(tc.used))
			require.Equal(t, ids.RIId(tc.wantNext), g.Peek())
		})
	}
}

func TestGenerators_AreIndependent(t *testing.T) {
	gens := ids.NewGenerators()
	gens.CId.Next()
	gens.CId.Next()
	require.Equal(t, ids.TId(0), gens.TId.Peek())
	require.Equal(t, ids.RIId(0), gens.RIId.Peek())
	require.Equal(t, ids.CId(2), gens.CId.Peek())
}

func TestIdStrings(t *testing.T) {
	require.Equal(t, "c3", ids.CId(3).String())
	require.Equal(t, "t7", ids.TId(7).String())
	require.Equal(t, "ri9", ids.RIId(9).String())
}
