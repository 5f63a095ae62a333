package idgen

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewVersionIDMonotonic(t *testing.T) {
	g := NewGenerator()
	var ids []string
	for i := 0; i < 200; i++ {
		ids = append(ids, g.NewVersionID())
	}
	for i := 1; i < len(ids); i++ {
		require.Greater(t, ids[i], ids[i-1], "id %d (%s) must sort strictly greater than id %d (%s)", i, ids[i], i-1, ids[i-1])
	}
	require.True(t, sort.StringsAreSorted(ids))
}

func TestNewVersionIDUnique(t *testing.T) {
	g := NewGenerator()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := g.NewVersionID()
		require.False(t, seen[id], "duplicate id minted: %s", id)
		seen[id] = true
	}
}

func TestETagDeterministic(t *testing.T) {
	require.Equal(t, ETag([]byte("hello")), ETag([]byte("hello")))
	require.NotEqual(t, ETag([]byte("hello")), ETag([]byte("world")))
}

func TestMultipartETag(t *testing.T) {
	e1 := MultipartETag([]string{ETag([]byte("a")), ETag([]byte("b"))})
	e2 := MultipartETag([]string{ETag([]byte("a")), ETag([]byte("b"))})
	require.Equal(t, e1, e2)
	require.Regexp(t, `^[0-9a-f]{64}-2$`, e1)
}
