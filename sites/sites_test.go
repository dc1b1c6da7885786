package sites

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryIsComplete(t *testing.T) {
	all := All()
	require.Len(t, all, 11)

	seen := make(map[string]struct{})
	for _, s := range all {
		require.NotEmpty(t, s.Name)
		require.NotEmpty(t, s.Domain)
		require.NotEmpty(t, s.Color)
		_, dup := seen[s.Domain]
		require.False(t, dup, "duplicate domain %s", s.Domain)
		seen[s.Domain] = struct{}{}
	}
}

func TestByDomain(t *testing.T) {
	s, ok := ByDomain("git-islife.com")
	require.True(t, ok)
	require.Equal(t, "Git is Life", s.Name)

	_, ok = ByDomain("not-a-site.com")
	require.False(t, ok)
}
