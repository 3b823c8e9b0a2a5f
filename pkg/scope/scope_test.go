package scope

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osprey-sec/osprey/pkg/usage"
)

func writeScopeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scope.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolvePassesArgsThroughVerbatim(t *testing.T) {
	targets, err := Resolve([]string{"a.com", "b.com"}, "web", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com"}, targets)
}

func TestResolveKeepsOrderAndDuplicates(t *testing.T) {
	targets, err := Resolve([]string{"b.com", "a.com", "b.com"}, "web", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.com", "a.com", "b.com"}, targets)
}

func TestResolveSingleFileArgReplacesScope(t *testing.T) {
	path := writeScopeFile(t, "a.com\n\n  b.com  \n")
	targets, err := Resolve([]string{path}, "web", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com"}, targets)
}

func TestResolveBlankOnlyScopeFileFails(t *testing.T) {
	path := writeScopeFile(t, "\n \n\t\n")
	_, err := Resolve([]string{path}, "web", false)
	require.Error(t, err)
	assert.True(t, usage.Is(err))
}

func TestResolveNonFileSingleArgIsLiteral(t *testing.T) {
	targets, err := Resolve([]string{"definitely-not-a-file.example"}, "web", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"definitely-not-a-file.example"}, targets)
}

func TestResolveMultipleArgsSkipFileCheck(t *testing.T) {
	path := writeScopeFile(t, "a.com\n")
	targets, err := Resolve([]string{path, "b.com"}, "web", false)
	require.NoError(t, err)
	assert.Equal(t, []string{path, "b.com"}, targets)
}

// A non-auxiliary run with no targets and no listing request is accepted as
// a no-op today. This documents the known gap rather than tightening it.
func TestResolveZeroTargetsKnownGap(t *testing.T) {
	targets, err := Resolve(nil, "web", false)
	require.NoError(t, err)
	assert.Empty(t, targets)
}
