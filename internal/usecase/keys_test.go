package usecase

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyStrategy(t *testing.T) {
	k, err := ParseKeyStrategy("")
	require.NoError(t, err)
	assert.Equal(t, KeysDeterministic, k)

	k, err = ParseKeyStrategy("random")
	require.NoError(t, err)
	assert.Equal(t, KeysRandom, k)

	_, err = ParseKeyStrategy("sequential")
	assert.Error(t, err)
}

func TestDeterministicKeys(t *testing.T) {
	a := KeysDeterministic.PreviewKeys("clip", 4)
	b := KeysDeterministic.PreviewKeys("clip", 4)
	other := KeysDeterministic.PreviewKeys("other", 4)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)

	seen := map[string]bool{}
	for _, k := range a {
		_, err := uuid.Parse(k)
		require.NoError(t, err)
		seen[k] = true
	}
	assert.Len(t, seen, 4)
}

func TestRandomKeys(t *testing.T) {
	a := KeysRandom.PreviewKeys("clip", 2)
	b := KeysRandom.PreviewKeys("clip", 2)
	assert.NotEqual(t, a, b)
}

func TestScratchName(t *testing.T) {
	name := scratchName("abc", "mp4")
	assert.Equal(t, name, scratchName("abc", "mp4"))
	assert.Equal(t, ".mp4", filepath.Ext(name))
	assert.Equal(t, name, filepath.Base(name))

	assert.Equal(t, "webm", filepath.Ext(scratchName("a/b", "webm"))[1:])
	assert.NotContains(t, scratchName("..", ""), ".")
	assert.Equal(t, ".x-matroska", filepath.Ext(scratchName("x", "x-matroska")))
	assert.NotContains(t, scratchName("x", "../../etc"), "/")
}

func TestScratchNameDoesNotCollide(t *testing.T) {
	refs := []string{"user/42", "user_42", "user:42", "user 42", "user%2F42", "USER/42"}
	seen := map[string]string{}
	for _, ref := range refs {
		name := scratchName(ref, "mp4")
		prev, dup := seen[name]
		require.False(t, dup, "%q and %q share scratch file %s", prev, ref, name)
		seen[name] = ref
	}
}
