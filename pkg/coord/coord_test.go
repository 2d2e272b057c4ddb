package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	for _, p := range []string{"/", "/a", "/a/b/c"} {
		assert.NoError(t, ValidatePath(p), p)
	}
	for _, p := range []string{"", "a", "/a/", "/a//b", "/a/./b"} {
		assert.Error(t, ValidatePath(p), p)
	}
}

func TestAncestors(t *testing.T) {
	assert.Equal(t, []string{"/a", "/a/b"}, Ancestors("/a/b/c"))
	assert.Empty(t, Ancestors("/a"))
}

func TestIsDescendant(t *testing.T) {
	assert.True(t, IsDescendant("/very/long/path", "/very/long/path"))
	assert.True(t, IsDescendant("/very/long/path/leader", "/very/long/path"))
	assert.False(t, IsDescendant("/very/long/path2", "/very/long/path"))
	assert.True(t, IsDescendant("/x", "/"))
}

func TestApplyCreateOptions(t *testing.T) {
	o := ApplyCreateOptions(WithParents(), Ephemeral())
	assert.True(t, o.Parents)
	assert.True(t, o.Ephemeral)
	assert.Equal(t, CreateOptions{}, ApplyCreateOptions())
}
