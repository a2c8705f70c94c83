package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplode(t *testing.T) {
	assert.Equal(t, []string{".", "a", "b"}, Explode("./a/b"))
	assert.Equal(t, []string{"a", "", "b"}, Explode("a//b/"))
	assert.Nil(t, Explode(""))
}

func TestParent(t *testing.T) {
	assert.Equal(t, []string{".", "a"}, Parent([]string{".", "a", "b"}))
	assert.Equal(t, []string{".."}, Parent(nil))
	assert.Equal(t, []string{"..", ".."}, Parent([]string{".."}))
	assert.Equal(t, []string{".."}, Parent([]string{"."}))
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "."},
		{".", "."},
		{"./a/./b", "./a/b"},
		{"./a/../b", "./b"},
		{"a/b/..", "a"},
		{"../x", "../x"},
		{"./..", ".."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Implode(Simplify(Explode(tt.in))))
		})
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		from, required, want string
	}{
		{"./a/c", "./b", "./a/b"},
		{"./a/b", "..", "."},
		{"./a", "../../x", "../../x"},
		{"./index", "./addon.node", "./addon.node"},
		{"./lib/deep/index", "../native/addon.node", "./lib/native/addon.node"},
		{"./lib/index", "./x/./y", "./lib/x/y"},
	}
	for _, tt := range tests {
		t.Run(tt.from+"+"+tt.required, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.from, tt.required))
		})
	}
}

func TestRebase(t *testing.T) {
	assert.Equal(t, "./fs", Rebase("fs"))
	assert.Equal(t, "./a/b", Rebase("./a/b"))
	assert.Equal(t, "./b", Rebase("a/../b"))
}

func TestRPartition(t *testing.T) {
	head, tail := RPartition("node:fs", ':')
	assert.Equal(t, "node", head)
	assert.Equal(t, "fs", tail)

	head, tail = RPartition("a:b:c", ':')
	assert.Equal(t, "a:b", head)
	assert.Equal(t, "c", tail)

	head, tail = RPartition("./plain", ':')
	assert.Empty(t, head)
	assert.Equal(t, "./plain", tail)
}

func TestIsModulePathLike(t *testing.T) {
	for _, ok := range []string{"", "./a/b", "node:fs", "a-b_c.node", "ABC123"} {
		assert.True(t, IsModulePathLike(ok), ok)
	}
	for _, bad := range []string{"@scope/pkg", "a b", "a\\b", "a?b", "ü"} {
		assert.False(t, IsModulePathLike(bad), bad)
	}
}
