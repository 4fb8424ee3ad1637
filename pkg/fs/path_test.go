package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Root", "/", "/"},
		{"Empty", "", "/"},
		{"Simple", "/a/b", "/a/b"},
		{"RelativeTreatedAsAbsolute", "a/b", "/a/b"},
		{"TrailingSlash", "/a/b/", "/a/b"},
		{"DotSegments", "/a/./b", "/a/b"},
		{"InnerDotDot", "/a/b/../c", "/a/c"},
		{"DoubleSlash", "//a//b", "/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanPathRejectsHostileInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"EscapeFromRoot", "/.."},
		{"DeepEscape", "/a/../../b"},
		{"RelativeEscape", "../x"},
		{"EmbeddedNUL", "/a\x00b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CleanPath(tt.in)
			assert.ErrorIs(t, err, ErrInvalidPath)
		})
	}
}

func TestSplitPath(t *testing.T) {
	dir, base := SplitPath("/a/b/c")
	assert.Equal(t, "/a/b", dir)
	assert.Equal(t, "c", base)

	dir, base = SplitPath("/top")
	assert.Equal(t, "/", dir)
	assert.Equal(t, "top", base)

	dir, base = SplitPath("/")
	assert.Equal(t, "/", dir)
	assert.Equal(t, "", base)
}
