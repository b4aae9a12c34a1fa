package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatestSubtitle(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.srt")
	require.NoError(t, os.WriteFile(old, []byte("a"), 0o644))
	require.NoError(t, os.Chtimes(old, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)))

	newest := filepath.Join(dir, "nested", "new.srt")
	require.NoError(t, os.MkdirAll(filepath.Dir(newest), 0o755))
	require.NoError(t, os.WriteFile(newest, []byte("b"), 0o644))

	// videos never count as subtitles
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("v"), 0o644))

	got, err := FindLatestSubtitle(dir)
	require.NoError(t, err)
	assert.Equal(t, newest, got)
}

func TestFindLatestSubtitle_Empty(t *testing.T) {
	got, err := FindLatestSubtitle(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIsSubtitlePath(t *testing.T) {
	assert.True(t, IsSubtitlePath("/a/b/c.srt"))
	assert.True(t, IsSubtitlePath("C.VTT"))
	assert.False(t, IsSubtitlePath("/a/b/c.mp4"))
	assert.False(t, IsSubtitlePath("noext"))
}

func TestIsVideoPath(t *testing.T) {
	assert.True(t, IsVideoPath("clip.mkv"))
	assert.False(t, IsVideoPath("clip.srt"))
}

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want string
	}{
		{"a/b/clip.mp4", "json", "a/b/clip.json"},
		{"clip.zh.srt", "summary.json", "clip.zh.summary.json"},
		{"noext", ".txt", "noext.txt"},
		{"", "json", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ReplaceExt(tt.path, tt.ext), tt.path)
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "clip", BaseName("/a/b/clip.mp4"))
	assert.Equal(t, "clip", BaseName("clip.zh.srt"))
	assert.Equal(t, "clip", BaseName("clip"))
}
