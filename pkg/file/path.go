package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path for ext, adding a leading dot to
// ext when missing. A path without an extension gets ext appended.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}

	return filepath.Join(dir, filename[:lastDot]+ext)
}

// BaseName returns the file name of path without any extensions, so both
// "clip.mp4" and "clip.zh.srt" map to "clip".
func BaseName(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
