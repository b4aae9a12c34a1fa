package file

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// SubtitleExts lists caption file extensions recognized across the project.
var SubtitleExts = []string{".srt", ".ass", ".vtt", ".txt", ".json"}

// VideoExts lists container extensions the pipeline accepts as video input.
var VideoExts = []string{".mp4", ".mkv", ".webm", ".flv", ".mov"}

// FindLatestSubtitle walks dir recursively and returns the most recently
// modified subtitle file, or "" when none exists.
func FindLatestSubtitle(dir string) (string, error) {
	var latest string
	var latestMod time.Time

	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !IsSubtitlePath(path) {
			return nil
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = path
			latestMod = info.ModTime()
		}
		return nil
	})

	return latest, err
}

// IsSubtitlePath reports whether path has a recognized caption extension.
func IsSubtitlePath(path string) bool {
	return slices.Contains(SubtitleExts, strings.ToLower(filepath.Ext(path)))
}

// IsVideoPath reports whether path has a recognized video extension.
func IsVideoPath(path string) bool {
	return slices.Contains(VideoExts, strings.ToLower(filepath.Ext(path)))
}
