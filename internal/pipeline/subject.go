package pipeline

import (
	"path/filepath"
	"regexp"
	"strings"

	"vidsum/pkg/file"
)

// bvPattern matches platform video ids embedded in URLs and file names.
var bvPattern = regexp.MustCompile(`BV[0-9A-Za-z]+`)

// ResolveSubject derives the cache subject id for a request. Precedence:
// explicit id, then a video id found in the source URL, then one found in
// the subtitle or video file name, then the subtitle base name itself.
// A dotfile base name is no usable id; the run then proceeds uncached.
func ResolveSubject(req Request) string {
	if req.SubjectID != "" {
		return req.SubjectID
	}
	for _, candidate := range []string{
		req.SourceURL,
		filepath.Base(req.SubtitlePath),
		filepath.Base(req.VideoPath),
	} {
		if id := bvPattern.FindString(candidate); id != "" {
			return id
		}
	}
	if req.SubtitlePath != "" {
		if name := file.BaseName(req.SubtitlePath); !strings.HasPrefix(name, ".") {
			return name
		}
	}
	return ""
}
