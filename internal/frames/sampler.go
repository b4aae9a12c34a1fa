// Package frames extracts uniformly sampled still frames from a video
// file using ffprobe/ffmpeg through an injectable command executor.
package frames

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"vidsum/pkg/executor"
	"vidsum/pkg/log"
)

// Frame is one sampled still, JPEG-encoded, ordered by timestamp.
type Frame struct {
	Index     int
	Timestamp float64 // seconds from video start, best-effort
	JPEG      []byte
}

// Sampler produces at most maxFrames frames at a density derived from
// framesPerMin, ordered by timestamp.
type Sampler interface {
	Sample(ctx context.Context, videoPath string, framesPerMin, maxFrames int) ([]Frame, error)
}

// FFmpegSampler shells out to ffprobe for the duration and ffmpeg for the
// actual extraction.
type FFmpegSampler struct {
	ffmpegCmd  string
	ffprobeCmd string
	exec       executor.Executor
}

func NewFFmpegSampler(exec executor.Executor) *FFmpegSampler {
	return &FFmpegSampler{
		ffmpegCmd:  "ffmpeg",
		ffprobeCmd: "ffprobe",
		exec:       exec,
	}
}

// Sample probes the video duration, derives the frame count
// (duration/60 * framesPerMin, clamped to [1, maxFrames]) and extracts
// that many uniformly spaced JPEG frames into a temp dir.
func (s *FFmpegSampler) Sample(ctx context.Context, videoPath string, framesPerMin, maxFrames int) ([]Frame, error) {
	if videoPath == "" {
		return nil, fmt.Errorf("video path is required")
	}
	if maxFrames <= 0 {
		return nil, fmt.Errorf("max frames must be positive, got %d", maxFrames)
	}

	duration, err := s.probeDuration(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe video duration: %w", err)
	}

	count := frameCount(duration, framesPerMin, maxFrames)
	log.Debug("sampling %d frames from %s (duration %.1fs)", count, videoPath, duration)

	tmpDir, err := os.MkdirTemp("", "vidsum-frames-*")
	if err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pattern := filepath.Join(tmpDir, "frame_%04d.jpg")
	if _, err := s.exec.Execute(ctx, s.ffmpegCmd, extractArgs(videoPath, duration, count, pattern)...); err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}

	return collectFrames(tmpDir, duration, count, maxFrames)
}

// probeDuration reads the container duration in seconds via ffprobe.
func (s *FFmpegSampler) probeDuration(ctx context.Context, videoPath string) (float64, error) {
	output, err := s.exec.Execute(ctx, s.ffprobeCmd,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		videoPath,
	)
	if err != nil {
		return 0, err
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(output), &probe); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}
	return duration, nil
}

// frameCount converts density into a concrete clamped frame count.
func frameCount(durationSec float64, framesPerMin, maxFrames int) int {
	if durationSec <= 0 {
		return 1
	}
	needed := int(durationSec / 60.0 * float64(framesPerMin))
	if needed < 1 {
		needed = 1
	}
	if needed > maxFrames {
		needed = maxFrames
	}
	return needed
}

func extractArgs(videoPath string, duration float64, count int, pattern string) []string {
	fps := float64(count) / duration
	if duration <= 0 {
		fps = 1
	}
	return []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-frames:v", strconv.Itoa(count),
		"-q:v", "3",
		"-y",
		pattern,
	}
}

// collectFrames reads the extracted JPEGs back in name order, which
// matches timestamp order for the sequential output pattern.
func collectFrames(dir string, duration float64, count, maxFrames int) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jpg") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) > maxFrames {
		names = names[:maxFrames]
	}

	step := 0.0
	if count > 0 {
		step = duration / float64(count)
	}

	frames := make([]Frame, 0, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read frame %s: %w", name, err)
		}
		frames = append(frames, Frame{
			Index:     i,
			Timestamp: float64(i) * step,
			JPEG:      data,
		})
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from video")
	}
	return frames, nil
}
