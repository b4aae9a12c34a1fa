package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor answers ffprobe with a fixed duration and fakes ffmpeg by
// dropping files matching the output pattern.
type fakeExecutor struct {
	duration    string
	frameCount  int
	calls       []string
	ffmpegError error
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, name)

	if name == "ffprobe" {
		return fmt.Sprintf(`{"format":{"duration":"%s"}}`, f.duration), nil
	}

	if f.ffmpegError != nil {
		return "", f.ffmpegError
	}

	// last arg is the output pattern frame_%04d.jpg
	pattern := args[len(args)-1]
	dir := filepath.Dir(pattern)
	for i := 1; i <= f.frameCount; i++ {
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.jpg", i))
		if err := os.WriteFile(path, []byte{0xff, 0xd8, byte(i)}, 0o644); err != nil {
			return "", err
		}
	}
	return "", nil
}

func TestSample_UniformExtraction(t *testing.T) {
	exec := &fakeExecutor{duration: "300.0", frameCount: 50}
	sampler := NewFFmpegSampler(exec)

	// 300s at 12/min wants 60, clamped to 50 by ffmpeg output
	frames, err := sampler.Sample(context.Background(), "video.mp4", 12, 60)
	require.NoError(t, err)

	assert.Len(t, frames, 50)
	assert.Equal(t, 0, frames[0].Index)
	assert.Less(t, frames[0].Timestamp, frames[1].Timestamp)
	assert.Equal(t, []string{"ffprobe", "ffmpeg"}, exec.calls)
}

func TestSample_RespectsMaxFrames(t *testing.T) {
	exec := &fakeExecutor{duration: "600.0", frameCount: 40}
	sampler := NewFFmpegSampler(exec)

	frames, err := sampler.Sample(context.Background(), "video.mp4", 20, 10)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(frames), 10)
}

func TestSample_MissingVideoPath(t *testing.T) {
	sampler := NewFFmpegSampler(&fakeExecutor{duration: "10"})
	_, err := sampler.Sample(context.Background(), "", 10, 10)
	assert.Error(t, err)
}

func TestSample_FFmpegFailurePropagates(t *testing.T) {
	exec := &fakeExecutor{duration: "60", ffmpegError: fmt.Errorf("boom")}
	sampler := NewFFmpegSampler(exec)

	_, err := sampler.Sample(context.Background(), "video.mp4", 10, 10)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "extract frames"))
}

func TestSample_NoFramesIsError(t *testing.T) {
	exec := &fakeExecutor{duration: "60", frameCount: 0}
	sampler := NewFFmpegSampler(exec)

	_, err := sampler.Sample(context.Background(), "video.mp4", 10, 10)
	assert.Error(t, err)
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		duration float64
		fpm      int
		max      int
		want     int
	}{
		{300, 12, 80, 60},
		{300, 12, 40, 40},  // clamped to max
		{10, 6, 80, 1},     // short video still gets one frame
		{0, 10, 80, 1},     // unknown duration
		{3600, 20, 120, 120},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, frameCount(tt.duration, tt.fpm, tt.max))
	}
}
