package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidsum/internal/provider"
	"vidsum/internal/vision"
)

type stubClient struct {
	response string
	err      error
	prompt   string
}

func (c *stubClient) Chat(_ context.Context, _ string, messages []provider.Message) (string, error) {
	c.prompt = messages[0].Content[0].Text
	return c.response, c.err
}

func TestSummarize_ParsesStructuredResponse(t *testing.T) {
	client := &stubClient{response: `{
		"title": "Installing the toolchain",
		"topics": ["setup", "configuration"],
		"timeline": [{"time": "00:30", "event": "download starts"}],
		"key_takeaways": ["use the installer"],
		"action_items": [],
		"final_summary": "A walkthrough of the install."
	}`}
	s := NewSummarizer(client, "llm-model")

	summary, err := s.Summarize(context.Background(), "some subtitles", nil, "en")
	require.NoError(t, err)

	assert.True(t, summary.ParsedAsJSON)
	assert.Equal(t, "Installing the toolchain", summary.Title)
	assert.Equal(t, []string{"setup", "configuration"}, summary.Topics)
	require.Len(t, summary.Timeline, 1)
	assert.Equal(t, "00:30", summary.Timeline[0].Time)
	assert.Equal(t, "A walkthrough of the install.", summary.FinalSummary)
}

func TestSummarize_UnwrapsCodeFence(t *testing.T) {
	client := &stubClient{response: "```json\n{\"title\":\"t\",\"final_summary\":\"fenced\"}\n```"}
	s := NewSummarizer(client, "llm-model")

	summary, err := s.Summarize(context.Background(), "text", nil, "en")
	require.NoError(t, err)
	assert.True(t, summary.ParsedAsJSON)
	assert.Equal(t, "fenced", summary.FinalSummary)
}

func TestSummarize_RawFallback(t *testing.T) {
	client := &stubClient{response: "This video explains how to install software."}
	s := NewSummarizer(client, "llm-model")

	summary, err := s.Summarize(context.Background(), "text", nil, "en")
	require.NoError(t, err)

	assert.False(t, summary.ParsedAsJSON)
	assert.Equal(t, "This video explains how to install software.", summary.FinalSummary)
	assert.Empty(t, summary.Title)
}

func TestSummarize_ModelErrorPropagates(t *testing.T) {
	client := &stubClient{err: errors.New("timeout")}
	s := NewSummarizer(client, "llm-model")

	_, err := s.Summarize(context.Background(), "text", nil, "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summarize")
}

func TestSummarize_TruncatesLongSubtitles(t *testing.T) {
	client := &stubClient{response: `{"final_summary":"ok"}`}
	s := NewSummarizer(client, "llm-model")

	long := strings.Repeat("喵", maxSubtitleChars+500)
	_, err := s.Summarize(context.Background(), long, nil, "zh")
	require.NoError(t, err)

	// the prompt holds at most the budget's worth of subtitle runes
	assert.Equal(t, maxSubtitleChars, strings.Count(client.prompt, "喵"))
}

func TestSummarize_PromptLanguage(t *testing.T) {
	client := &stubClient{response: `{"final_summary":"ok"}`}
	s := NewSummarizer(client, "llm-model")

	_, err := s.Summarize(context.Background(), "hello", nil, "zh")
	require.NoError(t, err)
	assert.Contains(t, client.prompt, "字幕文本")

	_, err = s.Summarize(context.Background(), "hello", nil, "en")
	require.NoError(t, err)
	assert.Contains(t, client.prompt, "Subtitles:")
}

func TestSummarize_EmbedsVisualNotes(t *testing.T) {
	client := &stubClient{response: `{"final_summary":"ok"}`}
	s := NewSummarizer(client, "llm-model")

	notes := []vision.Note{{FrameIndex: 3, Timestamp: 15, Raw: "a setup wizard"}}
	_, err := s.Summarize(context.Background(), "hello", notes, "en")
	require.NoError(t, err)
	assert.Contains(t, client.prompt, "a setup wizard")
}
