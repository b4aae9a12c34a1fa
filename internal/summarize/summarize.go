// Package summarize fuses the cleaned subtitle text and per-frame visual
// notes into one structured summary via the text model.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vidsum/internal/provider"
	"vidsum/internal/vision"
	"vidsum/pkg/log"
)

// Character budgets keep the fused prompt inside typical context windows.
// Subtitles carry more signal per character, so they get the tighter cap.
const (
	maxSubtitleChars    = 12000
	maxVisualNotesChars = 14000
)

// TimelineEntry is one timestamped beat of the video.
type TimelineEntry struct {
	Time  string `json:"time"`
	Event string `json:"event"`
}

// Summary is the structured model output. When the model does not return
// valid JSON, only FinalSummary is populated, with the raw response.
type Summary struct {
	Title        string          `json:"title"`
	Topics       []string        `json:"topics,omitempty"`
	Timeline     []TimelineEntry `json:"timeline,omitempty"`
	KeyTakeaways []string        `json:"key_takeaways,omitempty"`
	ActionItems  []string        `json:"action_items,omitempty"`
	FinalSummary string          `json:"final_summary"`
	ParsedAsJSON bool            `json:"parsed_as_json"`
}

// Summarizer drives the text model.
type Summarizer struct {
	client provider.Client
	model  string
}

func NewSummarizer(client provider.Client, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// Summarize builds the fused prompt, asks the model once, and parses the
// response. Model errors propagate; malformed JSON does not.
func (s *Summarizer) Summarize(ctx context.Context, subtitleText string, notes []vision.Note, language string) (Summary, error) {
	prompt, err := buildPrompt(subtitleText, notes, language)
	if err != nil {
		return Summary{}, err
	}

	content, err := s.client.Chat(ctx, s.model, []provider.Message{
		provider.UserMessage(provider.TextPart(prompt)),
	})
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}

	return parseSummary(content), nil
}

func buildPrompt(subtitleText string, notes []vision.Note, language string) (string, error) {
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("encode visual notes: %w", err)
	}

	subtitle := truncateRunes(subtitleText, maxSubtitleChars)
	visual := truncateRunes(string(notesJSON), maxVisualNotesChars)

	if language == "zh" {
		return fmt.Sprintf(`你是视频内容总结助手。下面给出视频的字幕文本与逐帧画面解析结果，请综合两者生成结构化总结。
要求输出JSON，字段:
- title: 视频标题(你的概括)
- topics: 涉及的主题列表
- timeline: [{"time": "mm:ss", "event": "..."}] 关键节点
- key_takeaways: 核心要点
- action_items: 可执行的后续行动(没有则为空数组)
- final_summary: 一段完整的总结文字

字幕文本:
%s

画面解析(JSON):
%s`, subtitle, visual), nil
	}

	return fmt.Sprintf(`You are a video summarization assistant. Below are the video's subtitle text and per-frame visual analysis. Combine both into a structured summary.
Output JSON with fields:
- title: your one-line title for the video
- topics: list of topics covered
- timeline: [{"time": "mm:ss", "event": "..."}] key moments
- key_takeaways: the core points
- action_items: concrete follow-ups (empty array if none)
- final_summary: one coherent summary paragraph

Subtitles:
%s

Visual analysis (JSON):
%s`, subtitle, visual), nil
}

// parseSummary accepts the model's JSON when well-formed and otherwise
// wraps the raw text so the caller always gets a usable summary.
func parseSummary(content string) Summary {
	trimmed := strings.TrimSpace(content)
	trimmed = stripCodeFence(trimmed)

	var summary Summary
	if err := json.Unmarshal([]byte(trimmed), &summary); err == nil && summary.FinalSummary != "" {
		summary.ParsedAsJSON = true
		return summary
	}

	log.Warn("summary response is not the expected JSON shape, keeping raw text")
	return Summary{FinalSummary: content}
}

// stripCodeFence unwraps ```json ... ``` blocks some models insist on.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
