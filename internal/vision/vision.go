// Package vision turns sampled video frames into structured visual notes
// by prompting a multimodal chat model per frame.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vidsum/internal/frames"
	"vidsum/internal/provider"
	"vidsum/internal/strategy"
	"vidsum/pkg/log"
)

// Note is the per-frame analysis result. Fields is the model's parsed JSON
// when it produced any; Raw always carries the unparsed response so a
// malformed reply never loses information.
type Note struct {
	FrameIndex int             `json:"frame_index"`
	Timestamp  float64         `json:"timestamp"`
	Fields     json.RawMessage `json:"fields,omitempty"`
	Raw        string          `json:"raw,omitempty"`
}

// Analyzer prompts the vision model once per frame.
type Analyzer struct {
	client provider.Client
	model  string

	// requestInterval spaces consecutive calls to stay under provider
	// rate limits; zero disables pacing.
	requestInterval time.Duration
}

func NewAnalyzer(client provider.Client, model string, requestInterval time.Duration) *Analyzer {
	return &Analyzer{
		client:          client,
		model:           model,
		requestInterval: requestInterval,
	}
}

// Describe analyzes each frame with the strategy's prompt style and returns
// one note per frame, in frame order. A per-frame model failure aborts the
// whole pass: partial visual context produces misleading summaries.
func (a *Analyzer) Describe(ctx context.Context, frameList []frames.Frame, strat strategy.Strategy) ([]Note, error) {
	prompt := BuildPrompt(strat.PromptStyle, strat.Language)

	notes := make([]Note, 0, len(frameList))
	for i, frame := range frameList {
		if i > 0 && a.requestInterval > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.requestInterval):
			}
		}

		content, err := a.client.Chat(ctx, a.model, []provider.Message{
			provider.UserMessage(
				provider.TextPart(prompt),
				provider.ImagePart(frame.JPEG),
			),
		})
		if err != nil {
			return nil, fmt.Errorf("describe frame %d: %w", frame.Index, err)
		}

		notes = append(notes, newNote(frame, content))
	}

	log.Info("described %d frames with style %s", len(notes), strat.PromptStyle)
	return notes, nil
}

// DryRun sends a single text-only request and returns the resulting note,
// so a dry run still yields visual context for the summarizer without
// burning image tokens.
func (a *Analyzer) DryRun(ctx context.Context, strat strategy.Strategy) (Note, error) {
	prompt := BuildPrompt(strat.PromptStyle, strat.Language)

	content, err := a.client.Chat(ctx, a.model, []provider.Message{
		provider.UserMessage(provider.TextPart(prompt)),
	})
	if err != nil {
		return Note{}, fmt.Errorf("vision dry run: %w", err)
	}
	return newNote(frames.Frame{}, content), nil
}

// newNote keeps the parsed JSON object when the model returned one and
// falls back to the raw text otherwise.
func newNote(frame frames.Frame, content string) Note {
	note := Note{
		FrameIndex: frame.Index,
		Timestamp:  frame.Timestamp,
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		note.Fields = json.RawMessage(content)
	} else {
		log.Debug("frame %d response is not JSON, keeping raw text", frame.Index)
		note.Raw = content
	}
	return note
}
