package provider

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Kind names a chat-completion backend.
type Kind string

const (
	// KindOpenAICompat covers OpenRouter, OpenAI, vLLM and any other
	// endpoint speaking the /chat/completions dialect.
	KindOpenAICompat Kind = "openai"
	KindOpenRouter   Kind = "openrouter"
	KindVLLM         Kind = "vllm"
	// KindMock is a deterministic offline backend for dry runs and tests.
	KindMock Kind = "mock"
)

// Client is the chat contract both model collaborators consume. Retry is
// the client's responsibility, not the caller's.
type Client interface {
	Chat(ctx context.Context, model string, messages []Message) (string, error)
}

// Message is a chat message whose content is either plain text or a list
// of multimodal parts.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one element of a multimodal message.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image content part carrying the JPEG bytes as a
// base64 data URL.
func ImagePart(jpeg []byte) ContentPart {
	return ContentPart{
		Type: "image_url",
		ImageURL: &ImageURL{
			URL: fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(jpeg)),
		},
	}
}

// UserMessage wraps parts into a single user-role message.
func UserMessage(parts ...ContentPart) Message {
	return Message{Role: "user", Content: parts}
}
