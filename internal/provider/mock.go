package provider

import "context"

// MockClient returns deterministic responses without any network I/O, so
// dry runs and tests exercise the full prompt/response plumbing offline.
// A message carrying an image part gets a canned visual note; anything
// else gets a canned summary.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Chat(_ context.Context, _ string, messages []Message) (string, error) {
	if len(messages) > 0 && hasImagePart(messages[len(messages)-1]) {
		return `{
  "scene_title": "示例画面",
  "text_on_screen": ["DEMO"],
  "objects": ["screen", "text"],
  "actions": [],
  "notes": "这是一个用于离线测试的固定返回。"
}`, nil
	}
	return `{
  "title": "示例视频",
  "final_summary": "这是一个Mock总结，用于验证管线连通性。"
}`, nil
}

func hasImagePart(msg Message) bool {
	for _, part := range msg.Content {
		if part.Type == "image_url" {
			return true
		}
	}
	return false
}
