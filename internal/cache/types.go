package cache

import "encoding/json"

// ProfileSchemaVersion guards the hash semantics: bump it whenever a field
// is added to Profile, so old cache entries stop matching instead of being
// served for a profile they never described.
const ProfileSchemaVersion = 1

// Profile is the canonical description of everything that can change the
// pipeline output for a fixed subject. Two runs with the same subject id
// and the same Profile are cache-equivalent.
type Profile struct {
	SchemaVersion   int    `json:"schema_version"`
	PipelineVersion string `json:"pipeline_version"`
	Provider        string `json:"provider"`
	VLMModel        string `json:"vlm_model"`
	LLMModel        string `json:"llm_model"`
	Language        string `json:"language"`

	// Resolved strategy fields actually used for the run.
	Kind         string `json:"kind"`
	Sampling     string `json:"sampling"`
	PromptStyle  string `json:"prompt_style"`
	FramesPerMin int    `json:"frames_per_min"`
	MaxFrames    int    `json:"max_frames"`
}

// Entry is a stored cache record: the profile it was produced under plus
// the opaque pipeline payload.
type Entry struct {
	Profile Profile         `json:"profile"`
	Data    json.RawMessage `json:"data"`
}
