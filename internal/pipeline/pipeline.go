// Package pipeline coordinates one end-to-end summarization run: subtitle
// ingestion, strategy selection, frame sampling, vision analysis,
// summarization, and result caching.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vidsum/internal/cache"
	"vidsum/internal/frames"
	"vidsum/internal/strategy"
	"vidsum/internal/subtitle"
	"vidsum/internal/summarize"
	"vidsum/internal/vision"
	"vidsum/pkg/log"
)

// Version participates in the cache profile hash: bump it whenever the
// pipeline's output semantics change, so stale entries stop matching.
const Version = "v1"

// Request describes one summarization run.
type Request struct {
	SubtitlePath string
	VideoPath    string
	SubjectID    string
	SourceURL    string

	Provider string
	VLMModel string
	LLMModel string
	Language strategy.Lang

	// MaxFrames further caps the strategy's own frame limit when positive.
	MaxFrames int

	DryRun        bool
	RefreshCache  bool
	CacheReadonly bool
}

// Meta is the run bookkeeping attached to every payload.
type Meta struct {
	SubjectID       string    `json:"subject_id"`
	PipelineVersion string    `json:"pipeline_version"`
	CacheHit        bool      `json:"cache_hit"`
	DryRun          bool      `json:"dry_run,omitempty"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Payload is the pipeline result, also the shape persisted in the cache.
type Payload struct {
	Strategy    strategy.Strategy    `json:"strategy"`
	CleanReport subtitle.CleanReport `json:"clean_report"`
	VisualNotes []vision.Note        `json:"visual_notes,omitempty"`
	Summary     summarize.Summary    `json:"summary"`
	Meta        Meta                 `json:"meta"`
}

// FrameSampler yields ordered JPEG frames from a video file.
type FrameSampler interface {
	Sample(ctx context.Context, videoPath string, framesPerMin, maxFrames int) ([]frames.Frame, error)
}

// VisionAnalyzer turns frames into visual notes. DryRun produces a single
// prompt-only note without sending any image.
type VisionAnalyzer interface {
	Describe(ctx context.Context, frameList []frames.Frame, strat strategy.Strategy) ([]vision.Note, error)
	DryRun(ctx context.Context, strat strategy.Strategy) (vision.Note, error)
}

// TextSummarizer fuses subtitles and visual notes into a summary.
type TextSummarizer interface {
	Summarize(ctx context.Context, subtitleText string, notes []vision.Note, language string) (summarize.Summary, error)
}

// Coordinator owns the collaborators and the result cache.
type Coordinator struct {
	cache      *cache.Store
	sampler    FrameSampler
	vision     VisionAnalyzer
	summarizer TextSummarizer
	now        func() time.Time
}

func NewCoordinator(store *cache.Store, sampler FrameSampler, analyzer VisionAnalyzer, summarizer TextSummarizer) *Coordinator {
	return &Coordinator{
		cache:      store,
		sampler:    sampler,
		vision:     analyzer,
		summarizer: summarizer,
		now:        time.Now,
	}
}

// Run executes one summarization pass. Cache reads happen twice: a coarse
// check against the subject's latest entry before any subtitle work, and a
// precise profile-addressed check once the strategy is known. A dry run
// replaces frame sampling with a single prompt-only vision note but still
// summarizes and persists. Collaborator failures propagate and never leave
// a cache write behind.
func (c *Coordinator) Run(ctx context.Context, req Request) (*Payload, error) {
	if req.SubtitlePath == "" {
		return nil, fmt.Errorf("subtitle path is required")
	}
	if req.VideoPath == "" && !req.DryRun {
		return nil, fmt.Errorf("video path is required outside dry-run")
	}

	subjectID := ResolveSubject(req)
	if subjectID == "" {
		log.Warn("cannot resolve subject id for %s, running uncached", req.SubtitlePath)
	} else {
		log.Info("pipeline run for subject %s", subjectID)
	}

	// Coarse check: the subject's latest entry serves regardless of
	// profile. Callers that changed parameters request a refresh.
	if subjectID != "" && !req.RefreshCache {
		if entry, ok := c.cache.LoadLatest(subjectID); ok {
			return c.hydrate(entry, subjectID)
		}
	}

	transcript, err := subtitle.NewReader(req.SubtitlePath).Read()
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}

	// Cleaning and alignment are keyed on time spans; untimed transcripts
	// feed the classifier and summarizer as-is.
	var report subtitle.CleanReport
	var text string
	if transcript.Timed() {
		cleaned, r := subtitle.Clean(transcript.Segments)
		report = r
		aligned := subtitle.AlignBilingual(cleaned)
		text = (&subtitle.Transcript{Segments: aligned}).Text()
	} else {
		report = subtitle.CleanReport{Input: len(transcript.Segments), Output: len(transcript.Segments)}
		text = transcript.Text()
	}

	strat := strategy.Decide(text, req.Language)
	maxFrames := strat.MaxFrames
	if req.MaxFrames > 0 && req.MaxFrames < maxFrames {
		maxFrames = req.MaxFrames
	}
	log.Debug("strategy %s: %d fpm, %d max frames, style %s",
		strat.Kind, strat.FramesPerMin, maxFrames, strat.PromptStyle)

	profile := buildProfile(req, strat, maxFrames)
	if subjectID != "" && !req.RefreshCache {
		if entry, ok := c.cache.LoadByProfile(subjectID, profile); ok {
			return c.hydrate(entry, subjectID)
		}
	}

	var notes []vision.Note
	if req.DryRun {
		note, err := c.vision.DryRun(ctx, strat)
		if err != nil {
			return nil, err
		}
		notes = []vision.Note{note}
	} else {
		frameList, err := c.sampler.Sample(ctx, req.VideoPath, strat.FramesPerMin, maxFrames)
		if err != nil {
			return nil, fmt.Errorf("sample frames: %w", err)
		}
		notes, err = c.vision.Describe(ctx, frameList, strat)
		if err != nil {
			return nil, err
		}
	}

	summary, err := c.summarizer.Summarize(ctx, text, notes, strat.Language)
	if err != nil {
		return nil, err
	}

	payload := &Payload{
		Strategy:    strat,
		CleanReport: report,
		VisualNotes: notes,
		Summary:     summary,
		Meta: Meta{
			SubjectID:       subjectID,
			PipelineVersion: Version,
			DryRun:          req.DryRun,
			GeneratedAt:     c.now(),
		},
	}

	if subjectID != "" && !req.CacheReadonly {
		path, err := c.cache.Save(subjectID, profile, payload)
		if err != nil {
			return nil, fmt.Errorf("persist result: %w", err)
		}
		log.Info("result cached at %s", path)
	}

	return payload, nil
}

// hydrate unpacks a cache entry back into a payload, tagged as a hit.
func (c *Coordinator) hydrate(entry *cache.Entry, subjectID string) (*Payload, error) {
	var payload Payload
	if err := json.Unmarshal(entry.Data, &payload); err != nil {
		return nil, fmt.Errorf("decode cached payload: %w", err)
	}
	payload.Meta.CacheHit = true
	log.Info("cache hit for subject %s", subjectID)
	return &payload, nil
}

func buildProfile(req Request, strat strategy.Strategy, maxFrames int) cache.Profile {
	return cache.Profile{
		SchemaVersion:   cache.ProfileSchemaVersion,
		PipelineVersion: Version,
		Provider:        req.Provider,
		VLMModel:        req.VLMModel,
		LLMModel:        req.LLMModel,
		Language:        strat.Language,
		Kind:            string(strat.Kind),
		Sampling:        strat.Sampling,
		PromptStyle:     string(strat.PromptStyle),
		FramesPerMin:    strat.FramesPerMin,
		MaxFrames:       maxFrames,
	}
}
