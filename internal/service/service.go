// Package service wires configuration, provider clients, the pipeline
// coordinator, and the job queue into one runnable unit shared by the CLI,
// the HTTP server, and watch mode.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"vidsum/internal/cache"
	"vidsum/internal/config"
	"vidsum/internal/frames"
	"vidsum/internal/jobs"
	"vidsum/internal/pipeline"
	"vidsum/internal/provider"
	"vidsum/internal/strategy"
	"vidsum/internal/summarize"
	"vidsum/internal/vision"
	"vidsum/pkg/executor"
	"vidsum/pkg/file"
	"vidsum/pkg/log"
)

type Service struct {
	cfg   *config.Config
	cache *cache.Store
	coord *pipeline.Coordinator
	queue *jobs.Queue

	// sf collapses concurrent runs for the same subject onto one
	// pipeline execution.
	sf singleflight.Group
}

// New builds the full collaborator graph from config. The jobs store may
// be nil for a queue that lives only in memory.
func New(cfg *config.Config, store jobs.Store) (*Service, error) {
	client, err := provider.Build(provider.Config{
		Kind:    provider.Kind(cfg.Provider.Kind),
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.TimeoutSeconds,
	}, provider.DefaultRetryPolicy())
	if err != nil {
		return nil, fmt.Errorf("build provider client: %w", err)
	}

	interval := time.Duration(cfg.Provider.RequestIntervalMS) * time.Millisecond
	analyzer := vision.NewAnalyzer(client, cfg.Provider.VLMModel, interval)
	summarizer := summarize.NewSummarizer(client, cfg.Provider.LLMModel)
	sampler := frames.NewFFmpegSampler(executor.New())
	cacheStore := cache.NewStore(cfg.Cache.Dir)

	return &Service{
		cfg:   cfg,
		cache: cacheStore,
		coord: pipeline.NewCoordinator(cacheStore, sampler, analyzer, summarizer),
		queue: jobs.NewQueue(cfg.Server.Workers, store),
	}, nil
}

func (s *Service) Queue() *jobs.Queue { return s.queue }
func (s *Service) Cache() *cache.Store { return s.cache }

// Start launches the queue workers.
func (s *Service) Start() {
	s.queue.Start(s.execute)
}

func (s *Service) Stop() {
	s.queue.Stop()
}

// Run executes one pipeline request synchronously. Concurrent calls for
// the same subject share a single execution.
func (s *Service) Run(ctx context.Context, req pipeline.Request) (*pipeline.Payload, error) {
	subject := pipeline.ResolveSubject(req)
	if subject == "" {
		subject = req.SubtitlePath
	}

	v, err, shared := s.sf.Do(subject, func() (any, error) {
		return s.coord.Run(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("shared in-flight run for subject %s", subject)
	}
	return v.(*pipeline.Payload), nil
}

// Enqueue registers an async job for the payload, deduped by subject id.
func (s *Service) Enqueue(source string, payload jobs.JobPayload) (*jobs.SummaryJob, bool) {
	req := requestFromPayload(payload, s.cfg)
	subject := pipeline.ResolveSubject(req)
	dedupeKey := subject
	if dedupeKey == "" {
		dedupeKey = payload.SubtitleFile
	}
	return s.queue.Enqueue(jobs.EnqueueRequest{
		Source:    source,
		DedupeKey: dedupeKey,
		Payload:   payload,
	})
}

// execute is the queue worker body: one pipeline run per job.
func (s *Service) execute(ctx context.Context, job *jobs.SummaryJob) (string, error) {
	req := requestFromPayload(job.Payload, s.cfg)

	payload, err := s.Run(ctx, req)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.cache.Root(), payload.Meta.SubjectID, "result_latest.json"), nil
}

// requestFromPayload fills request defaults from config where the job
// payload left them unset.
func requestFromPayload(p jobs.JobPayload, cfg *config.Config) pipeline.Request {
	lang := p.Language
	if lang == "" {
		lang = cfg.Summary.Language
	}
	maxFrames := p.MaxFrames
	if maxFrames == 0 {
		maxFrames = cfg.Summary.MaxFrames
	}
	return pipeline.Request{
		SubtitlePath:  p.SubtitleFile,
		VideoPath:     p.VideoFile,
		SubjectID:     p.SubjectID,
		SourceURL:     p.SourceURL,
		Provider:      cfg.Provider.Kind,
		VLMModel:      cfg.Provider.VLMModel,
		LLMModel:      cfg.Provider.LLMModel,
		Language:      strategy.Lang(lang),
		MaxFrames:     maxFrames,
		RefreshCache:  p.RefreshCache,
		CacheReadonly: cfg.Cache.Readonly,
	}
}

// Schedule registers the periodic inbox rescan. The rescan catches files
// the fsnotify watcher missed, e.g. drops that happened while the process
// was down.
func (s *Service) Schedule(c *cron.Cron) error {
	if s.cfg.Watch.InboxDir == "" {
		return fmt.Errorf("watch inbox directory is not configured")
	}
	_, err := c.AddFunc(s.cfg.Watch.CronExpr, func() {
		if err := s.RescanInbox(); err != nil {
			log.Error("inbox rescan failed: %v", err)
		}
	})
	return err
}

// EnqueueSubtitle pairs a dropped subtitle file with the video sharing its
// base name and enqueues the pair. Subtitles without a video are skipped:
// the next rescan picks them up once the video lands.
func (s *Service) EnqueueSubtitle(source, subtitlePath string) (*jobs.SummaryJob, bool) {
	video := findSiblingVideo(subtitlePath)
	if video == "" {
		log.Debug("no video next to %s, skipping", subtitlePath)
		return nil, false
	}
	return s.Enqueue(source, jobs.JobPayload{
		SubtitleFile: subtitlePath,
		VideoFile:    video,
	})
}

// RescanInbox walks the inbox and enqueues a job per subtitle file found.
// The queue's dedupe keys make repeated rescans harmless.
func (s *Service) RescanInbox() error {
	inbox := s.cfg.Watch.InboxDir
	enqueued := 0

	err := filepath.Walk(inbox, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !file.IsSubtitlePath(path) {
			return nil
		}
		if _, created := s.EnqueueSubtitle("watch", path); created {
			enqueued++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk inbox %s: %w", inbox, err)
	}

	if enqueued > 0 {
		log.Info("inbox rescan enqueued %d jobs", enqueued)
	}
	return nil
}

// findSiblingVideo looks for a video file next to the subtitle with the
// same base name ("BV1xx.zh.srt" matches "BV1xx.mp4").
func findSiblingVideo(subtitlePath string) string {
	dir := filepath.Dir(subtitlePath)
	base := file.BaseName(subtitlePath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !file.IsVideoPath(name) {
			continue
		}
		if strings.EqualFold(file.BaseName(name), base) {
			return filepath.Join(dir, name)
		}
	}
	return ""
}
