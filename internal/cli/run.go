package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vidsum/internal/config"
	"vidsum/internal/pipeline"
	"vidsum/internal/service"
	"vidsum/internal/strategy"
	"vidsum/pkg/file"
)

var runFlags struct {
	subs          string
	subsDir       string
	video         string
	subject       string
	sourceURL     string
	provider      string
	vlmModel      string
	llmModel      string
	language      string
	maxFrames     int
	dryRun        bool
	refreshCache  bool
	cacheReadonly bool
	out           string
	save          bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Summarize one video synchronously",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewFromEnv(configFile, applyRunFlags)
		if err != nil {
			return err
		}

		if runFlags.subs == "" {
			if runFlags.subsDir == "" {
				return fmt.Errorf("either --subs or --subs-dir is required")
			}
			latest, err := file.FindLatestSubtitle(runFlags.subsDir)
			if err != nil {
				return fmt.Errorf("scan %s: %w", runFlags.subsDir, err)
			}
			if latest == "" {
				return fmt.Errorf("no subtitle files under %s", runFlags.subsDir)
			}
			runFlags.subs = latest
		}

		svc, err := service.New(cfg, nil)
		if err != nil {
			return err
		}
		defer svc.Stop()

		payload, err := svc.Run(cmd.Context(), pipeline.Request{
			SubtitlePath:  runFlags.subs,
			VideoPath:     runFlags.video,
			SubjectID:     runFlags.subject,
			SourceURL:     runFlags.sourceURL,
			Provider:      cfg.Provider.Kind,
			VLMModel:      cfg.Provider.VLMModel,
			LLMModel:      cfg.Provider.LLMModel,
			Language:      strategy.Lang(cfg.Summary.Language),
			MaxFrames:     cfg.Summary.MaxFrames,
			DryRun:        runFlags.dryRun,
			RefreshCache:  runFlags.refreshCache,
			CacheReadonly: runFlags.cacheReadonly || cfg.Cache.Readonly,
		})
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		out := runFlags.out
		if out == "" && runFlags.save {
			out = file.ReplaceExt(runFlags.subs, "summary.json")
		}
		if out != "" {
			return os.WriteFile(out, encoded, 0o644)
		}
		fmt.Println(string(encoded))
		return nil
	},
}

// applyRunFlags folds set flags over the resolved config.
func applyRunFlags(cfg *config.Config) {
	if runFlags.provider != "" {
		cfg.Provider.Kind = runFlags.provider
	}
	if runFlags.vlmModel != "" {
		cfg.Provider.VLMModel = runFlags.vlmModel
	}
	if runFlags.llmModel != "" {
		cfg.Provider.LLMModel = runFlags.llmModel
	}
	if runFlags.language != "" {
		cfg.Summary.Language = runFlags.language
	}
	if runFlags.maxFrames > 0 {
		cfg.Summary.MaxFrames = runFlags.maxFrames
	}
}

func init() {
	runCmd.Flags().StringVar(&runFlags.subs, "subs", "", "subtitle file path")
	runCmd.Flags().StringVar(&runFlags.subsDir, "subs-dir", "", "directory to pick the newest subtitle file from")
	runCmd.Flags().StringVar(&runFlags.video, "video", "", "video file path")
	runCmd.Flags().StringVar(&runFlags.subject, "subject", "", "explicit subject id")
	runCmd.Flags().StringVar(&runFlags.sourceURL, "source-url", "", "source page URL, used for subject id detection")
	runCmd.Flags().StringVar(&runFlags.provider, "provider", "", "chat backend: openai, openrouter, vllm, mock")
	runCmd.Flags().StringVar(&runFlags.vlmModel, "vlm-model", "", "vision model name")
	runCmd.Flags().StringVar(&runFlags.llmModel, "llm-model", "", "summary model name")
	runCmd.Flags().StringVar(&runFlags.language, "language", "", "summary language: auto, zh, en")
	runCmd.Flags().IntVar(&runFlags.maxFrames, "max-frames", 0, "cap on sampled frames")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "plan the run and ping the model without frame analysis")
	runCmd.Flags().BoolVar(&runFlags.refreshCache, "refresh-cache", false, "ignore cached results")
	runCmd.Flags().BoolVar(&runFlags.cacheReadonly, "cache-readonly", false, "never write cache entries")
	runCmd.Flags().StringVar(&runFlags.out, "out", "", "write the result JSON to this file instead of stdout")
	runCmd.Flags().BoolVar(&runFlags.save, "save", false, "write the result next to the subtitle file")

	rootCmd.AddCommand(runCmd)
}
