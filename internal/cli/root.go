// Package cli defines the vidsum command tree.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vidsum/pkg/log"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "vidsum",
	Short: "Subtitle-driven video summarization",
	Long: `vidsum summarizes videos by combining their subtitles with sampled
frames analyzed by a vision model. Results are cached per video and
reused across runs with the same settings.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; real env vars win over it
		if err := godotenv.Load(); err == nil {
			log.Debug("loaded .env")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
