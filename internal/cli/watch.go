package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"vidsum/internal/config"
	"vidsum/internal/persistence"
	"vidsum/internal/service"
	"vidsum/internal/watcher"
	"vidsum/pkg/log"
)

var watchFlags struct {
	inbox    string
	cronExpr string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a drop folder and summarize new videos",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewFromEnv(configFile, func(c *config.Config) {
			if watchFlags.inbox != "" {
				c.Watch.InboxDir = watchFlags.inbox
			}
			if watchFlags.cronExpr != "" {
				c.Watch.CronExpr = watchFlags.cronExpr
			}
		})
		if err != nil {
			return err
		}

		store, err := persistence.NewSQLiteStore(cfg.Server.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		svc, err := service.New(cfg, store)
		if err != nil {
			return err
		}
		svc.Start()
		defer svc.Stop()

		settle := time.Duration(cfg.Watch.SettleSeconds) * time.Second
		w, err := watcher.New(cfg.Watch.InboxDir, settle, func(_ context.Context, path string) error {
			if _, created := svc.EnqueueSubtitle("watch", path); created {
				log.Info("enqueued job for %s", path)
			}
			return nil
		})
		if err != nil {
			return err
		}
		defer w.Stop()

		// cron rescan catches drops the event stream missed
		scheduler := cron.New()
		if err := svc.Schedule(scheduler); err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()

		if err := svc.RescanInbox(); err != nil {
			log.Warn("initial inbox scan: %v", err)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			log.Info("received %s, shutting down", sig)
			cancel()
		}()

		if err := w.Start(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.inbox, "inbox", "", "drop folder to watch")
	watchCmd.Flags().StringVar(&watchFlags.cronExpr, "cron", "", "rescan schedule (default from config)")
	rootCmd.AddCommand(watchCmd)
}
