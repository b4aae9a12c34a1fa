package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vidsum/internal/config"
	"vidsum/internal/httpapi"
	"vidsum/internal/persistence"
	"vidsum/internal/service"
	"vidsum/pkg/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the async job queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewFromEnv(configFile, func(c *config.Config) {
			if serveAddr != "" {
				c.Server.Addr = serveAddr
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

		server := httpapi.NewServer(svc)
		errCh := make(chan error, 1)
		go func() {
			log.Info("listening on %s", cfg.Server.Addr)
			errCh <- server.ListenAndServe(cfg.Server.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Info("received %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
