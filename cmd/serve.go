package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/bk25/internal/core"
	"github.com/nextlevelbuilder/bk25/internal/server"
	"github.com/nextlevelbuilder/bk25/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the BK25 HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.HasAnyProvider() {
			slog.Warn("serve.no_llm_provider", "hint", "chat will fail; script generation falls back to templates")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
		if err != nil {
			return err
		}
		defer shutdownTracing(context.Background())

		c, err := core.New(cfg)
		if err != nil {
			return err
		}
		c.Start()

		srv := server.New(c, cfg.Server)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		slog.Info("serve.shutting_down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("serve.http_shutdown_failed", "error", err)
		}
		return c.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
