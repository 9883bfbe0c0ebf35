package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imgsqueeze/compressor"
	"github.com/imgsqueeze/controller"
	handler "github.com/imgsqueeze/handler/v1/compressor"
	"github.com/imgsqueeze/router"
	"github.com/imgsqueeze/session"
	"github.com/imgsqueeze/ui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the compressor web page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := ui.New()
		if err != nil {
			return err
		}

		pool := compressor.NewPool(cfg.Compressor.Workers, log)
		defer pool.Close()

		sessions := session.NewStore(func() *controller.Controller {
			return newController(pool, cfg.Compressor.DefaultQuality)
		}, cfg.Session.Cookie, cfg.Session.TTL, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go sessions.Run(ctx, cfg.Session.CleanupInterval)

		srv := &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router.New(handler.NewService(sessions, renderer, cfg.Server.MaxUploadBytes, log), log),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			log.Info("shutting down gracefully")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
			return err
		}

		log.Info("server exited")
		return nil
	},
}
