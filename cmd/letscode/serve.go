package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"letscode/internal/api"
	"letscode/internal/common/security"
	"letscode/internal/platform/config"
	"letscode/internal/platform/database"
	"letscode/internal/platform/queue"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveWithoutWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and the progress reconcile worker)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.AppConfig
		security.InitJWT()

		database.Connect()
		defer database.Close()
		queue.ConnectRedis()
		defer queue.CloseRedis()

		a := newApp(cfg, database.DB, queue.RDB)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		workerDone := make(chan struct{})
		if serveWithoutWorker {
			close(workerDone)
		} else {
			go func() {
				a.progressWorker(cfg).Start(ctx)
				close(workerDone)
			}()
		}

		server := &http.Server{
			Addr:        ":" + cfg.APIPort,
			Handler:     api.NewRouter(a.services),
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 120 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info().Str("port", cfg.APIPort).Msg("Server starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case <-ctx.Done():
		case err := <-serveErr:
			if err != nil {
				stop()
				return err
			}
		}

		log.Info().Msg("Shutting down server")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-workerDone
		log.Info().Msg("Server and worker stopped gracefully")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWithoutWorker, "no-worker", false, "do not run the progress reconcile worker in-process")
	rootCmd.AddCommand(serveCmd)
}
