package main

import (
	"os"
	"os/signal"
	"syscall"

	"letscode/internal/platform/config"
	"letscode/internal/platform/database"
	"letscode/internal/platform/queue"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the progress reconcile worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.AppConfig

		database.Connect()
		defer database.Close()
		queue.ConnectRedis()
		defer queue.CloseRedis()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		newApp(cfg, database.DB, queue.RDB).progressWorker(cfg).Start(ctx)
		log.Info().Msg("Worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
