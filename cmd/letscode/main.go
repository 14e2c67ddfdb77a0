package main

import (
	"os"

	"letscode/internal/platform/config"
	"letscode/internal/platform/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "letscode",
	Short: "Let's Code practice platform backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		logger.Init(config.AppConfig.LogLevel, config.AppConfig.LogFormat)
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
