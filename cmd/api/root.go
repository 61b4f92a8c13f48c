package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "marketplace-api",
	Short: "Marketplace API - customers, sellers, carts and orders",
	Long: `marketplace-api serves the shop REST API backed by PostgreSQL and Redis,
publishes order events to RabbitMQ or Kafka and runs the order worker that
keeps per-seller statistics.

Configuration is read from the environment (see internal/config).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}
