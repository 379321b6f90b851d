package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/rsdocs/docseek/internal/config"
	"github.com/rsdocs/docseek/internal/daemon"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Clear the daemon's version and index caches",
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	client := daemon.NewClient(config.SocketPath())
	if !client.IsAvailable() {
		fmt.Println("daemon is not running")
		return
	}

	if err := client.ClearCache(context.Background()); err != nil {
		log.Fatalf("failed to clear cache: %v", err)
	}
	fmt.Println("caches cleared")
}
