package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/powerdash/internal/publisher"
	"github.com/spf13/cobra"
)

var generateStatsCmd = &cobra.Command{
	Use:   "generate-stats",
	Short: "Generate statistics in Home Assistant from backfilled daily costs",
	Long:  `Calls the AppDaemon endpoint to compile statistics from the published daily cost states. Run this after publish.`,
	Args:  cobra.NoArgs,
	RunE:  runGenerateStats,
}

func init() {
	rootCmd.AddCommand(generateStatsCmd)
}

func runGenerateStats(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "=== Generate Statistics started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if Home Assistant is configured
	if !cfg.HomeAssistant.Enabled {
		return fmt.Errorf("Home Assistant is not enabled in config")
	}

	// Only the HTTP side is needed here
	cfg.MQTT.Enabled = false
	pub, err := publisher.New(cfg, newLogger(cfg))
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	fmt.Fprintf(w, "Generating statistics for %s...\n", cfg.HomeAssistant.EntityID)

	result, err := pub.GenerateStatistics(cmd.Context())
	if err != nil {
		return err
	}

	// Display results
	fmt.Fprintf(w, "✓ Statistics generated successfully\n")
	fmt.Fprintf(w, "  - Inserted: %d new statistics records\n", result.Inserted)
	fmt.Fprintf(w, "  - Updated: %d existing statistics records\n", result.Updated)
	fmt.Fprintf(w, "  - Total hours: %d\n", result.TotalHours)
	return nil
}
