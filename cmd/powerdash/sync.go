package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch readings and store them in the local database",
	Long: `Fetches readings from the configured source and stores them in the local SQLite database.
Readings already stored (same timestamp) are skipped. Use --offline on other commands to read the cache.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if offline {
		return fmt.Errorf("sync cannot run with --offline")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "=== Sync started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	s, err := loadSession(cmd.Context())
	if err != nil {
		return err
	}

	if len(s.readings) == 0 {
		fmt.Fprintln(w, "No data found")
		return nil
	}

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	res, err := db.InsertReadings(cmd.Context(), s.readings)
	if err != nil {
		return fmt.Errorf("storing readings: %w", err)
	}
	s.log.Infow("sync complete", "batch_id", res.BatchID, "inserted", res.Inserted, "skipped", res.Skipped)

	total, err := db.CountReadings(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "✓ Stored %s new readings (%s already present, %s cached)\n",
		humanize.Comma(int64(res.Inserted)), humanize.Comma(int64(res.Skipped)), humanize.Comma(int64(total)))
	return nil
}
