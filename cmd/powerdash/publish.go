package main

import (
	"fmt"
	"time"

	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/jgoulah/powerdash/internal/publisher"
	"github.com/jgoulah/powerdash/pkg/models"
	"github.com/spf13/cobra"
)

var (
	publishSince string
	publishUntil string
	publishAll   bool
	publishLimit int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish daily costs to MQTT and/or Home Assistant",
	Long: `Publishes the latest reading and daily cost of each date. Dates whose cost has not changed
since the last publish are skipped unless --all is given.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishSince, "since", "", "Only publish dates since this date (YYYY-MM-DD or relative like 7d)")
	publishCmd.Flags().StringVar(&publishUntil, "until", "", "Only publish dates until this date (YYYY-MM-DD)")
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all dates (ignore published ledger)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of dates to publish (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	s, err := loadSession(ctx)
	if err != nil {
		return err
	}

	// Parse date filters if provided
	var since, until string
	if publishSince != "" {
		if since, err = parseDate(publishSince, time.Now()); err != nil {
			return fmt.Errorf("parsing --since date: %w", err)
		}
	}
	if publishUntil != "" {
		if until, err = parseDate(publishUntil, time.Now()); err != nil {
			return fmt.Errorf("parsing --until date: %w", err)
		}
	}

	entries := filterDates(aggregate.LatestPerDate(s.annotated()), since, until)
	if len(entries) == 0 {
		fmt.Fprintln(w, "No data in date range")
		return nil
	}

	pub, err := publisher.New(s.cfg, s.log)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Skip dates whose cost was already published
	var pending []models.AnnotatedReading
	for _, e := range entries {
		if !publishAll {
			cost, ok, err := db.PublishedCost(ctx, e.DateKey())
			if err != nil {
				return err
			}
			if ok && cost == e.DailyCost {
				continue
			}
		}
		pending = append(pending, e)
	}

	if len(pending) == 0 {
		fmt.Fprintln(w, "No unpublished dates found")
		return nil
	}

	// Apply limit if specified
	if publishLimit > 0 && len(pending) > publishLimit {
		pending = pending[:publishLimit]
		fmt.Fprintf(w, "Limiting to %d dates (--limit flag)\n", publishLimit)
	}

	published := 0
	for i, e := range pending {
		fmt.Fprintf(w, "[%d/%d] Publishing %s (%.2f kWh, %s)... ", i+1, len(pending), e.DateKey(), e.Energy, money(s.cfg.GetCurrency(), e.DailyCost))
		if err := pub.PublishDaily(ctx, e); err != nil {
			fmt.Fprintf(w, "FAILED: %v\n", err)
			continue
		}

		// Record the published cost in the ledger
		if err := db.MarkPublished(ctx, e.DateKey(), e.DailyCost); err != nil {
			fmt.Fprintf(w, "✓ (warning: failed to mark as published: %v)\n", err)
		} else {
			fmt.Fprintln(w, "✓")
		}
		published++
	}

	fmt.Fprintf(w, "\nSuccessfully published %d/%d dates\n", published, len(pending))
	return nil
}

// filterDates keeps entries whose date lies within [since, until]; empty bounds are open
func filterDates(entries []models.AnnotatedReading, since, until string) []models.AnnotatedReading {
	var out []models.AnnotatedReading
	for _, e := range entries {
		key := e.DateKey()
		if since != "" && key < since {
			continue
		}
		if until != "" && key > until {
			continue
		}
		out = append(out, e)
	}
	return out
}

// parseDate parses a date string in either YYYY-MM-DD format or relative format (e.g., "7d")
func parseDate(dateStr string, now time.Time) (string, error) {
	// Try absolute date format first
	if t, err := models.ParseDate(dateStr); err == nil {
		return t.Format(models.DateLayout), nil
	}

	// Try relative format (e.g., "7d" for 7 days ago)
	if len(dateStr) > 1 && dateStr[len(dateStr)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(dateStr[:len(dateStr)-1], "%d", &days); err == nil && days >= 0 {
			return now.AddDate(0, 0, -days).Format(models.DateLayout), nil
		}
	}

	return "", fmt.Errorf("invalid date format: %s (use YYYY-MM-DD or Nd for N days ago)", dateStr)
}
