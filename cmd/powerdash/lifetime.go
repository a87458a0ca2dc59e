package main

import (
	"fmt"

	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/spf13/cobra"
)

var lifetimeCmd = &cobra.Command{
	Use:   "lifetime",
	Short: "Sum the cost of every reading",
	Long: `Sums the tiered cost of every individual reading. Readings that fail validation or
pricing are excluded and logged, the same as in every other view.

Note: this is not a bill. Dates with several samples contribute once per sample,
so the total over-counts compared with pricing only the latest reading of each date.`,
	Args: cobra.NoArgs,
	RunE: runLifetime,
}

func init() {
	rootCmd.AddCommand(lifetimeCmd)
}

func runLifetime(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.Context())
	if err != nil {
		return err
	}

	annotated := s.annotated()
	total := aggregate.TotalCost(annotated)

	w := cmd.OutOrStdout()
	if s.format == "json" {
		return writeJSON(w, map[string]any{
			"lifetime_cost": total,
			"readings":      len(annotated),
		})
	}
	fmt.Fprintf(w, "Lifetime Energy Cost: %s (%d readings)\n", money(s.cfg.GetCurrency(), total), len(annotated))
	return nil
}
