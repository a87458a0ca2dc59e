package main

import (
	"fmt"

	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/spf13/cobra"
)

var rangeCmd = &cobra.Command{
	Use:   "range START END",
	Short: "Calculate the cost between two dates",
	Long: `Calculates the cost difference between the latest readings on START and END (YYYY-MM-DD).
Both dates must have readings. The dates may be given in either order; the result is always positive.`,
	Args: cobra.ExactArgs(2),
	RunE: runRange,
}

func init() {
	rootCmd.AddCommand(rangeCmd)
}

func runRange(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.Context())
	if err != nil {
		return err
	}

	result, err := aggregate.CostForRange(s.annotated(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("calculating cost: %w", err)
	}

	w := cmd.OutOrStdout()
	if s.format == "json" {
		return writeJSON(w, result)
	}
	printRange(w, result, s.cfg.GetCurrency())
	return nil
}
