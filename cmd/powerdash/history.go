package main

import (
	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show every reading grouped by date",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.Context())
	if err != nil {
		return err
	}

	groups := aggregate.GroupByDate(s.annotated())

	w := cmd.OutOrStdout()
	if s.format == "json" {
		return writeJSON(w, groups)
	}
	printHistory(w, groups, s.cfg.GetCurrency())
	return nil
}
