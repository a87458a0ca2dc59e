package main

import (
	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/spf13/cobra"
)

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest reading for each date",
	Long:  `Displays the most recent reading of every date together with its tiered daily cost.`,
	Args:  cobra.NoArgs,
	RunE:  runLatest,
}

func init() {
	rootCmd.AddCommand(latestCmd)
}

func runLatest(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.Context())
	if err != nil {
		return err
	}

	latest := aggregate.LatestPerDate(s.annotated())

	w := cmd.OutOrStdout()
	if s.format == "json" {
		return writeJSON(w, latest)
	}
	printLatest(w, latest, s.cfg.GetCurrency())
	return nil
}
