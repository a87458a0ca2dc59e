package main

import (
	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Print the measurement series for charting",
	Long:  `Prints time labels and the voltage, current, power, energy, frequency and power factor series in arrival order.`,
	Args:  cobra.NoArgs,
	RunE:  runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.Context())
	if err != nil {
		return err
	}

	chart := aggregate.ChartSeries(s.annotated())

	w := cmd.OutOrStdout()
	if s.format == "json" {
		return writeJSON(w, chart)
	}
	printChart(w, chart)
	return nil
}
