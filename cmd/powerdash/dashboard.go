package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	dashboardStart string
	dashboardEnd   string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show latest-by-date, history and an optional cost range",
	Long: `Renders all views at once. A failing cost range (missing dates, no data) is reported
inline and does not prevent the other views from being shown.`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardStart, "start", "", "Range start date (YYYY-MM-DD)")
	dashboardCmd.Flags().StringVar(&dashboardEnd, "end", "", "Range end date (YYYY-MM-DD)")
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd.Context())
	if err != nil {
		return err
	}

	d := s.aggregator.Build(s.readings, dashboardStart, dashboardEnd)
	for _, msg := range d.Rejected {
		s.log.Warnw("excluded reading", "err", msg)
	}

	w := cmd.OutOrStdout()
	if s.format == "json" {
		return writeJSON(w, d)
	}

	currency := s.cfg.GetCurrency()
	printLatest(w, d.LatestByDate, currency)
	printHistory(w, d.History, currency)

	switch {
	case d.Range != nil:
		printRange(w, d.Range, currency)
	case d.RangeError != "":
		fmt.Fprintf(w, "\nCost range: %s\n", d.RangeError)
	}

	fmt.Fprintf(w, "\nLifetime Energy Cost (every sample): %s\n", money(currency, d.LifetimeCost))
	return nil
}
