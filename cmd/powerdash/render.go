package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/jgoulah/powerdash/internal/aggregate"
	"github.com/jgoulah/powerdash/pkg/models"
)

const rule = "--------------------------------------------------------------------------------------------"

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v, jsontext.WithIndent("  "))
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// money formats a cost with thousands separators and two decimals
func money(currency string, v float64) string {
	return currency + " " + humanize.FormatFloat("#,###.##", v)
}

func printReadingHeader(w io.Writer, first string) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-19s  %8s  %8s  %9s  %12s  %9s  %6s  %14s\n",
		first, "Voltage", "Current", "Power", "Energy (kWh)", "Frequency", "PF", "Daily Cost")
	fmt.Fprintln(w, rule)
}

func printReadingRow(w io.Writer, first string, r models.AnnotatedReading, currency string) {
	fmt.Fprintf(w, "%-19s  %8.2f  %8.3f  %9.2f  %12.3f  %9.2f  %6.2f  %14s\n",
		first, r.Voltage, r.Current, r.Power, r.Energy, r.Frequency, r.PowerFactor, money(currency, r.DailyCost))
}

// printLatest renders the latest-by-date table
func printLatest(w io.Writer, latest []models.AnnotatedReading, currency string) {
	fmt.Fprintln(w, "\nLatest Data by Date:")
	if len(latest) == 0 {
		fmt.Fprintln(w, "No data found")
		return
	}

	printReadingHeader(w, "Date")
	for _, r := range latest {
		printReadingRow(w, r.DateKey(), r, currency)
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s dates\n", humanize.Comma(int64(len(latest))))
}

// printHistory renders every reading grouped by date
func printHistory(w io.Writer, groups []models.DateGroup, currency string) {
	fmt.Fprintln(w, "\nHistory:")
	if len(groups) == 0 {
		fmt.Fprintln(w, "No data found")
		return
	}

	for _, g := range groups {
		fmt.Fprintf(w, "\n%s (%d records)\n", g.Date, len(g.Records))
		printReadingHeader(w, "Time")
		for _, r := range g.Records {
			printReadingRow(w, r.Timestamp.Format("15:04:05"), r, currency)
		}
	}
}

// printRange renders a cost range result
func printRange(w io.Writer, result *models.CostRangeResult, currency string) {
	fmt.Fprintf(w, "\nCost from %s to %s: %s\n", result.StartDate, result.EndDate, money(currency, result.TotalCost))
	printReadingHeader(w, "Date")
	for _, r := range result.Entries {
		printReadingRow(w, r.DateKey(), r, currency)
	}
	fmt.Fprintln(w, rule)
}

// printChart renders the chart series as columns
func printChart(w io.Writer, chart aggregate.Chart) {
	if len(chart.Labels) == 0 {
		fmt.Fprintln(w, "No data found")
		return
	}

	fmt.Fprintf(w, "%-10s", "Time")
	for _, ds := range chart.Datasets {
		fmt.Fprintf(w, "  %14s", ds.Label)
	}
	fmt.Fprintln(w)

	for i, label := range chart.Labels {
		fmt.Fprintf(w, "%-10s", label)
		for _, ds := range chart.Datasets {
			fmt.Fprintf(w, "  %14.3f", ds.Data[i])
		}
		fmt.Fprintln(w)
	}
}
