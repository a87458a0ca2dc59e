package aggregate

import "github.com/jgoulah/powerdash/pkg/models"

// Dataset is one plotted measurement
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Chart holds time labels and one dataset per measurement, in input order
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// ChartSeries builds the line chart data for the full annotated series
func ChartSeries(annotated []models.AnnotatedReading) Chart {
	if len(annotated) == 0 {
		return Chart{}
	}

	fields := []struct {
		label string
		value func(models.Reading) float64
	}{
		{"Voltage (V)", func(r models.Reading) float64 { return r.Voltage }},
		{"Current (A)", func(r models.Reading) float64 { return r.Current }},
		{"Power (W)", func(r models.Reading) float64 { return r.Power }},
		{"Energy (kWh)", func(r models.Reading) float64 { return r.Energy }},
		{"Frequency (Hz)", func(r models.Reading) float64 { return r.Frequency }},
		{"Power Factor", func(r models.Reading) float64 { return r.PowerFactor }},
	}

	chart := Chart{
		Labels:   make([]string, len(annotated)),
		Datasets: make([]Dataset, len(fields)),
	}
	for i, f := range fields {
		chart.Datasets[i] = Dataset{Label: f.label, Data: make([]float64, len(annotated))}
	}

	for j, r := range annotated {
		chart.Labels[j] = r.Timestamp.Format("15:04:05")
		for i, f := range fields {
			chart.Datasets[i].Data[j] = f.value(r.Reading)
		}
	}

	return chart
}
