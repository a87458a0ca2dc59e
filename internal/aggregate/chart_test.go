package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartSeries(t *testing.T) {
	annotated := annotate(t,
		reading("2024-03-01 08:15:30", 30),
		reading("2024-03-01 07:00:00", 40),
	)

	chart := ChartSeries(annotated)
	assert.Equal(t, []string{"08:15:30", "07:00:00"}, chart.Labels)
	require.Len(t, chart.Datasets, 6)

	labels := make([]string, len(chart.Datasets))
	for i, ds := range chart.Datasets {
		labels[i] = ds.Label
		assert.Len(t, ds.Data, 2)
	}
	assert.Equal(t, []string{"Voltage (V)", "Current (A)", "Power (W)", "Energy (kWh)", "Frequency (Hz)", "Power Factor"}, labels)
	assert.Equal(t, []float64{30, 40}, chart.Datasets[3].Data)
	assert.Equal(t, []float64{0.95, 0.95}, chart.Datasets[5].Data)
}

func TestChartSeriesEmpty(t *testing.T) {
	chart := ChartSeries(nil)
	assert.Empty(t, chart.Labels)
	assert.Empty(t, chart.Datasets)
}
