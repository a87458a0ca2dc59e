package aggregate

import (
	"testing"

	"github.com/jgoulah/powerdash/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDashboard(t *testing.T) {
	input := []models.Reading{
		reading("2024-03-01 08:00:00", 30),
		reading("2024-03-01 20:00:00", 40),
		reading("2024-03-03 20:00:00", 90),
	}

	d := NewDefault().Build(input, "2024-03-01", "2024-03-03")
	assert.Len(t, d.Readings, 3)
	assert.Len(t, d.LatestByDate, 2)
	assert.Len(t, d.History, 2)
	assert.Equal(t, 552.00, d.LifetimeCost) // 97.50 + 130.00 + 324.50
	require.NotNil(t, d.Range)
	assert.Equal(t, 194.50, d.Range.TotalCost)
	assert.Empty(t, d.RangeError)
	assert.Empty(t, d.Rejected)
}

func TestBuildDashboardRangeFailureKeepsViews(t *testing.T) {
	input := []models.Reading{
		reading("2024-03-01 08:00:00", 30),
		reading("2024-03-03 20:00:00", 90),
	}

	d := NewDefault().Build(input, "2024-03-01", "2024-03-02")
	assert.Nil(t, d.Range)
	assert.Equal(t, "no data available for 2024-03-02", d.RangeError)
	assert.Len(t, d.LatestByDate, 2)
	assert.Len(t, d.History, 2)

	d = NewDefault().Build(input, "2025-01-01", "2025-01-31")
	assert.Contains(t, d.RangeError, "no data available for the selected date range")
	assert.Len(t, d.Readings, 2)
}

func TestBuildDashboardWithoutRange(t *testing.T) {
	d := NewDefault().Build([]models.Reading{reading("2024-03-01 08:00:00", 30)}, "", "")
	assert.Nil(t, d.Range)
	assert.Empty(t, d.RangeError)
}

func TestBuildDashboardReportsRejected(t *testing.T) {
	input := []models.Reading{
		reading("2024-03-01 08:00:00", 30),
		reading("2024-03-01 09:00:00", 400),
	}

	d := NewDefault().Build(input, "", "")
	assert.Len(t, d.Readings, 1)
	assert.Equal(t, 97.50, d.LifetimeCost)
	require.Len(t, d.Rejected, 1)
	assert.Contains(t, d.Rejected[0], "record 2")
}
