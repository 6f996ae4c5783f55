package materiality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupIntoSeries_FixedOrder(t *testing.T) {
	points := []PlotPoint{
		{X: 1, Y: 1, Label: "G-1", Category: CategoryGovernance, SourceName: "A"},
		{X: 2, Y: 2, Label: "E-1", Category: CategoryEnvironment, SourceName: "A"},
		{X: 3, Y: 3, Label: "E-2", Category: CategoryEnvironment, SourceName: "B"},
	}

	series := GroupIntoSeries(points)

	require.Len(t, series, 3, "unknown series omitted when empty")
	assert.Equal(t, CategoryEnvironment, series[0].Category)
	assert.Equal(t, CategorySocial, series[1].Category)
	assert.Equal(t, CategoryGovernance, series[2].Category)

	assert.Equal(t, "Environment", series[0].Name)
	assert.Equal(t, CategoryEnvironment.Color(), series[0].Color)
	require.Len(t, series[0].Points, 2)
	assert.Equal(t, "E-1", series[0].Points[0].Label)
	assert.Equal(t, "E-2", series[0].Points[1].Label)

	assert.NotNil(t, series[1].Points)
	assert.Empty(t, series[1].Points)
	assert.Equal(t, 3, PointCount(series))
}

func TestGroupIntoSeries_UnknownLast(t *testing.T) {
	series := GroupIntoSeries([]PlotPoint{
		{X: 1, Y: 1, Label: "X-1", Category: CategoryUnknown},
		{X: 1, Y: 2, Label: "S-1", Category: CategorySocial},
	})

	require.Len(t, series, 4)
	assert.Equal(t, CategoryUnknown, series[3].Category)
	assert.Equal(t, "Other", series[3].Name)
	assert.Len(t, series[3].Points, 1)
}

func TestGroupIntoSeries_HoverUsesOriginals(t *testing.T) {
	series := GroupIntoSeries([]PlotPoint{
		{X: 1.234567, Y: 2, Label: "S-1", Category: CategorySocial, SourceName: "Investors"},
	})

	p := series[1].Points[0]
	assert.Equal(t, 1.234567, p.OriginalX)
	assert.Equal(t, 2.0, p.OriginalY)
	assert.Equal(t, "S-1 (Investors)<br>Priority: 1.2346<br>Status quo: 2", p.HoverText)
}

func TestGroupIntoSeries_Empty(t *testing.T) {
	series := GroupIntoSeries(nil)
	require.Len(t, series, 3)
	assert.Equal(t, 0, PointCount(series))
}
