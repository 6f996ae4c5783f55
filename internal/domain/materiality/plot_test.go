package materiality

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

func TestAssemblePlot_Defaults(t *testing.T) {
	series := GroupIntoSeries(nil)

	layout, err := AssemblePlot(series, DefaultPlotOptions())
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, layout.Title)
	assert.Equal(t, "Priority", layout.XAxis.Title)
	assert.Equal(t, "Status quo", layout.YAxis.Title)
	assert.Equal(t, AxisRange{Min: 0, Max: 4.5}, layout.XAxis.Range)
	assert.Equal(t, AxisRange{Min: 0, Max: 4.5}, layout.YAxis.Range)
	assert.Equal(t, 0.5, layout.XAxis.TickStep)
	assert.Equal(t,
		[]float64{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5, 4, 4.5},
		layout.XAxis.TickValues)

	require.Len(t, layout.Shapes, 2)
	vertical, horizontal := layout.Shapes[0], layout.Shapes[1]
	assert.Equal(t, Line{X0: 2.25, Y0: 0, X1: 2.25, Y1: 4.5, Dash: "dash", Color: dividerColor}, vertical)
	assert.Equal(t, Line{X0: 0, Y0: 2.25, X1: 4.5, Y1: 2.25, Dash: "dash", Color: dividerColor}, horizontal)

	assert.Empty(t, layout.Annotations, "labels are off by default")

	require.Len(t, layout.Legend, 3)
	assert.Equal(t, LegendEntry{Name: "Environment", Color: CategoryEnvironment.Color()}, layout.Legend[0])
}

func TestAssemblePlot_QuadrantLabels(t *testing.T) {
	opts := DefaultPlotOptions()
	opts.ShowQuadrantLabels = true

	layout, err := AssemblePlot(nil, opts)
	require.NoError(t, err)

	assert.Equal(t, []Annotation{
		{X: 1.125, Y: 1.125, Text: "Monitor"},
		{X: 3.375, Y: 1.125, Text: "Improve"},
		{X: 1.125, Y: 3.375, Text: "Maintain"},
		{X: 3.375, Y: 3.375, Text: "Excellence"},
	}, layout.Annotations)
}

func TestAssemblePlot_CustomRangesNoDividers(t *testing.T) {
	opts := DefaultPlotOptions()
	opts.XRange = AxisRange{Min: 1, Max: 5}
	opts.YRange = AxisRange{Min: 0, Max: 2}
	opts.TickStep = 1
	opts.ShowQuadrantDividers = false
	opts.ShowQuadrantLabels = true

	layout, err := AssemblePlot(nil, opts)
	require.NoError(t, err)

	assert.Empty(t, layout.Shapes)
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, layout.XAxis.TickValues)
	assert.Equal(t, []float64{0, 1, 2}, layout.YAxis.TickValues)
	require.Len(t, layout.Annotations, 4)
	assert.Equal(t, Annotation{X: 2, Y: 0.5, Text: "Monitor"}, layout.Annotations[0])
	assert.Equal(t, Annotation{X: 4, Y: 1.5, Text: "Excellence"}, layout.Annotations[3])
}

func TestAssemblePlot_EmptySeries(t *testing.T) {
	layout, err := AssemblePlot(nil, DefaultPlotOptions())
	require.NoError(t, err)
	assert.NotNil(t, layout.Legend)
	assert.Empty(t, layout.Legend)
}

func TestPlotOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*PlotOptions)
		code   errors.ErrorCode
	}{
		{"inverted x", func(o *PlotOptions) { o.XRange = AxisRange{Min: 3, Max: 1} }, errors.ErrCodeInvalidAxisRange},
		{"empty y", func(o *PlotOptions) { o.YRange = AxisRange{Min: 2, Max: 2} }, errors.ErrCodeInvalidAxisRange},
		{"nan x", func(o *PlotOptions) { o.XRange.Max = math.NaN() }, errors.ErrCodeInvalidAxisRange},
		{"infinite y", func(o *PlotOptions) { o.YRange.Max = math.Inf(1) }, errors.ErrCodeInvalidAxisRange},
		{"zero tick", func(o *PlotOptions) { o.TickStep = 0 }, errors.ErrCodeInvalidTickStep},
		{"negative tick", func(o *PlotOptions) { o.TickStep = -0.5 }, errors.ErrCodeInvalidTickStep},
		{"negative jitter", func(o *PlotOptions) { o.JitterAmount = -0.1 }, errors.ErrCodeInvalidJitterAmount},
		{"nan jitter", func(o *PlotOptions) { o.JitterAmount = math.NaN() }, errors.ErrCodeInvalidJitterAmount},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := DefaultPlotOptions()
			tt.modify(&opts)

			err := opts.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)

			layout, err := AssemblePlot(nil, opts)
			assert.Nil(t, layout)
			assert.Error(t, err)
		})
	}
}

func TestPlotOptions_ZeroJitterIsValid(t *testing.T) {
	opts := DefaultPlotOptions()
	opts.JitterAmount = 0
	assert.NoError(t, opts.Validate())
}
