package matrix

import (
	"github.com/turtacn/ESG-Materiality/internal/config"
	"github.com/turtacn/ESG-Materiality/internal/domain/materiality"
)

// PlotOptionsFromConfig starts from the default plot options and applies
// the matrix config.  Title, ranges and tick step fall back to the defaults
// when unset; the jitter amount is taken as configured because zero turns
// overlap resolution off.
func PlotOptionsFromConfig(c config.MatrixConfig) materiality.PlotOptions {
	opts := materiality.DefaultPlotOptions()
	if c.Title != "" {
		opts.Title = c.Title
	}
	if c.AxisMin != 0 || c.AxisMax != 0 {
		opts.XRange = materiality.AxisRange{Min: c.AxisMin, Max: c.AxisMax}
		opts.YRange = opts.XRange
	}
	if c.TickStep != 0 {
		opts.TickStep = c.TickStep
	}
	opts.JitterAmount = c.JitterAmount
	opts.ShowQuadrantDividers = c.ShowQuadrantDividers
	opts.ShowQuadrantLabels = c.ShowQuadrantLabels
	return opts
}

// Overrides are optional per-request changes to the plot options.
type Overrides struct {
	JitterAmount       *float64
	ShowQuadrantLabels *bool
	Title              *string
}

// Apply returns base with the set overrides applied.
func (o Overrides) Apply(base materiality.PlotOptions) materiality.PlotOptions {
	if o.JitterAmount != nil {
		base.JitterAmount = *o.JitterAmount
	}
	if o.ShowQuadrantLabels != nil {
		base.ShowQuadrantLabels = *o.ShowQuadrantLabels
	}
	if o.Title != nil {
		base.Title = *o.Title
	}
	return base
}
