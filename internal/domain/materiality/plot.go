package materiality

import (
	"fmt"
	"math"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// Default axis configuration.
const (
	DefaultAxisMin  = 0.0
	DefaultAxisMax  = 4.5
	DefaultTickStep = 0.5

	DefaultTitle      = "Materiality Matrix"
	DefaultXAxisTitle = "Priority"
	DefaultYAxisTitle = "Status quo"

	dividerDash  = "dash"
	dividerColor = "#9E9E9E"
)

// Quadrant labels, named by priority (x) and status quo (y).
const (
	QuadrantLowPriorityLowStatus   = "Monitor"
	QuadrantHighPriorityLowStatus  = "Improve"
	QuadrantLowPriorityHighStatus  = "Maintain"
	QuadrantHighPriorityHighStatus = "Excellence"
)

// AxisRange is a closed numeric interval.
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mid returns the midpoint of the range.
func (r AxisRange) Mid() float64 { return (r.Min + r.Max) / 2 }

func (r AxisRange) validate(axis string) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return errors.New(errors.ErrCodeInvalidAxisRange, axis+" axis range must be finite").
			WithDetail(fmt.Sprintf("min=%v max=%v", r.Min, r.Max))
	}
	if r.Min >= r.Max {
		return errors.New(errors.ErrCodeInvalidAxisRange, axis+" axis min must be below max").
			WithDetail(fmt.Sprintf("min=%v max=%v", r.Min, r.Max))
	}
	return nil
}

// PlotOptions configures matrix assembly.  Start from DefaultPlotOptions and
// override what differs.
type PlotOptions struct {
	Title                string    `json:"title"`
	XAxisTitle           string    `json:"x_axis_title"`
	YAxisTitle           string    `json:"y_axis_title"`
	XRange               AxisRange `json:"x_range"`
	YRange               AxisRange `json:"y_range"`
	TickStep             float64   `json:"tick_step"`
	ShowQuadrantDividers bool      `json:"show_quadrant_dividers"`
	ShowQuadrantLabels   bool      `json:"show_quadrant_labels"`
	JitterAmount         float64   `json:"jitter_amount"`
}

// DefaultPlotOptions returns the standard matrix configuration: both axes
// span [0, 4.5] with 0.5 ticks, dividers on, labels off.
func DefaultPlotOptions() PlotOptions {
	return PlotOptions{
		Title:                DefaultTitle,
		XAxisTitle:           DefaultXAxisTitle,
		YAxisTitle:           DefaultYAxisTitle,
		XRange:               AxisRange{Min: DefaultAxisMin, Max: DefaultAxisMax},
		YRange:               AxisRange{Min: DefaultAxisMin, Max: DefaultAxisMax},
		TickStep:             DefaultTickStep,
		ShowQuadrantDividers: true,
		JitterAmount:         DefaultJitterAmount,
	}
}

// Validate reports configuration errors.  Nothing is defaulted here.
func (o PlotOptions) Validate() error {
	if err := o.XRange.validate("x"); err != nil {
		return err
	}
	if err := o.YRange.validate("y"); err != nil {
		return err
	}
	if math.IsNaN(o.TickStep) || math.IsInf(o.TickStep, 0) || o.TickStep <= 0 {
		return errors.New(errors.ErrCodeInvalidTickStep, "tick step must be a positive number").
			WithDetail(fmt.Sprintf("tick_step=%v", o.TickStep))
	}
	if math.IsNaN(o.JitterAmount) || math.IsInf(o.JitterAmount, 0) || o.JitterAmount < 0 {
		return errors.New(errors.ErrCodeInvalidJitterAmount, "jitter amount must be a non-negative number").
			WithDetail(fmt.Sprintf("jitter_amount=%v", o.JitterAmount))
	}
	return nil
}

// Axis is one assembled plot axis.
type Axis struct {
	Title      string    `json:"title"`
	Range      AxisRange `json:"range"`
	TickStep   float64   `json:"tick_step"`
	TickValues []float64 `json:"tick_values"`
}

// Line is a straight shape drawn over the plot.
type Line struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Dash  string  `json:"dash"`
	Color string  `json:"color"`
}

// Annotation is a text label anchored at plot coordinates.
type Annotation struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// LegendEntry names one series in the legend.
type LegendEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// PlotLayout is the renderer-agnostic layout of the matrix.
type PlotLayout struct {
	Title       string        `json:"title"`
	XAxis       Axis          `json:"x_axis"`
	YAxis       Axis          `json:"y_axis"`
	Shapes      []Line        `json:"shapes"`
	Annotations []Annotation  `json:"annotations"`
	Legend      []LegendEntry `json:"legend"`
}

// AssemblePlot builds the layout for the given series.  It performs only
// structural assembly; malformed options are returned as configuration
// errors.  Empty series produce a valid layout with an empty legend.
func AssemblePlot(series []PlotSeries, opts PlotOptions) (*PlotLayout, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	layout := &PlotLayout{
		Title:       opts.Title,
		XAxis:       buildAxis(opts.XAxisTitle, opts.XRange, opts.TickStep),
		YAxis:       buildAxis(opts.YAxisTitle, opts.YRange, opts.TickStep),
		Shapes:      []Line{},
		Annotations: []Annotation{},
		Legend:      make([]LegendEntry, 0, len(series)),
	}

	for _, s := range series {
		layout.Legend = append(layout.Legend, LegendEntry{Name: s.Name, Color: s.Color})
	}

	midX, midY := opts.XRange.Mid(), opts.YRange.Mid()
	if opts.ShowQuadrantDividers {
		layout.Shapes = append(layout.Shapes,
			Line{X0: midX, Y0: opts.YRange.Min, X1: midX, Y1: opts.YRange.Max, Dash: dividerDash, Color: dividerColor},
			Line{X0: opts.XRange.Min, Y0: midY, X1: opts.XRange.Max, Y1: midY, Dash: dividerDash, Color: dividerColor},
		)
	}

	if opts.ShowQuadrantLabels {
		lowX := (opts.XRange.Min + midX) / 2
		highX := (midX + opts.XRange.Max) / 2
		lowY := (opts.YRange.Min + midY) / 2
		highY := (midY + opts.YRange.Max) / 2
		layout.Annotations = append(layout.Annotations,
			Annotation{X: lowX, Y: lowY, Text: QuadrantLowPriorityLowStatus},
			Annotation{X: highX, Y: lowY, Text: QuadrantHighPriorityLowStatus},
			Annotation{X: lowX, Y: highY, Text: QuadrantLowPriorityHighStatus},
			Annotation{X: highX, Y: highY, Text: QuadrantHighPriorityHighStatus},
		)
	}

	return layout, nil
}

func buildAxis(title string, r AxisRange, step float64) Axis {
	return Axis{
		Title:      title,
		Range:      r,
		TickStep:   step,
		TickValues: tickValues(r, step),
	}
}

// tickValues lists min, min+step, ... up to max.  Each value is computed from
// its index so float error does not accumulate.
func tickValues(r AxisRange, step float64) []float64 {
	const eps = 1e-9
	n := int(math.Floor((r.Max-r.Min)/step+eps)) + 1
	ticks := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := r.Min + float64(i)*step
		ticks = append(ticks, math.Round(v*1e9)/1e9)
	}
	return ticks
}
