package materiality

import (
	"strconv"
	"strings"
)

// SeriesPoint is a point inside a category series.  X and Y are the render
// coordinates, which the jitter engine may displace; OriginalX and OriginalY
// always hold the true averages for tooltips.
type SeriesPoint struct {
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	OriginalX  float64    `json:"original_x"`
	OriginalY  float64    `json:"original_y"`
	Label      string     `json:"label"`
	SourceName string     `json:"source_name"`
	QuestionID QuestionID `json:"question_id"`
	HoverText  string     `json:"hover_text"`
}

// PlotSeries is the set of points sharing one category and colour.
type PlotSeries struct {
	Category Category      `json:"category"`
	Name     string        `json:"name"`
	Color    string        `json:"color"`
	Points   []SeriesPoint `json:"points"`
}

// PointCount returns the number of points across all series.
func PointCount(series []PlotSeries) int {
	n := 0
	for _, s := range series {
		n += len(s.Points)
	}
	return n
}

// GroupIntoSeries splits points into one series per category in SeriesOrder.
// The three ESG series are always present, possibly empty; the Unknown series
// is emitted only when it holds points.  Within a series, collection order
// is kept.
func GroupIntoSeries(points []PlotPoint) []PlotSeries {
	byCategory := make(map[Category][]SeriesPoint, len(SeriesOrder))
	for _, p := range points {
		byCategory[p.Category] = append(byCategory[p.Category], SeriesPoint{
			X:          p.X,
			Y:          p.Y,
			OriginalX:  p.X,
			OriginalY:  p.Y,
			Label:      p.Label,
			SourceName: p.SourceName,
			QuestionID: p.QuestionID,
			HoverText:  hoverText(p),
		})
	}

	out := make([]PlotSeries, 0, len(SeriesOrder))
	for _, c := range SeriesOrder {
		pts := byCategory[c]
		if !c.IsKnown() && len(pts) == 0 {
			continue
		}
		if pts == nil {
			pts = []SeriesPoint{}
		}
		out = append(out, PlotSeries{
			Category: c,
			Name:     c.DisplayName(),
			Color:    c.Color(),
			Points:   pts,
		})
	}
	return out
}

// hoverText renders the tooltip from the undisplaced coordinates, rounded
// for display only.
func hoverText(p PlotPoint) string {
	var sb strings.Builder
	sb.WriteString(p.Label)
	if p.SourceName != "" {
		sb.WriteString(" (")
		sb.WriteString(p.SourceName)
		sb.WriteString(")")
	}
	sb.WriteString("<br>Priority: ")
	sb.WriteString(formatDisplay(p.X))
	sb.WriteString("<br>Status quo: ")
	sb.WriteString(formatDisplay(p.Y))
	return sb.String()
}

func formatDisplay(v float64) string {
	return strconv.FormatFloat(RoundForDisplay(v), 'f', -1, 64)
}
