package materiality

import (
	"math"
	"strconv"
)

const (
	// DefaultJitterAmount is the radial step, in plot units, between
	// successive points that share a collision key.
	DefaultJitterAmount = 0.08

	// jitterAngleStep approximates the golden angle so successive displaced
	// points spiral outward without lining up.
	jitterAngleStep = 2.4

	// collisionScale rounds coordinates to one decimal for collision keys.
	collisionScale = 10
)

// CollisionKey returns the key under which two points count as overlapping:
// both coordinates rounded to one decimal.  Rounding is math.Round on v*10,
// half away from zero on the binary value, so 0.15 keys as "0.2" although
// its nearest decimal string rounds to "0.1".
func CollisionKey(x, y float64) string {
	return formatKeyPart(x) + "," + formatKeyPart(y)
}

func formatKeyPart(v float64) string {
	r := math.Round(v*collisionScale) / collisionScale
	if r == 0 {
		// fold -0 into 0
		r = 0
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// Offset returns the displacement applied to the nth point (n starting at 0)
// that shares a collision key.  n = 0 yields (0, 0).
func Offset(n int, amount float64) (dx, dy float64) {
	if n <= 0 {
		return 0, 0
	}
	angle := float64(n) * jitterAngleStep
	radius := math.Sqrt(float64(n)) * amount
	return math.Cos(angle) * radius, math.Sin(angle) * radius
}

// JitterResult carries the displaced series and how many points moved.
type JitterResult struct {
	Series    []PlotSeries
	Displaced int
	Collided  int
}

// Jitter separates overlapping points.  Points are visited in flattened
// order (series by series, then position within series); the first point
// seen at a collision key stays put and each later one is pushed out along
// a spiral.  The series structure, labels and original coordinates are
// preserved, and the result is a pure function of input order and amount.
func Jitter(series []PlotSeries, amount float64) []PlotSeries {
	return JitterWithStats(series, amount).Series
}

// JitterWithStats is Jitter that also reports collision statistics.
func JitterWithStats(series []PlotSeries, amount float64) JitterResult {
	if len(series) == 0 {
		return JitterResult{Series: series}
	}

	type ref struct {
		series int
		index  int
	}
	flat := make([]ref, 0, PointCount(series))
	for si, s := range series {
		for pi := range s.Points {
			flat = append(flat, ref{series: si, index: pi})
		}
	}

	out := make([]PlotSeries, len(series))
	for si, s := range series {
		out[si] = s
		out[si].Points = append(make([]SeriesPoint, 0, len(s.Points)), s.Points...)
	}

	seen := make(map[string]int, len(flat))
	collided := make(map[string]struct{})
	displaced := 0
	for _, r := range flat {
		p := &out[r.series].Points[r.index]
		key := CollisionKey(p.X, p.Y)
		n := seen[key]
		seen[key] = n + 1
		if n == 0 {
			continue
		}
		collided[key] = struct{}{}
		dx, dy := Offset(n, amount)
		p.X += dx
		p.Y += dy
		displaced++
	}

	return JitterResult{Series: out, Displaced: displaced, Collided: len(collided)}
}
