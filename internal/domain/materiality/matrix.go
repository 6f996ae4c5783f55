package materiality

// MatrixStats summarises one build pass.
type MatrixStats struct {
	GroupCount     int `json:"group_count"`
	PointCount     int `json:"point_count"`
	DisplacedCount int `json:"displaced_count"`
	CollisionKeys  int `json:"collision_keys"`
}

// Matrix is the renderable materiality matrix.
type Matrix struct {
	Series []PlotSeries `json:"series"`
	Layout *PlotLayout  `json:"layout"`
	Stats  MatrixStats  `json:"stats"`
}

// BuildMatrix runs collection, series grouping, overlap resolution and plot
// assembly over the admin's responses and the already-included groups.
// Options are validated before any work is done.
func BuildMatrix(admin QuestionResponse, included []StakeholderGroup, opts PlotOptions) (*Matrix, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	points, err := CollectPoints(admin, included)
	if err != nil {
		return nil, err
	}

	jittered := JitterWithStats(GroupIntoSeries(points), opts.JitterAmount)

	layout, err := AssemblePlot(jittered.Series, opts)
	if err != nil {
		return nil, err
	}

	return &Matrix{
		Series: jittered.Series,
		Layout: layout,
		Stats: MatrixStats{
			GroupCount:     len(included),
			PointCount:     len(points),
			DisplacedCount: jittered.Displaced,
			CollisionKeys:  jittered.Collided,
		},
	}, nil
}
