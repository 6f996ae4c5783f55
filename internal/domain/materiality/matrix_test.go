package materiality

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

func TestBuildMatrix_EndToEnd(t *testing.T) {
	admin := response(
		cat("Environment", qv("1", "E-1", 3, 3)),
		cat("Social", qv("2", "S-1", 1, 4)),
	)
	included := []StakeholderGroup{
		group(10, "Employees", response(
			cat("Environment", qv("1", "E-1", 3, 3), qv("1", "E-1", 3, 3)),
			cat("Governance", q("3", "G-1", nil, Float(2))),
		)),
	}

	m, err := BuildMatrix(admin, included, DefaultPlotOptions())
	require.NoError(t, err)

	require.Len(t, m.Series, 3)
	env := m.Series[0]
	require.Len(t, env.Points, 2)
	assert.Equal(t, AdminSourceName, env.Points[0].SourceName)
	assert.Equal(t, 3.0, env.Points[0].X, "admin point seen first")
	assert.Equal(t, "Employees", env.Points[1].SourceName)
	assert.NotEqual(t, 3.0, env.Points[1].X, "group point displaced")
	assert.Equal(t, 3.0, env.Points[1].OriginalX)
	assert.Empty(t, m.Series[2].Points, "ineligible governance answer dropped")

	assert.Equal(t, MatrixStats{GroupCount: 1, PointCount: 3, DisplacedCount: 1, CollisionKeys: 1}, m.Stats)
	require.NotNil(t, m.Layout)
	assert.Len(t, m.Layout.Legend, 3)
}

func TestBuildMatrix_Empty(t *testing.T) {
	m, err := BuildMatrix(nil, nil, DefaultPlotOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, PointCount(m.Series))
	assert.Len(t, m.Series, 3)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"points":[]`)
}

func TestBuildMatrix_InvalidOptions(t *testing.T) {
	opts := DefaultPlotOptions()
	opts.TickStep = 0

	m, err := BuildMatrix(response(cat("Social", qv("1", "S-1", 1, 1))), nil, opts)

	assert.Nil(t, m)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidTickStep))
}

func TestBuildMatrix_NonFinite(t *testing.T) {
	m, err := BuildMatrix(response(cat("Social", qv("1", "S-1", math.NaN(), 1))), nil, DefaultPlotOptions())

	assert.Nil(t, m)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCoordinate))
}
