package materiality

import (
	"fmt"
	"math"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// AdminSourceName labels points that come from the dashboard owner's own
// assessment rather than from a stakeholder group.
const AdminSourceName = "Own assessment"

// PlotPoint is one plottable answer: x is priority, y is status quo.
type PlotPoint struct {
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Label        string     `json:"label"`
	Category     Category   `json:"category"`
	CategoryName string     `json:"category_name"`
	SourceName   string     `json:"source_name"`
	QuestionID   QuestionID `json:"question_id"`
}

// CollectPoints flattens the admin's responses and the responses of every
// included group into one ordered list.  Admin points come first in supplied
// category order, then each group in slice order.  Identical points are kept.
//
// Inputs are validated before aggregation: a NaN or infinite answer is a
// validation error rather than being filtered out.
func CollectPoints(admin QuestionResponse, included []StakeholderGroup) ([]PlotPoint, error) {
	if err := validateResponse(AdminSourceName, admin); err != nil {
		return nil, err
	}
	for _, g := range included {
		if err := validateResponse(g.DisplayName, g.QuestionResponse); err != nil {
			return nil, err
		}
	}

	points := make([]PlotPoint, 0, admin.QuestionCount())
	points = appendPoints(points, AdminSourceName, Aggregate(admin))
	for _, g := range included {
		points = appendPoints(points, g.DisplayName, Aggregate(g.QuestionResponse))
	}
	return points, nil
}

func appendPoints(points []PlotPoint, source string, resp QuestionResponse) []PlotPoint {
	for _, cat := range resp {
		kind := cat.Kind()
		for _, q := range cat.Questions {
			points = append(points, PlotPoint{
				X:            *q.Priority,
				Y:            *q.StatusQuo,
				Label:        q.IndexCode,
				Category:     kind,
				CategoryName: cat.Category,
				SourceName:   source,
				QuestionID:   q.QuestionID,
			})
		}
	}
	return points
}

func validateResponse(source string, resp QuestionResponse) error {
	for _, cat := range resp {
		for _, q := range cat.Questions {
			if err := checkFinite(source, q, "priority", q.Priority); err != nil {
				return err
			}
			if err := checkFinite(source, q, "status_quo", q.StatusQuo); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkFinite(source string, q Question, field string, v *float64) error {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return errors.New(errors.ErrCodeInvalidCoordinate, "non-numeric "+field).
			WithDetail(fmt.Sprintf("source=%q question_id=%s value=%v", source, q.QuestionID, *v))
	}
	return nil
}
