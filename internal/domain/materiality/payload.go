package materiality

import (
	"fmt"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// MinYear and MaxYear bound the reporting year accepted on a dashboard.
const (
	MinYear = 1900
	MaxYear = 2200
)

// Client identifies the company a dashboard belongs to.
type Client struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DashboardPayload is the dashboard document fetched for one client and
// reporting year.  StakeholderGroups drives the group table; PlotGroups has
// the same shape and is the list used for plotting.
type DashboardPayload struct {
	Client            Client             `json:"client"`
	Year              int                `json:"year"`
	QuestionResponse  QuestionResponse   `json:"question_response"`
	StakeholderGroups []StakeholderGroup `json:"stakeholder_groups"`
	PlotGroups        []StakeholderGroup `json:"stakeholder_groups_data_plot"`
}

// Validate checks the structural invariants of a payload.
func (p *DashboardPayload) Validate() error {
	if p == nil {
		return errors.New(errors.ErrCodeDashboardInvalid, "dashboard payload is empty")
	}
	if p.Client.ID <= 0 {
		return errors.New(errors.ErrCodeDashboardInvalid, "client id must be positive").
			WithDetail(fmt.Sprintf("client_id=%d", p.Client.ID))
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return errors.New(errors.ErrCodeYearInvalid, "year out of range").
			WithDetail(fmt.Sprintf("year=%d", p.Year))
	}
	if err := checkUniqueIDs("stakeholder_groups", p.StakeholderGroups); err != nil {
		return err
	}
	return checkUniqueIDs("stakeholder_groups_data_plot", p.PlotGroups)
}

// AdminResponses returns the dashboard owner's own answers.
func (p *DashboardPayload) AdminResponses() QuestionResponse {
	if p == nil {
		return nil
	}
	return p.QuestionResponse
}

// InitialSelection returns the selection a fresh session starts from.
func (p *DashboardPayload) InitialSelection() SelectionState {
	return NewSelectionState(p.PlotGroups)
}

// Build selects the included plot groups for state and builds the matrix.
func (p *DashboardPayload) Build(state SelectionState, opts PlotOptions) (*Matrix, error) {
	return BuildMatrix(p.AdminResponses(), SelectGroups(p.PlotGroups, state), opts)
}

func checkUniqueIDs(field string, groups []StakeholderGroup) error {
	seen := make(map[int64]struct{}, len(groups))
	for _, g := range groups {
		if _, dup := seen[g.ID]; dup {
			return errors.New(errors.ErrCodeDashboardInvalid, "duplicate group id").
				WithDetail(fmt.Sprintf("%s id=%d", field, g.ID))
		}
		seen[g.ID] = struct{}{}
	}
	return nil
}
