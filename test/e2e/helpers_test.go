package e2e_test

import "github.com/turtacn/ESG-Materiality/internal/domain/materiality"

const (
	testClientID = int64(42)
	testYear     = 2024

	groupEmployees = int64(1)
	groupInvestors = int64(2)
	groupGlobal    = int64(3)
)

func question(id, code string, priority, status float64) materiality.Question {
	return materiality.Question{
		QuestionID: materiality.QuestionID(id),
		IndexCode:  code,
		Priority:   materiality.Float(priority),
		StatusQuo:  materiality.Float(status),
	}
}

func response(category string, qs ...materiality.Question) materiality.QuestionResponse {
	return materiality.QuestionResponse{{Category: category, Questions: qs}}
}

// samplePayload holds an admin assessment, a default group whose only
// answer sits on top of the admin's, an opt-in group and a global group.
func samplePayload() *materiality.DashboardPayload {
	admin := materiality.QuestionResponse{
		{Category: "Environment", Questions: []materiality.Question{question("1", "E-1", 3, 3)}},
		{Category: "Social", Questions: []materiality.Question{question("2", "S-1", 1, 2)}},
	}
	groups := []materiality.StakeholderGroup{
		{
			ID: groupEmployees, DisplayName: "Employees", IsDefault: true,
			HasResponses: true, ShowInTable: true, StakeholderCount: 5,
			QuestionResponse: response("Environment", question("1", "E-1", 3, 3)),
		},
		{
			ID: groupInvestors, DisplayName: "Investors",
			HasResponses: true, ShowInTable: true, StakeholderCount: 2,
			QuestionResponse: response("Governance", question("3", "G-1", 4, 1)),
		},
		{
			ID: groupGlobal, DisplayName: "All stakeholders", IsGlobal: true,
			HasResponses: true, StakeholderCount: 7,
		},
	}
	return &materiality.DashboardPayload{
		Client:            materiality.Client{ID: testClientID, Name: "Acme"},
		Year:              testYear,
		QuestionResponse:  admin,
		StakeholderGroups: groups,
		PlotGroups:        groups,
	}
}
