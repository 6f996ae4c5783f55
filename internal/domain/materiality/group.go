package materiality

// StakeholderGroup is a named cohort of respondents together with its
// aggregated answers.
type StakeholderGroup struct {
	ID               int64            `json:"id"`
	DisplayName      string           `json:"display_name"`
	IsDefault        bool             `json:"is_default"`
	IsGlobal         bool             `json:"is_global"`
	HasResponses     bool             `json:"has_responses"`
	ShowInTable      bool             `json:"show_in_table"`
	StakeholderCount int              `json:"stakeholder_count"`
	QuestionResponse QuestionResponse `json:"question_response"`
	InvitationLink   string           `json:"invitation_link,omitempty"`
}

// IsToggleDisabled reports whether the user may not toggle g: global groups
// are always on, and groups without responses or stakeholders have nothing
// to show.
func IsToggleDisabled(g StakeholderGroup) bool {
	return g.IsGlobal || !g.HasResponses || g.StakeholderCount == 0
}

// IsChecked reports whether g is shown as "on" in the group table.
func IsChecked(g StakeholderGroup, state SelectionState) bool {
	if g.IsGlobal {
		return true
	}
	return !IsToggleDisabled(g) && state.IsSelected(g.ID)
}

// IsIncludedInPlot reports whether g contributes points to the matrix.
func IsIncludedInPlot(g StakeholderGroup, state SelectionState) bool {
	if !g.IsDefault && !state.IsSelected(g.ID) {
		return false
	}
	return g.HasResponses && len(g.QuestionResponse) > 0
}

// SelectGroups returns the groups included in the plot, in input order.
func SelectGroups(groups []StakeholderGroup, state SelectionState) []StakeholderGroup {
	out := make([]StakeholderGroup, 0, len(groups))
	for _, g := range groups {
		if IsIncludedInPlot(g, state) {
			out = append(out, g)
		}
	}
	return out
}

// FindGroup returns the group with the given id.
func FindGroup(groups []StakeholderGroup, id int64) (StakeholderGroup, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return StakeholderGroup{}, false
}
