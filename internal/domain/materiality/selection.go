package materiality

import "sort"

// SelectionState is the per-session group selection.  It is a value: every
// operation returns a new state and never mutates its receiver, so a failed
// recompute downstream cannot leave a half-applied toggle behind.
type SelectionState struct {
	// SelectedGroups holds toggled-on group ids in toggle order.
	SelectedGroups []int64 `json:"selected_groups"`

	// ShowInTable holds the ids currently listed in the visibility table.
	ShowInTable []int64 `json:"selected_groups_show_in_table"`

	// PendingNotShown records visibility edits not yet written back:
	// true means the group is to be hidden, false that it is to be shown.
	PendingNotShown map[int64]bool `json:"pending_not_shown,omitempty"`
}

// VisibilityChange is one pending visibility edit.
type VisibilityChange struct {
	GroupID     int64 `json:"group_id"`
	ShowInTable bool  `json:"show_in_table"`
}

// NewSelectionState initialises a session for a freshly loaded dataset:
// exactly the global groups are selected, and the table lists groups that
// are flagged show_in_table, have responses and are not global.
func NewSelectionState(groups []StakeholderGroup) SelectionState {
	s := SelectionState{
		SelectedGroups: []int64{},
		ShowInTable:    []int64{},
	}
	for _, g := range groups {
		if g.IsGlobal {
			s.SelectedGroups = append(s.SelectedGroups, g.ID)
		}
		if g.ShowInTable && g.HasResponses && !g.IsGlobal {
			s.ShowInTable = append(s.ShowInTable, g.ID)
		}
	}
	return s
}

// IsSelected reports whether id is toggled on.
func (s SelectionState) IsSelected(id int64) bool {
	return containsID(s.SelectedGroups, id)
}

// IsShownInTable reports whether id is listed in the visibility table.
func (s SelectionState) IsShownInTable(id int64) bool {
	return containsID(s.ShowInTable, id)
}

// Clone returns a deep copy.
func (s SelectionState) Clone() SelectionState {
	out := SelectionState{
		SelectedGroups: append([]int64{}, s.SelectedGroups...),
		ShowInTable:    append([]int64{}, s.ShowInTable...),
	}
	if len(s.PendingNotShown) > 0 {
		out.PendingNotShown = make(map[int64]bool, len(s.PendingNotShown))
		for k, v := range s.PendingNotShown {
			out.PendingNotShown[k] = v
		}
	}
	return out
}

// Toggle flips g's membership in the selection.  Disabled groups are ignored
// silently; the second return value reports whether anything changed.
func Toggle(s SelectionState, g StakeholderGroup) (SelectionState, bool) {
	if IsToggleDisabled(g) {
		return s, false
	}
	out := s.Clone()
	if out.IsSelected(g.ID) {
		out.SelectedGroups = removeID(out.SelectedGroups, g.ID)
	} else {
		out.SelectedGroups = append(out.SelectedGroups, g.ID)
	}
	return out, true
}

// SetShownInTable lists or unlists g in the visibility table and records the
// edit for the next bulk write.  Global groups never appear in the table, so
// requests for them are ignored.
func SetShownInTable(s SelectionState, g StakeholderGroup, shown bool) (SelectionState, bool) {
	if g.IsGlobal || s.IsShownInTable(g.ID) == shown {
		return s, false
	}
	out := s.Clone()
	if shown {
		out.ShowInTable = append(out.ShowInTable, g.ID)
	} else {
		out.ShowInTable = removeID(out.ShowInTable, g.ID)
	}
	if out.PendingNotShown == nil {
		out.PendingNotShown = make(map[int64]bool)
	}
	out.PendingNotShown[g.ID] = !shown
	return out, true
}

// PendingVisibility lists the recorded visibility edits ordered by group id.
func PendingVisibility(s SelectionState) []VisibilityChange {
	out := make([]VisibilityChange, 0, len(s.PendingNotShown))
	for id, hidden := range s.PendingNotShown {
		out = append(out, VisibilityChange{GroupID: id, ShowInTable: !hidden})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}

// ClearPending drops the recorded visibility edits after they were written.
func ClearPending(s SelectionState) SelectionState {
	out := s.Clone()
	out.PendingNotShown = nil
	return out
}

// Reconcile drops ids that no longer exist in groups.  It is applied when a
// stored session meets a refreshed dataset.
func Reconcile(s SelectionState, groups []StakeholderGroup) SelectionState {
	known := make(map[int64]struct{}, len(groups))
	for _, g := range groups {
		known[g.ID] = struct{}{}
	}
	keep := func(ids []int64) []int64 {
		out := make([]int64, 0, len(ids))
		for _, id := range ids {
			if _, ok := known[id]; ok {
				out = append(out, id)
			}
		}
		return out
	}
	out := SelectionState{
		SelectedGroups: keep(s.SelectedGroups),
		ShowInTable:    keep(s.ShowInTable),
	}
	for id, hidden := range s.PendingNotShown {
		if _, ok := known[id]; ok {
			if out.PendingNotShown == nil {
				out.PendingNotShown = make(map[int64]bool)
			}
			out.PendingNotShown[id] = hidden
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
