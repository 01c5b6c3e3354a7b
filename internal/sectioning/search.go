package sectioning

import (
	"sort"
)

// Selection picks one concrete value per variable. Implementations must be
// deterministic for identical input and must leave a variable unassigned
// (nil) rather than fail when no feasible combination exists.
type Selection interface {
	Select(m *Model) []*Value
}

// Default objective weights for the weighted search.
const (
	weightUnassigned = 1000
	weightLinked     = 50
	weightPreference = 10
)

// SuggestionSelection is the simple first-feasible search: variables in
// input order, candidate values in preference order, no backtracking across
// variables.
type SuggestionSelection struct{}

// Select implements Selection.
func (SuggestionSelection) Select(m *Model) []*Value {
	assigned := make([]*Value, len(m.Variables))
	for i, v := range m.Variables {
		for _, val := range orderedValues(v) {
			if feasible(m, assigned, i, v, val) {
				assigned[i] = val
				break
			}
		}
	}
	return assigned
}

// MultiCriteriaSelection runs a weighted branch-and-bound over the full
// assignment space: it minimizes unassigned variables first, then
// linked-section violations, then lost preferred sections. Time conflicts
// are rejected outright in feasible. Ties are broken by visiting candidates
// in preference order and keeping the first best assignment found.
type MultiCriteriaSelection struct {
	UnassignedWeight int
	LinkedWeight     int
	PreferenceWeight int
}

// NewMultiCriteriaSelection returns a selection with the default weights.
func NewMultiCriteriaSelection() *MultiCriteriaSelection {
	return &MultiCriteriaSelection{
		UnassignedWeight: weightUnassigned,
		LinkedWeight:     weightLinked,
		PreferenceWeight: weightPreference,
	}
}

// Select implements Selection.
func (s *MultiCriteriaSelection) Select(m *Model) []*Value {
	if len(m.Variables) == 0 {
		return nil
	}

	current := make([]*Value, len(m.Variables))
	best := make([]*Value, len(m.Variables))
	bestCost := -1

	var descend func(idx int, cost int)
	descend = func(idx int, cost int) {
		if bestCost >= 0 && cost >= bestCost {
			return
		}
		if idx == len(m.Variables) {
			total := cost + s.linkedCost(m, current)
			if bestCost < 0 || total < bestCost {
				bestCost = total
				copy(best, current)
			}
			return
		}
		v := m.Variables[idx]
		for _, val := range orderedValues(v) {
			if !feasible(m, current, idx, v, val) {
				continue
			}
			current[idx] = val
			descend(idx+1, cost+s.valueCost(v, val))
			current[idx] = nil
		}
		// Leaving the variable unassigned is always an option.
		descend(idx+1, cost+s.UnassignedWeight)
	}
	descend(0, 0)

	if bestCost < 0 {
		return make([]*Value, len(m.Variables))
	}
	return best
}

func (s *MultiCriteriaSelection) valueCost(v *Variable, val *Value) int {
	cost := 0
	if len(v.Preferred) > 0 {
		lost := len(v.Preferred) - v.PreferredCount(val)
		if lost > 0 {
			cost += s.PreferenceWeight * lost
		}
	}
	return cost
}

func (s *MultiCriteriaSelection) linkedCost(m *Model, assigned []*Value) int {
	cost := 0
	for _, l := range m.Linked {
		if !l.Required && l.Violated(assigned) {
			cost += s.LinkedWeight
		}
	}
	return cost
}

// orderedValues returns the variable's candidates in preference order:
// the current enrollment first, then values keeping more enrolled sections,
// then stable input order.
func orderedValues(v *Variable) []*Value {
	out := make([]*Value, len(v.Values))
	copy(out, v.Values)
	sort.SliceStable(out, func(i, j int) bool {
		ei, ej := out[i] == v.Enrolled, out[j] == v.Enrolled
		if ei != ej {
			return ei
		}
		return v.PreferredCount(out[i]) > v.PreferredCount(out[j])
	})
	return out
}

// feasible checks the hard constraints of assigning val to variable idx
// given the combinations already placed.
func feasible(m *Model, assigned []*Value, idx int, v *Variable, val *Value) bool {
	for _, sec := range val.Sections {
		if !sec.Available() && !v.Preferred[sec.ID] && !v.MustUse {
			return false
		}
	}
	for i, other := range assigned {
		if i == idx || other == nil {
			continue
		}
		if val.Overlaps(other) {
			return false
		}
	}
	for _, l := range m.Linked {
		if !l.Required {
			continue
		}
		trial := make([]*Value, len(assigned))
		copy(trial, assigned)
		trial[idx] = val
		if l.Violated(trial) {
			return false
		}
	}
	return true
}
