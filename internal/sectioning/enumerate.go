package sectioning

import (
	"github.com/noah-isme/specreg-bridge/internal/models"
)

// FirstEnrollment walks the config's subparts in catalog order, choosing the
// first feasible section at each level: cancelled sections are skipped,
// sections whose parent section was not chosen at an earlier level are
// skipped, and sections overlapping an already chosen section are skipped.
// It returns the first complete combination found, or nil when some subpart
// has no feasible section given the earlier choices. The walk is pure and
// terminates because every recursive call advances the subpart index.
func FirstEnrollment(config models.Config, chosen []models.Section, subpartIdx int) []models.Section {
	if subpartIdx >= len(config.Subparts) {
		out := make([]models.Section, len(chosen))
		copy(out, chosen)
		return out
	}
	subpart := config.Subparts[subpartIdx]
	for _, section := range subpart.Sections {
		if section.Cancelled {
			continue
		}
		if section.ParentID != 0 && !sectionChosen(chosen, section.ParentID) {
			continue
		}
		if overlapsAny(section, chosen) {
			continue
		}
		if combo := FirstEnrollment(config, append(chosen, section), subpartIdx+1); combo != nil {
			return combo
		}
	}
	return nil
}

// EnumerateConfig collects every complete combination of the config, in the
// deterministic order FirstEnrollment would visit them, up to limit.
func EnumerateConfig(config models.Config, limit int) [][]models.Section {
	var out [][]models.Section
	var walk func(chosen []models.Section, idx int) bool
	walk = func(chosen []models.Section, idx int) bool {
		if len(out) >= limit {
			return false
		}
		if idx >= len(config.Subparts) {
			combo := make([]models.Section, len(chosen))
			copy(combo, chosen)
			out = append(out, combo)
			return len(out) < limit
		}
		for _, section := range config.Subparts[idx].Sections {
			if section.Cancelled {
				continue
			}
			if section.ParentID != 0 && !sectionChosen(chosen, section.ParentID) {
				continue
			}
			if overlapsAny(section, chosen) {
				continue
			}
			if !walk(append(chosen, section), idx+1) {
				return false
			}
		}
		return true
	}
	walk(nil, 0)
	return out
}

func sectionChosen(chosen []models.Section, id int64) bool {
	for _, s := range chosen {
		if s.ID == id {
			return true
		}
	}
	return false
}

func overlapsAny(section models.Section, chosen []models.Section) bool {
	for _, s := range chosen {
		if section.Placement.Overlaps(s.Placement) {
			return true
		}
	}
	return false
}
