// Package sectioning builds and searches the per-student section-assignment
// model used to derive a concrete CRN schedule for external validation.
package sectioning

import (
	"github.com/noah-isme/specreg-bridge/internal/models"
)

// maxValuesPerConfig bounds candidate enumeration for very large offerings.
const maxValuesPerConfig = 1000

// Value is one complete section combination for a single course: exactly one
// section per subpart of the config, parent linkage honored, no pairwise
// time overlap.
type Value struct {
	Course   models.Course
	ConfigID int64
	Sections []models.Section
}

// Overlaps reports whether any section of v time-conflicts with any section
// of o. Used for cross-variable feasibility.
func (v *Value) Overlaps(o *Value) bool {
	if v == nil || o == nil {
		return false
	}
	for i := range v.Sections {
		for j := range o.Sections {
			if v.Sections[i].Placement.Overlaps(o.Sections[j].Placement) {
				return true
			}
		}
	}
	return false
}

// SectionIDs returns the ids of the combination's sections.
func (v *Value) SectionIDs() []int64 {
	if v == nil {
		return nil
	}
	ids := make([]int64, 0, len(v.Sections))
	for _, s := range v.Sections {
		ids = append(ids, s.ID)
	}
	return ids
}

// Variable is one course-request line: ordered candidate courses, their
// enumerated candidate values, and the sections the student already holds.
type Variable struct {
	Priority    int
	Alternative bool
	Courses     []models.Course
	Values      []*Value
	// Preferred marks section ids the student is currently enrolled in;
	// the search is biased to keep them when still legal.
	Preferred map[int64]bool
	// Enrolled is the student's current combination for this line, nil when
	// the student holds no seats yet.
	Enrolled *Value
	// MustUse marks the line as already holding its seats, so capacity
	// checks never count the student against their own enrollment.
	MustUse bool
}

// PreferredCount returns how many sections of the value the student already
// holds.
func (v *Variable) PreferredCount(val *Value) int {
	if val == nil || len(v.Preferred) == 0 {
		return 0
	}
	n := 0
	for _, s := range val.Sections {
		if v.Preferred[s.ID] {
			n++
		}
	}
	return n
}

// LinkedConstraint materializes an offering-level linked-sections
// distribution: when any listed section is assigned, all assigned sections
// of the covered subparts must come from the listed set. Required makes it
// a hard constraint.
type LinkedConstraint struct {
	SectionIDs map[int64]bool
	Required   bool
}

// Violated reports whether the assignment uses some but not all of the
// linked set within the combinations that touch it.
func (l LinkedConstraint) Violated(assigned []*Value) bool {
	touched := false
	outside := false
	for _, val := range assigned {
		if val == nil {
			continue
		}
		inSet := 0
		for _, s := range val.Sections {
			if l.SectionIDs[s.ID] {
				inSet++
			}
		}
		if inSet > 0 {
			touched = true
			if inSet < len(val.Sections) && len(val.Sections) > 1 {
				outside = true
			}
		}
	}
	return touched && outside
}

// Model is the solver-ready view of one student's request form.
type Model struct {
	Variables []*Variable
	Linked    []LinkedConstraint
}

// Builder accumulates request lines into a Model. Construction is
// best-effort: unresolvable courses or offerings are skipped silently.
type Builder struct {
	model            *Model
	linkedMustBeUsed bool
}

// NewBuilder returns an empty model builder.
func NewBuilder(linkedMustBeUsed bool) *Builder {
	return &Builder{model: &Model{}, linkedMustBeUsed: linkedMustBeUsed}
}

// AddRequest appends one variable for a request line. offerings holds the
// loaded offering per candidate course id; enrolledSections lists the
// sections the student currently holds for this line (possibly empty).
func (b *Builder) AddRequest(group models.CourseRequestGroup, courses []models.Course, offerings map[int64]*models.Offering, enrolledSections []models.Section) {
	if len(courses) == 0 {
		return
	}
	v := &Variable{
		Priority:    group.Priority,
		Alternative: group.Alternative,
		Preferred:   make(map[int64]bool, len(enrolledSections)),
	}
	for _, s := range enrolledSections {
		v.Preferred[s.ID] = true
	}

	for _, course := range courses {
		off := offerings[course.OfferingID]
		if off == nil {
			continue
		}
		v.Courses = append(v.Courses, course)
		for ci := range off.Configs {
			cfg := off.Configs[ci]
			combos := EnumerateConfig(cfg, maxValuesPerConfig)
			for _, combo := range combos {
				v.Values = append(v.Values, &Value{Course: course, ConfigID: cfg.ID, Sections: combo})
			}
		}
		b.addLinked(off)
	}
	if len(v.Courses) == 0 {
		return
	}

	if len(enrolledSections) > 0 {
		v.MustUse = true
		v.Enrolled = b.matchEnrolled(v, enrolledSections)
	}
	b.model.Variables = append(b.model.Variables, v)
}

// matchEnrolled finds the candidate value equal to the current enrollment.
func (b *Builder) matchEnrolled(v *Variable, enrolled []models.Section) *Value {
	want := make(map[int64]bool, len(enrolled))
	for _, s := range enrolled {
		want[s.ID] = true
	}
	for _, val := range v.Values {
		if len(val.Sections) != len(want) {
			continue
		}
		ok := true
		for _, s := range val.Sections {
			if !want[s.ID] {
				ok = false
				break
			}
		}
		if ok {
			return val
		}
	}
	return nil
}

func (b *Builder) addLinked(off *models.Offering) {
	for _, group := range off.LinkedSections {
		if len(group) < 2 {
			continue
		}
		set := make(map[int64]bool, len(group))
		for _, id := range group {
			set[id] = true
		}
		b.model.Linked = append(b.model.Linked, LinkedConstraint{SectionIDs: set, Required: b.linkedMustBeUsed})
	}
}

// Build returns the accumulated model.
func (b *Builder) Build() *Model {
	return b.model
}
