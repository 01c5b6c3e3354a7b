package sectioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

func singleSectionValue(course models.Course, id int64, days uint8, start, length int) *Value {
	return &Value{
		Course:   course,
		ConfigID: id,
		Sections: []models.Section{
			{ID: id, Name: "1000" + course.Number + "-Sec", Limit: 10, Placement: placement(days, start, length)},
		},
	}
}

func twoCourseModel() *Model {
	math := models.Course{ID: 1, Subject: "MA", Number: "16100"}
	phys := models.Course{ID: 2, Subject: "PHYS", Number: "17200"}

	v1 := &Variable{Priority: 0, Courses: []models.Course{math}, Preferred: map[int64]bool{}}
	v1.Values = []*Value{
		singleSectionValue(math, 11, 0b0101010, 90, 12),
	}

	v2 := &Variable{Priority: 1, Courses: []models.Course{phys}, Preferred: map[int64]bool{}}
	v2.Values = []*Value{
		// First candidate collides with the math section.
		singleSectionValue(phys, 21, 0b0101010, 90, 12),
		singleSectionValue(phys, 22, 0b0101010, 110, 12),
	}

	return &Model{Variables: []*Variable{v1, v2}}
}

func TestSuggestionSelectionSkipsConflicts(t *testing.T) {
	m := twoCourseModel()
	assigned := SuggestionSelection{}.Select(m)
	require.Len(t, assigned, 2)
	require.NotNil(t, assigned[0])
	require.NotNil(t, assigned[1])
	assert.Equal(t, int64(11), assigned[0].Sections[0].ID)
	assert.Equal(t, int64(22), assigned[1].Sections[0].ID)
	assert.False(t, assigned[0].Overlaps(assigned[1]))
}

func TestMultiCriteriaAssignsEverythingWhenPossible(t *testing.T) {
	m := twoCourseModel()
	assigned := NewMultiCriteriaSelection().Select(m)
	require.Len(t, assigned, 2)
	require.NotNil(t, assigned[0])
	require.NotNil(t, assigned[1])
	assert.False(t, assigned[0].Overlaps(assigned[1]))
}

func TestMultiCriteriaDeterministic(t *testing.T) {
	m := twoCourseModel()
	first := NewMultiCriteriaSelection().Select(m)
	for i := 0; i < 5; i++ {
		again := NewMultiCriteriaSelection().Select(m)
		assert.Equal(t, first, again)
	}
}

func TestMultiCriteriaPrefersEnrolledSections(t *testing.T) {
	math := models.Course{ID: 1, Subject: "MA", Number: "16100"}
	v := &Variable{Priority: 0, Courses: []models.Course{math}, MustUse: true}
	a := singleSectionValue(math, 11, 0b0101010, 90, 12)
	b := singleSectionValue(math, 12, 0b0101010, 110, 12)
	v.Values = []*Value{a, b}
	v.Preferred = map[int64]bool{12: true}
	v.Enrolled = b

	assigned := NewMultiCriteriaSelection().Select(&Model{Variables: []*Variable{v}})
	require.Len(t, assigned, 1)
	require.NotNil(t, assigned[0])
	assert.Equal(t, int64(12), assigned[0].Sections[0].ID)
}

func TestMultiCriteriaLeavesInfeasibleUnassigned(t *testing.T) {
	math := models.Course{ID: 1, Subject: "MA", Number: "16100"}
	full := singleSectionValue(math, 11, 0b0101010, 90, 12)
	full.Sections[0].Limit = 5
	full.Sections[0].Enrollment = 5

	v := &Variable{Priority: 0, Courses: []models.Course{math}, Preferred: map[int64]bool{}}
	v.Values = []*Value{full}

	assigned := NewMultiCriteriaSelection().Select(&Model{Variables: []*Variable{v}})
	require.Len(t, assigned, 1)
	assert.Nil(t, assigned[0])
}

func TestFeasibleAllowsOwnSeatInFullSection(t *testing.T) {
	math := models.Course{ID: 1, Subject: "MA", Number: "16100"}
	full := singleSectionValue(math, 11, 0b0101010, 90, 12)
	full.Sections[0].Limit = 5
	full.Sections[0].Enrollment = 5

	v := &Variable{Priority: 0, Courses: []models.Course{math}, MustUse: true}
	v.Values = []*Value{full}
	v.Preferred = map[int64]bool{11: true}
	v.Enrolled = full

	assigned := NewMultiCriteriaSelection().Select(&Model{Variables: []*Variable{v}})
	require.Len(t, assigned, 1)
	require.NotNil(t, assigned[0])
	assert.Equal(t, int64(11), assigned[0].Sections[0].ID)
}

func TestRequiredLinkedConstraintBlocksMixedAssignments(t *testing.T) {
	math := models.Course{ID: 1, Subject: "MA", Number: "16100"}
	v := &Variable{Priority: 0, Courses: []models.Course{math}, Preferred: map[int64]bool{}}
	mixed := &Value{
		Course:   math,
		ConfigID: 1,
		Sections: []models.Section{
			{ID: 11, Name: "10001-Lec", Limit: 10, Placement: placement(0b0101010, 90, 12)},
			{ID: 12, Name: "10002-Lab", Limit: 10, Placement: placement(0b0010000, 120, 12)},
		},
	}
	pure := &Value{
		Course:   math,
		ConfigID: 1,
		Sections: []models.Section{
			{ID: 21, Name: "10003-Lec", Limit: 10, Placement: placement(0b0101010, 110, 12)},
			{ID: 22, Name: "10004-Lab", Limit: 10, Placement: placement(0b0010000, 150, 12)},
		},
	}
	v.Values = []*Value{mixed, pure}

	m := &Model{
		Variables: []*Variable{v},
		// Section 11 is linked with an out-of-value partner, so the mixed
		// combination uses the set only partially.
		Linked: []LinkedConstraint{{SectionIDs: map[int64]bool{11: true, 99: true}, Required: true}},
	}

	assigned := NewMultiCriteriaSelection().Select(m)
	require.Len(t, assigned, 1)
	require.NotNil(t, assigned[0])
	assert.Equal(t, int64(21), assigned[0].Sections[0].ID)
}

func TestBuilderEnumeratesValuesAndMatchesEnrollment(t *testing.T) {
	course := models.Course{ID: 1, OfferingID: 7, Subject: "MA", Number: "16100"}
	offering := &models.Offering{ID: 7, CourseID: 1, Configs: []models.Config{lectureLabConfig()}}
	group := models.CourseRequestGroup{Priority: 0}

	enrolled := []models.Section{
		offering.Configs[0].Subparts[0].Sections[1],
		offering.Configs[0].Subparts[1].Sections[1],
	}

	b := NewBuilder(false)
	b.AddRequest(group, []models.Course{course}, map[int64]*models.Offering{7: offering}, enrolled)
	m := b.Build()

	require.Len(t, m.Variables, 1)
	v := m.Variables[0]
	assert.Len(t, v.Values, 2)
	assert.True(t, v.MustUse)
	require.NotNil(t, v.Enrolled)
	assert.Equal(t, int64(102), v.Enrolled.Sections[0].ID)
}

func TestBuilderSkipsUnresolvableOfferings(t *testing.T) {
	course := models.Course{ID: 1, OfferingID: 7, Subject: "MA", Number: "16100"}
	b := NewBuilder(false)
	b.AddRequest(models.CourseRequestGroup{}, []models.Course{course}, map[int64]*models.Offering{}, nil)
	assert.Empty(t, b.Build().Variables)
}
