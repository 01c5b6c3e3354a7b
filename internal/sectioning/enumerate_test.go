package sectioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

func placement(days uint8, start, length int) *models.TimePlacement {
	return &models.TimePlacement{Days: days, StartSlot: start, Length: length}
}

// lectureLabConfig builds a lecture+lab config where lab sections are
// parented under their lecture.
func lectureLabConfig() models.Config {
	return models.Config{
		ID: 1,
		Subparts: []models.Subpart{
			{
				ID:   10,
				Name: "Lec",
				Sections: []models.Section{
					{ID: 101, SubpartID: 10, Name: "10001-Lec1", Limit: 30, Placement: placement(0b0101010, 90, 12)},
					{ID: 102, SubpartID: 10, Name: "10002-Lec2", Limit: 30, Placement: placement(0b0101010, 102, 12)},
				},
			},
			{
				ID:       20,
				ParentID: 10,
				Name:     "Lab",
				Sections: []models.Section{
					{ID: 201, SubpartID: 20, ParentID: 101, Name: "10003-Lab1", Limit: 15, Placement: placement(0b0010000, 120, 24)},
					{ID: 202, SubpartID: 20, ParentID: 102, Name: "10004-Lab2", Limit: 15, Placement: placement(0b0010000, 150, 24)},
				},
			},
		},
	}
}

func TestFirstEnrollmentCompleteCombination(t *testing.T) {
	combo := FirstEnrollment(lectureLabConfig(), nil, 0)
	require.Len(t, combo, 2)
	assert.Equal(t, int64(101), combo[0].ID)
	assert.Equal(t, int64(201), combo[1].ID)
}

func TestFirstEnrollmentSkipsCancelledSections(t *testing.T) {
	cfg := lectureLabConfig()
	cfg.Subparts[0].Sections[0].Cancelled = true

	combo := FirstEnrollment(cfg, nil, 0)
	require.Len(t, combo, 2)
	assert.Equal(t, int64(102), combo[0].ID)
	assert.Equal(t, int64(202), combo[1].ID)
}

func TestFirstEnrollmentBacktracksOnOverlap(t *testing.T) {
	cfg := lectureLabConfig()
	// Lab1 collides with Lec1, forcing the walk onto the Lec2/Lab2 branch.
	cfg.Subparts[1].Sections[0].Placement = placement(0b0101010, 90, 12)
	cfg.Subparts[1].Sections[0].ParentID = 0
	cfg.Subparts[1].Sections[1].ParentID = 0

	combo := FirstEnrollment(cfg, nil, 0)
	require.Len(t, combo, 2)
	assert.Equal(t, int64(101), combo[0].ID)
	assert.Equal(t, int64(202), combo[1].ID)
}

func TestFirstEnrollmentReturnsNilNotPartial(t *testing.T) {
	cfg := lectureLabConfig()
	cfg.Subparts[1].Sections[0].Cancelled = true
	cfg.Subparts[1].Sections[1].Cancelled = true

	assert.Nil(t, FirstEnrollment(cfg, nil, 0))
}

func TestFirstEnrollmentHonorsParentLinkage(t *testing.T) {
	cfg := lectureLabConfig()
	// Only Lab2 survives, which belongs under Lec2.
	cfg.Subparts[1].Sections[0].Cancelled = true

	combo := FirstEnrollment(cfg, nil, 0)
	require.Len(t, combo, 2)
	assert.Equal(t, int64(102), combo[0].ID)
	assert.Equal(t, int64(202), combo[1].ID)
}

func TestEnumerateConfigVisitOrder(t *testing.T) {
	combos := EnumerateConfig(lectureLabConfig(), 1000)
	require.Len(t, combos, 2)
	assert.Equal(t, int64(101), combos[0][0].ID)
	assert.Equal(t, int64(201), combos[0][1].ID)
	assert.Equal(t, int64(102), combos[1][0].ID)
	assert.Equal(t, int64(202), combos[1][1].ID)

	// The first enumerated combination equals the first-enrollment walk.
	first := FirstEnrollment(lectureLabConfig(), nil, 0)
	assert.Equal(t, combos[0], first)
}

func TestEnumerateConfigRespectsLimit(t *testing.T) {
	combos := EnumerateConfig(lectureLabConfig(), 1)
	require.Len(t, combos, 1)
	assert.Equal(t, int64(101), combos[0][0].ID)
}
