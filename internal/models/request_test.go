package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromExternal(t *testing.T) {
	assert.Equal(t, OverrideRejected, StatusFromExternal(ExternalStatusDenied))
	assert.Equal(t, OverrideApproved, StatusFromExternal(ExternalStatusApproved))
	assert.Equal(t, OverrideCancelled, StatusFromExternal(ExternalStatusCancelled))

	// Everything the site has not decided yet stays pending.
	for _, external := range []string{ExternalStatusNew, ExternalStatusDraft, ExternalStatusMayEdit,
		ExternalStatusPending, ExternalStatusInProgress, "somethingNew"} {
		assert.Equal(t, OverridePending, StatusFromExternal(external), external)
	}
}

func TestOverrideStatusTracked(t *testing.T) {
	tracked := []OverrideStatus{OverridePending, OverrideNeeded, OverrideApproved, OverrideRejected, OverrideCancelled}
	for _, s := range tracked {
		assert.True(t, s.Tracked(), string(s))
	}
	for _, s := range []OverrideStatus{OverrideSaved, CreditLow, CreditHigh, Enrolled, ""} {
		assert.False(t, s.Tracked(), string(s))
	}
}

func TestOverrideStatusPending(t *testing.T) {
	assert.True(t, OverridePending.Pending())
	assert.True(t, OverrideNeeded.Pending())
	assert.False(t, OverrideApproved.Pending())
	assert.False(t, OverrideRejected.Pending())
}

func TestRequestedCourseCredit(t *testing.T) {
	assert.Equal(t, 4.0, RequestedCourse{CreditMin: 4, HasCredit: true}.Credit())
	assert.Equal(t, 0.0, RequestedCourse{CreditMin: 4}.Credit())
}

func TestStudentBannerID(t *testing.T) {
	assert.Equal(t, "000012345", Student{ExternalID: "12345"}.BannerID())
	assert.Equal(t, "123456789", Student{ExternalID: "123456789"}.BannerID())
}

func TestStudentEffectiveMaxCredit(t *testing.T) {
	assert.Equal(t, 18.0, Student{}.EffectiveMaxCredit(18))
	assert.Equal(t, 15.0, Student{MaxCredit: 15}.EffectiveMaxCredit(18))
	assert.Equal(t, 21.0, Student{MaxCredit: 15, OverrideMaxCredit: 21, OverrideStatus: OverrideApproved}.EffectiveMaxCredit(18))

	// A pending override does not raise the ceiling.
	assert.Equal(t, 15.0, Student{MaxCredit: 15, OverrideMaxCredit: 21, OverrideStatus: OverridePending}.EffectiveMaxCredit(18))
}

func TestSectionCRN(t *testing.T) {
	assert.Equal(t, "10001", Section{Name: "10001-Lec1"}.CRN())
	assert.Equal(t, "10001", Section{Name: "10001"}.CRN())
}
