package models

import (
	"fmt"
	"time"
)

// Student carries the locally persisted registration state, including the
// mirror of the student's max-credit override at the registration site.
type Student struct {
	ID                 int64          `db:"id" json:"id"`
	ExternalID         string         `db:"external_id" json:"external_id"`
	FirstName          string         `db:"first_name" json:"first_name"`
	LastName           string         `db:"last_name" json:"last_name"`
	Email              string         `db:"email" json:"email"`
	TermID             int64          `db:"term_id" json:"term_id"`
	MaxCredit          float64        `db:"max_credit" json:"max_credit"`
	OverrideExternalID string         `db:"override_external_id" json:"override_external_id,omitempty"`
	OverrideMaxCredit  float64        `db:"override_max_credit" json:"override_max_credit,omitempty"`
	OverrideStatus     OverrideStatus `db:"override_status" json:"override_status,omitempty"`
	OverrideTimestamp  *time.Time     `db:"override_timestamp" json:"override_timestamp,omitempty"`
	EligibilityIssue   string         `db:"eligibility_issue" json:"eligibility_issue,omitempty"`
}

// BannerID zero-pads the external id to the nine-character Banner format.
func (s Student) BannerID() string {
	id := s.ExternalID
	for len(id) < 9 {
		id = "0" + id
	}
	return id
}

// EffectiveMaxCredit is the credit ceiling currently in force: the approved
// override when present, otherwise the student's own limit, otherwise def.
func (s Student) EffectiveMaxCredit(def float64) float64 {
	if s.OverrideStatus == OverrideApproved && s.OverrideMaxCredit > 0 {
		return s.OverrideMaxCredit
	}
	if s.MaxCredit > 0 {
		return s.MaxCredit
	}
	return def
}

// AcademicSession resolves the external term and campus strings for a term.
type AcademicSession struct {
	TermID       int64  `db:"term_id" json:"term_id"`
	Year         int    `db:"year" json:"year"`
	Term         string `db:"term" json:"term"`
	BannerTerm   string `db:"banner_term" json:"banner_term"`
	BannerCampus string `db:"banner_campus" json:"banner_campus"`
}

// Reference renders the session in log-friendly form.
func (a AcademicSession) Reference() string {
	return fmt.Sprintf("%s %d (%s/%s)", a.Term, a.Year, a.BannerTerm, a.BannerCampus)
}
