package models

import "time"

// OverrideStatus mirrors the locally persisted override state of a
// requested course or of the student's max-credit override.
type OverrideStatus string

const (
	OverrideSaved     OverrideStatus = "SAVED"
	OverrideNeeded    OverrideStatus = "OVERRIDE_NEEDED"
	OverridePending   OverrideStatus = "OVERRIDE_PENDING"
	OverrideApproved  OverrideStatus = "OVERRIDE_APPROVED"
	OverrideRejected  OverrideStatus = "OVERRIDE_REJECTED"
	OverrideCancelled OverrideStatus = "OVERRIDE_CANCELLED"
	CreditLow         OverrideStatus = "CREDIT_LOW"
	CreditHigh        OverrideStatus = "CREDIT_HIGH"
	Enrolled          OverrideStatus = "ENROLLED"
)

// External request statuses as reported by the registration site.
const (
	ExternalStatusNew        = "newRequest"
	ExternalStatusDraft      = "draft"
	ExternalStatusMayEdit    = "mayEdit"
	ExternalStatusPending    = "pending"
	ExternalStatusInProgress = "inProgress"
	ExternalStatusApproved   = "approved"
	ExternalStatusDenied     = "denied"
	ExternalStatusCancelled  = "cancelled"
)

// StatusFromExternal maps an external request status onto the local
// override status. Anything unrecognized is treated as still pending.
func StatusFromExternal(external string) OverrideStatus {
	switch external {
	case ExternalStatusDenied:
		return OverrideRejected
	case ExternalStatusApproved:
		return OverrideApproved
	case ExternalStatusCancelled:
		return OverrideCancelled
	default:
		return OverridePending
	}
}

// Tracked reports whether the status refers to an override round-trip that
// the reconciliation engine should follow up on.
func (s OverrideStatus) Tracked() bool {
	switch s {
	case OverridePending, OverrideNeeded, OverrideApproved, OverrideRejected, OverrideCancelled:
		return true
	default:
		return false
	}
}

// Pending reports whether the override is still awaiting an external decision.
func (s OverrideStatus) Pending() bool {
	return s == OverridePending || s == OverrideNeeded
}

// RequestedCourse is one candidate course inside a course request.
type RequestedCourse struct {
	ID                 int64          `db:"id" json:"id"`
	StudentID          int64          `db:"student_id" json:"student_id"`
	CourseID           int64          `db:"course_id" json:"course_id"`
	CourseName         string         `db:"course_name" json:"course_name"`
	CreditMin          float64        `db:"credit_min" json:"credit_min"`
	HasCredit          bool           `db:"has_credit" json:"has_credit"`
	ReadOnly           bool           `db:"read_only" json:"read_only"`
	Priority           int            `db:"priority" json:"priority"`
	Alternative        bool           `db:"alternative" json:"alternative"`
	AltIndex           int            `db:"alt_index" json:"alt_index"`
	OverrideExternalID string         `db:"override_external_id" json:"override_external_id,omitempty"`
	OverrideStatus     OverrideStatus `db:"override_status" json:"override_status,omitempty"`
	OverrideNote       string         `db:"override_note" json:"override_note,omitempty"`
	OverrideTimestamp  *time.Time     `db:"override_timestamp" json:"override_timestamp,omitempty"`
}

// Credit returns the credit hours counted for this course.
func (r RequestedCourse) Credit() float64 {
	if !r.HasCredit {
		return 0
	}
	return r.CreditMin
}

// CourseRequestGroup is one priority line of the student's request form:
// a primary course followed by its alternates, or an alternative line.
type CourseRequestGroup struct {
	Priority    int
	Alternative bool
	Courses     []RequestedCourse
}

// Primary returns the first-choice course of the group, nil when empty.
func (g *CourseRequestGroup) Primary() *RequestedCourse {
	if g == nil || len(g.Courses) == 0 {
		return nil
	}
	return &g.Courses[0]
}
