package dto

import "time"

// Wire types for the external special-registration site. Field names follow
// the site's JSON contract, not local conventions.

// Change operations understood by the registration site.
const (
	ChangeOperationAdd  = "ADD"
	ChangeOperationDrop = "DROP"
	ChangeOperationKeep = "KEEP"
)

// Problem codes with dedicated handling.
const (
	ProblemCodeHold      = "HOLD"
	ProblemCodeDuplicate = "DUPL"
	ProblemCodeMaxHours  = "MAXI"
	ProblemCodeClosed    = "CLOS"
	ProblemCodeTime      = "TIME"
)

// Locally generated message codes that never travel to the site.
const (
	MessageCodeCredit  = "CREDIT"
	MessageCodeNoAlt   = "NO_ALT"
	MessageCodeOverlap = "OVERLAP"
)

// ResponseStatusSuccess is the success marker used by every site endpoint.
const ResponseStatusSuccess = "success"

// ChangeError is a single restriction attached to a change.
type ChangeError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Change is one requested schedule mutation.
type Change struct {
	Subject   string        `json:"subject,omitempty"`
	CourseNbr string        `json:"courseNbr,omitempty"`
	CRN       string        `json:"crn,omitempty"`
	Operation string        `json:"operation,omitempty"`
	Errors    []ChangeError `json:"errors,omitempty"`
}

// RequestNote is a reviewer note on a pending request.
type RequestNote struct {
	DateCreated *time.Time `json:"dateCreated,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// SpecialRegistrationRequest is one override request tracked by the site.
type SpecialRegistrationRequest struct {
	RequestID   string        `json:"requestId,omitempty"`
	Status      string        `json:"status,omitempty"`
	Changes     []Change      `json:"changes,omitempty"`
	MaxCredit   *float64      `json:"maxCredit,omitempty"`
	DateCreated *time.Time    `json:"dateCreated,omitempty"`
	Notes       []RequestNote `json:"notes,omitempty"`
}

// StatusData is the payload of a per-student status check.
type StatusData struct {
	StudentID string                       `json:"studentId,omitempty"`
	MaxCredit *float64                     `json:"maxCredit,omitempty"`
	Requests  []SpecialRegistrationRequest `json:"requests,omitempty"`
	Overrides []string                     `json:"overrides,omitempty"`
}

// StatusResponse wraps a per-student status check.
type StatusResponse struct {
	Status  string     `json:"status,omitempty"`
	Message string     `json:"message,omitempty"`
	Data    StatusData `json:"data"`
}

// MultipleStatusResponse wraps a batched status check.
type MultipleStatusResponse struct {
	Status  string       `json:"status,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    []StatusData `json:"data,omitempty"`
}

// ScheduleLine lists the CRNs derived for one course.
type ScheduleLine struct {
	Subject   string   `json:"subject,omitempty"`
	CourseNbr string   `json:"courseNbr,omitempty"`
	CRNs      []string `json:"crns,omitempty"`
}

// ValidationCheckRequest asks the site to evaluate a derived schedule.
type ValidationCheckRequest struct {
	StudentID    string         `json:"studentId"`
	Term         string         `json:"term"`
	Campus       string         `json:"campus"`
	Mode         string         `json:"mode,omitempty"`
	IncludeReg   string         `json:"includeReg"`
	Schedule     []ScheduleLine `json:"schedule,omitempty"`
	Alternatives []ScheduleLine `json:"alternatives,omitempty"`
}

// Problem is a restriction reported for one CRN.
type Problem struct {
	CRN     string `json:"crn,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Restrictions groups the problems of one schedule list.
type Restrictions struct {
	Problems      []Problem `json:"problems,omitempty"`
	MaxHoursError string    `json:"maxHoursError,omitempty"`
}

// ValidationCheckResponse carries the site's restriction report.
type ValidationCheckResponse struct {
	Status                   string       `json:"status,omitempty"`
	Message                  string       `json:"message,omitempty"`
	ScheduleRestrictions     Restrictions `json:"scheduleRestrictions"`
	AlternativesRestrictions Restrictions `json:"alternativesRestrictions"`
}

// CourseCredit reports the credit hours of a requested course and its
// alternates, used by reviewers when deciding max-credit overrides.
type CourseCredit struct {
	Subject      string         `json:"subject,omitempty"`
	CourseNbr    string         `json:"courseNbr,omitempty"`
	Title        string         `json:"title,omitempty"`
	CreditHrs    *float64       `json:"creditHrs,omitempty"`
	Alternatives []CourseCredit `json:"alternatives,omitempty"`
}

// SubmitRegistrationRequest submits override requests to the site.
type SubmitRegistrationRequest struct {
	StudentID                string         `json:"studentId"`
	Term                     string         `json:"term"`
	Campus                   string         `json:"campus"`
	Mode                     string         `json:"mode,omitempty"`
	RequestorID              string         `json:"requestorId,omitempty"`
	RequestorRole            string         `json:"requestorRole,omitempty"`
	Changes                  []Change       `json:"changes,omitempty"`
	MaxCredit                *float64       `json:"maxCredit,omitempty"`
	CourseCreditHrs          []CourseCredit `json:"courseCreditHrs,omitempty"`
	AlternateCourseCreditHrs []CourseCredit `json:"alternateCourseCreditHrs,omitempty"`
}

// SubmitRegistrationResponse lists the requests created or updated by a
// submission.
type SubmitRegistrationResponse struct {
	Status  string                       `json:"status,omitempty"`
	Message string                       `json:"message,omitempty"`
	Data    []SpecialRegistrationRequest `json:"data,omitempty"`
}

// EligibilityProblem is one reason a student cannot register.
type EligibilityProblem struct {
	Message string `json:"message,omitempty"`
}

// EligibilityData is the payload of an eligibility check.
type EligibilityData struct {
	Eligible            *bool                `json:"eligible,omitempty"`
	EligibilityProblems []EligibilityProblem `json:"eligibilityProblems,omitempty"`
}

// EligibilityResponse wraps an eligibility check.
type EligibilityResponse struct {
	Status  string          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    EligibilityData `json:"data"`
}
