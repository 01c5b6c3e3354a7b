package dto

// RequestLine is one priority line of the request form: a first-choice
// course followed by its alternates, identified by external course names
// ("SUBJ NBR").
type RequestLine struct {
	Courses     []string `json:"courses" validate:"required,min=1,dive,required"`
	Alternative bool     `json:"alternative"`
}

// ValidationRequest asks the bridge to validate a student's course requests
// against the registration site.
type ValidationRequest struct {
	StudentID int64         `json:"studentId" validate:"required"`
	Lines     []RequestLine `json:"lines" validate:"required,min=1,dive"`
}

// CourseMessage is one user-facing validation message tied to a course.
type CourseMessage struct {
	Course  string `json:"course,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
	Error   bool   `json:"error,omitempty"`
}

// Confirmation sources: local sectioning checks vs the registration site.
const (
	ConfirmationLocal  = "sectioning"
	ConfirmationBanner = "specreg"
)

// Confirmation is one dialog the caller must acknowledge before submitting.
type Confirmation struct {
	Source   string   `json:"source"`
	Title    string   `json:"title,omitempty"`
	Messages []string `json:"messages"`
}

// ValidationResponse reports the outcome of a validation pass.
type ValidationResponse struct {
	StudentID       int64           `json:"studentId"`
	OK              bool            `json:"ok"`
	Messages        []CourseMessage `json:"messages,omitempty"`
	Confirmations   []Confirmation  `json:"confirmations,omitempty"`
	RequestedCredit float64         `json:"requestedCredit"`
	MaxCredit       float64         `json:"maxCredit"`
	DashboardURL    string          `json:"dashboardUrl,omitempty"`
}

// SubmitResponse reports the outcome of an override submission.
type SubmitResponse struct {
	StudentID int64           `json:"studentId"`
	Submitted bool            `json:"submitted"`
	Requests  int             `json:"requests"`
	Messages  []CourseMessage `json:"messages,omitempty"`
}

// CheckResponse reports the current override statuses of a student.
type CheckResponse struct {
	StudentID     int64           `json:"studentId"`
	Messages      []CourseMessage `json:"messages,omitempty"`
	Confirmations []Confirmation  `json:"confirmations,omitempty"`
	DashboardURL  string          `json:"dashboardUrl,omitempty"`
}

// ReconcileResponse reports whether a single-student reconciliation changed
// persisted state.
type ReconcileResponse struct {
	StudentID int64 `json:"studentId"`
	Changed   bool  `json:"changed"`
}

// BatchReconcileRequest selects the students to reconcile. An empty list
// means every student with a pending override.
type BatchReconcileRequest struct {
	StudentIDs []int64 `json:"studentIds"`
}

// BatchReconcileResponse aggregates a batch sweep.
type BatchReconcileResponse struct {
	Changed  []int64 `json:"changed"`
	Examined int     `json:"examined"`
	Batches  int     `json:"batches"`
}

// EligibilityCheckResponse reports registration eligibility.
type EligibilityCheckResponse struct {
	StudentID int64  `json:"studentId"`
	Eligible  bool   `json:"eligible"`
	Message   string `json:"message,omitempty"`
}

// RevalidationResponse acknowledges an enqueued revalidation job.
type RevalidationResponse struct {
	StudentID int64  `json:"studentId"`
	JobID     string `json:"jobId"`
	Queued    bool   `json:"queued"`
}
