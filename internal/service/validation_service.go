package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/internal/models"
	"github.com/noah-isme/specreg-bridge/internal/sectioning"
	"github.com/noah-isme/specreg-bridge/pkg/config"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
)

type specRegClient interface {
	CheckStatus(ctx context.Context, term, campus, studentID string) (*dto.StatusResponse, error)
	CheckRestrictions(ctx context.Context, req dto.ValidationCheckRequest) (*dto.ValidationCheckResponse, error)
	SubmitRegistration(ctx context.Context, req dto.SubmitRegistrationRequest) (*dto.SubmitRegistrationResponse, error)
}

type catalogRepository interface {
	FindCourseByID(ctx context.Context, id int64) (*models.Course, error)
	FindCourseByName(ctx context.Context, termID int64, name string) (*models.Course, error)
	LoadOffering(ctx context.Context, offeringID int64) (*models.Offering, error)
	EnrolledSections(ctx context.Context, studentID int64) (map[int64][]models.Section, error)
	FindSession(ctx context.Context, termID int64) (*models.AcademicSession, error)
}

type studentStore interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	UpdateOverride(ctx context.Context, studentID int64, externalID string, maxCredit float64, status models.OverrideStatus, timestamp *time.Time) error
	ClearOverride(ctx context.Context, studentID int64) error
}

type requestStore interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.CourseRequestGroup, error)
	ReplaceForStudent(ctx context.Context, studentID int64, groups []models.CourseRequestGroup) error
	UpdateOverride(ctx context.Context, id int64, externalID string, status models.OverrideStatus, note string, timestamp *time.Time) error
	UpdateStatus(ctx context.Context, id int64, status models.OverrideStatus) error
	ClearOverride(ctx context.Context, id int64) error
}

// User-facing message templates.
const (
	msgHold          = "Registration is not allowed: there is a hold on the student record."
	msgDeniedCourses = "One or more courses require overrides that were denied. Remove or replace %s to be able to submit the requests."
	msgMaxDenied     = "Request of %.1f credit hours exceeds the denied maximum of %.1f."
	msgMaxCheck      = "Request of %.1f credit hours is over the maximum of %.1f that can be requested."
	msgOverCredit    = "Request of %.1f credit hours is over the current limit of %.1f and needs a max-credit override."
	msgMinCredit     = "Request of %.1f credit hours is below the minimum of %.1f."
	msgNoAlt         = "No alternative course provided for %s."
	msgCourseOverlap = "The only sections of %s and %s overlap in time."
	msgWaiting       = "Waiting for approval."
)

var crnPattern = regexp.MustCompile(`\s*\(CRN \d+\)\s*`)

// ValidationService drives the validate / submit / check / revalidate flows
// against the external registration site.
type ValidationService struct {
	client    specRegClient
	catalog   catalogRepository
	students  studentStore
	requests  requestStore
	credit    *CreditLimitEvaluator
	metrics   *MetricsService
	sections  config.SectioningConfig
	site      config.SpecRegConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewValidationService constructs a ValidationService.
func NewValidationService(client specRegClient, catalog catalogRepository, students studentStore, requests requestStore, metrics *MetricsService, sections config.SectioningConfig, site config.SpecRegConfig, validate *validator.Validate, logger *zap.Logger) *ValidationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValidationService{
		client:    client,
		catalog:   catalog,
		students:  students,
		requests:  requests,
		credit:    NewCreditLimitEvaluator(),
		metrics:   metrics,
		sections:  sections,
		site:      site,
		validator: validate,
		logger:    logger,
	}
}

// requestLine pairs one resolved request line with its candidate courses.
type requestLine struct {
	group   models.CourseRequestGroup
	courses []models.Course
}

// validationPass is the request-scoped state of one validation run.
type validationPass struct {
	student      *models.Student
	session      *models.AcademicSession
	lines        []requestLine
	groups       []models.CourseRequestGroup
	offerings    map[int64]*models.Offering
	model        *sectioning.Model
	assigned     []*sectioning.Value
	schedule     []dto.ScheduleLine
	alternatives []dto.ScheduleLine
	crnCourse    map[string]string
	status       *dto.StatusResponse
	index        overrideIndex
	total        float64
	max          float64

	messages      []dto.CourseMessage
	localConfirm  []string
	bannerConfirm []string
}

func (p *validationPass) addMessage(m dto.CourseMessage) {
	p.messages = append(p.messages, m)
}

func (p *validationPass) hasError() bool {
	for _, m := range p.messages {
		if m.Error {
			return true
		}
	}
	return false
}

// overrideIndex summarizes the student's current external override requests.
type overrideIndex struct {
	// denied lists denied error codes per course key.
	denied map[string]map[string]bool
	// byCourse lists known requests touching a course key.
	byCourse map[string][]dto.SpecialRegistrationRequest
	// maxCredit is the latest max-credit override request, nil when none.
	maxCredit *dto.SpecialRegistrationRequest
	// maxCreditDenied is the lowest denied max-credit value, 0 when none.
	maxCreditDenied float64
}

func buildOverrideIndex(status *dto.StatusResponse) overrideIndex {
	idx := overrideIndex{
		denied:   make(map[string]map[string]bool),
		byCourse: make(map[string][]dto.SpecialRegistrationRequest),
	}
	if status == nil {
		return idx
	}
	for _, req := range status.Data.Requests {
		if req.MaxCredit != nil {
			if req.Status == models.ExternalStatusDenied {
				if idx.maxCreditDenied == 0 || *req.MaxCredit < idx.maxCreditDenied {
					idx.maxCreditDenied = *req.MaxCredit
				}
			}
			if idx.maxCredit == nil || laterRequest(req, *idx.maxCredit) {
				r := req
				idx.maxCredit = &r
			}
		}
		for _, change := range req.Changes {
			course := strings.TrimSpace(change.Subject + " " + change.CourseNbr)
			if course == "" {
				continue
			}
			idx.byCourse[course] = append(idx.byCourse[course], req)
			if req.Status != models.ExternalStatusDenied {
				continue
			}
			if idx.denied[course] == nil {
				idx.denied[course] = make(map[string]bool)
			}
			for _, e := range change.Errors {
				idx.denied[course][e.Code] = true
			}
		}
	}
	return idx
}

func laterRequest(a, b dto.SpecialRegistrationRequest) bool {
	if a.DateCreated == nil {
		return false
	}
	if b.DateCreated == nil {
		return true
	}
	return a.DateCreated.After(*b.DateCreated)
}

// findRequest locates an external request carrying the given code for the
// course, preferring the most recent one.
func (idx overrideIndex) findRequest(course, code string) *dto.SpecialRegistrationRequest {
	var found *dto.SpecialRegistrationRequest
	for i := range idx.byCourse[course] {
		req := idx.byCourse[course][i]
		for _, change := range req.Changes {
			key := strings.TrimSpace(change.Subject + " " + change.CourseNbr)
			if key != course {
				continue
			}
			for _, e := range change.Errors {
				if e.Code == code {
					if found == nil || laterRequest(req, *found) {
						r := req
						found = &r
					}
				}
			}
		}
	}
	return found
}

// cleanMessage rewrites site messages for the request form context.
func cleanMessage(message, course string) string {
	message = strings.ReplaceAll(message, "this section", course)
	return strings.TrimSpace(crnPattern.ReplaceAllString(message, " "))
}

// Validate checks the student's proposed course requests against the site
// without submitting anything.
func (s *ValidationService) Validate(ctx context.Context, req dto.ValidationRequest) (*dto.ValidationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid validation request")
	}
	pass, err := s.runPass(ctx, req.StudentID, req.Lines, nil)
	if err != nil {
		return nil, err
	}
	return s.validationResponse(pass), nil
}

func (s *ValidationService) validationResponse(pass *validationPass) *dto.ValidationResponse {
	return &dto.ValidationResponse{
		StudentID:       pass.student.ID,
		OK:              !pass.hasError(),
		Messages:        pass.messages,
		Confirmations:   pass.confirmations(),
		RequestedCredit: pass.total,
		MaxCredit:       pass.max,
		DashboardURL:    s.dashboardURL(pass.student, pass.session),
	}
}

func (p *validationPass) confirmations() []dto.Confirmation {
	var out []dto.Confirmation
	if len(p.localConfirm) > 0 {
		out = append(out, dto.Confirmation{
			Source:   dto.ConfirmationLocal,
			Title:    "Warnings found in the requested schedule",
			Messages: p.localConfirm,
		})
	}
	if len(p.bannerConfirm) > 0 {
		out = append(out, dto.Confirmation{
			Source:   dto.ConfirmationBanner,
			Title:    "The following registration overrides will be requested",
			Messages: p.bannerConfirm,
		})
	}
	return out
}

func (s *ValidationService) dashboardURL(student *models.Student, session *models.AcademicSession) string {
	if s.site.DashboardURL == "" || session == nil {
		return ""
	}
	url := s.site.DashboardURL
	url = strings.ReplaceAll(url, "{term}", session.BannerTerm)
	url = strings.ReplaceAll(url, "{campus}", session.BannerCampus)
	url = strings.ReplaceAll(url, "{studentId}", student.BannerID())
	return url
}

// runPass executes the shared validation pipeline. When lines is nil the
// persisted request form is used instead (check / revalidate flows).
func (s *ValidationService) runPass(ctx context.Context, studentID int64, lines []dto.RequestLine, persisted []models.CourseRequestGroup) (*validationPass, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	session, err := s.catalog.FindSession(ctx, student.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic session")
	}

	pass := &validationPass{student: student, session: session, crnCourse: make(map[string]string)}

	if lines != nil {
		pass.lines, err = s.resolveLines(ctx, student.TermID, lines)
	} else {
		pass.lines, err = s.resolvePersisted(ctx, persisted)
	}
	if err != nil {
		return nil, err
	}
	for _, line := range pass.lines {
		pass.groups = append(pass.groups, line.group)
	}

	if err := s.loadOfferings(ctx, pass); err != nil {
		return nil, err
	}
	if err := s.buildModel(ctx, pass); err != nil {
		return nil, err
	}
	pass.assigned = s.selection().Select(pass.model)
	s.deriveSchedule(pass)

	start := time.Now()
	pass.status, err = s.client.CheckStatus(ctx, session.BannerTerm, session.BannerCampus, student.BannerID())
	s.observeExternal(start)
	if err != nil {
		return nil, err
	}
	pass.index = buildOverrideIndex(pass.status)

	s.checkCredit(pass)
	s.checkLocal(pass)

	check := dto.ValidationCheckRequest{
		StudentID:    student.BannerID(),
		Term:         session.BannerTerm,
		Campus:       session.BannerCampus,
		Mode:         s.site.Mode,
		IncludeReg:   "N",
		Schedule:     pass.schedule,
		Alternatives: pass.alternatives,
	}
	start = time.Now()
	result, err := s.client.CheckRestrictions(ctx, check)
	s.observeExternal(start)
	if err != nil {
		return nil, err
	}
	s.applyProblems(pass, result)

	return pass, nil
}

func (s *ValidationService) observeExternal(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveExternalCall(time.Since(start))
	}
}

func (s *ValidationService) selection() sectioning.Selection {
	if s.sections.MultiCriteria {
		return sectioning.NewMultiCriteriaSelection()
	}
	return sectioning.SuggestionSelection{}
}

// resolveLines turns submitted course names into request groups. Unknown
// courses are skipped silently; a line with no resolvable course is dropped.
func (s *ValidationService) resolveLines(ctx context.Context, termID int64, lines []dto.RequestLine) ([]requestLine, error) {
	var out []requestLine
	priority := 0
	for _, line := range lines {
		resolved := requestLine{group: models.CourseRequestGroup{Priority: priority, Alternative: line.Alternative}}
		for idx, name := range line.Courses {
			course, err := s.catalog.FindCourseByName(ctx, termID, name)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
			}
			resolved.courses = append(resolved.courses, *course)
			resolved.group.Courses = append(resolved.group.Courses, models.RequestedCourse{
				CourseID:    course.ID,
				CourseName:  course.Name(),
				CreditMin:   course.CreditMin,
				HasCredit:   course.HasCredit,
				Priority:    priority,
				Alternative: line.Alternative,
				AltIndex:    idx,
			})
		}
		if len(resolved.courses) == 0 {
			continue
		}
		out = append(out, resolved)
		priority++
	}
	return out, nil
}

// resolvePersisted rebuilds request lines from the stored request form.
func (s *ValidationService) resolvePersisted(ctx context.Context, groups []models.CourseRequestGroup) ([]requestLine, error) {
	var out []requestLine
	for _, group := range groups {
		resolved := requestLine{group: group}
		for _, rc := range group.Courses {
			course, err := s.catalog.FindCourseByID(ctx, rc.CourseID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
			}
			resolved.courses = append(resolved.courses, *course)
		}
		if len(resolved.courses) == 0 {
			continue
		}
		out = append(out, resolved)
	}
	return out, nil
}

func (s *ValidationService) loadOfferings(ctx context.Context, pass *validationPass) error {
	pass.offerings = make(map[int64]*models.Offering)
	for _, line := range pass.lines {
		for _, course := range line.courses {
			if _, ok := pass.offerings[course.OfferingID]; ok {
				continue
			}
			offering, err := s.catalog.LoadOffering(ctx, course.OfferingID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
			}
			pass.offerings[course.OfferingID] = offering
		}
	}
	return nil
}

func (s *ValidationService) buildModel(ctx context.Context, pass *validationPass) error {
	enrolled, err := s.catalog.EnrolledSections(ctx, pass.student.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	builder := sectioning.NewBuilder(s.sections.LinkedMustBeUsed)
	for _, line := range pass.lines {
		var sections []models.Section
		for _, course := range line.courses {
			if held, ok := enrolled[course.ID]; ok {
				sections = held
				break
			}
		}
		builder.AddRequest(line.group, line.courses, pass.offerings, sections)
	}
	pass.model = builder.Build()
	return nil
}

// deriveSchedule produces the CRN lists sent to the site: enrolled courses
// go to the schedule list, everything else to alternatives, with a fallback
// combination manufactured when the search produced nothing.
func (s *ValidationService) deriveSchedule(pass *validationPass) {
	for i, variable := range pass.model.Variables {
		if len(variable.Courses) == 0 {
			continue
		}
		course := variable.Courses[0]
		var value *sectioning.Value
		enrolled := false
		switch {
		case variable.Enrolled != nil:
			value = variable.Enrolled
			course = variable.Enrolled.Course
			enrolled = true
		case i < len(pass.assigned) && pass.assigned[i] != nil:
			value = pass.assigned[i]
			course = pass.assigned[i].Course
		default:
			value = s.makeupValue(pass, variable)
			if value != nil {
				course = value.Course
			}
		}
		if value == nil {
			continue
		}
		line := dto.ScheduleLine{Subject: course.Subject, CourseNbr: course.Number}
		for _, section := range value.Sections {
			crn := section.CRN()
			line.CRNs = append(line.CRNs, crn)
			pass.crnCourse[crn] = course.Name()
		}
		if enrolled {
			pass.schedule = append(pass.schedule, line)
		} else {
			pass.alternatives = append(pass.alternatives, line)
		}
	}
}

// makeupValue manufactures some structurally valid combination for an
// unassigned variable so the site always receives CRNs to validate.
func (s *ValidationService) makeupValue(pass *validationPass, variable *sectioning.Variable) *sectioning.Value {
	for _, course := range variable.Courses {
		offering := pass.offerings[course.OfferingID]
		if offering == nil {
			continue
		}
		for _, cfg := range offering.Configs {
			if combo := sectioning.FirstEnrollment(cfg, nil, 0); combo != nil {
				return &sectioning.Value{Course: course, ConfigID: cfg.ID, Sections: combo}
			}
		}
	}
	return nil
}

// checkCredit adds the staged credit-limit messages.
func (s *ValidationService) checkCredit(pass *validationPass) {
	pass.total = s.credit.RequestedCredit(pass.groups)
	pass.max = pass.student.EffectiveMaxCredit(s.sections.MaxCreditDefault)

	if s.sections.MinCreditCheck > 0 && pass.total > 0 && pass.total < s.sections.MinCreditCheck {
		message := fmt.Sprintf(msgMinCredit, pass.total, s.sections.MinCreditCheck)
		pass.addMessage(dto.CourseMessage{Code: dto.MessageCodeCredit, Message: message, Status: string(models.CreditLow)})
		pass.localConfirm = append(pass.localConfirm, message)
	}

	switch {
	case pass.index.maxCreditDenied > 0 && pass.total > pass.index.maxCreditDenied:
		message := fmt.Sprintf(msgMaxDenied, pass.total, pass.index.maxCreditDenied)
		for _, course := range s.credit.OverCreditRequests(pass.groups, pass.index.maxCreditDenied) {
			pass.addMessage(dto.CourseMessage{
				Course:  course.CourseName,
				Code:    dto.MessageCodeCredit,
				Message: message,
				Status:  string(models.OverrideRejected),
				Error:   true,
			})
		}
	case s.sections.MaxCreditCheck > 0 && pass.total > s.sections.MaxCreditCheck:
		message := fmt.Sprintf(msgMaxCheck, pass.total, s.sections.MaxCreditCheck)
		for _, course := range s.credit.OverCreditRequests(pass.groups, s.sections.MaxCreditCheck) {
			pass.addMessage(dto.CourseMessage{
				Course:  course.CourseName,
				Code:    dto.MessageCodeCredit,
				Message: message,
				Status:  string(models.CreditHigh),
				Error:   true,
			})
		}
	case pass.total > pass.max:
		message := fmt.Sprintf(msgOverCredit, pass.total, pass.max)
		for _, course := range s.credit.OverCreditRequests(pass.groups, pass.max) {
			pass.addMessage(dto.CourseMessage{
				Course:  course.CourseName,
				Code:    dto.MessageCodeCredit,
				Message: message,
				Status:  string(models.OverrideNeeded),
			})
		}
		pass.bannerConfirm = append(pass.bannerConfirm, message)
	}
}

// checkLocal adds the sectioning-side warnings: primary lines carrying no
// alternate course, and unavoidable time conflicts between courses that have
// a single possible combination.
func (s *ValidationService) checkLocal(pass *validationPass) {
	for _, variable := range pass.model.Variables {
		if variable.Alternative || len(variable.Courses) != 1 {
			continue
		}
		message := fmt.Sprintf(msgNoAlt, variable.Courses[0].Name())
		pass.addMessage(dto.CourseMessage{
			Course:  variable.Courses[0].Name(),
			Code:    dto.MessageCodeNoAlt,
			Message: message,
		})
		pass.localConfirm = append(pass.localConfirm, message)
	}
	single := make(map[int]*sectioning.Value)
	for i, variable := range pass.model.Variables {
		if len(variable.Values) == 1 {
			single[i] = variable.Values[0]
		}
	}
	for i, a := range single {
		for j, b := range single {
			if i >= j {
				continue
			}
			if a.Overlaps(b) {
				message := fmt.Sprintf(msgCourseOverlap, a.Course.Name(), b.Course.Name())
				pass.addMessage(dto.CourseMessage{
					Course:  a.Course.Name(),
					Code:    dto.MessageCodeOverlap,
					Message: message,
				})
				pass.localConfirm = append(pass.localConfirm, message)
			}
		}
	}
}

// applyProblems folds the site's restriction report into messages and
// pending confirmations.
func (s *ValidationService) applyProblems(pass *validationPass, result *dto.ValidationCheckResponse) {
	problems := append([]dto.Problem{}, result.ScheduleRestrictions.Problems...)
	problems = append(problems, result.AlternativesRestrictions.Problems...)

	deniedCourses := make(map[string]bool)
	seen := make(map[string]bool)
	for _, problem := range problems {
		course, ok := pass.crnCourse[problem.CRN]
		if !ok && problem.Code != dto.ProblemCodeHold {
			continue
		}
		switch problem.Code {
		case dto.ProblemCodeHold:
			pass.addMessage(dto.CourseMessage{Code: problem.Code, Message: msgHold, Error: true})
			continue
		case dto.ProblemCodeDuplicate, dto.ProblemCodeMaxHours, dto.ProblemCodeClosed, dto.ProblemCodeTime:
			continue
		}
		key := course + "|" + problem.Code
		if seen[key] {
			continue
		}
		seen[key] = true
		message := cleanMessage(problem.Message, course)

		if pass.index.denied[course][problem.Code] {
			deniedCourses[course] = true
			pass.addMessage(dto.CourseMessage{
				Course:  course,
				Code:    problem.Code,
				Message: message,
				Status:  string(models.OverrideRejected),
				Error:   true,
			})
			continue
		}
		if req := pass.index.findRequest(course, problem.Code); req != nil {
			pass.addMessage(dto.CourseMessage{
				Course:  course,
				Code:    problem.Code,
				Message: message,
				Status:  string(models.StatusFromExternal(req.Status)),
			})
			continue
		}
		pass.addMessage(dto.CourseMessage{
			Course:  course,
			Code:    problem.Code,
			Message: message,
			Status:  string(models.OverrideNeeded),
		})
		pass.bannerConfirm = append(pass.bannerConfirm, message)
	}

	if len(deniedCourses) > 0 {
		names := make([]string, 0, len(deniedCourses))
		for name := range deniedCourses {
			names = append(names, name)
		}
		sort.Strings(names)
		pass.addMessage(dto.CourseMessage{
			Code:    "DENIED",
			Message: fmt.Sprintf(msgDeniedCourses, strings.Join(names, ", ")),
			Error:   true,
		})
	}
}

// Check reports the current override statuses of the student's persisted
// request form, reconciling against the site when anything is tracked.
func (s *ValidationService) Check(ctx context.Context, studentID int64) (*dto.CheckResponse, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	session, err := s.catalog.FindSession(ctx, student.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic session")
	}
	groups, err := s.requests.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course requests")
	}

	tracked := false
	for _, group := range groups {
		for _, rc := range group.Courses {
			if rc.OverrideExternalID != "" {
				tracked = true
			}
		}
	}
	if student.OverrideExternalID != "" {
		tracked = true
	}

	var status *dto.StatusResponse
	if tracked {
		start := time.Now()
		status, err = s.client.CheckStatus(ctx, session.BannerTerm, session.BannerCampus, student.BannerID())
		s.observeExternal(start)
		if err != nil {
			return nil, err
		}
		if _, err := applyStatuses(ctx, s.students, s.requests, student, groups, statusData(status)); err != nil {
			return nil, err
		}
		groups, err = s.requests.ListByStudent(ctx, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload course requests")
		}
	}

	out := &dto.CheckResponse{StudentID: studentID, DashboardURL: s.dashboardURL(student, session)}
	for _, group := range groups {
		for _, rc := range group.Courses {
			if rc.OverrideStatus == "" || rc.OverrideStatus == models.OverrideSaved {
				continue
			}
			message := rc.OverrideNote
			if message == "" && rc.OverrideStatus.Pending() {
				message = msgWaiting
			}
			out.Messages = append(out.Messages, dto.CourseMessage{
				Course:  rc.CourseName,
				Message: message,
				Status:  string(rc.OverrideStatus),
				Error:   rc.OverrideStatus == models.OverrideRejected,
			})
		}
	}

	// Re-derive the catalog-side warnings so the caller sees credit and
	// scheduling problems with the stored form, not just override statuses.
	pass := &validationPass{student: student, session: session, index: buildOverrideIndex(status)}
	pass.lines, err = s.resolvePersisted(ctx, groups)
	if err != nil {
		return nil, err
	}
	for _, line := range pass.lines {
		pass.groups = append(pass.groups, line.group)
	}
	if err := s.loadOfferings(ctx, pass); err != nil {
		return nil, err
	}
	if err := s.buildModel(ctx, pass); err != nil {
		return nil, err
	}
	s.checkCredit(pass)
	s.checkLocal(pass)
	out.Messages = append(out.Messages, pass.messages...)
	out.Confirmations = pass.confirmations()
	return out, nil
}

func statusData(status *dto.StatusResponse) dto.StatusData {
	if status == nil {
		return dto.StatusData{}
	}
	return status.Data
}
