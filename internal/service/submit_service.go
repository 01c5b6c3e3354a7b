package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/internal/models"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
)

// Submit validates the request form and files the needed overrides with the
// registration site. Nothing is sent when the form has no override-worthy
// problems; a registration hold fails the call, and other validation errors
// block the submission entirely.
func (s *ValidationService) Submit(ctx context.Context, req dto.ValidationRequest, requestorID, requestorRole string) (*dto.SubmitResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submit request")
	}
	pass, err := s.runPass(ctx, req.StudentID, req.Lines, nil)
	if err != nil {
		return nil, err
	}
	if holdBlocked(pass.messages) {
		return nil, appErrors.Clone(appErrors.ErrHold, msgHold)
	}
	if pass.hasError() {
		return &dto.SubmitResponse{StudentID: pass.student.ID, Submitted: false, Messages: pass.messages}, nil
	}

	submit, hasChanges := s.buildSubmitRequest(pass, requestorID, requestorRole)
	if !hasChanges {
		s.markSaved(pass.groups)
		if err := s.requests.ReplaceForStudent(ctx, pass.student.ID, pass.groups); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course requests")
		}
		return &dto.SubmitResponse{StudentID: pass.student.ID, Submitted: false, Messages: pass.messages}, nil
	}

	start := time.Now()
	result, err := s.client.SubmitRegistration(ctx, submit)
	s.observeExternal(start)
	if err != nil {
		return nil, err
	}

	s.markSaved(pass.groups)
	s.annotateGroups(ctx, pass, result.Data)
	if err := s.requests.ReplaceForStudent(ctx, pass.student.ID, pass.groups); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save course requests")
	}

	s.logger.Info("overrides submitted",
		zap.Int64("student_id", pass.student.ID),
		zap.Int("requests", len(result.Data)))
	return &dto.SubmitResponse{
		StudentID: pass.student.ID,
		Submitted: true,
		Requests:  len(result.Data),
		Messages:  pass.messages,
	}, nil
}

// buildSubmitRequest assembles the site submission from the pass results:
// one ADD change per override-needed problem, the requested max credit when
// over the limit, and the credit-hour report reviewers see.
func (s *ValidationService) buildSubmitRequest(pass *validationPass, requestorID, requestorRole string) (dto.SubmitRegistrationRequest, bool) {
	submit := dto.SubmitRegistrationRequest{
		StudentID:     pass.student.BannerID(),
		Term:          pass.session.BannerTerm,
		Campus:        pass.session.BannerCampus,
		Mode:          s.site.Mode,
		RequestorID:   requestorID,
		RequestorRole: requestorRole,
	}

	for _, message := range pass.messages {
		if message.Error || message.Status != string(models.OverrideNeeded) {
			continue
		}
		switch message.Code {
		case dto.MessageCodeCredit, dto.MessageCodeNoAlt, dto.MessageCodeOverlap:
			continue
		}
		subject, courseNbr := splitCourse(message.Course)
		submit.Changes = append(submit.Changes, dto.Change{
			Subject:   subject,
			CourseNbr: courseNbr,
			CRN:       s.findCRN(pass, message.Course),
			Operation: dto.ChangeOperationAdd,
			Errors:    []dto.ChangeError{{Code: message.Code, Message: message.Message}},
		})
	}

	if pass.total > pass.max {
		total := pass.total
		submit.MaxCredit = &total
	}

	for _, line := range pass.lines {
		credit := courseCreditLine(line)
		if line.group.Alternative {
			submit.AlternateCourseCreditHrs = append(submit.AlternateCourseCreditHrs, credit)
		} else {
			submit.CourseCreditHrs = append(submit.CourseCreditHrs, credit)
		}
	}

	return submit, len(submit.Changes) > 0 || submit.MaxCredit != nil
}

func courseCreditLine(line requestLine) dto.CourseCredit {
	out := dto.CourseCredit{}
	for i, course := range line.courses {
		hrs := course.CreditMin
		credit := dto.CourseCredit{
			Subject:   course.Subject,
			CourseNbr: course.Number,
			Title:     course.Title,
			CreditHrs: &hrs,
		}
		if i == 0 {
			credit.Alternatives = nil
			out = credit
		} else {
			out.Alternatives = append(out.Alternatives, credit)
		}
	}
	return out
}

// holdBlocked reports whether the pass found a registration hold, which
// blocks any submission regardless of the rest of the form.
func holdBlocked(messages []dto.CourseMessage) bool {
	for _, m := range messages {
		if m.Code == dto.ProblemCodeHold {
			return true
		}
	}
	return false
}

func splitCourse(name string) (string, string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}

func (s *ValidationService) findCRN(pass *validationPass, course string) string {
	for crn, name := range pass.crnCourse {
		if name == course {
			return crn
		}
	}
	return ""
}

// markSaved stamps courses that carry no override round-trip.
func (s *ValidationService) markSaved(groups []models.CourseRequestGroup) {
	for gi := range groups {
		for ci := range groups[gi].Courses {
			if groups[gi].Courses[ci].OverrideStatus == "" {
				groups[gi].Courses[ci].OverrideStatus = models.OverrideSaved
			}
		}
	}
}

// annotateGroups writes the submission outcome onto the in-memory form so a
// single persistence pass stores both the form and its override mirror.
func (s *ValidationService) annotateGroups(ctx context.Context, pass *validationPass, requests []dto.SpecialRegistrationRequest) {
	now := time.Now().UTC()
	for _, req := range requests {
		status := models.StatusFromExternal(req.Status)
		timestamp := req.DateCreated
		if timestamp == nil {
			timestamp = &now
		}
		note := lastNote(req)

		if req.MaxCredit != nil {
			if err := s.students.UpdateOverride(ctx, pass.student.ID, req.RequestID, *req.MaxCredit, status, timestamp); err != nil {
				s.logger.Warn("failed to store max credit override",
					zap.Int64("student_id", pass.student.ID), zap.Error(err))
			}
			continue
		}
		for _, change := range req.Changes {
			course := changeCourse(change)
			for gi := range pass.groups {
				for ci := range pass.groups[gi].Courses {
					rc := &pass.groups[gi].Courses[ci]
					if rc.CourseName != course {
						continue
					}
					rc.OverrideExternalID = req.RequestID
					rc.OverrideStatus = status
					rc.OverrideNote = note
					rc.OverrideTimestamp = timestamp
				}
			}
		}
	}
}

func changeCourse(change dto.Change) string {
	if change.CourseNbr == "" {
		return change.Subject
	}
	return change.Subject + " " + change.CourseNbr
}

func lastNote(req dto.SpecialRegistrationRequest) string {
	note := ""
	for _, n := range req.Notes {
		if n.Notes != "" {
			note = n.Notes
		}
	}
	return note
}

// Revalidate re-runs validation for the persisted request form and refiles
// overrides when the site reports new problems. Returns whether persisted
// state changed.
func (s *ValidationService) Revalidate(ctx context.Context, studentID int64, force bool) (bool, error) {
	if s.sections.ValidationDisabled {
		return false, nil
	}
	groups, err := s.requests.ListByStudent(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course requests")
	}
	if len(groups) == 0 {
		return false, nil
	}
	if !force && !s.sections.ForceRevalidation && allSettled(groups) {
		return false, nil
	}

	pass, err := s.runPass(ctx, studentID, nil, groups)
	if err != nil {
		return false, err
	}
	if pass.hasError() {
		s.logger.Info("revalidation found blocking errors", zap.Int64("student_id", pass.student.ID))
		return false, nil
	}

	submit, hasChanges := s.buildSubmitRequest(pass, "", "")
	changed := false
	if hasChanges {
		start := time.Now()
		result, err := s.client.SubmitRegistration(ctx, submit)
		s.observeExternal(start)
		if err != nil {
			return false, err
		}
		changed, err = s.applySubmitOutcome(ctx, pass, groups, result.Data)
		if err != nil {
			return changed, err
		}
	}

	// Requests still carrying an override that no current problem or site
	// response explains are stale: release them.
	needed := make(map[string]bool)
	for _, message := range pass.messages {
		if message.Course != "" {
			needed[message.Course] = true
		}
	}
	for _, group := range groups {
		for _, rc := range group.Courses {
			if !rc.OverrideStatus.Tracked() || needed[rc.CourseName] {
				continue
			}
			if rc.OverrideStatus == models.OverrideApproved {
				continue
			}
			if err := s.requests.ClearOverride(ctx, rc.ID); err != nil {
				return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear stale override")
			}
			changed = true
		}
	}
	return changed, nil
}

// applySubmitOutcome persists the response of a revalidation submission on
// the stored rows, writing only rows whose mirror actually moved.
func (s *ValidationService) applySubmitOutcome(ctx context.Context, pass *validationPass, groups []models.CourseRequestGroup, requests []dto.SpecialRegistrationRequest) (bool, error) {
	now := time.Now().UTC()
	changed := false
	for _, req := range requests {
		status := models.StatusFromExternal(req.Status)
		timestamp := req.DateCreated
		if timestamp == nil {
			timestamp = &now
		}
		note := lastNote(req)

		if req.MaxCredit != nil {
			student := pass.student
			if student.OverrideExternalID != req.RequestID || student.OverrideStatus != status || student.OverrideMaxCredit != *req.MaxCredit {
				if err := s.students.UpdateOverride(ctx, student.ID, req.RequestID, *req.MaxCredit, status, timestamp); err != nil {
					return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store max credit override")
				}
				changed = true
			}
			continue
		}

		for _, change := range req.Changes {
			course := changeCourse(change)
			for _, group := range groups {
				for _, rc := range group.Courses {
					if rc.CourseName != course {
						continue
					}
					if rc.OverrideExternalID == req.RequestID && rc.OverrideStatus == status {
						continue
					}
					if err := s.requests.UpdateOverride(ctx, rc.ID, req.RequestID, status, note, timestamp); err != nil {
						return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store course override")
					}
					changed = true
				}
			}
		}
	}
	return changed, nil
}

func allSettled(groups []models.CourseRequestGroup) bool {
	for _, group := range groups {
		for _, rc := range group.Courses {
			switch rc.OverrideStatus {
			case models.OverrideNeeded, models.OverridePending, models.OverrideRejected, models.OverrideCancelled:
				return false
			}
		}
	}
	return true
}
