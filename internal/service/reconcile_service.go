package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/internal/models"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
)

type reconcileClient interface {
	CheckStatus(ctx context.Context, term, campus, studentID string) (*dto.StatusResponse, error)
	CheckAllStatuses(ctx context.Context, term, campus string, studentIDs []string) (*dto.MultipleStatusResponse, error)
}

type studentDirectory interface {
	studentStore
	ListWithPendingOverrides(ctx context.Context, termID int64) ([]models.Student, error)
	ListByIDs(ctx context.Context, ids []int64) ([]models.Student, error)
}

type sessionResolver interface {
	FindSession(ctx context.Context, termID int64) (*models.AcademicSession, error)
}

// ReconcileService keeps the locally persisted override mirror consistent
// with the registration site, one student at a time or in batches.
type ReconcileService struct {
	client    reconcileClient
	students  studentDirectory
	requests  requestStore
	sessions  sessionResolver
	cache     *CacheService
	metrics   *MetricsService
	batchSize int
	logger    *zap.Logger
}

// NewReconcileService constructs a ReconcileService. batchSize is clamped
// to the site's hard limit of 100 ids per call.
func NewReconcileService(client reconcileClient, students studentDirectory, requests requestStore, sessions sessionResolver, cache *CacheService, metrics *MetricsService, batchSize int, logger *zap.Logger) *ReconcileService {
	if batchSize <= 0 || batchSize > 100 {
		batchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcileService{
		client:    client,
		students:  students,
		requests:  requests,
		sessions:  sessions,
		cache:     cache,
		metrics:   metrics,
		batchSize: batchSize,
		logger:    logger,
	}
}

// UpdateStudent reconciles one student against the site. It is a no-op when
// the student tracks no override. Returns whether persisted state changed.
func (s *ReconcileService) UpdateStudent(ctx context.Context, studentID int64) (bool, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	groups, err := s.requests.ListByStudent(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course requests")
	}
	if !tracksOverride(student, groups) {
		return false, nil
	}
	session, err := s.sessions.FindSession(ctx, student.TermID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic session")
	}

	start := time.Now()
	status, err := s.client.CheckStatus(ctx, session.BannerTerm, session.BannerCampus, student.BannerID())
	if s.metrics != nil {
		s.metrics.ObserveExternalCall(time.Since(start))
	}
	if err != nil {
		return false, err
	}

	changed, err := applyStatuses(ctx, s.students, s.requests, student, groups, status.Data)
	if err != nil {
		return changed, err
	}
	if changed {
		s.invalidate(ctx, studentID)
	}
	return changed, nil
}

// UpdateStudents reconciles many students, batching the external status
// calls by the site's 100-id page boundary. ids may be empty, meaning every
// student of the term with a pending override.
func (s *ReconcileService) UpdateStudents(ctx context.Context, termID int64, ids []int64) (*dto.BatchReconcileResponse, error) {
	var students []models.Student
	var err error
	if len(ids) > 0 {
		students, err = s.students.ListByIDs(ctx, ids)
	} else {
		students, err = s.students.ListWithPendingOverrides(ctx, termID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	session, err := s.sessions.FindSession(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic session")
	}

	byExternal := make(map[string]models.Student, len(students))
	var externalIDs []string
	for _, student := range students {
		id := student.BannerID()
		if _, dup := byExternal[id]; dup {
			continue
		}
		byExternal[id] = student
		externalIDs = append(externalIDs, id)
	}

	out := &dto.BatchReconcileResponse{Examined: len(externalIDs)}
	changedSet := make(map[int64]bool)
	for from := 0; from < len(externalIDs); from += s.batchSize {
		to := from + s.batchSize
		if to > len(externalIDs) {
			to = len(externalIDs)
		}
		start := time.Now()
		result, err := s.client.CheckAllStatuses(ctx, session.BannerTerm, session.BannerCampus, externalIDs[from:to])
		if s.metrics != nil {
			s.metrics.ObserveExternalCall(time.Since(start))
		}
		if err != nil {
			return nil, err
		}
		out.Batches++

		for _, data := range result.Data {
			student, ok := byExternal[data.StudentID]
			if !ok {
				continue
			}
			groups, err := s.requests.ListByStudent(ctx, student.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course requests")
			}
			changed, err := applyStatuses(ctx, s.students, s.requests, &student, groups, data)
			if err != nil {
				return nil, err
			}
			if changed && !changedSet[student.ID] {
				changedSet[student.ID] = true
				out.Changed = append(out.Changed, student.ID)
				s.invalidate(ctx, student.ID)
			}
		}
	}

	s.logger.Info("batch reconciliation finished",
		zap.Int("examined", out.Examined),
		zap.Int("batches", out.Batches),
		zap.Int("changed", len(out.Changed)))
	return out, nil
}

func (s *ReconcileService) invalidate(ctx context.Context, studentID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("student:%d:*", studentID)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Int64("student_id", studentID), zap.Error(err))
	}
}

func tracksOverride(student *models.Student, groups []models.CourseRequestGroup) bool {
	if student.OverrideExternalID != "" {
		return true
	}
	for _, group := range groups {
		for _, rc := range group.Courses {
			if rc.OverrideExternalID != "" {
				return true
			}
		}
	}
	return false
}

// applyStatuses folds one external status snapshot into the persisted
// mirror. A tracked request absent from the snapshot was cancelled at the
// site; everything else maps through StatusFromExternal. Writes happen only
// when the derived state differs from the stored one, which keeps repeated
// reconciliation against an unchanged snapshot write-free.
func applyStatuses(ctx context.Context, students studentStore, requests requestStore, student *models.Student, groups []models.CourseRequestGroup, data dto.StatusData) (bool, error) {
	byID := make(map[string]dto.SpecialRegistrationRequest, len(data.Requests))
	for _, req := range data.Requests {
		if req.RequestID != "" {
			byID[req.RequestID] = req
		}
	}

	changed := false
	for _, group := range groups {
		for _, rc := range group.Courses {
			if rc.OverrideExternalID == "" {
				continue
			}
			ext, ok := byID[rc.OverrideExternalID]
			if !ok {
				if rc.OverrideStatus != models.OverrideCancelled {
					if err := requests.UpdateStatus(ctx, rc.ID, models.OverrideCancelled); err != nil {
						return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel course override")
					}
					changed = true
				}
				continue
			}
			mapped := models.StatusFromExternal(ext.Status)
			note := lastNote(ext)
			if mapped == rc.OverrideStatus && note == rc.OverrideNote {
				continue
			}
			timestamp := ext.DateCreated
			if timestamp == nil {
				timestamp = rc.OverrideTimestamp
			}
			if err := requests.UpdateOverride(ctx, rc.ID, rc.OverrideExternalID, mapped, note, timestamp); err != nil {
				return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course override")
			}
			changed = true
		}
	}

	if student.OverrideExternalID != "" {
		ext, ok := byID[student.OverrideExternalID]
		switch {
		case !ok || ext.MaxCredit == nil:
			if student.OverrideStatus != models.OverrideCancelled {
				if err := students.UpdateOverride(ctx, student.ID, student.OverrideExternalID, student.OverrideMaxCredit, models.OverrideCancelled, student.OverrideTimestamp); err != nil {
					return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel max credit override")
				}
				changed = true
			}
		default:
			mapped := models.StatusFromExternal(ext.Status)
			if mapped != student.OverrideStatus || *ext.MaxCredit != student.OverrideMaxCredit {
				timestamp := ext.DateCreated
				if timestamp == nil {
					timestamp = student.OverrideTimestamp
				}
				if err := students.UpdateOverride(ctx, student.ID, student.OverrideExternalID, *ext.MaxCredit, mapped, timestamp); err != nil {
					return changed, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update max credit override")
				}
				changed = true
			}
		}
	}

	return changed, nil
}
