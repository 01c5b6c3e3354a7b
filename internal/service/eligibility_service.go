package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
)

type eligibilityClient interface {
	CheckEligibility(ctx context.Context, term, campus, studentID string) (*dto.EligibilityResponse, error)
}

type eligibilityStore interface {
	studentStore
	UpdateEligibility(ctx context.Context, studentID int64, issue string) error
}

// EligibilityService asks the registration site whether a student may
// register at all and mirrors the answer locally.
type EligibilityService struct {
	client   eligibilityClient
	students eligibilityStore
	sessions sessionResolver
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewEligibilityService constructs an EligibilityService.
func NewEligibilityService(client eligibilityClient, students eligibilityStore, sessions sessionResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{client: client, students: students, sessions: sessions, cache: cache, metrics: metrics, logger: logger}
}

// Check performs the eligibility round-trip. A non-success site status is a
// rejection; an ineligible student gets the aggregated problem messages.
// Recent answers are served from cache; reconciliation invalidates them.
func (s *EligibilityService) Check(ctx context.Context, studentID int64) (*dto.EligibilityCheckResponse, bool, error) {
	cacheKey := fmt.Sprintf("student:%d:eligibility", studentID)
	if s.cache != nil {
		var cached dto.EligibilityCheckResponse
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	session, err := s.sessions.FindSession(ctx, student.TermID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve academic session")
	}

	start := time.Now()
	result, err := s.client.CheckEligibility(ctx, session.BannerTerm, session.BannerCampus, student.BannerID())
	if s.metrics != nil {
		s.metrics.ObserveExternalCall(time.Since(start))
	}
	if err != nil {
		return nil, false, err
	}
	if result.Status != dto.ResponseStatusSuccess {
		message := result.Message
		if message == "" {
			message = "failed to check eligibility (" + result.Status + ")"
		}
		return nil, false, appErrors.Clone(appErrors.ErrRejected, message)
	}

	eligible := result.Data.Eligible != nil && *result.Data.Eligible
	issue := ""
	if !eligible {
		var problems []string
		for _, p := range result.Data.EligibilityProblems {
			if p.Message != "" {
				problems = append(problems, p.Message)
			}
		}
		issue = strings.Join(problems, "\n")
		if issue == "" {
			issue = "Student is not eligible to register."
		}
	}
	if issue != student.EligibilityIssue {
		if err := s.students.UpdateEligibility(ctx, studentID, issue); err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store eligibility")
		}
	}

	out := &dto.EligibilityCheckResponse{StudentID: studentID, Eligible: eligible, Message: issue}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, out, 0); err != nil {
			s.logger.Warn("failed to cache eligibility", zap.Int64("student_id", studentID), zap.Error(err))
		}
	}
	return out, false, nil
}
