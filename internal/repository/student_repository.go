package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

// StudentRepository manages persistence for student registration state.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID fetches a student by local id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	const query = `SELECT id, external_id, first_name, last_name, email, term_id, max_credit,
        COALESCE(override_external_id, '') AS override_external_id,
        COALESCE(override_max_credit, 0) AS override_max_credit,
        COALESCE(override_status, '') AS override_status,
        override_timestamp,
        COALESCE(eligibility_issue, '') AS eligibility_issue
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListWithPendingOverrides returns the students of a term whose max-credit
// override or any course-request override is still awaiting a decision.
func (r *StudentRepository) ListWithPendingOverrides(ctx context.Context, termID int64) ([]models.Student, error) {
	const query = `SELECT DISTINCT s.id, s.external_id, s.first_name, s.last_name, s.email, s.term_id, s.max_credit,
        COALESCE(s.override_external_id, '') AS override_external_id,
        COALESCE(s.override_max_credit, 0) AS override_max_credit,
        COALESCE(s.override_status, '') AS override_status,
        s.override_timestamp,
        COALESCE(s.eligibility_issue, '') AS eligibility_issue
        FROM students s
        LEFT JOIN course_requests cr ON cr.student_id = s.id
        WHERE s.term_id = $1
          AND (s.override_status IN ($2, $3) OR cr.override_status IN ($2, $3))
        ORDER BY s.id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, termID, models.OverridePending, models.OverrideNeeded); err != nil {
		return nil, fmt.Errorf("list pending override students: %w", err)
	}
	return students, nil
}

// ListByIDs fetches students by local ids, preserving no particular order.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, external_id, first_name, last_name, email, term_id, max_credit,
        COALESCE(override_external_id, '') AS override_external_id,
        COALESCE(override_max_credit, 0) AS override_max_credit,
        COALESCE(override_status, '') AS override_status,
        override_timestamp,
        COALESCE(eligibility_issue, '') AS eligibility_issue
        FROM students WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("expand student ids: %w", err)
	}
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}

// UpdateOverride persists the student's max-credit override mirror.
func (r *StudentRepository) UpdateOverride(ctx context.Context, studentID int64, externalID string, maxCredit float64, status models.OverrideStatus, timestamp *time.Time) error {
	const query = `UPDATE students SET override_external_id = $2, override_max_credit = $3,
        override_status = $4, override_timestamp = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, externalID, maxCredit, status, timestamp, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student override: %w", err)
	}
	return nil
}

// ClearOverride removes the max-credit override mirror.
func (r *StudentRepository) ClearOverride(ctx context.Context, studentID int64) error {
	const query = `UPDATE students SET override_external_id = NULL, override_max_credit = NULL,
        override_status = NULL, override_timestamp = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear student override: %w", err)
	}
	return nil
}

// UpdateEligibility stores the latest eligibility issue, empty when eligible.
func (r *StudentRepository) UpdateEligibility(ctx context.Context, studentID int64, issue string) error {
	const query = `UPDATE students SET eligibility_issue = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, issue, time.Now().UTC()); err != nil {
		return fmt.Errorf("update student eligibility: %w", err)
	}
	return nil
}
