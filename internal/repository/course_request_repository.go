package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

// CourseRequestRepository manages the persisted request form and its
// override mirror columns.
type CourseRequestRepository struct {
	db *sqlx.DB
}

// NewCourseRequestRepository constructs a CourseRequestRepository.
func NewCourseRequestRepository(db *sqlx.DB) *CourseRequestRepository {
	return &CourseRequestRepository{db: db}
}

const requestedCourseColumns = `id, student_id, course_id, course_name, credit_min, has_credit, read_only,
    priority, alternative, alt_index,
    COALESCE(override_external_id, '') AS override_external_id,
    COALESCE(override_status, '') AS override_status,
    COALESCE(override_note, '') AS override_note,
    override_timestamp`

// ListByStudent returns the student's request form grouped by priority line,
// courses within a line ordered by alternate index.
func (r *CourseRequestRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.CourseRequestGroup, error) {
	query := `SELECT ` + requestedCourseColumns + `
        FROM course_requests WHERE student_id = $1
        ORDER BY alternative, priority, alt_index`
	var rows []models.RequestedCourse
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list course requests: %w", err)
	}

	var groups []models.CourseRequestGroup
	for _, row := range rows {
		n := len(groups)
		if n == 0 || groups[n-1].Priority != row.Priority || groups[n-1].Alternative != row.Alternative {
			groups = append(groups, models.CourseRequestGroup{Priority: row.Priority, Alternative: row.Alternative})
			n++
		}
		groups[n-1].Courses = append(groups[n-1].Courses, row)
	}
	return groups, nil
}

// ReplaceForStudent swaps the student's request form for a new one inside a
// transaction, keeping override columns of lines that survived unchanged.
func (r *CourseRequestRepository) ReplaceForStudent(ctx context.Context, studentID int64, groups []models.CourseRequestGroup) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace course requests: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing := make(map[int64]models.RequestedCourse)
	var current []models.RequestedCourse
	query := `SELECT ` + requestedCourseColumns + ` FROM course_requests WHERE student_id = $1`
	if err := tx.SelectContext(ctx, &current, query, studentID); err != nil {
		return fmt.Errorf("load current course requests: %w", err)
	}
	for _, row := range current {
		existing[row.CourseID] = row
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_requests WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear course requests: %w", err)
	}

	const insert = `INSERT INTO course_requests
        (student_id, course_id, course_name, credit_min, has_credit, read_only, priority, alternative, alt_index,
         override_external_id, override_status, override_note, override_timestamp, created_at)
        VALUES (:student_id, :course_id, :course_name, :credit_min, :has_credit, :read_only, :priority, :alternative, :alt_index,
         NULLIF(:override_external_id, ''), NULLIF(:override_status, ''), NULLIF(:override_note, ''), :override_timestamp, :created_at)`
	now := time.Now().UTC()
	for _, group := range groups {
		for _, course := range group.Courses {
			course.StudentID = studentID
			course.Priority = group.Priority
			course.Alternative = group.Alternative
			if prev, ok := existing[course.CourseID]; ok && course.OverrideStatus == "" {
				course.OverrideExternalID = prev.OverrideExternalID
				course.OverrideStatus = prev.OverrideStatus
				course.OverrideNote = prev.OverrideNote
				course.OverrideTimestamp = prev.OverrideTimestamp
			}
			record := struct {
				models.RequestedCourse
				CreatedAt time.Time `db:"created_at"`
			}{RequestedCourse: course, CreatedAt: now}
			if _, err := tx.NamedExecContext(ctx, insert, record); err != nil {
				return fmt.Errorf("insert course request: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace course requests: %w", err)
	}
	return nil
}

// UpdateOverride sets the full override mirror of one requested course.
func (r *CourseRequestRepository) UpdateOverride(ctx context.Context, id int64, externalID string, status models.OverrideStatus, note string, timestamp *time.Time) error {
	const query = `UPDATE course_requests SET override_external_id = $2, override_status = $3,
        override_note = $4, override_timestamp = $5, updated_at = $6 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, externalID, status, note, timestamp, time.Now().UTC()); err != nil {
		return fmt.Errorf("update course request override: %w", err)
	}
	return nil
}

// UpdateStatus sets only the override status of one requested course.
func (r *CourseRequestRepository) UpdateStatus(ctx context.Context, id int64, status models.OverrideStatus) error {
	const query = `UPDATE course_requests SET override_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update course request status: %w", err)
	}
	return nil
}

// ClearOverride removes the override mirror of one requested course.
func (r *CourseRequestRepository) ClearOverride(ctx context.Context, id int64) error {
	const query = `UPDATE course_requests SET override_external_id = NULL, override_status = NULL,
        override_note = NULL, override_timestamp = NULL, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("clear course request override: %w", err)
	}
	return nil
}

// OverrideReportRow is one exportable line of override state joined with
// its student.
type OverrideReportRow struct {
	StudentExternalID string     `db:"external_id"`
	FirstName         string     `db:"first_name"`
	LastName          string     `db:"last_name"`
	CourseName        string     `db:"course_name"`
	Status            string     `db:"override_status"`
	RequestID         string     `db:"override_external_id"`
	Note              string     `db:"override_note"`
	Timestamp         *time.Time `db:"override_timestamp"`
}

// ListOverrideRows returns every tracked override of a term for reporting.
func (r *CourseRequestRepository) ListOverrideRows(ctx context.Context, termID int64) ([]OverrideReportRow, error) {
	const query = `SELECT s.external_id, s.first_name, s.last_name, cr.course_name,
        COALESCE(cr.override_status, '') AS override_status,
        COALESCE(cr.override_external_id, '') AS override_external_id,
        COALESCE(cr.override_note, '') AS override_note,
        cr.override_timestamp
        FROM course_requests cr
        JOIN students s ON s.id = cr.student_id
        WHERE s.term_id = $1 AND cr.override_status IS NOT NULL
        ORDER BY s.external_id, cr.priority, cr.alt_index`
	var rows []OverrideReportRow
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list override rows: %w", err)
	}
	return rows, nil
}
