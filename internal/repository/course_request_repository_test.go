package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

var requestColumns = []string{
	"id", "student_id", "course_id", "course_name", "credit_min", "has_credit", "read_only",
	"priority", "alternative", "alt_index",
	"override_external_id", "override_status", "override_note", "override_timestamp",
}

func requestRow(id, courseID int64, name string, priority int, alternative bool, altIndex int) []driver.Value {
	return []driver.Value{id, int64(5), courseID, name, 4.0, true, false, priority, alternative, altIndex, "", "", "", nil}
}

func TestListByStudentGroupsByPriorityLine(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM course_requests WHERE student_id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(requestColumns).
			AddRow(requestRow(1, 1, "MA 16100", 0, false, 0)...).
			AddRow(requestRow(2, 2, "MA 16500", 0, false, 1)...).
			AddRow(requestRow(3, 3, "ENGL 10600", 1, false, 0)...).
			AddRow(requestRow(4, 4, "COM 11400", 0, true, 0)...))

	groups, err := repo.ListByStudent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, 0, groups[0].Priority)
	assert.False(t, groups[0].Alternative)
	require.Len(t, groups[0].Courses, 2)
	assert.Equal(t, "MA 16100", groups[0].Courses[0].CourseName)
	assert.Equal(t, "MA 16500", groups[0].Courses[1].CourseName)

	assert.Equal(t, 1, groups[1].Priority)
	require.Len(t, groups[1].Courses, 1)

	assert.True(t, groups[2].Alternative)
	assert.Equal(t, "COM 11400", groups[2].Courses[0].CourseName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceForStudentKeepsSurvivingOverrides(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRequestRepository(db)
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	existing := []driver.Value{int64(1), int64(5), int64(1), "MA 16100", 4.0, true, false, 0, false, 0, "42", "OVERRIDE_PENDING", "see advisor", ts}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_requests WHERE student_id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(requestColumns).AddRow(existing...))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_requests WHERE student_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_requests")).
		WithArgs(int64(5), int64(1), "MA 16100", 4.0, true, false, 0, false, 0,
			"42", "OVERRIDE_PENDING", "see advisor", ts, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	groups := []models.CourseRequestGroup{{Priority: 0, Courses: []models.RequestedCourse{{
		CourseID: 1, CourseName: "MA 16100", CreditMin: 4, HasCredit: true,
	}}}}
	err := repo.ReplaceForStudent(context.Background(), 5, groups)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestUpdateOverride(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRequestRepository(db)
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_requests SET override_external_id = $2")).
		WithArgs(int64(7), "42", models.OverrideApproved, "approved by dean", ts, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateOverride(context.Background(), 7, "42", models.OverrideApproved, "approved by dean", &ts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_requests SET override_status = $2")).
		WithArgs(int64(7), models.OverrideCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 7, models.OverrideCancelled)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestClearOverride(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_requests SET override_external_id = NULL")).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ClearOverride(context.Background(), 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOverrideRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRequestRepository(db)
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	columns := []string{"external_id", "first_name", "last_name", "course_name",
		"override_status", "override_external_id", "override_note", "override_timestamp"}
	mock.ExpectQuery(regexp.QuoteMeta("JOIN students s ON s.id = cr.student_id")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("12345", "Ada", "Lovelace", "MA 16100", "OVERRIDE_APPROVED", "42", "", ts))

	rows, err := repo.ListOverrideRows(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12345", rows[0].StudentExternalID)
	assert.Equal(t, "OVERRIDE_APPROVED", rows[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
