package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var studentColumns = []string{
	"id", "external_id", "first_name", "last_name", "email", "term_id", "max_credit",
	"override_external_id", "override_max_credit", "override_status", "override_timestamp",
	"eligibility_issue",
}

func studentRow(id int64, externalID string) []driver.Value {
	return []driver.Value{id, externalID, "Ada", "Lovelace", "ada@example.edu", int64(1), 18.0, "", 0.0, "", nil, ""}
}

func TestStudentFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, external_id, first_name, last_name, email, term_id, max_credit")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(studentColumns).AddRow(studentRow(7, "12345")...))

	student, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), student.ID)
	assert.Equal(t, "12345", student.ExternalID)
	assert.Equal(t, 18.0, student.MaxCredit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFindByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, external_id")).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 7)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentListWithPendingOverrides(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT s.id")).
		WithArgs(int64(1), models.OverridePending, models.OverrideNeeded).
		WillReturnRows(sqlmock.NewRows(studentColumns).
			AddRow(studentRow(1, "12345")...).
			AddRow(studentRow(2, "23456")...))

	students, err := repo.ListWithPendingOverrides(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "12345", students[0].ExternalID)
	assert.Equal(t, "23456", students[1].ExternalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListByIDsEmptyInput(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	students, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListByIDsExpandsPlaceholders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id IN ($1, $2)")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(studentColumns).
			AddRow(studentRow(1, "12345")...).
			AddRow(studentRow(2, "23456")...))

	students, err := repo.ListByIDs(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpdateOverride(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET override_external_id = $2")).
		WithArgs(int64(7), "42", 21.0, models.OverrideApproved, ts, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateOverride(context.Background(), 7, "42", 21, models.OverrideApproved, &ts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentClearOverride(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET override_external_id = NULL")).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ClearOverride(context.Background(), 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentUpdateEligibility(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET eligibility_issue = $2")).
		WithArgs(int64(7), "hold on record", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateEligibility(context.Background(), 7, "hold on record")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
