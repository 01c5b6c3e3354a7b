package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/internal/models"
)

type mockReconcileClient struct {
	status     map[string]dto.StatusData
	batchCalls [][]string
}

func (m *mockReconcileClient) CheckStatus(ctx context.Context, term, campus, studentID string) (*dto.StatusResponse, error) {
	data := m.status[studentID]
	data.StudentID = studentID
	return &dto.StatusResponse{Status: dto.ResponseStatusSuccess, Data: data}, nil
}

func (m *mockReconcileClient) CheckAllStatuses(ctx context.Context, term, campus string, studentIDs []string) (*dto.MultipleStatusResponse, error) {
	ids := make([]string, len(studentIDs))
	copy(ids, studentIDs)
	m.batchCalls = append(m.batchCalls, ids)

	out := &dto.MultipleStatusResponse{Status: dto.ResponseStatusSuccess}
	for _, id := range studentIDs {
		data := m.status[id]
		data.StudentID = id
		out.Data = append(out.Data, data)
	}
	return out, nil
}

type mockStudentDirectory struct {
	students        map[int64]models.Student
	pending         []models.Student
	overrideWrites  int
	clearedOverride []int64
}

func (m *mockStudentDirectory) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentDirectory) UpdateOverride(ctx context.Context, studentID int64, externalID string, maxCredit float64, status models.OverrideStatus, timestamp *time.Time) error {
	if s, ok := m.students[studentID]; ok {
		s.OverrideExternalID = externalID
		s.OverrideMaxCredit = maxCredit
		s.OverrideStatus = status
		s.OverrideTimestamp = timestamp
		m.students[studentID] = s
	}
	m.overrideWrites++
	return nil
}

func (m *mockStudentDirectory) ClearOverride(ctx context.Context, studentID int64) error {
	m.clearedOverride = append(m.clearedOverride, studentID)
	return nil
}

func (m *mockStudentDirectory) ListWithPendingOverrides(ctx context.Context, termID int64) ([]models.Student, error) {
	return m.pending, nil
}

func (m *mockStudentDirectory) ListByIDs(ctx context.Context, ids []int64) ([]models.Student, error) {
	var out []models.Student
	for _, id := range ids {
		if s, ok := m.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockRequestStore struct {
	groups        map[int64][]models.CourseRequestGroup
	statusWrites  map[int64]models.OverrideStatus
	overrideCalls int
	cleared       []int64
	replaced      map[int64][]models.CourseRequestGroup
}

func (m *mockRequestStore) ListByStudent(ctx context.Context, studentID int64) ([]models.CourseRequestGroup, error) {
	return m.groups[studentID], nil
}

func (m *mockRequestStore) ReplaceForStudent(ctx context.Context, studentID int64, groups []models.CourseRequestGroup) error {
	if m.replaced == nil {
		m.replaced = make(map[int64][]models.CourseRequestGroup)
	}
	m.replaced[studentID] = groups
	return nil
}

func (m *mockRequestStore) UpdateOverride(ctx context.Context, id int64, externalID string, status models.OverrideStatus, note string, timestamp *time.Time) error {
	m.overrideCalls++
	m.recordStatus(id, status)
	return nil
}

func (m *mockRequestStore) UpdateStatus(ctx context.Context, id int64, status models.OverrideStatus) error {
	m.recordStatus(id, status)
	return nil
}

func (m *mockRequestStore) ClearOverride(ctx context.Context, id int64) error {
	m.cleared = append(m.cleared, id)
	return nil
}

func (m *mockRequestStore) recordStatus(id int64, status models.OverrideStatus) {
	if m.statusWrites == nil {
		m.statusWrites = make(map[int64]models.OverrideStatus)
	}
	m.statusWrites[id] = status
}

type mockSessionResolver struct{}

func (mockSessionResolver) FindSession(ctx context.Context, termID int64) (*models.AcademicSession, error) {
	return &models.AcademicSession{TermID: termID, Year: 2026, Term: "Fall", BannerTerm: "202710", BannerCampus: "PWL"}, nil
}

func trackedStudent(id int64, externalID string) models.Student {
	return models.Student{ID: id, ExternalID: externalID, TermID: 1}
}

func TestUpdateStudentCancelsMissingRequest(t *testing.T) {
	student := trackedStudent(1, "12345")
	students := &mockStudentDirectory{students: map[int64]models.Student{1: student}}
	requests := &mockRequestStore{groups: map[int64][]models.CourseRequestGroup{
		1: {{Priority: 0, Courses: []models.RequestedCourse{{
			ID: 7, StudentID: 1, CourseName: "MA 16100",
			OverrideExternalID: "42", OverrideStatus: models.OverridePending,
		}}}},
	}}
	client := &mockReconcileClient{status: map[string]dto.StatusData{}}

	svc := NewReconcileService(client, students, requests, mockSessionResolver{}, nil, nil, 100, nil)
	changed, err := svc.UpdateStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.OverrideCancelled, requests.statusWrites[7])
}

func TestUpdateStudentAppliesExternalDecision(t *testing.T) {
	student := trackedStudent(1, "12345")
	students := &mockStudentDirectory{students: map[int64]models.Student{1: student}}
	requests := &mockRequestStore{groups: map[int64][]models.CourseRequestGroup{
		1: {{Priority: 0, Courses: []models.RequestedCourse{{
			ID: 7, StudentID: 1, CourseName: "MA 16100",
			OverrideExternalID: "42", OverrideStatus: models.OverridePending,
		}}}},
	}}
	client := &mockReconcileClient{status: map[string]dto.StatusData{
		"000012345": {Requests: []dto.SpecialRegistrationRequest{
			{RequestID: "42", Status: models.ExternalStatusApproved},
		}},
	}}

	svc := NewReconcileService(client, students, requests, mockSessionResolver{}, nil, nil, 100, nil)
	changed, err := svc.UpdateStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.OverrideApproved, requests.statusWrites[7])
}

func TestUpdateStudentIdempotentOnUnchangedSnapshot(t *testing.T) {
	student := trackedStudent(1, "12345")
	students := &mockStudentDirectory{students: map[int64]models.Student{1: student}}
	requests := &mockRequestStore{groups: map[int64][]models.CourseRequestGroup{
		1: {{Priority: 0, Courses: []models.RequestedCourse{{
			ID: 7, StudentID: 1, CourseName: "MA 16100",
			OverrideExternalID: "42", OverrideStatus: models.OverridePending,
		}}}},
	}}
	client := &mockReconcileClient{status: map[string]dto.StatusData{
		"000012345": {Requests: []dto.SpecialRegistrationRequest{
			{RequestID: "42", Status: models.ExternalStatusPending},
		}},
	}}

	svc := NewReconcileService(client, students, requests, mockSessionResolver{}, nil, nil, 100, nil)
	changed, err := svc.UpdateStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, requests.statusWrites)
	assert.Zero(t, students.overrideWrites)
}

func TestUpdateStudentSkipsUntrackedStudent(t *testing.T) {
	student := trackedStudent(1, "12345")
	students := &mockStudentDirectory{students: map[int64]models.Student{1: student}}
	requests := &mockRequestStore{groups: map[int64][]models.CourseRequestGroup{
		1: {{Priority: 0, Courses: []models.RequestedCourse{{ID: 7, CourseName: "MA 16100"}}}},
	}}
	client := &mockReconcileClient{status: map[string]dto.StatusData{}}

	svc := NewReconcileService(client, students, requests, mockSessionResolver{}, nil, nil, 100, nil)
	changed, err := svc.UpdateStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateStudentReconcilesMaxCreditMirror(t *testing.T) {
	student := trackedStudent(1, "12345")
	student.OverrideExternalID = "77"
	student.OverrideMaxCredit = 21
	student.OverrideStatus = models.OverridePending
	students := &mockStudentDirectory{students: map[int64]models.Student{1: student}}
	requests := &mockRequestStore{}
	maxCredit := 21.0
	client := &mockReconcileClient{status: map[string]dto.StatusData{
		"000012345": {Requests: []dto.SpecialRegistrationRequest{
			{RequestID: "77", Status: models.ExternalStatusApproved, MaxCredit: &maxCredit},
		}},
	}}

	svc := NewReconcileService(client, students, requests, mockSessionResolver{}, nil, nil, 100, nil)
	changed, err := svc.UpdateStudent(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, students.overrideWrites)
	assert.Equal(t, models.OverrideApproved, students.students[1].OverrideStatus)
}

func TestUpdateStudentsBatchesByHundred(t *testing.T) {
	students := &mockStudentDirectory{students: map[int64]models.Student{}}
	requests := &mockRequestStore{groups: map[int64][]models.CourseRequestGroup{}}
	client := &mockReconcileClient{status: map[string]dto.StatusData{}}

	for i := int64(1); i <= 250; i++ {
		s := trackedStudent(i, fmt.Sprintf("%d", 10000+i))
		students.students[i] = s
		students.pending = append(students.pending, s)
		requests.groups[i] = []models.CourseRequestGroup{{Priority: 0, Courses: []models.RequestedCourse{{
			ID: i, StudentID: i, CourseName: "MA 16100",
			OverrideExternalID: "42", OverrideStatus: models.OverridePending,
		}}}}
	}

	svc := NewReconcileService(client, students, requests, mockSessionResolver{}, nil, nil, 100, nil)
	result, err := svc.UpdateStudents(context.Background(), 1, nil)
	require.NoError(t, err)

	assert.Equal(t, 250, result.Examined)
	assert.Equal(t, 3, result.Batches)
	require.Len(t, client.batchCalls, 3)
	assert.Len(t, client.batchCalls[0], 100)
	assert.Len(t, client.batchCalls[1], 100)
	assert.Len(t, client.batchCalls[2], 50)
	// Every student's pending request vanished at the site, so each is
	// cancelled exactly once.
	assert.Len(t, result.Changed, 250)
	seen := make(map[int64]bool)
	for _, id := range result.Changed {
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestUpdateStudentsDeduplicatesExternalIDs(t *testing.T) {
	a := trackedStudent(1, "12345")
	b := trackedStudent(2, "12345")
	students := &mockStudentDirectory{
		students: map[int64]models.Student{1: a, 2: b},
		pending:  []models.Student{a, b},
	}
	requests := &mockRequestStore{groups: map[int64][]models.CourseRequestGroup{}}
	client := &mockReconcileClient{status: map[string]dto.StatusData{}}

	svc := NewReconcileService(client, students, requests, mockSessionResolver{}, nil, nil, 100, nil)
	result, err := svc.UpdateStudents(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Examined)
	require.Len(t, client.batchCalls, 1)
	assert.Len(t, client.batchCalls[0], 1)
}
