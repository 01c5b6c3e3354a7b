package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/internal/models"
)

type mockEligibilityClient struct {
	result dto.EligibilityResponse
	calls  int
}

func (m *mockEligibilityClient) CheckEligibility(ctx context.Context, term, campus, studentID string) (*dto.EligibilityResponse, error) {
	m.calls++
	out := m.result
	return &out, nil
}

type mockEligibilityStore struct {
	*mockStudentDirectory
	issues map[int64]string
}

func (m *mockEligibilityStore) UpdateEligibility(ctx context.Context, studentID int64, issue string) error {
	if m.issues == nil {
		m.issues = make(map[int64]string)
	}
	m.issues[studentID] = issue
	return nil
}

func eligibilityFixture(student models.Student, result dto.EligibilityResponse) (*EligibilityService, *mockEligibilityClient, *mockEligibilityStore) {
	client := &mockEligibilityClient{result: result}
	store := &mockEligibilityStore{
		mockStudentDirectory: &mockStudentDirectory{students: map[int64]models.Student{student.ID: student}},
	}
	svc := NewEligibilityService(client, store, mockSessionResolver{}, nil, nil, nil)
	return svc, client, store
}

func eligible(v bool) dto.EligibilityResponse {
	return dto.EligibilityResponse{
		Status: dto.ResponseStatusSuccess,
		Data:   dto.EligibilityData{Eligible: &v},
	}
}

func TestEligibilityCheckEligible(t *testing.T) {
	svc, client, store := eligibilityFixture(trackedStudent(1, "12345"), eligible(true))

	resp, cacheHit, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.True(t, resp.Eligible)
	assert.Empty(t, resp.Message)
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, store.issues)
}

func TestEligibilityCheckAggregatesProblems(t *testing.T) {
	result := eligible(false)
	result.Data.EligibilityProblems = []dto.EligibilityProblem{
		{Message: "Hold on record"},
		{Message: "Advisor approval required"},
	}
	svc, _, store := eligibilityFixture(trackedStudent(1, "12345"), result)

	resp, _, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, resp.Eligible)
	assert.Equal(t, "Hold on record\nAdvisor approval required", resp.Message)
	assert.Equal(t, resp.Message, store.issues[1])
}

func TestEligibilityCheckClearsResolvedIssue(t *testing.T) {
	student := trackedStudent(1, "12345")
	student.EligibilityIssue = "Hold on record"
	svc, _, store := eligibilityFixture(student, eligible(true))

	resp, _, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, resp.Eligible)
	issue, written := store.issues[1]
	assert.True(t, written)
	assert.Empty(t, issue)
}

func TestEligibilityCheckRejectedBySite(t *testing.T) {
	svc, _, store := eligibilityFixture(trackedStudent(1, "12345"), dto.EligibilityResponse{
		Status:  "error",
		Message: "term not open",
	})

	_, _, err := svc.Check(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "term not open")
	assert.Empty(t, store.issues)
}
