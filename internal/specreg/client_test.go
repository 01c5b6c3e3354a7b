package specreg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.SpecRegConfig{
		Site:            server.URL,
		APIKey:          "secret",
		Mode:            "REG",
		CheckPath:       "/checkSpecialRegistrationStatus",
		ValidationPath:  "/checkRestrictions",
		SubmitPath:      "/submitRegistration",
		EligibilityPath: "/checkEligibility",
		AllStatusesPath: "/checkAllSpecialRegistrationStatuses",
	}, nil)
}

func TestCheckStatusSendsQueryParams(t *testing.T) {
	var got map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"apiKey":    r.URL.Query().Get("apiKey"),
			"term":      r.URL.Query().Get("term"),
			"campus":    r.URL.Query().Get("campus"),
			"studentId": r.URL.Query().Get("studentId"),
			"mode":      r.URL.Query().Get("mode"),
			"path":      r.URL.Path,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.StatusResponse{
			Status: dto.ResponseStatusSuccess,
			Data:   dto.StatusData{StudentID: "000012345"},
		})
	})

	out, err := client.CheckStatus(context.Background(), "202710", "PWL", "000012345")
	require.NoError(t, err)
	assert.Equal(t, "000012345", out.Data.StudentID)
	assert.Equal(t, "/checkSpecialRegistrationStatus", got["path"])
	assert.Equal(t, "secret", got["apiKey"])
	assert.Equal(t, "202710", got["term"])
	assert.Equal(t, "PWL", got["campus"])
	assert.Equal(t, "000012345", got["studentId"])
	assert.Equal(t, "REG", got["mode"])
}

func TestCheckAllStatusesJoinsIDs(t *testing.T) {
	var ids string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = r.URL.Query().Get("studentIds")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.MultipleStatusResponse{
			Status: dto.ResponseStatusSuccess,
			Data:   []dto.StatusData{{StudentID: "000000001"}, {StudentID: "000000002"}},
		})
	})

	out, err := client.CheckAllStatuses(context.Background(), "202710", "PWL", []string{"000000001", "000000002"})
	require.NoError(t, err)
	assert.Equal(t, "000000001,000000002", ids)
	assert.Len(t, out.Data, 2)
}

func TestCheckRestrictionsPostsSchedule(t *testing.T) {
	var body dto.ValidationCheckRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.ValidationCheckResponse{
			Status: dto.ResponseStatusSuccess,
			ScheduleRestrictions: dto.Restrictions{Problems: []dto.Problem{
				{CRN: "10001", Code: "PREQ", Message: "Prerequisite required"},
			}},
		})
	})

	out, err := client.CheckRestrictions(context.Background(), dto.ValidationCheckRequest{
		StudentID:  "000012345",
		Term:       "202710",
		Campus:     "PWL",
		IncludeReg: "N",
		Schedule:   []dto.ScheduleLine{{Subject: "MA", CourseNbr: "16100", CRNs: []string{"10001"}}},
	})
	require.NoError(t, err)
	require.Len(t, out.ScheduleRestrictions.Problems, 1)
	assert.Equal(t, "000012345", body.StudentID)
	require.Len(t, body.Schedule, 1)
	assert.Equal(t, []string{"10001"}, body.Schedule[0].CRNs)
}

func TestSubmitRegistrationRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(dto.SubmitRegistrationResponse{
			Status:  "failure",
			Message: "term is closed",
		})
	})

	_, err := client.SubmitRegistration(context.Background(), dto.SubmitRegistrationRequest{
		StudentID: "000012345", Term: "202710", Campus: "PWL",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "term is closed")
}

func TestVerifySurfacesHTTPErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.CheckEligibility(context.Background(), "202710", "PWL", "000012345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}
