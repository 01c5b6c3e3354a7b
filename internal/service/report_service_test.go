package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/specreg-bridge/internal/repository"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
)

type mockRowLister struct {
	rows []repository.OverrideReportRow
}

func (m *mockRowLister) ListOverrideRows(ctx context.Context, termID int64) ([]repository.OverrideReportRow, error) {
	return m.rows, nil
}

func reportFixtureRows() []repository.OverrideReportRow {
	ts := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return []repository.OverrideReportRow{{
		StudentExternalID: "12345",
		FirstName:         "Ada",
		LastName:          "Lovelace",
		CourseName:        "MA 16100",
		Status:            "OVERRIDE_APPROVED",
		RequestID:         "42",
		Note:              "approved by dean",
		Timestamp:         &ts,
	}}
}

func TestOverrideReportDisabled(t *testing.T) {
	svc := NewReportService(&mockRowLister{}, nil, false, nil)
	_, _, err := svc.OverrideReport(context.Background(), 1, ReportFormatCSV)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDisabled.Code, appErr.Code)
}

func TestOverrideReportCSV(t *testing.T) {
	svc := NewReportService(&mockRowLister{rows: reportFixtureRows()}, nil, true, nil)

	payload, contentType, err := svc.OverrideReport(context.Background(), 1, ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	out := string(payload)
	assert.Contains(t, out, "Student ID,Student,Course,Status,Request ID,Note,Updated")
	assert.Contains(t, out, `"Lovelace, Ada"`)
	assert.Contains(t, out, "MA 16100")
	assert.Contains(t, out, "2026-08-20T12:00:00Z")
}

func TestOverrideReportDefaultsToCSV(t *testing.T) {
	svc := NewReportService(&mockRowLister{rows: reportFixtureRows()}, nil, true, nil)
	_, contentType, err := svc.OverrideReport(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
}

func TestOverrideReportPDF(t *testing.T) {
	svc := NewReportService(&mockRowLister{rows: reportFixtureRows()}, nil, true, nil)
	payload, contentType, err := svc.OverrideReport(context.Background(), 1, ReportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	require.True(t, len(payload) > 4)
	assert.Equal(t, "%PDF", string(payload[:4]))
}

func TestOverrideReportUnknownFormat(t *testing.T) {
	svc := NewReportService(&mockRowLister{rows: reportFixtureRows()}, nil, true, nil)
	_, _, err := svc.OverrideReport(context.Background(), 1, "xml")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
