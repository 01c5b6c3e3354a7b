package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/specreg-bridge/internal/repository"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
	"github.com/noah-isme/specreg-bridge/pkg/export"
	"github.com/noah-isme/specreg-bridge/pkg/storage"
)

type overrideRowLister interface {
	ListOverrideRows(ctx context.Context, termID int64) ([]repository.OverrideReportRow, error)
}

// Report formats.
const (
	ReportFormatCSV = "csv"
	ReportFormatPDF = "pdf"
)

// ReportService exports the override status report for a term.
type ReportService struct {
	rows    overrideRowLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	archive *storage.LocalStorage
	enabled bool
	logger  *zap.Logger
}

// NewReportService constructs a ReportService. archive may be nil when
// rendered reports should not be kept on disk.
func NewReportService(rows overrideRowLister, archive *storage.LocalStorage, enabled bool, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		rows:    rows,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		archive: archive,
		enabled: enabled,
		logger:  logger,
	}
}

// Enabled reports whether the export endpoint is active.
func (s *ReportService) Enabled() bool {
	return s != nil && s.enabled
}

var reportHeaders = []string{"Student ID", "Student", "Course", "Status", "Request ID", "Note", "Updated"}

// OverrideReport renders the override status report in the given format and
// returns the payload with its content type.
func (s *ReportService) OverrideReport(ctx context.Context, termID int64, format string) ([]byte, string, error) {
	if !s.Enabled() {
		return nil, "", appErrors.Clone(appErrors.ErrDisabled, "reports are disabled")
	}
	rows, err := s.rows.ListOverrideRows(ctx, termID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override report")
	}

	data := export.Dataset{Headers: reportHeaders}
	for _, row := range rows {
		updated := ""
		if row.Timestamp != nil {
			updated = row.Timestamp.UTC().Format(time.RFC3339)
		}
		data.Rows = append(data.Rows, map[string]string{
			"Student ID": row.StudentExternalID,
			"Student":    strings.TrimSpace(row.LastName + ", " + row.FirstName),
			"Course":     row.CourseName,
			"Status":     row.Status,
			"Request ID": row.RequestID,
			"Note":       row.Note,
			"Updated":    updated,
		})
	}

	var payload []byte
	var contentType string
	switch format {
	case ReportFormatPDF:
		payload, err = s.pdf.Render(data, "Registration Overrides")
		contentType = "application/pdf"
	case ReportFormatCSV, "":
		payload, err = s.csv.Render(data)
		contentType = "text/csv"
		format = ReportFormatCSV
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report format")
	}
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	if s.archive != nil {
		filename := fmt.Sprintf("overrides-%d-%s.%s", termID, time.Now().UTC().Format("20060102T150405"), format)
		if _, err := s.archive.Save(filename, payload); err != nil {
			s.logger.Warn("failed to archive report", zap.String("file", filename), zap.Error(err))
		}
	}
	return payload, contentType, nil
}
