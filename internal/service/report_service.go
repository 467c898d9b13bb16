package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/labdesk/lab-ledger-api/internal/models"
	appErrors "github.com/labdesk/lab-ledger-api/pkg/errors"
	"github.com/labdesk/lab-ledger-api/pkg/export"
)

// entryListingLimit caps the admin listing page. Exports stay unbounded
// so a day's file always holds every record.
const entryListingLimit = 200

var exportHeaders = []string{"Name", "Reg No", "Department", "Lab", "System No", "Time In", "Time Out", "Date"}

type reportEntryRepository interface {
	List(ctx context.Context, filter models.EntryFilter) ([]models.EntryDetail, error)
}

// Export carries a rendered report ready for download.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ReportService renders entry listings and downloadable exports.
type ReportService struct {
	entries reportEntryRepository
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(entries reportEntryRepository, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		entries: entries,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Entries lists ledger entries, newest first, optionally filtered to a
// single day. An empty date returns the full history up to the listing cap.
func (s *ReportService) Entries(ctx context.Context, date string) ([]models.EntryDetail, error) {
	date, err := normalizeDateFilter(date)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.List(ctx, models.EntryFilter{Date: date, Limit: entryListingLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list entries")
	}
	return entries, nil
}

// ExportCSV renders the entry table as a CSV download.
func (s *ReportService) ExportCSV(ctx context.Context, date string) (*Export, error) {
	date, err := normalizeDateFilter(date)
	if err != nil {
		return nil, err
	}
	data, err := s.dataset(ctx, date)
	if err != nil {
		return nil, err
	}
	body, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	s.logger.Info("csv export rendered", zap.String("date", date), zap.Int("rows", len(data.Rows)))
	return &Export{
		Filename:    exportFilename(date, "csv"),
		ContentType: "text/csv",
		Body:        body,
	}, nil
}

// ExportPDF renders the entry table as a PDF download.
func (s *ReportService) ExportPDF(ctx context.Context, date string) (*Export, error) {
	date, err := normalizeDateFilter(date)
	if err != nil {
		return nil, err
	}
	data, err := s.dataset(ctx, date)
	if err != nil {
		return nil, err
	}
	title := "Lab Entries"
	if date != "" {
		title = fmt.Sprintf("Lab Entries %s", date)
	}
	body, err := s.pdf.Render(data, title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	s.logger.Info("pdf export rendered", zap.String("date", date), zap.Int("rows", len(data.Rows)))
	return &Export{
		Filename:    exportFilename(date, "pdf"),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func (s *ReportService) dataset(ctx context.Context, date string) (export.Dataset, error) {
	entries, err := s.entries.List(ctx, models.EntryFilter{Date: date})
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load entries for export")
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		timeOut := ""
		if entry.TimeOut != nil {
			timeOut = *entry.TimeOut
		}
		rows = append(rows, []string{
			entry.StudentName,
			entry.RegNo,
			entry.Department,
			entry.LabName,
			entry.SystemNo,
			entry.TimeIn,
			timeOut,
			entry.Date,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}

func exportFilename(date, ext string) string {
	if date == "" {
		return fmt.Sprintf("lab_entries_all.%s", ext)
	}
	return fmt.Sprintf("lab_entries_%s.%s", date, ext)
}

// normalizeDateFilter accepts an empty filter or a calendar date in
// YYYY-MM-DD form.
func normalizeDateFilter(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "Please provide the date as YYYY-MM-DD.")
	}
	return date, nil
}
