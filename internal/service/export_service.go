package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/pkg/export"
	"github.com/campussports/sportsdesk-api/pkg/storage"
)

// exportPageSize bounds each repository fetch while building a full dataset.
const exportPageSize = 500

// exportMaxRows caps the number of rows a single export may contain.
const exportMaxRows = 50000

type exportTransactionRepository interface {
	SweepOverdue(ctx context.Context, studentID string, now time.Time) (int64, error)
	Logbook(ctx context.Context, filter models.TransactionFilter) ([]models.LogbookEntry, int, error)
}

type exportAttendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type excelRenderer interface {
	Render(data export.Dataset, sheetName string, meta [][2]string) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportFile is a synchronously rendered download.
type ExportFile struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportService builds logbook and attendance datasets and renders them to
// xlsx or PDF, either synchronously or on behalf of a background report job.
type ExportService struct {
	transactions exportTransactionRepository
	attendance   exportAttendanceRepository
	storage      fileStorage
	excel        excelRenderer
	pdf          pdfRenderer
	csv          csvRenderer
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(transactions exportTransactionRepository, attendance exportAttendanceRepository, fileStore fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, excel excelRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if excel == nil {
		excel = export.NewExcelExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		transactions: transactions,
		attendance:   attendance,
		storage:      fileStore,
		excel:        excel,
		pdf:          pdf,
		csv:          export.NewCSVExporter(),
		signer:       signer,
		logger:       logger,
		cfg:          cfg,
	}
}

// Generate builds the dataset for a report job and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	payload, err := s.render(ctx, job.Type, job.Params)
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job.Type, job.Params.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/reports/download/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenderSync renders an export for immediate download without persisting it.
func (s *ExportService) RenderSync(ctx context.Context, reportType models.ReportType, params models.ReportJobParams) (*ExportFile, error) {
	payload, err := s.render(ctx, reportType, params)
	if err != nil {
		return nil, err
	}
	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	switch params.Format {
	case models.ReportFormatPDF:
		contentType = "application/pdf"
	case models.ReportFormatCSV:
		contentType = "text/csv"
	}
	return &ExportFile{
		Data:        payload,
		Filename:    s.buildFilename(reportType, params.Format),
		ContentType: contentType,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) render(ctx context.Context, reportType models.ReportType, params models.ReportJobParams) ([]byte, error) {
	var dataset export.Dataset
	var title string
	var meta [][2]string
	var err error

	switch reportType {
	case models.ReportTypeLogbook:
		dataset, title, meta, err = s.buildLogbookDataset(ctx, params)
	case models.ReportTypeAttendance:
		dataset, title, meta, err = s.buildAttendanceDataset(ctx, params)
	default:
		err = fmt.Errorf("unsupported report type %s", reportType)
	}
	if err != nil {
		return nil, err
	}

	switch params.Format {
	case models.ReportFormatXLSX, "":
		return s.excel.Render(dataset, title, meta)
	case models.ReportFormatCSV:
		return s.csv.Render(dataset)
	case models.ReportFormatPDF:
		return s.pdf.Render(dataset, title)
	default:
		return nil, fmt.Errorf("unsupported format %s", params.Format)
	}
}

func (s *ExportService) buildLogbookDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, [][2]string, error) {
	filter := models.TransactionFilter{
		Student:   params.Student,
		Sport:     params.Sport,
		Equipment: params.Equipment,
		Status:    models.TransactionStatus(params.Status),
		PageSize:  exportPageSize,
	}
	filter.StartDate, filter.EndDate = parseDateRange(params)

	if _, err := s.transactions.SweepOverdue(ctx, "", time.Now().UTC()); err != nil {
		return export.Dataset{}, "", nil, err
	}

	var entries []models.LogbookEntry
	for page := 1; len(entries) < exportMaxRows; page++ {
		filter.Page = page
		batch, total, err := s.transactions.Logbook(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", nil, err
		}
		entries = append(entries, batch...)
		if len(entries) >= total || len(batch) == 0 {
			break
		}
	}

	headers := []string{"Student", "Roll Number", "Sport", "Equipment", "Quantity", "Status", "Taken At", "Due Date", "Returned At", "Notes"}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"Student":     entry.StudentName,
			"Roll Number": entry.RollNumber,
			"Sport":       entry.Sport,
			"Equipment":   entry.Equipment,
			"Quantity":    fmt.Sprintf("%d", entry.Quantity),
			"Status":      string(entry.Status),
			"Taken At":    formatExportTime(entry.TakenAt),
			"Due Date":    entry.DueDate.UTC().Format("2006-01-02"),
			"Returned At": formatExportTime(entry.ReturnedAt),
			"Notes":       derefString(entry.Notes),
		})
	}

	meta := buildExportMeta(params, len(rows))
	return export.Dataset{Headers: headers, Rows: rows}, "Equipment Logbook", meta, nil
}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, [][2]string, error) {
	filter := models.AttendanceFilter{
		Sport:    params.Sport,
		PageSize: exportPageSize,
	}
	if date := parseExportDate(params.Date); date != nil {
		filter.Date = date
	}
	filter.StartDate, filter.EndDate = parseDateRange(params)

	var records []models.AttendanceRecord
	for page := 1; len(records) < exportMaxRows; page++ {
		filter.Page = page
		batch, total, err := s.attendance.List(ctx, filter)
		if err != nil {
			return export.Dataset{}, "", nil, err
		}
		records = append(records, batch...)
		if len(records) >= total || len(batch) == 0 {
			break
		}
	}

	headers := []string{"Student", "Roll Number", "Sport", "Date", "Status", "Marked By Role"}
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Student":        record.StudentName,
			"Roll Number":    record.RollNumber,
			"Sport":          record.Sport,
			"Date":           record.Date.UTC().Format("2006-01-02"),
			"Status":         string(record.Status),
			"Marked By Role": string(record.MarkedByRole),
		})
	}

	meta := buildExportMeta(params, len(rows))
	return export.Dataset{Headers: headers, Rows: rows}, "Attendance Register", meta, nil
}

func (s *ExportService) buildFilename(reportType models.ReportType, format models.ReportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	if format == "" {
		format = models.ReportFormatXLSX
	}
	return fmt.Sprintf("%s_%s.%s", reportType, timestamp, format)
}

func buildExportMeta(params models.ReportJobParams, rowCount int) [][2]string {
	meta := [][2]string{
		{"Generated At", time.Now().UTC().Format(time.RFC3339)},
		{"Total Rows", fmt.Sprintf("%d", rowCount)},
	}
	if params.Sport != "" {
		meta = append(meta, [2]string{"Sport", params.Sport})
	}
	if params.Student != "" {
		meta = append(meta, [2]string{"Student", params.Student})
	}
	if params.Equipment != "" {
		meta = append(meta, [2]string{"Equipment", params.Equipment})
	}
	if params.Status != "" {
		meta = append(meta, [2]string{"Status", params.Status})
	}
	if params.Date != "" {
		meta = append(meta, [2]string{"Date", params.Date})
	}
	if params.StartDate != "" {
		meta = append(meta, [2]string{"From", params.StartDate})
	}
	if params.EndDate != "" {
		meta = append(meta, [2]string{"To", params.EndDate})
	}
	return meta
}

func parseDateRange(params models.ReportJobParams) (*time.Time, *time.Time) {
	return parseExportDate(params.StartDate), parseExportDate(params.EndDate)
}

func parseExportDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
