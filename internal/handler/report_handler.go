package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
	"github.com/campussports/sportsdesk-api/pkg/response"
)

// ReportHandler exposes background report jobs and synchronous exports.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Create godoc
// @Summary Queue a report
// @Description Queue a logbook or attendance export for background generation
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var req service.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report request"))
		return
	}

	job, err := h.reports.CreateJob(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	job, err := h.reports.GetStatus(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished report
// @Description Stream a finished export using its signed token
// @Tags Reports
// @Produce application/octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	contentType := "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	switch download.Format {
	case models.ReportFormatPDF:
		contentType = "application/pdf"
	case models.ReportFormatCSV:
		contentType = "text/csv"
	}
	c.Header("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
	c.Header("Content-Type", contentType)
	c.File(download.File.Name())
}

// ExportLogbook godoc
// @Summary Export the logbook
// @Description Render the filtered logbook as xlsx, CSV or PDF for immediate download
// @Tags Reports
// @Produce application/octet-stream
// @Security BearerAuth
// @Param format query string false "xlsx, csv or pdf"
// @Param sport query string false "Sport"
// @Param student query string false "Student name or roll number"
// @Param equipment query string false "Equipment"
// @Param status query string false "Status"
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /export/logbook [get]
func (h *ReportHandler) ExportLogbook(c *gin.Context) {
	h.exportSync(c, models.ReportTypeLogbook)
}

// ExportAttendance godoc
// @Summary Export the attendance register
// @Description Render the filtered register as xlsx, CSV or PDF for immediate download
// @Tags Reports
// @Produce application/octet-stream
// @Security BearerAuth
// @Param format query string false "xlsx, csv or pdf"
// @Param sport query string false "Sport"
// @Param date query string false "Exact day (YYYY-MM-DD)"
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /export/attendance [get]
func (h *ReportHandler) ExportAttendance(c *gin.Context) {
	h.exportSync(c, models.ReportTypeAttendance)
}

func (h *ReportHandler) exportSync(c *gin.Context, reportType models.ReportType) {
	claims := claimsFromContext(c)
	params := models.ReportJobParams{
		Format:    models.ReportFormat(c.DefaultQuery("format", "xlsx")),
		Sport:     c.Query("sport"),
		Student:   c.Query("student"),
		Equipment: c.Query("equipment"),
		Status:    c.Query("status"),
		Date:      c.Query("date"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	if claims.Role == models.RoleCoach {
		params.Sport = claims.Sport
	}
	switch params.Format {
	case models.ReportFormatXLSX, models.ReportFormatCSV, models.ReportFormatPDF:
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be xlsx, csv or pdf"))
		return
	}

	file, err := h.exports.RenderSync(c.Request.Context(), reportType, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
