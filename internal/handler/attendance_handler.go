package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
	"github.com/campussports/sportsdesk-api/pkg/response"
)

// AttendanceHandler wires the attendance endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Mark godoc
// @Summary Mark attendance
// @Description Record or overwrite a student's attendance for a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.MarkAttendanceInput true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	var input models.MarkAttendanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	record, err := h.service.Mark(c.Request.Context(), claims, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary Attendance register
// @Description List attendance records with student details
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param sport query string false "Sport"
// @Param date query string false "Exact day (YYYY-MM-DD)"
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	page, pageSize := parsePagination(c)
	filter := models.AttendanceFilter{
		Sport:     c.Query("sport"),
		Date:      parseDateQuery(c, "date"),
		StartDate: parseDateQuery(c, "start_date"),
		EndDate:   parseDateQuery(c, "end_date"),
		Page:      page,
		PageSize:  pageSize,
	}

	records, pagination, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Stats godoc
// @Summary Attendance statistics
// @Description Aggregate present/absent counts for the filtered period
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param sport query string false "Sport"
// @Param date query string false "Exact day (YYYY-MM-DD)"
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	filter := models.AttendanceFilter{
		Sport:     c.Query("sport"),
		Date:      parseDateQuery(c, "date"),
		StartDate: parseDateQuery(c, "start_date"),
		EndDate:   parseDateQuery(c, "end_date"),
	}

	stats, err := h.service.Stats(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
