package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
	"github.com/campussports/sportsdesk-api/pkg/response"
)

// CoachHandler wires coach management and roster endpoints.
type CoachHandler struct {
	service *service.CoachService
}

// NewCoachHandler creates a new handler.
func NewCoachHandler(svc *service.CoachService) *CoachHandler {
	return &CoachHandler{service: svc}
}

// Create godoc
// @Summary Register a coach
// @Tags Coaches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateCoachInput true "Coach payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /coaches [post]
func (h *CoachHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	var input models.CreateCoachInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coach payload"))
		return
	}

	coach, err := h.service.Create(c.Request.Context(), claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, coach)
}

// Update godoc
// @Summary Update a coach
// @Tags Coaches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coach ID"
// @Param payload body models.UpdateCoachInput true "Coach payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /coaches/{id} [put]
func (h *CoachHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	var input models.UpdateCoachInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coach payload"))
		return
	}

	coach, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coach, nil)
}

// Delete godoc
// @Summary Remove a coach
// @Tags Coaches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coach ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /coaches/{id} [delete]
func (h *CoachHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List coaches
// @Tags Coaches
// @Produce json
// @Security BearerAuth
// @Param sport query string false "Sport"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /coaches [get]
func (h *CoachHandler) List(c *gin.Context) {
	page, pageSize := parsePagination(c)
	filter := models.CoachFilter{
		Sport:    c.Query("sport"),
		Page:     page,
		PageSize: pageSize,
	}

	coaches, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, coaches, pagination)
}

// Roster godoc
// @Summary List students
// @Description List students visible to the caller; coaches see their own sport
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param sport query string false "Sport (admin only)"
// @Param search query string false "Name, roll number or email search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *CoachHandler) Roster(c *gin.Context) {
	claims := claimsFromContext(c)
	page, pageSize := parsePagination(c)
	filter := models.StudentFilter{
		Sport:    c.Query("sport"),
		Search:   c.Query("search"),
		Page:     page,
		PageSize: pageSize,
	}

	students, pagination, err := h.service.Roster(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Sports godoc
// @Summary List sports
// @Description Distinct sports coaches are assigned to
// @Tags Coaches
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /sports [get]
func (h *CoachHandler) Sports(c *gin.Context) {
	sports, err := h.service.Sports(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sports, nil)
}
