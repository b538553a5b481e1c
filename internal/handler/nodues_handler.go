package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
	"github.com/campussports/sportsdesk-api/pkg/response"
)

// NoDuesHandler wires the clearance endpoints.
type NoDuesHandler struct {
	service *service.NoDuesService
}

// NewNoDuesHandler creates a new handler.
func NewNoDuesHandler(svc *service.NoDuesService) *NoDuesHandler {
	return &NoDuesHandler{service: svc}
}

// Status godoc
// @Summary No-dues status
// @Description Report whether the target student has any equipment outstanding
// @Tags NoDues
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/no-dues [get]
func (h *NoDuesHandler) Status(c *gin.Context) {
	studentID, err := h.resolveStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	status, err := h.service.Status(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Certificate godoc
// @Summary No-dues certificate
// @Description Download a PDF clearance certificate; refused while equipment is outstanding
// @Tags NoDues
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/no-dues/certificate [get]
func (h *NoDuesHandler) Certificate(c *gin.Context) {
	studentID, err := h.resolveStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	cert, err := h.service.Certificate(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+cert.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", cert.Data)
}

// resolveStudentID allows students to act on themselves only; staff may name
// any student.
func (h *NoDuesHandler) resolveStudentID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	target := c.Param("id")
	if claims.Role == models.RoleStudent {
		if target != "" && target != claims.UserID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "students may only access their own clearance")
		}
		return claims.UserID, nil
	}
	if target == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	return target, nil
}
