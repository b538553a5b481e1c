package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
	"github.com/campussports/sportsdesk-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate via identity provider
// @Description Exchange a Microsoft access token for an application session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ProviderLoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.ProviderLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.LoginWithProvider(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// VerifyRole godoc
// @Summary Complete staff login
// @Description Verify the account password for Coach or Admin logins
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.VerifyRoleRequest true "Verification payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/verify-role [post]
func (h *AuthHandler) VerifyRole(c *gin.Context) {
	var req models.VerifyRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid verification payload"))
		return
	}

	res, err := h.service.VerifyRole(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Current session
// @Description Return the claims behind the presented token
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user := models.AuthUser{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
		Sport: claims.Sport,
	}
	response.JSON(c, http.StatusOK, user, nil)
}
