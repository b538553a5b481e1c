package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campussports/sportsdesk-api/internal/models"
	"github.com/campussports/sportsdesk-api/internal/service"
	appErrors "github.com/campussports/sportsdesk-api/pkg/errors"
	"github.com/campussports/sportsdesk-api/pkg/response"
)

// TransactionHandler wires the equipment lifecycle endpoints.
type TransactionHandler struct {
	service *service.TransactionService
}

// NewTransactionHandler creates a new handler.
func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: svc}
}

// Request godoc
// @Summary Request equipment
// @Description Create a new borrow request for the calling student
// @Tags Equipment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.EquipmentRequestInput true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /equipment/requests [post]
func (h *TransactionHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	var input models.EquipmentRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid equipment request"))
		return
	}

	txn, err := h.service.Request(c.Request.Context(), claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, txn)
}

// Take godoc
// @Summary Mark equipment taken
// @Description Record that the student picked up a requested item
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id}/take [post]
func (h *TransactionHandler) Take(c *gin.Context) {
	claims := claimsFromContext(c)
	txn, err := h.service.MarkTaken(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txn, nil)
}

// Return godoc
// @Summary Mark equipment returned
// @Description Record that the student handed back a borrowed item, pending approval
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /equipment/{id}/return [post]
func (h *TransactionHandler) Return(c *gin.Context) {
	claims := claimsFromContext(c)
	txn, err := h.service.MarkReturned(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txn, nil)
}

// ListMine godoc
// @Summary List own transactions
// @Description List the calling student's equipment transactions
// @Tags Equipment
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /equipment/mine [get]
func (h *TransactionHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	page, pageSize := parsePagination(c)
	filter := models.TransactionFilter{
		Status:   models.TransactionStatus(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	}

	txns, pagination, err := h.service.ListMine(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txns, pagination)
}

// PendingReturns godoc
// @Summary List pending returns
// @Description List returns awaiting approval, scoped to the coach's sport
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /returns/pending [get]
func (h *TransactionHandler) PendingReturns(c *gin.Context) {
	claims := claimsFromContext(c)
	page, pageSize := parsePagination(c)

	entries, pagination, err := h.service.PendingReturns(c.Request.Context(), claims, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Approve godoc
// @Summary Approve a return
// @Description Accept a pending equipment return
// @Tags Returns
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /returns/{id}/approve [post]
func (h *TransactionHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	txn, err := h.service.ApproveReturn(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txn, nil)
}

// Reject godoc
// @Summary Reject a return
// @Description Reject a pending equipment return, optionally with a reason, reopening the loan
// @Tags Returns
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param payload body models.RejectReturnInput true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /returns/{id}/reject [post]
func (h *TransactionHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	var input models.RejectReturnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
		return
	}

	txn, err := h.service.RejectReturn(c.Request.Context(), c.Param("id"), claims, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txn, nil)
}

// Logbook godoc
// @Summary Equipment logbook
// @Description List all transactions with student details
// @Tags Logbook
// @Produce json
// @Security BearerAuth
// @Param student query string false "Student name or roll number"
// @Param sport query string false "Sport"
// @Param equipment query string false "Equipment"
// @Param status query string false "Status"
// @Param start_date query string false "From date (YYYY-MM-DD)"
// @Param end_date query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /logbook [get]
func (h *TransactionHandler) Logbook(c *gin.Context) {
	claims := claimsFromContext(c)
	page, pageSize := parsePagination(c)
	filter := models.TransactionFilter{
		Student:   c.Query("student"),
		Sport:     c.Query("sport"),
		Equipment: c.Query("equipment"),
		Status:    models.TransactionStatus(c.Query("status")),
		StartDate: parseDateQuery(c, "start_date"),
		EndDate:   parseDateQuery(c, "end_date"),
		Page:      page,
		PageSize:  pageSize,
	}

	entries, pagination, err := h.service.Logbook(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Facets godoc
// @Summary Logbook filter facets
// @Description Distinct sports, equipment types and statuses present in the logbook
// @Tags Logbook
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /logbook/facets [get]
func (h *TransactionHandler) Facets(c *gin.Context) {
	facets, err := h.service.Facets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, facets, nil)
}
