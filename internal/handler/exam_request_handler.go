package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-request-workflow/internal/dto"
	"github.com/noah-isme/sma-request-workflow/internal/models"
	appErrors "github.com/noah-isme/sma-request-workflow/pkg/errors"
	"github.com/noah-isme/sma-request-workflow/pkg/response"
)

type examRequestService interface {
	Create(ctx context.Context, req dto.CreateExamRequest, actor *models.JWTClaims) (*models.ExamRequest, error)
	Act(ctx context.Context, id string, req dto.ActRequest, actor *models.JWTClaims) (*models.ExamRequest, error)
	List(ctx context.Context, query dto.ExamRequestQuery, actor *models.JWTClaims) ([]models.ExamRequest, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ExamRequest, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.RequestTransition, error)
}

// ExamRequestHandler exposes REST endpoints for exam-access requests.
type ExamRequestHandler struct {
	service examRequestService
}

// NewExamRequestHandler constructs the handler.
func NewExamRequestHandler(service examRequestService) *ExamRequestHandler {
	return &ExamRequestHandler{service: service}
}

// Create godoc
// @Summary Request access to an exam sitting
// @Tags ExamRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateExamRequest true "Exam request payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /exam-requests [post]
func (h *ExamRequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid exam request payload"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List exam requests visible to the caller
// @Tags ExamRequests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param all query bool false "Admins: include every status"
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /exam-requests [get]
func (h *ExamRequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, offset, err := paging(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.ExamRequestQuery{Limit: limit, Offset: offset}
	for _, s := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.ExamRequestStatus(s))
	}
	if raw := strings.TrimSpace(c.Query("all")); raw != "" {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "all must be true or false"))
			return
		}
		query.All = all
	}
	items, page, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, page)
}

// Get godoc
// @Summary Get exam request detail
// @Tags ExamRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exam-requests/{id} [get]
func (h *ExamRequestHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// History godoc
// @Summary List the transitions of an exam request
// @Tags ExamRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /exam-requests/{id}/history [get]
func (h *ExamRequestHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.History(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Act godoc
// @Summary Forward, approve or deny an exam request
// @Tags ExamRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ActRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /exam-requests/{id} [patch]
func (h *ExamRequestHandler) Act(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ActRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid action payload"))
		return
	}
	record, err := h.service.Act(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
