package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-request-workflow/internal/dto"
	"github.com/noah-isme/sma-request-workflow/internal/models"
	appErrors "github.com/noah-isme/sma-request-workflow/pkg/errors"
	"github.com/noah-isme/sma-request-workflow/pkg/response"
)

type lessonRequestService interface {
	Create(ctx context.Context, req dto.CreateLessonRequest, actor *models.JWTClaims) (*models.LessonRequest, error)
	Act(ctx context.Context, id string, req dto.ActRequest, actor *models.JWTClaims) (*models.LessonRequest, error)
	List(ctx context.Context, query dto.LessonRequestQuery, actor *models.JWTClaims) ([]models.LessonRequest, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LessonRequest, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.RequestTransition, error)
}

// LessonRequestHandler exposes REST endpoints for tutoring session requests.
type LessonRequestHandler struct {
	service lessonRequestService
}

// NewLessonRequestHandler constructs the handler.
func NewLessonRequestHandler(service lessonRequestService) *LessonRequestHandler {
	return &LessonRequestHandler{service: service}
}

// Create godoc
// @Summary Request a tutoring session
// @Tags LessonRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateLessonRequest true "Lesson request payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /lesson-requests [post]
func (h *LessonRequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid lesson request payload"))
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
// @Summary List lesson requests visible to the caller
// @Tags LessonRequests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size (max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /lesson-requests [get]
func (h *LessonRequestHandler) List(c *gin.Context) {
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
	query := dto.LessonRequestQuery{Limit: limit, Offset: offset}
	for _, s := range splitStatuses(c.Query("status")) {
		query.Status = append(query.Status, models.LessonRequestStatus(s))
	}
	items, page, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, page)
}

// Get godoc
// @Summary Get lesson request detail
// @Tags LessonRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /lesson-requests/{id} [get]
func (h *LessonRequestHandler) Get(c *gin.Context) {
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
// @Summary List the transitions of a lesson request
// @Tags LessonRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /lesson-requests/{id}/history [get]
func (h *LessonRequestHandler) History(c *gin.Context) {
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
// @Summary Confirm, reject or complete a lesson request
// @Tags LessonRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ActRequest true "Decision; zoomLink is required to confirm"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /lesson-requests/{id} [patch]
func (h *LessonRequestHandler) Act(c *gin.Context) {
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
