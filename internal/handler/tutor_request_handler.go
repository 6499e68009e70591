package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/models"
	"github.com/noah-isme/tuition-match-api/pkg/response"
)

type tutorRequestService interface {
	Create(ctx context.Context, req dto.CreateTutorRequestRequest, actor *models.JWTClaims) (*models.TutorRequest, error)
	CreatePublic(ctx context.Context, req dto.CreateTutorRequestRequest, preferredTutorID string) (*models.TutorRequest, error)
	List(ctx context.Context, query dto.TutorRequestQuery, actor *models.JWTClaims) ([]models.TutorRequest, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.TutorRequest, error)
	Update(ctx context.Context, id string, req dto.UpdateTutorRequestRequest, actor *models.JWTClaims) (*models.TutorRequest, error)
	UpdateStatus(ctx context.Context, id string, req dto.UpdateTutorRequestStatusRequest, actor *models.JWTClaims) (*models.TutorRequest, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// TutorRequestHandler serves the request lifecycle endpoints.
type TutorRequestHandler struct {
	service tutorRequestService
}

// NewTutorRequestHandler constructs the handler.
func NewTutorRequestHandler(svc tutorRequestService) *TutorRequestHandler {
	return &TutorRequestHandler{service: svc}
}

// Create godoc
// @Summary Create tutor request
// @Description Create a tutor request as a logged-in student or staff member
// @Tags TutorRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateTutorRequestRequest true "Tutor request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /tutor-requests [post]
func (h *TutorRequestHandler) Create(c *gin.Context) {
	var req dto.CreateTutorRequestRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	created, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Tutor request created successfully", created)
}

// CreatePublic godoc
// @Summary Create public tutor request
// @Description Anonymous intake; contact details are required. The tutorId path variant records a preferred tutor.
// @Tags TutorRequests
// @Accept json
// @Produce json
// @Param tutorId path string false "Preferred tutor ID"
// @Param payload body dto.CreateTutorRequestRequest true "Tutor request"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/public [post]
// @Router /tutor-requests/public/from-tutor/{tutorId} [post]
func (h *TutorRequestHandler) CreatePublic(c *gin.Context) {
	var req dto.CreateTutorRequestRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	created, err := h.service.CreatePublic(c.Request.Context(), req, c.Param("tutorId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Tutor request submitted successfully", created)
}

// List godoc
// @Summary List tutor requests
// @Description Staff see every request, students their own, tutors open jobs
// @Tags TutorRequests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param subject query string false "Subject"
// @Param district query string false "District"
// @Param area query string false "Area"
// @Param search query string false "Search term"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /tutor-requests [get]
func (h *TutorRequestHandler) List(c *gin.Context) {
	query := dto.TutorRequestQuery{
		Subject:  c.Query("subject"),
		District: c.Query("district"),
		Area:     c.Query("area"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	}
	for _, s := range queryList(c, "status") {
		query.Status = append(query.Status, models.TutorRequestStatus(s))
	}

	items, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get tutor request
// @Tags TutorRequests
// @Produce json
// @Param id path string true "Tutor request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/{id} [get]
func (h *TutorRequestHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Update godoc
// @Summary Update tutor request
// @Description Partial update; empty strings clear adminNote and updateNotice
// @Tags TutorRequests
// @Accept json
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param payload body dto.UpdateTutorRequestRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/{id} [put]
func (h *TutorRequestHandler) Update(c *gin.Context) {
	var req dto.UpdateTutorRequestRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Tutor request updated successfully", updated)
}

// UpdateStatus godoc
// @Summary Update tutor request status
// @Tags TutorRequests
// @Accept json
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param payload body dto.UpdateTutorRequestStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tutor-requests/{id}/status [patch]
func (h *TutorRequestHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateTutorRequestStatusRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Tutor request status updated to "+updated.Status.String(), updated)
}

// Delete godoc
// @Summary Delete tutor request
// @Tags TutorRequests
// @Produce json
// @Param id path string true "Tutor request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/{id} [delete]
func (h *TutorRequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Tutor request deleted successfully", nil)
}
