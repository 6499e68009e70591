package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/models"
	"github.com/noah-isme/tuition-match-api/pkg/response"
)

type applicationService interface {
	Apply(ctx context.Context, requestID string, req dto.ApplyForJobRequest, actor *models.JWTClaims) (*models.Application, error)
	Check(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.Application, error)
	Reset(ctx context.Context, requestID string, req dto.ResetApplicationRequest, actor *models.JWTClaims) (*models.Application, error)
	ListForRequest(ctx context.Context, requestID string, actor *models.JWTClaims) ([]models.Application, error)
	Review(ctx context.Context, requestID, applicationID string, req dto.ReviewApplicationRequest, actor *models.JWTClaims) (*models.Application, error)
}

// TuitionJobHandler serves the tutor self-service application endpoints.
// A tuition job is an Active tutor request seen from the tutor's side.
type TuitionJobHandler struct {
	service applicationService
}

// NewTuitionJobHandler constructs the handler.
func NewTuitionJobHandler(svc applicationService) *TuitionJobHandler {
	return &TuitionJobHandler{service: svc}
}

// Apply godoc
// @Summary Apply for a tuition job
// @Tags TuitionJobs
// @Accept json
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param payload body dto.ApplyForJobRequest false "Cover letter"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tuition-jobs/{id}/apply [post]
func (h *TuitionJobHandler) Apply(c *gin.Context) {
	var req dto.ApplyForJobRequest
	if err := bindJSON(c, &req, true); err != nil {
		response.Error(c, err)
		return
	}
	app, err := h.service.Apply(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Application submitted successfully", app)
}

// Check godoc
// @Summary Check own application
// @Description data is null when the tutor has not applied
// @Tags TuitionJobs
// @Produce json
// @Param id path string true "Tutor request ID"
// @Success 200 {object} response.Envelope
// @Router /tuition-jobs/{id}/check-application [get]
func (h *TuitionJobHandler) Check(c *gin.Context) {
	app, err := h.service.Check(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if app == nil {
		response.JSON(c, http.StatusOK, nil, nil)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Reset godoc
// @Summary Reset application
// @Description Withdraws an application so the tutor may apply again
// @Tags TuitionJobs
// @Accept json
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param payload body dto.ResetApplicationRequest false "Tutor to reset (staff only)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tuition-jobs/{id}/reset-application [post]
func (h *TuitionJobHandler) Reset(c *gin.Context) {
	var req dto.ResetApplicationRequest
	if err := bindJSON(c, &req, true); err != nil {
		response.Error(c, err)
		return
	}
	app, err := h.service.Reset(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Application reset successfully", app)
}

// ListApplications godoc
// @Summary List applications for a job
// @Tags TuitionJobs
// @Produce json
// @Param id path string true "Tutor request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tuition-jobs/{id}/applications [get]
func (h *TuitionJobHandler) ListApplications(c *gin.Context) {
	apps, err := h.service.ListForRequest(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, nil)
}

// Review godoc
// @Summary Review application
// @Description Approve or reject; rejections require adminNotes
// @Tags TuitionJobs
// @Accept json
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param applicationId path string true "Application ID"
// @Param payload body dto.ReviewApplicationRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tuition-jobs/{id}/applications/{applicationId} [patch]
func (h *TuitionJobHandler) Review(c *gin.Context) {
	var req dto.ReviewApplicationRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	app, err := h.service.Review(c.Request.Context(), c.Param("id"), c.Param("applicationId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Application "+app.Status.String(), app)
}
