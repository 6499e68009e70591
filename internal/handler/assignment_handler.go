package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-match-api/internal/middleware"
	"github.com/noah-isme/tuition-match-api/internal/service"
	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/export"
	"github.com/noah-isme/tuition-match-api/pkg/models"
	"github.com/noah-isme/tuition-match-api/pkg/response"
)

type assignmentService interface {
	ListAssignments(ctx context.Context, requestID string, actor *models.JWTClaims) ([]models.TutorAssignmentDetail, bool, error)
	AssignTutor(ctx context.Context, requestID string, req dto.AssignTutorRequest, actor *models.JWTClaims) (*dto.AssignTutorResponse, error)
	UpdateAssignmentStatus(ctx context.Context, requestID, assignmentID string, req dto.UpdateAssignmentStatusRequest, actor *models.JWTClaims) (*models.TutorAssignment, error)
	DeleteAssignment(ctx context.Context, requestID, assignmentID string, actor *models.JWTClaims) error
	ExportAssignments(ctx context.Context, requestID string, format export.Format, actor *models.JWTClaims) (*service.ExportResult, error)
}

// AssignmentHandler serves tutor assignment endpoints nested under a request.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Param id path string true "Tutor request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/{id}/assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	items, hit, err := h.service.ListAssignments(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// Assign godoc
// @Summary Assign tutor
// @Description Assigns a tutor and optionally books a demo class in one transaction
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param payload body dto.AssignTutorRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/{id}/assign [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req dto.AssignTutorRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.AssignTutor(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	msg := "Tutor assigned successfully"
	if result.DemoClass != nil {
		msg = "Tutor assigned and demo class scheduled successfully"
	}
	response.Created(c, msg, result)
}

// UpdateStatus godoc
// @Summary Update assignment status
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/{id}/assignments/{assignmentId} [patch]
func (h *AssignmentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateAssignmentStatusRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	updated, err := h.service.UpdateAssignmentStatus(c.Request.Context(), c.Param("id"), c.Param("assignmentId"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Assignment "+updated.Status.String(), updated)
}

// Delete godoc
// @Summary Delete assignment
// @Description Removes the assignment; a linked demo class is kept
// @Tags Assignments
// @Produce json
// @Param id path string true "Tutor request ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tutor-requests/{id}/assignments/{assignmentId} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteAssignment(c.Request.Context(), c.Param("id"), c.Param("assignmentId"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Assignment deleted successfully", nil)
}

// Export godoc
// @Summary Export assignments
// @Description Match sheet of a request's assignments as CSV or PDF
// @Tags Assignments
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Tutor request ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tutor-requests/{id}/assignments/export [get]
func (h *AssignmentHandler) Export(c *gin.Context) {
	format := export.Format(strings.ToLower(c.DefaultQuery("format", string(export.FormatCSV))))
	result, err := h.service.ExportAssignments(c.Request.Context(), c.Param("id"), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
