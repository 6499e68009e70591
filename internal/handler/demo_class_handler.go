package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/models"
	"github.com/noah-isme/tuition-match-api/pkg/response"
)

type demoClassService interface {
	List(ctx context.Context, query dto.DemoClassQuery, actor *models.JWTClaims) ([]models.DemoClass, *models.Pagination, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.DemoClass, error)
	Update(ctx context.Context, id string, req dto.UpdateDemoClassRequest, actor *models.JWTClaims) (*models.DemoClass, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
}

// DemoClassHandler serves admin demo class endpoints.
type DemoClassHandler struct {
	service demoClassService
}

// NewDemoClassHandler constructs the handler.
func NewDemoClassHandler(svc demoClassService) *DemoClassHandler {
	return &DemoClassHandler{service: svc}
}

// List godoc
// @Summary List demo classes
// @Tags DemoClasses
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param tutorId query string false "Tutor ID"
// @Param studentId query string false "Student ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /demo-classes [get]
func (h *DemoClassHandler) List(c *gin.Context) {
	query := dto.DemoClassQuery{
		TutorID:   c.Query("tutorId"),
		StudentID: c.Query("studentId"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	}
	for _, s := range queryList(c, "status") {
		query.Status = append(query.Status, models.DemoClassStatus(s))
	}
	items, pagination, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get demo class
// @Tags DemoClasses
// @Produce json
// @Param id path string true "Demo class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /demo-classes/{id} [get]
func (h *DemoClassHandler) Get(c *gin.Context) {
	demo, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demo, nil)
}

// Update godoc
// @Summary Update demo class
// @Description Terminal demo classes accept admin_notes edits only
// @Tags DemoClasses
// @Accept json
// @Produce json
// @Param id path string true "Demo class ID"
// @Param payload body dto.UpdateDemoClassRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /demo-classes/{id} [put]
func (h *DemoClassHandler) Update(c *gin.Context) {
	var req dto.UpdateDemoClassRequest
	if err := bindJSON(c, &req, false); err != nil {
		response.Error(c, err)
		return
	}
	demo, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Demo class updated successfully", demo)
}

// Delete godoc
// @Summary Delete demo class
// @Tags DemoClasses
// @Produce json
// @Param id path string true "Demo class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /demo-classes/{id} [delete]
func (h *DemoClassHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Demo class deleted successfully", nil)
}
