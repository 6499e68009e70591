package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tuition-match-api/internal/service"
	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/export"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

type assignmentServiceMock struct {
	hit        bool
	lastAssign dto.AssignTutorRequest
	lastFormat export.Format
	updateErr  error
}

func (m *assignmentServiceMock) ListAssignments(ctx context.Context, requestID string, actor *models.JWTClaims) ([]models.TutorAssignmentDetail, bool, error) {
	return []models.TutorAssignmentDetail{}, m.hit, nil
}

func (m *assignmentServiceMock) AssignTutor(ctx context.Context, requestID string, req dto.AssignTutorRequest, actor *models.JWTClaims) (*dto.AssignTutorResponse, error) {
	m.lastAssign = req
	resp := &dto.AssignTutorResponse{Assignment: &models.TutorAssignment{ID: "a-1", TutorID: req.TutorID}}
	if req.WantsDemo() {
		resp.DemoClass = &models.DemoClass{ID: "d-1"}
	}
	return resp, nil
}

func (m *assignmentServiceMock) UpdateAssignmentStatus(ctx context.Context, requestID, assignmentID string, req dto.UpdateAssignmentStatusRequest, actor *models.JWTClaims) (*models.TutorAssignment, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &models.TutorAssignment{ID: assignmentID, Status: req.Status}, nil
}

func (m *assignmentServiceMock) DeleteAssignment(ctx context.Context, requestID, assignmentID string, actor *models.JWTClaims) error {
	return nil
}

func (m *assignmentServiceMock) ExportAssignments(ctx context.Context, requestID string, format export.Format, actor *models.JWTClaims) (*service.ExportResult, error) {
	m.lastFormat = format
	return &service.ExportResult{Filename: "assignments-" + requestID + ".csv", ContentType: "text/csv", Body: []byte("a,b\n")}, nil
}

func TestAssignmentHandlerAssignWithDemo(t *testing.T) {
	mockSvc := &assignmentServiceMock{}
	h := NewAssignmentHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/tutor-requests/req-1/assign", `{"tutorId":"tutor-1","demoClass":{"createDemo":true,"requestedDate":"2026-11-01T10:00:00Z"},"sendSMSNotification":false}`, adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	h.Assign(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Tutor assigned and demo class scheduled successfully", decodeEnvelope(t, w)["message"])
	assert.True(t, mockSvc.lastAssign.EmailEnabled())
	assert.False(t, mockSvc.lastAssign.SMSEnabled())
}

func TestAssignmentHandlerListReportsCacheHit(t *testing.T) {
	h := NewAssignmentHandler(&assignmentServiceMock{hit: true})
	c, w := newTestContext(http.MethodGet, "/tutor-requests/req-1/assignments", "", adminClaims)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	meta, ok := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, meta["cache_hit"])
}

func TestAssignmentHandlerInvalidTransition(t *testing.T) {
	h := NewAssignmentHandler(&assignmentServiceMock{updateErr: appErrors.Transition("assignment", models.AssignmentCompleted, models.AssignmentAccepted)})
	c, w := newTestContext(http.MethodPatch, "/tutor-requests/req-1/assignments/a-1", `{"status":"accepted"}`, adminClaims)
	h.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody, _ := decodeEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, appErrors.CodeInvalidState, errBody["code"])
}

func TestAssignmentHandlerExport(t *testing.T) {
	mockSvc := &assignmentServiceMock{}
	h := NewAssignmentHandler(mockSvc)
	c, w := newTestContext(http.MethodGet, "/tutor-requests/req-1/assignments/export?format=CSV", "", adminClaims)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.FormatCSV, mockSvc.lastFormat)
	assert.Equal(t, `attachment; filename="assignments-req-1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}

type applicationServiceMock struct {
	existing  *models.Application
	applyErr  error
	lastReset dto.ResetApplicationRequest
}

func (m *applicationServiceMock) Apply(ctx context.Context, requestID string, req dto.ApplyForJobRequest, actor *models.JWTClaims) (*models.Application, error) {
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	return &models.Application{ID: "app-1", Status: models.ApplicationPending}, nil
}

func (m *applicationServiceMock) Check(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.Application, error) {
	return m.existing, nil
}

func (m *applicationServiceMock) Reset(ctx context.Context, requestID string, req dto.ResetApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	m.lastReset = req
	return &models.Application{ID: "app-1", Status: models.ApplicationWithdrawn}, nil
}

func (m *applicationServiceMock) ListForRequest(ctx context.Context, requestID string, actor *models.JWTClaims) ([]models.Application, error) {
	return []models.Application{}, nil
}

func (m *applicationServiceMock) Review(ctx context.Context, requestID, applicationID string, req dto.ReviewApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	return &models.Application{ID: applicationID, Status: req.Status}, nil
}

func TestTuitionJobHandlerApplyWithoutBody(t *testing.T) {
	h := NewTuitionJobHandler(&applicationServiceMock{})
	c, w := newTestContext(http.MethodPost, "/tuition-jobs/req-1/apply", "", tutorClaims)
	h.Apply(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTuitionJobHandlerDuplicateApply(t *testing.T) {
	h := NewTuitionJobHandler(&applicationServiceMock{applyErr: appErrors.ErrDuplicateApplication})
	c, w := newTestContext(http.MethodPost, "/tuition-jobs/req-1/apply", "", tutorClaims)
	h.Apply(c)

	require.Equal(t, http.StatusConflict, w.Code)
	errBody, _ := decodeEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, appErrors.CodeDuplicate, errBody["code"])
}

func TestTuitionJobHandlerCheckReturnsNullData(t *testing.T) {
	h := NewTuitionJobHandler(&applicationServiceMock{})
	c, w := newTestContext(http.MethodGet, "/tuition-jobs/req-1/check-application", "", tutorClaims)
	h.Check(c)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeEnvelope(t, w)
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])
}

func TestTuitionJobHandlerResetByStaff(t *testing.T) {
	mockSvc := &applicationServiceMock{}
	h := NewTuitionJobHandler(mockSvc)
	c, w := newTestContext(http.MethodPost, "/tuition-jobs/req-1/reset-application", `{"tutorId":"tutor-1"}`, adminClaims)
	h.Reset(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tutor-1", mockSvc.lastReset.TutorID)
}

type demoClassServiceMock struct {
	lastQuery dto.DemoClassQuery
	updateErr error
}

func (m *demoClassServiceMock) List(ctx context.Context, query dto.DemoClassQuery, actor *models.JWTClaims) ([]models.DemoClass, *models.Pagination, error) {
	m.lastQuery = query
	return []models.DemoClass{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (m *demoClassServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.DemoClass, error) {
	return &models.DemoClass{ID: id}, nil
}

func (m *demoClassServiceMock) Update(ctx context.Context, id string, req dto.UpdateDemoClassRequest, actor *models.JWTClaims) (*models.DemoClass, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &models.DemoClass{ID: id}, nil
}

func (m *demoClassServiceMock) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	return nil
}

func TestDemoClassHandlerListFilters(t *testing.T) {
	mockSvc := &demoClassServiceMock{}
	h := NewDemoClassHandler(mockSvc)
	c, w := newTestContext(http.MethodGet, "/demo-classes?status=pending,accepted&tutorId=tutor-1", "", adminClaims)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.DemoClassStatus{models.DemoPending, models.DemoAccepted}, mockSvc.lastQuery.Status)
	assert.Equal(t, "tutor-1", mockSvc.lastQuery.TutorID)
}

func TestDemoClassHandlerTerminalUpdate(t *testing.T) {
	h := NewDemoClassHandler(&demoClassServiceMock{updateErr: appErrors.Transition("demo class", models.DemoCompleted, models.DemoCancelled)})
	c, w := newTestContext(http.MethodPut, "/demo-classes/d-1", `{"status":"cancelled"}`, adminClaims)
	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
