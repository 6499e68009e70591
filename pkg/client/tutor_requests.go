package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// TutorRequests covers request lifecycle and assignment endpoints.
type TutorRequests struct {
	c     *Client
	cache *AssignmentCache
	lists Sequencer
}

// ListQuery filters TutorRequests.List.
type ListQuery struct {
	Status   []models.TutorRequestStatus
	Subject  string
	District string
	Area     string
	Search   string
	Page     int
	Limit    int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if len(q.Status) > 0 {
		parts := make([]string, len(q.Status))
		for i, s := range q.Status {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	setIf(v, "subject", q.Subject)
	setIf(v, "district", q.District)
	setIf(v, "area", q.Area)
	setIf(v, "search", q.Search)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Page is one page of a list call.
type Page[T any] struct {
	Items      []T
	Pagination *models.Pagination
}

// Create posts a request as the signed-in user after validating it locally.
func (s *TutorRequests) Create(ctx context.Context, req dto.CreateTutorRequestRequest) (*models.TutorRequest, error) {
	if err := localValidation(req.Validate(s.c.validator, false)); err != nil {
		return nil, err
	}
	var out models.TutorRequest
	if _, err := s.c.do(ctx, call{method: http.MethodPost, path: "/tutor-requests", body: req, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePublic posts an anonymous request. preferredTutorID, when set, uses
// the from-tutor variant.
func (s *TutorRequests) CreatePublic(ctx context.Context, req dto.CreateTutorRequestRequest, preferredTutorID string) (*models.TutorRequest, error) {
	if err := localValidation(req.Validate(s.c.validator, true)); err != nil {
		return nil, err
	}
	path := "/tutor-requests/public"
	if preferredTutorID != "" {
		path += "/from-tutor/" + escape(preferredTutorID)
	}
	var out models.TutorRequest
	if _, err := s.c.do(ctx, call{method: http.MethodPost, path: path, body: req, out: &out, public: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the requests visible to the caller.
func (s *TutorRequests) List(ctx context.Context, q ListQuery) (*Page[models.TutorRequest], error) {
	var items []models.TutorRequest
	res, err := s.c.do(ctx, call{method: http.MethodGet, path: "/tutor-requests", query: q.values(), out: &items})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.TutorRequest{}
	}
	return &Page[models.TutorRequest]{Items: items, Pagination: res.Pagination}, nil
}

// ListLatest is List for filter-driven views: a call supersedes the previous
// ListLatest still in flight, which returns ErrStale.
func (s *TutorRequests) ListLatest(ctx context.Context, q ListQuery) (*Page[models.TutorRequest], error) {
	return Latest(ctx, &s.lists, func(ctx context.Context) (*Page[models.TutorRequest], error) {
		return s.List(ctx, q)
	})
}

// Get fetches a single request.
func (s *TutorRequests) Get(ctx context.Context, id string) (*models.TutorRequest, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	var out models.TutorRequest
	if _, err := s.c.do(ctx, call{method: http.MethodGet, path: "/tutor-requests/" + escape(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends a partial update. Pointer fields set to "" are sent as "".
func (s *TutorRequests) Update(ctx context.Context, id string, req dto.UpdateTutorRequestRequest) (*models.TutorRequest, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if err := localValidation(s.c.validator.Struct(req)); err != nil {
		return nil, err
	}
	var out models.TutorRequest
	if _, err := s.c.do(ctx, call{method: http.MethodPut, path: "/tutor-requests/" + escape(id), body: req, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus changes the lifecycle status. The server enforces roles; a
// non-admin caller gets an authorization error.
func (s *TutorRequests) UpdateStatus(ctx context.Context, id string, status models.TutorRequestStatus, force bool) (*models.TutorRequest, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, validationError("unknown status " + string(status))
	}
	var out models.TutorRequest
	body := dto.UpdateTutorRequestStatusRequest{Status: status, Force: force}
	if _, err := s.c.do(ctx, call{method: http.MethodPatch, path: "/tutor-requests/" + escape(id) + "/status", body: body, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a request and drops its cached assignment list.
func (s *TutorRequests) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if _, err := s.c.do(ctx, call{method: http.MethodDelete, path: "/tutor-requests/" + escape(id)}); err != nil {
		return err
	}
	s.cache.Invalidate(id)
	return nil
}

// Assignments lists a request's assignments, served from the local cache
// when fresh.
func (s *TutorRequests) Assignments(ctx context.Context, requestID string) ([]models.TutorAssignmentDetail, error) {
	if err := requireID("requestId", requestID); err != nil {
		return nil, err
	}
	if items, ok := s.cache.Get(requestID); ok {
		return items, nil
	}
	var items []models.TutorAssignmentDetail
	if _, err := s.c.do(ctx, call{method: http.MethodGet, path: "/tutor-requests/" + escape(requestID) + "/assignments", out: &items}); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.TutorAssignmentDetail{}
	}
	s.cache.Put(requestID, items)
	return items, nil
}

// AssignTutor pairs a tutor with the request, optionally booking a demo in
// the same server transaction. A network error here does not tell whether
// the server committed; check Assignments before retrying.
func (s *TutorRequests) AssignTutor(ctx context.Context, requestID string, req dto.AssignTutorRequest) (*dto.AssignTutorResponse, error) {
	if err := requireID("requestId", requestID); err != nil {
		return nil, err
	}
	if err := localValidation(s.c.validator.Struct(req)); err != nil {
		return nil, err
	}
	var out dto.AssignTutorResponse
	_, err := s.c.do(ctx, call{method: http.MethodPost, path: "/tutor-requests/" + escape(requestID) + "/assign", body: req, out: &out})
	s.cache.Invalidate(requestID)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAssignmentStatus moves an assignment. When current is known the
// transition table is checked before any network call.
func (s *TutorRequests) UpdateAssignmentStatus(ctx context.Context, requestID, assignmentID string, current models.AssignmentStatus, req dto.UpdateAssignmentStatusRequest) (*models.TutorAssignment, error) {
	if err := requireID("requestId", requestID); err != nil {
		return nil, err
	}
	if err := requireID("assignmentId", assignmentID); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, validationError("unknown status " + string(req.Status))
	}
	if current != "" && !models.CanTransitionAssignment(current, req.Status) {
		return nil, newError(KindInvalidState, 0, "INVALID_STATE_TRANSITION", "cannot move assignment from "+string(current)+" to "+string(req.Status), nil)
	}
	var out models.TutorAssignment
	path := "/tutor-requests/" + escape(requestID) + "/assignments/" + escape(assignmentID)
	if _, err := s.c.do(ctx, call{method: http.MethodPatch, path: path, body: req, out: &out}); err != nil {
		return nil, err
	}
	s.cache.Invalidate(requestID)
	return &out, nil
}

// DeleteAssignment removes an assignment. Its demo class stays.
func (s *TutorRequests) DeleteAssignment(ctx context.Context, requestID, assignmentID string) error {
	if err := requireID("requestId", requestID); err != nil {
		return err
	}
	if err := requireID("assignmentId", assignmentID); err != nil {
		return err
	}
	path := "/tutor-requests/" + escape(requestID) + "/assignments/" + escape(assignmentID)
	if _, err := s.c.do(ctx, call{method: http.MethodDelete, path: path}); err != nil {
		return err
	}
	s.cache.Invalidate(requestID)
	return nil
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return validationError(name + " is required")
	}
	return nil
}

// localValidation turns a server-side validation error into the client's
// ValidationError.
func localValidation(err error) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return newError(KindValidation, 0, appErr.Code, appErr.Message, nil)
	}
	if fe := dto.ValidationFailed(err); fe != nil {
		return newError(KindValidation, 0, fe.Code, fe.Message, nil)
	}
	return validationError(err.Error())
}
