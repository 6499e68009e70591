package client

import (
	"context"
	"net/http"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// TuitionJobs is the tutor's view of open requests.
type TuitionJobs struct {
	c *Client
}

// Apply submits an application. A second application surfaces as
// ErrDuplicateApplication even when CheckApplication said none existed.
func (s *TuitionJobs) Apply(ctx context.Context, requestID string, req dto.ApplyForJobRequest) (*models.Application, error) {
	if err := requireID("requestId", requestID); err != nil {
		return nil, err
	}
	if err := localValidation(s.c.validator.Struct(req)); err != nil {
		return nil, err
	}
	var out models.Application
	if _, err := s.c.do(ctx, call{method: http.MethodPost, path: "/tuition-jobs/" + escape(requestID) + "/apply", body: req, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckApplication returns the caller's application, or nil when there is
// none.
func (s *TuitionJobs) CheckApplication(ctx context.Context, requestID string) (*models.Application, error) {
	if err := requireID("requestId", requestID); err != nil {
		return nil, err
	}
	var out *models.Application
	if _, err := s.c.do(ctx, call{method: http.MethodGet, path: "/tuition-jobs/" + escape(requestID) + "/check-application", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetApplication withdraws an application so Apply works again. Tutors
// leave tutorID empty; admins name the tutor.
func (s *TuitionJobs) ResetApplication(ctx context.Context, requestID, tutorID string) (*models.Application, error) {
	if err := requireID("requestId", requestID); err != nil {
		return nil, err
	}
	var out models.Application
	body := dto.ResetApplicationRequest{TutorID: tutorID}
	if _, err := s.c.do(ctx, call{method: http.MethodPost, path: "/tuition-jobs/" + escape(requestID) + "/reset-application", body: body, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
