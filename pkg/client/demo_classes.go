package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// DemoClasses covers admin demo class endpoints.
type DemoClasses struct {
	c     *Client
	lists Sequencer
}

// DemoClassQuery filters DemoClasses.List.
type DemoClassQuery struct {
	Status    []models.DemoClassStatus
	TutorID   string
	StudentID string
	Page      int
	Limit     int
}

func (q DemoClassQuery) values() url.Values {
	v := url.Values{}
	if len(q.Status) > 0 {
		parts := make([]string, len(q.Status))
		for i, s := range q.Status {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	setIf(v, "tutorId", q.TutorID)
	setIf(v, "studentId", q.StudentID)
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// List returns demo classes.
func (s *DemoClasses) List(ctx context.Context, q DemoClassQuery) (*Page[models.DemoClass], error) {
	var items []models.DemoClass
	res, err := s.c.do(ctx, call{method: http.MethodGet, path: "/demo-classes", query: q.values(), out: &items})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.DemoClass{}
	}
	return &Page[models.DemoClass]{Items: items, Pagination: res.Pagination}, nil
}

// ListLatest is List with last-request-wins ordering, like
// TutorRequests.ListLatest.
func (s *DemoClasses) ListLatest(ctx context.Context, q DemoClassQuery) (*Page[models.DemoClass], error) {
	return Latest(ctx, &s.lists, func(ctx context.Context) (*Page[models.DemoClass], error) {
		return s.List(ctx, q)
	})
}

// Get fetches one demo class.
func (s *DemoClasses) Get(ctx context.Context, id string) (*models.DemoClass, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	var out models.DemoClass
	if _, err := s.c.do(ctx, call{method: http.MethodGet, path: "/demo-classes/" + escape(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits a demo class. current is the status the caller last saw; a
// terminal demo only accepts admin notes and is rejected locally otherwise.
func (s *DemoClasses) Update(ctx context.Context, id string, current models.DemoClassStatus, req dto.UpdateDemoClassRequest) (*models.DemoClass, error) {
	if err := requireID("id", id); err != nil {
		return nil, err
	}
	if err := checkDemoUpdate(current, req); err != nil {
		return nil, err
	}
	if err := localValidation(s.c.validator.Struct(req)); err != nil {
		return nil, err
	}
	var out models.DemoClass
	if _, err := s.c.do(ctx, call{method: http.MethodPut, path: "/demo-classes/" + escape(id), body: req, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateIn applies req optimistically to the demo held in store and
// reconciles with the server's answer.
func (s *DemoClasses) UpdateIn(ctx context.Context, store *Store[string, models.DemoClass], id string, req dto.UpdateDemoClassRequest) (models.DemoClass, error) {
	return Mutate(ctx, store, id, func(d models.DemoClass) models.DemoClass {
		if req.Status != nil {
			d.Status = *req.Status
		}
		if req.AdminNotes != nil {
			notes := *req.AdminNotes
			d.AdminNotes = &notes
		}
		if req.RequestedDate != nil {
			d.RequestedDate = *req.RequestedDate
		}
		if req.Duration != nil {
			d.DurationMinutes = *req.Duration
		}
		return d
	}, func(ctx context.Context, before models.DemoClass) (models.DemoClass, error) {
		out, err := s.Update(ctx, id, before.Status, req)
		if err != nil {
			return models.DemoClass{}, err
		}
		return *out, nil
	})
}

// Delete hard-deletes a demo class. confirmed must be true; the call is
// irreversible.
func (s *DemoClasses) Delete(ctx context.Context, id string, confirmed bool) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	if !confirmed {
		return validationError("deleting a demo class must be confirmed")
	}
	_, err := s.c.do(ctx, call{method: http.MethodDelete, path: "/demo-classes/" + escape(id)})
	return err
}

func checkDemoUpdate(current models.DemoClassStatus, req dto.UpdateDemoClassRequest) error {
	if current == "" {
		return nil
	}
	if req.Status != nil && *req.Status != current && !models.CanTransitionDemoClass(current, *req.Status) {
		return newError(KindInvalidState, 0, "INVALID_STATE_TRANSITION", "cannot move demo class from "+string(current)+" to "+string(*req.Status), nil)
	}
	if current.Terminal() && req.ChangesSchedule() {
		return newError(KindInvalidState, 0, "INVALID_STATE_TRANSITION", "demo class is "+string(current)+" and can no longer be rescheduled", nil)
	}
	return nil
}
