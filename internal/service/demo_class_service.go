package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

type demoClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.DemoClass, error)
	List(ctx context.Context, filter models.DemoClassFilter) ([]models.DemoClass, int, error)
	Update(ctx context.Context, demo *models.DemoClass, expected models.DemoClassStatus) error
	Delete(ctx context.Context, id string) error
}

// DemoClassService administers demo classes independently of assignments.
type DemoClassService struct {
	repo      demoClassRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDemoClassService constructs the service.
func NewDemoClassService(repo demoClassRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DemoClassService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DemoClassService{repo: repo, metrics: metrics, validator: validate, logger: logger}
}

// List returns demo classes for staff.
func (s *DemoClassService) List(ctx context.Context, query dto.DemoClassQuery, actor *models.JWTClaims) ([]models.DemoClass, *models.Pagination, error) {
	if err := requireStaff(actor); err != nil {
		return nil, nil, err
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+status.String())
		}
	}
	filter := models.DemoClassFilter{
		Status:    query.Status,
		TutorID:   query.TutorID,
		StudentID: query.StudentID,
		Page:      query.Page,
		PageSize:  query.Limit,
	}
	demos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list demo classes")
	}
	if demos == nil {
		demos = []models.DemoClass{}
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return demos, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single demo class.
func (s *DemoClassService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.DemoClass, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	demo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "demo class")
	}
	return demo, nil
}

// Update edits status, schedule or admin notes. Once a demo is completed,
// rejected or cancelled only its notes may change.
func (s *DemoClassService) Update(ctx context.Context, id string, req dto.UpdateDemoClassRequest, actor *models.JWTClaims) (*models.DemoClass, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationFailed(err)
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+req.Status.String())
	}

	demo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "demo class")
	}
	current := demo.Status

	if req.Status != nil && *req.Status != current {
		if !models.CanTransitionDemoClass(current, *req.Status) {
			return nil, appErrors.Transition("demo class", current, *req.Status)
		}
		demo.Status = *req.Status
	}
	if req.ChangesSchedule() {
		if current.Terminal() {
			return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, fmt.Sprintf("demo class is %s and can no longer be rescheduled", current))
		}
		if req.RequestedDate != nil {
			demo.RequestedDate = req.RequestedDate.UTC()
		}
		if req.Duration != nil {
			demo.DurationMinutes = *req.Duration
		}
	}
	if req.AdminNotes != nil {
		notes := *req.AdminNotes
		demo.AdminNotes = &notes
	}

	if err := s.repo.Update(ctx, demo, current); err != nil {
		return nil, writeError(err, "demo class")
	}
	if demo.Status != current {
		s.metrics.RecordTransition("demo_class", current, demo.Status)
		s.logger.Info("demo class status changed", zap.String("demo_class_id", id), zap.String("from", current.String()), zap.String("to", demo.Status.String()))
	}
	return demo, nil
}

// Delete hard-deletes a demo class. Assignments linked to it keep a NULL link.
func (s *DemoClassService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "demo class")
	}
	s.logger.Info("demo class deleted", zap.String("demo_class_id", id), zap.String("user_id", actor.UserID))
	return nil
}
