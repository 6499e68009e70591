package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/internal/repository"
	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

type requestFinder interface {
	FindByID(ctx context.Context, id string) (*models.TutorRequest, error)
}

type applicationRepository interface {
	FindByPair(ctx context.Context, requestID, tutorID string) (*models.Application, error)
	FindByID(ctx context.Context, requestID, id string) (*models.Application, error)
	ListByRequest(ctx context.Context, requestID string) ([]models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	Reactivate(ctx context.Context, app *models.Application) error
	UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, adminNotes *string) error
}

// ApplicationService runs the tutor self-service application workflow.
type ApplicationService struct {
	requests  requestFinder
	repo      applicationRepository
	notifier  notifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApplicationService constructs the service.
func NewApplicationService(requests requestFinder, repo applicationRepository, notifier notifier, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ApplicationService{requests: requests, repo: repo, notifier: notifier, metrics: metrics, validator: validate, logger: logger}
}

func requireTutor(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if actor.Role != models.RoleTutor {
		return appErrors.Clone(appErrors.ErrForbidden, "only tutors can apply for tuition jobs")
	}
	return nil
}

// Apply records the tutor's interest in an Active request. A withdrawn
// application is reactivated in place; any other existing one is a duplicate.
func (s *ApplicationService) Apply(ctx context.Context, requestID string, req dto.ApplyForJobRequest, actor *models.JWTClaims) (*models.Application, error) {
	if err := requireTutor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationFailed(err)
	}
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, lookupError(err, "tuition job")
	}
	if request.Status != models.TutorRequestActive {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this tuition job is not accepting applications")
	}

	existing, err := s.repo.FindByPair(ctx, requestID, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to check application")
	}

	if existing != nil {
		if existing.Status != models.ApplicationWithdrawn {
			return nil, appErrors.ErrDuplicateApplication
		}
		existing.CoverLetter = req.CoverLetter
		existing.ProposedRate = req.ProposedRate
		if err := s.repo.Reactivate(ctx, existing); err != nil {
			if errors.Is(err, repository.ErrStatusChanged) {
				return nil, appErrors.ErrDuplicateApplication
			}
			return nil, appErrors.Internal(err, "failed to re-apply")
		}
		s.metrics.RecordTransition("application", models.ApplicationWithdrawn, models.ApplicationPending)
		s.logger.Info("application reactivated", zap.String("request_id", requestID), zap.String("tutor_id", actor.UserID))
		return existing, nil
	}

	app := &models.Application{
		TutorRequestID: requestID,
		TutorID:        actor.UserID,
		CoverLetter:    req.CoverLetter,
		ProposedRate:   req.ProposedRate,
	}
	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.ErrDuplicateApplication
		}
		return nil, appErrors.Internal(err, "failed to apply")
	}
	s.logger.Info("application submitted", zap.String("request_id", requestID), zap.String("tutor_id", actor.UserID))
	return app, nil
}

// Check returns the tutor's application on requestID, or nil when there is
// none. Absence is not an error.
func (s *ApplicationService) Check(ctx context.Context, requestID string, actor *models.JWTClaims) (*models.Application, error) {
	if err := requireTutor(actor); err != nil {
		return nil, err
	}
	app, err := s.repo.FindByPair(ctx, requestID, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Internal(err, "failed to check application")
	}
	return app, nil
}

// Reset withdraws an application so the tutor can apply again. Tutors reset
// their own; staff name the tutor. Resetting a withdrawn application succeeds
// without change.
func (s *ApplicationService) Reset(ctx context.Context, requestID string, req dto.ResetApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	tutorID := actor.UserID
	switch {
	case actor.IsStaff():
		tutorID = strings.TrimSpace(req.TutorID)
		if tutorID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "tutorId is required")
		}
	case actor.Role != models.RoleTutor:
		return nil, appErrors.ErrForbidden
	case req.TutorID != "" && req.TutorID != actor.UserID:
		return nil, appErrors.ErrForbidden
	}

	app, err := s.repo.FindByPair(ctx, requestID, tutorID)
	if err != nil {
		return nil, lookupError(err, "application")
	}
	if app.Status == models.ApplicationWithdrawn {
		return app, nil
	}
	if err := s.repo.UpdateStatus(ctx, app.ID, app.Status, models.ApplicationWithdrawn, nil); err != nil {
		return nil, writeError(err, "application")
	}
	s.metrics.RecordTransition("application", app.Status, models.ApplicationWithdrawn)
	app.Status = models.ApplicationWithdrawn
	s.logger.Info("application reset", zap.String("request_id", requestID), zap.String("tutor_id", tutorID), zap.String("by", actor.UserID))
	return app, nil
}

// ListForRequest returns every application on a request for staff review.
func (s *ApplicationService) ListForRequest(ctx context.Context, requestID string, actor *models.JWTClaims) ([]models.Application, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		return nil, lookupError(err, "tuition job")
	}
	apps, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list applications")
	}
	if apps == nil {
		apps = []models.Application{}
	}
	return apps, nil
}

// Review approves or rejects an application. Rejections need admin notes.
func (s *ApplicationService) Review(ctx context.Context, requestID, applicationID string, req dto.ReviewApplicationRequest, actor *models.JWTClaims) (*models.Application, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationFailed(err)
	}
	notes := strings.TrimSpace(req.AdminNotes)
	if req.Status == models.ApplicationRejected && notes == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "adminNotes is required when rejecting an application")
	}

	app, err := s.repo.FindByID(ctx, requestID, applicationID)
	if err != nil {
		return nil, lookupError(err, "application")
	}
	if !models.CanTransitionApplication(app.Status, req.Status) {
		return nil, appErrors.Transition("application", app.Status, req.Status)
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}
	from := app.Status
	if err := s.repo.UpdateStatus(ctx, app.ID, from, req.Status, notesPtr); err != nil {
		return nil, writeError(err, "application")
	}
	app.Status = req.Status
	if notesPtr != nil {
		app.AdminNotes = notesPtr
	}
	s.metrics.RecordTransition("application", from, req.Status)
	s.notifier.Notify(models.Notification{
		Kind:      models.NotifyApplicationReview,
		Channel:   models.ChannelEmail,
		UserID:    app.TutorID,
		Subject:   "Your application was " + req.Status.String(),
		Body:      fmt.Sprintf("Your application for tuition job %s was %s.", requestID, req.Status),
		RequestID: requestID,
	})
	return app, nil
}
