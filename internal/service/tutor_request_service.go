package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

type tutorRequestRepository interface {
	Create(ctx context.Context, req *models.TutorRequest) error
	FindByID(ctx context.Context, id string) (*models.TutorRequest, error)
	List(ctx context.Context, filter models.TutorRequestFilter) ([]models.TutorRequest, int, error)
	Update(ctx context.Context, req *models.TutorRequest) error
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.TutorRequestStatus) error
	Delete(ctx context.Context, id string) error
}

type assignmentMembership interface {
	HasTutor(ctx context.Context, requestID, tutorID string) (bool, error)
}

// TutorRequestService owns tutor request CRUD and status transitions.
type TutorRequestService struct {
	repo      tutorRequestRepository
	members   assignmentMembership
	users     userDirectory
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutorRequestService constructs the service.
func NewTutorRequestService(repo tutorRequestRepository, members assignmentMembership, users userDirectory, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TutorRequestService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorRequestService{repo: repo, members: members, users: users, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Create stores a request posted by an authenticated student or staff member.
func (s *TutorRequestService) Create(ctx context.Context, req dto.CreateTutorRequestRequest, actor *models.JWTClaims) (*models.TutorRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleStudent && !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students and staff can post tutor requests")
	}
	if err := req.Validate(s.validator, false); err != nil {
		return nil, err
	}

	record := req.ToModel()
	if actor.Role == models.RoleStudent {
		studentID := actor.UserID
		record.StudentID = &studentID
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, writeError(err, "tutor request")
	}
	s.logger.Info("tutor request created", zap.String("request_id", record.ID), zap.String("user_id", actor.UserID))
	return record, nil
}

// CreatePublic stores an unauthenticated submission. preferredTutorID is set
// when the request was posted from a tutor's profile.
func (s *TutorRequestService) CreatePublic(ctx context.Context, req dto.CreateTutorRequestRequest, preferredTutorID string) (*models.TutorRequest, error) {
	if err := req.Validate(s.validator, true); err != nil {
		return nil, err
	}

	record := req.ToModel()
	if preferredTutorID != "" {
		if _, err := lookupTutor(ctx, s.users, preferredTutorID); err != nil {
			return nil, err
		}
		record.PreferredTutorID = &preferredTutorID
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, writeError(err, "tutor request")
	}
	s.logger.Info("public tutor request created", zap.String("request_id", record.ID), zap.Bool("from_tutor", preferredTutorID != ""))
	return record, nil
}

// List returns the requests visible to actor: staff see everything, students
// their own posts, tutors the Active job board.
func (s *TutorRequestService) List(ctx context.Context, query dto.TutorRequestQuery, actor *models.JWTClaims) ([]models.TutorRequest, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+status.String())
		}
	}

	filter := models.TutorRequestFilter{
		Status:   query.Status,
		Subject:  query.Subject,
		District: query.District,
		Area:     query.Area,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.Limit,
	}
	switch {
	case actor.IsStaff():
	case actor.Role == models.RoleStudent:
		filter.StudentID = actor.UserID
	case actor.Role == models.RoleTutor:
		filter.Status = []models.TutorRequestStatus{models.TutorRequestActive}
	default:
		return nil, nil, appErrors.ErrForbidden
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list tutor requests")
	}
	if items == nil {
		items = []models.TutorRequest{}
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single request when actor may see it.
func (s *TutorRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.TutorRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "tutor request")
	}
	if err := s.authorizeRead(ctx, record, actor); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *TutorRequestService) authorizeRead(ctx context.Context, record *models.TutorRequest, actor *models.JWTClaims) error {
	if actor.IsStaff() || record.OwnedBy(actor.UserID) {
		return nil
	}
	if actor.Role == models.RoleTutor {
		if record.Status == models.TutorRequestActive {
			return nil
		}
		assigned, err := s.members.HasTutor(ctx, record.ID, actor.UserID)
		if err != nil {
			return appErrors.Internal(err, "failed to check assignment")
		}
		if assigned {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

// Update applies a partial edit by the owner or staff. adminNote and
// updateNotice are staff-only.
func (s *TutorRequestService) Update(ctx context.Context, id string, req dto.UpdateTutorRequestRequest, actor *models.JWTClaims) (*models.TutorRequest, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationFailed(err)
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "tutor request")
	}
	if !actor.IsStaff() {
		if !record.OwnedBy(actor.UserID) {
			return nil, appErrors.ErrForbidden
		}
		if req.TouchesAdminFields() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "adminNote and updateNotice can only be set by staff")
		}
	}
	if err := req.Apply(record); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, writeError(err, "tutor request")
	}
	return record, nil
}

// UpdateStatus moves a request along its lifecycle. Staff only; Force skips
// the forward-only table.
func (s *TutorRequestService) UpdateStatus(ctx context.Context, id string, req dto.UpdateTutorRequestStatusRequest, actor *models.JWTClaims) (*models.TutorRequest, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationFailed(err)
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+req.Status.String())
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "tutor request")
	}
	if record.Status == req.Status {
		return record, nil
	}
	if !req.Force && !models.CanTransitionTutorRequest(record.Status, req.Status) {
		return nil, appErrors.Transition("tutor request", record.Status, req.Status)
	}
	if err := s.repo.UpdateStatus(ctx, nil, id, record.Status, req.Status); err != nil {
		return nil, writeError(err, "tutor request")
	}
	s.metrics.RecordTransition("tutor_request", record.Status, req.Status)
	s.logger.Info("tutor request status changed",
		zap.String("request_id", id),
		zap.String("from", record.Status.String()),
		zap.String("to", req.Status.String()),
		zap.Bool("forced", req.Force),
	)
	record.Status = req.Status
	return record, nil
}

// Delete removes a request owned by actor (or any, for staff) and drops its
// cached assignment list.
func (s *TutorRequestService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "tutor request")
	}
	if !actor.IsStaff() && !record.OwnedBy(actor.UserID) {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "tutor request")
	}
	s.cache.ForgetAssignmentLists(ctx, id)
	s.logger.Info("tutor request deleted", zap.String("request_id", id), zap.String("user_id", actor.UserID))
	return nil
}
