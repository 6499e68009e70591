package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tuition-match-api/pkg/database"
	"github.com/noah-isme/tuition-match-api/pkg/dto"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/export"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

type assignmentRequestRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutorRequest, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TutorRequest, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.TutorRequestStatus) error
}

type tutorAssignmentRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.TutorAssignmentDetail, error)
	FindByID(ctx context.Context, requestID, id string) (*models.TutorAssignment, error)
	FindActiveByPair(ctx context.Context, exec sqlx.ExtContext, requestID, tutorID string) (*models.TutorAssignment, error)
	HasTutor(ctx context.Context, requestID, tutorID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.TutorAssignment) error
	Reset(ctx context.Context, exec sqlx.ExtContext, assignment *models.TutorAssignment) error
	UpdateStatus(ctx context.Context, id string, from, to models.AssignmentStatus, notes *string) error
	Delete(ctx context.Context, requestID, id string) error
}

type demoClassCreator interface {
	Create(ctx context.Context, exec sqlx.ExtContext, demo *models.DemoClass) error
}

type notifier interface {
	Notify(notifications ...models.Notification)
}

type noopNotifier struct{}

func (noopNotifier) Notify(...models.Notification) {}

// AssignmentConfig toggles optional assignment features.
type AssignmentConfig struct {
	ExportsEnabled bool
	CacheTTL       time.Duration
}

// AssignmentService pairs tutors with requests and books demo classes.
type AssignmentService struct {
	tx          database.TxRunner
	requests    assignmentRequestRepository
	assignments tutorAssignmentRepository
	demos       demoClassCreator
	users       userDirectory
	cache       *CacheService
	notifier    notifier
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         AssignmentConfig
}

// NewAssignmentService constructs the service.
func NewAssignmentService(
	tx database.TxRunner,
	requests assignmentRequestRepository,
	assignments tutorAssignmentRepository,
	demos demoClassCreator,
	users userDirectory,
	cache *CacheService,
	notifier notifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AssignmentConfig,
) *AssignmentService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &AssignmentService{
		tx:          tx,
		requests:    requests,
		assignments: assignments,
		demos:       demos,
		users:       users,
		cache:       cache,
		notifier:    notifier,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
	}
}

// AssignTutor pairs a tutor with a request. The assignment, the optional demo
// class and the request's move to Assign commit together or not at all. An
// existing pending or accepted assignment for the same tutor is reset instead
// of duplicated.
func (s *AssignmentService) AssignTutor(ctx context.Context, requestID string, req dto.AssignTutorRequest, actor *models.JWTClaims) (*dto.AssignTutorResponse, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationFailed(err)
	}
	if _, err := lookupTutor(ctx, s.users, req.TutorID); err != nil {
		return nil, err
	}

	var (
		result  dto.AssignTutorResponse
		request *models.TutorRequest
		moved   bool
	)
	err := s.tx(ctx, func(exec sqlx.ExtContext) error {
		var err error
		request, err = s.requests.LockByID(ctx, exec, requestID)
		if err != nil {
			return lookupError(err, "tutor request")
		}
		if request.Status != models.TutorRequestActive && request.Status != models.TutorRequestAssign {
			return appErrors.Clone(appErrors.ErrInvalidStateTransition, fmt.Sprintf("cannot assign tutors to a request that is %s", request.Status))
		}

		existing, err := s.assignments.FindActiveByPair(ctx, exec, requestID, req.TutorID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Internal(err, "failed to check existing assignment")
		}

		if req.WantsDemo() {
			demo := newDemoClass(request, req)
			if err := s.demos.Create(ctx, exec, demo); err != nil {
				return appErrors.Internal(err, "failed to create demo class")
			}
			result.DemoClass = demo
		}

		assignment := existing
		if assignment == nil {
			assignment = &models.TutorAssignment{TutorRequestID: requestID, TutorID: req.TutorID}
		}
		assignment.AssignedBy = actor.UserID
		assignment.Notes = req.Notes
		if result.DemoClass != nil {
			assignment.DemoClassID = &result.DemoClass.ID
		}

		if existing != nil {
			err = s.assignments.Reset(ctx, exec, assignment)
		} else {
			err = s.assignments.Create(ctx, exec, assignment)
		}
		if err != nil {
			return appErrors.Internal(err, "failed to save assignment")
		}
		result.Assignment = assignment
		result.Reassigned = existing != nil

		if request.Status == models.TutorRequestActive {
			if err := s.requests.UpdateStatus(ctx, exec, requestID, models.TutorRequestActive, models.TutorRequestAssign); err != nil {
				return writeError(err, "tutor request")
			}
			moved = true
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	if moved {
		s.metrics.RecordTransition("tutor_request", models.TutorRequestActive, models.TutorRequestAssign)
	}
	s.metrics.RecordAssignment(result.DemoClass != nil)
	s.cache.ForgetAssignmentLists(ctx, requestID)
	s.notifier.Notify(assignmentNotifications(request, result, req)...)
	s.logger.Info("tutor assigned",
		zap.String("request_id", requestID),
		zap.String("tutor_id", req.TutorID),
		zap.String("assignment_id", result.Assignment.ID),
		zap.Bool("reassigned", result.Reassigned),
		zap.Bool("demo_created", result.DemoClass != nil),
	)
	return &result, nil
}

func newDemoClass(request *models.TutorRequest, req dto.AssignTutorRequest) *models.DemoClass {
	opts := req.DemoClass
	duration := opts.Duration
	if duration == 0 {
		duration = dto.DefaultDemoDuration
	}
	subject := strings.TrimSpace(opts.Subject)
	if subject == "" {
		subject = strings.Join(request.Subjects, ", ")
	}
	requestID := request.ID
	return &models.DemoClass{
		TutorRequestID:  &requestID,
		StudentID:       request.StudentID,
		TutorID:         req.TutorID,
		Subject:         subject,
		RequestedDate:   opts.RequestedDate.UTC(),
		DurationMinutes: duration,
		Status:          models.DemoPending,
		StudentNotes:    nonEmpty(opts.StudentNotes),
		TutorNotes:      nonEmpty(opts.TutorNotes),
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func assignmentNotifications(request *models.TutorRequest, result dto.AssignTutorResponse, req dto.AssignTutorRequest) []models.Notification {
	subject := "You have been assigned a tuition job"
	body := fmt.Sprintf("You were assigned to the %s request in %s, %s.", strings.Join(request.Subjects, ", "), request.Area, request.District)
	if result.DemoClass != nil {
		body += fmt.Sprintf(" A demo class is requested for %s (%d minutes).", result.DemoClass.RequestedDate.Format(time.RFC1123), result.DemoClass.DurationMinutes)
	}

	var channels []models.NotificationChannel
	if req.EmailEnabled() {
		channels = append(channels, models.ChannelEmail)
	}
	if req.SMSEnabled() {
		channels = append(channels, models.ChannelSMS)
	}

	var out []models.Notification
	for _, ch := range channels {
		out = append(out, models.Notification{
			Kind: models.NotifyTutorAssigned, Channel: ch, UserID: req.TutorID,
			Subject: subject, Body: body, RequestID: request.ID,
		})
		if request.StudentID != nil {
			kind := models.NotifyTutorAssigned
			studentBody := "A tutor has been assigned to your request."
			if result.DemoClass != nil {
				kind = models.NotifyDemoScheduled
				studentBody += " A demo class has been scheduled."
			}
			out = append(out, models.Notification{
				Kind: kind, Channel: ch, UserID: *request.StudentID,
				Subject: "Your tutor request has been matched", Body: studentBody, RequestID: request.ID,
			})
		}
	}
	return out
}

// ListAssignments returns a request's assignments to staff, the owner or an
// assigned tutor. Results are cached per request; hit reports whether the
// cache answered.
func (s *AssignmentService) ListAssignments(ctx context.Context, requestID string, actor *models.JWTClaims) (items []models.TutorAssignmentDetail, hit bool, err error) {
	if err := requireActor(actor); err != nil {
		return nil, false, err
	}
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, false, lookupError(err, "tutor request")
	}
	fullView := actor.IsStaff() || request.OwnedBy(actor.UserID)
	if !fullView {
		assigned, err := s.assignments.HasTutor(ctx, requestID, actor.UserID)
		if err != nil {
			return nil, false, appErrors.Internal(err, "failed to check assignment")
		}
		if !assigned {
			return nil, false, appErrors.ErrForbidden
		}
	}

	if cached, ok := s.cache.AssignmentList(ctx, requestID); ok {
		if !fullView {
			cached = hideOtherTutorsContact(cached, actor.UserID)
		}
		return cached, true, nil
	}

	items, err = s.assignments.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list assignments")
	}
	if items == nil {
		items = []models.TutorAssignmentDetail{}
	}
	s.cache.StoreAssignmentList(ctx, requestID, items, s.cfg.CacheTTL)
	if !fullView {
		items = hideOtherTutorsContact(items, actor.UserID)
	}
	return items, false, nil
}

// hideOtherTutorsContact returns a copy of items in which only tutorID's own
// row keeps its email.
func hideOtherTutorsContact(items []models.TutorAssignmentDetail, tutorID string) []models.TutorAssignmentDetail {
	out := make([]models.TutorAssignmentDetail, len(items))
	for i, item := range items {
		if item.TutorID != tutorID {
			item.TutorEmail = nil
		}
		out[i] = item
	}
	return out
}

// UpdateAssignmentStatus moves an assignment through its table. The assigned
// tutor may answer a pending assignment; everything else needs staff.
func (s *AssignmentService) UpdateAssignmentStatus(ctx context.Context, requestID, assignmentID string, req dto.UpdateAssignmentStatusRequest, actor *models.JWTClaims) (*models.TutorAssignment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationFailed(err)
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+req.Status.String())
	}

	assignment, err := s.assignments.FindByID(ctx, requestID, assignmentID)
	if err != nil {
		return nil, lookupError(err, "assignment")
	}
	staff := actor.IsStaff()
	assignedTutor := actor.Is(assignment.TutorID)
	if !staff && !assignedTutor {
		return nil, appErrors.ErrForbidden
	}
	if !models.CanTransitionAssignment(assignment.Status, req.Status) {
		return nil, appErrors.Transition("assignment", assignment.Status, req.Status)
	}
	if !models.AssignmentTransitionAllowed(assignment.Status, req.Status, staff, assignedTutor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can move an assignment to "+req.Status.String())
	}

	from := assignment.Status
	if err := s.assignments.UpdateStatus(ctx, assignmentID, from, req.Status, req.Notes); err != nil {
		return nil, writeError(err, "assignment")
	}
	assignment.Status = req.Status
	if req.Notes != nil {
		assignment.Notes = req.Notes
	}
	assignment.UpdatedAt = time.Now().UTC()

	s.metrics.RecordTransition("assignment", from, req.Status)
	s.cache.ForgetAssignmentLists(ctx, requestID)
	if assignment.AssignedBy != "" && !actor.Is(assignment.AssignedBy) {
		s.notifier.Notify(models.Notification{
			Kind:      models.NotifyAssignmentUpdated,
			Channel:   models.ChannelEmail,
			UserID:    assignment.AssignedBy,
			Subject:   "Assignment " + req.Status.String(),
			Body:      fmt.Sprintf("Assignment %s moved from %s to %s.", assignment.ID, from, req.Status),
			RequestID: requestID,
		})
	}
	return assignment, nil
}

// DeleteAssignment hard-deletes an assignment. A linked demo class survives.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, requestID, assignmentID string, actor *models.JWTClaims) error {
	if err := requireStaff(actor); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, requestID, assignmentID); err != nil {
		return writeError(err, "assignment")
	}
	s.cache.ForgetAssignmentLists(ctx, requestID)
	return nil
}

// ExportResult is a rendered match sheet.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportAssignments renders a request's assignments as CSV or PDF.
func (s *AssignmentService) ExportAssignments(ctx context.Context, requestID string, format export.Format, actor *models.JWTClaims) (*ExportResult, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if !s.cfg.ExportsEnabled {
		return nil, appErrors.ErrFeatureDisabled
	}
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of [csv pdf]")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, lookupError(err, "tutor request")
	}
	items, err := s.assignments.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}

	body, err := export.Render(matchSheet(request, items), format)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("assignments-%s.%s", requestID, format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func matchSheet(request *models.TutorRequest, items []models.TutorAssignmentDetail) export.Dataset {
	headers := []string{"Assignment", "Tutor", "Email", "Status", "Assigned By", "Assigned At", "Demo Class", "Notes"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"Assignment":  item.ID,
			"Tutor":       deref(item.TutorName, item.TutorID),
			"Email":       deref(item.TutorEmail, ""),
			"Status":      item.Status.String(),
			"Assigned By": item.AssignedBy,
			"Assigned At": item.AssignedAt.UTC().Format(time.RFC3339),
			"Demo Class":  deref(item.DemoClassID, ""),
			"Notes":       deref(item.Notes, ""),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Assignments for %s (%s, %s)", strings.Join(request.Subjects, ", "), request.Area, request.District),
		Headers: headers,
		Rows:    rows,
	}
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
