package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

const applicationColumns = `id, tutor_request_id, tutor_id, cover_letter, proposed_rate, status, admin_notes, created_at, updated_at`

// ApplicationRepository persists tutor applications. The table holds at most
// one row per (request, tutor).
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// FindByPair returns the application of tutorID on requestID or sql.ErrNoRows.
func (r *ApplicationRepository) FindByPair(ctx context.Context, requestID, tutorID string) (*models.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE tutor_request_id = $1 AND tutor_id = $2`
	return r.get(ctx, query, requestID, tutorID)
}

// FindByID loads an application scoped to its request.
func (r *ApplicationRepository) FindByID(ctx context.Context, requestID, id string) (*models.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 AND tutor_request_id = $2`
	return r.get(ctx, query, id, requestID)
}

func (r *ApplicationRepository) get(ctx context.Context, query string, args ...interface{}) (*models.Application, error) {
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

// ListByRequest returns every application on a request, oldest first.
func (r *ApplicationRepository) ListByRequest(ctx context.Context, requestID string) ([]models.Application, error) {
	const query = `SELECT ` + applicationColumns + ` FROM applications WHERE tutor_request_id = $1 ORDER BY created_at ASC`
	var apps []models.Application
	if err := r.db.SelectContext(ctx, &apps, query, requestID); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// Create inserts a pending application. A concurrent insert for the same pair
// yields ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	app.Status = models.ApplicationPending
	app.CreatedAt = now
	app.UpdatedAt = now

	const query = `INSERT INTO applications (` + applicationColumns + `) VALUES (:id, :tutor_request_id, :tutor_id, :cover_letter, :proposed_rate, :status, :admin_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// Reactivate turns a withdrawn application back into a pending one with the
// new cover letter and rate. ErrStatusChanged if it was not withdrawn.
func (r *ApplicationRepository) Reactivate(ctx context.Context, app *models.Application) error {
	app.Status = models.ApplicationPending
	app.AdminNotes = nil
	app.UpdatedAt = time.Now().UTC()

	const query = `UPDATE applications SET status = $1, cover_letter = $2, proposed_rate = $3, admin_notes = NULL, updated_at = $4 WHERE id = $5 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, app.Status, app.CoverLetter, app.ProposedRate, app.UpdatedAt, app.ID, models.ApplicationWithdrawn)
	if err != nil {
		return fmt.Errorf("reactivate application: %w", err)
	}
	if err := expectAffected(result, "reactivate application"); err != nil {
		if err == sql.ErrNoRows {
			return ErrStatusChanged
		}
		return err
	}
	return nil
}

// UpdateStatus moves an application from one status to another, replacing
// admin notes when given. ErrStatusChanged when the row moved underneath.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, from, to models.ApplicationStatus, adminNotes *string) error {
	const query = `UPDATE applications SET status = $1, admin_notes = COALESCE($2, admin_notes), updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, to, adminNotes, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if err := expectAffected(result, "update application status"); err != nil {
		if err == sql.ErrNoRows {
			return ErrStatusChanged
		}
		return err
	}
	return nil
}
