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

const assignmentColumns = `id, tutor_request_id, tutor_id, status, assigned_by, assigned_at, updated_at, notes, demo_class_id`

// TutorAssignmentRepository persists admin-created tutor pairings.
type TutorAssignmentRepository struct {
	db *sqlx.DB
}

// NewTutorAssignmentRepository constructs the repository.
func NewTutorAssignmentRepository(db *sqlx.DB) *TutorAssignmentRepository {
	return &TutorAssignmentRepository{db: db}
}

// ListByRequest returns every assignment of a request, newest first, with the
// tutor's name and email when known.
func (r *TutorAssignmentRepository) ListByRequest(ctx context.Context, requestID string) ([]models.TutorAssignmentDetail, error) {
	const query = `SELECT ta.id, ta.tutor_request_id, ta.tutor_id, ta.status, ta.assigned_by, ta.assigned_at, ta.updated_at, ta.notes, ta.demo_class_id,
	u.full_name AS tutor_name, u.email AS tutor_email
FROM tutor_assignments ta
LEFT JOIN users u ON u.id = ta.tutor_id
WHERE ta.tutor_request_id = $1
ORDER BY ta.assigned_at DESC`
	var items []models.TutorAssignmentDetail
	if err := r.db.SelectContext(ctx, &items, query, requestID); err != nil {
		return nil, fmt.Errorf("list tutor assignments: %w", err)
	}
	return items, nil
}

// FindByID loads an assignment scoped to its request.
func (r *TutorAssignmentRepository) FindByID(ctx context.Context, requestID, id string) (*models.TutorAssignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM tutor_assignments WHERE id = $1 AND tutor_request_id = $2`
	var assignment models.TutorAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id, requestID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find tutor assignment: %w", err)
	}
	return &assignment, nil
}

// FindActiveByPair returns the pending or accepted assignment of tutorID on
// requestID, locking it when exec is a transaction. sql.ErrNoRows when none.
func (r *TutorAssignmentRepository) FindActiveByPair(ctx context.Context, exec sqlx.ExtContext, requestID, tutorID string) (*models.TutorAssignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM tutor_assignments
WHERE tutor_request_id = $1 AND tutor_id = $2 AND status IN ('pending', 'accepted')
ORDER BY assigned_at DESC LIMIT 1 FOR UPDATE`
	var assignment models.TutorAssignment
	if err := sqlx.GetContext(ctx, pickExec(r.db, exec), &assignment, query, requestID, tutorID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active tutor assignment: %w", err)
	}
	return &assignment, nil
}

// HasTutor reports whether tutorID holds any assignment on requestID.
func (r *TutorAssignmentRepository) HasTutor(ctx context.Context, requestID, tutorID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tutor_assignments WHERE tutor_request_id = $1 AND tutor_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, requestID, tutorID); err != nil {
		return false, fmt.Errorf("check tutor assignment: %w", err)
	}
	return exists, nil
}

// Create inserts a new pending assignment.
func (r *TutorAssignmentRepository) Create(ctx context.Context, exec sqlx.ExtContext, assignment *models.TutorAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.Status = models.AssignmentPending
	assignment.AssignedAt = now
	assignment.UpdatedAt = now

	const query = `INSERT INTO tutor_assignments (` + assignmentColumns + `) VALUES (:id, :tutor_request_id, :tutor_id, :status, :assigned_by, :assigned_at, :updated_at, :notes, :demo_class_id)`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, assignment); err != nil {
		return fmt.Errorf("insert tutor assignment: %w", err)
	}
	return nil
}

// Reset puts an existing assignment back to pending with fresh notes, assigner
// and demo link.
func (r *TutorAssignmentRepository) Reset(ctx context.Context, exec sqlx.ExtContext, assignment *models.TutorAssignment) error {
	now := time.Now().UTC()
	assignment.Status = models.AssignmentPending
	assignment.AssignedAt = now
	assignment.UpdatedAt = now

	const query = `UPDATE tutor_assignments SET status = :status, assigned_by = :assigned_by, assigned_at = :assigned_at, updated_at = :updated_at, notes = :notes, demo_class_id = :demo_class_id WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, assignment)
	if err != nil {
		return fmt.Errorf("reset tutor assignment: %w", err)
	}
	return expectAffected(result, "reset tutor assignment")
}

// UpdateStatus moves an assignment from one status to another, optionally
// replacing its notes. ErrStatusChanged when the row moved underneath.
func (r *TutorAssignmentRepository) UpdateStatus(ctx context.Context, id string, from, to models.AssignmentStatus, notes *string) error {
	const query = `UPDATE tutor_assignments SET status = $1, notes = COALESCE($2, notes), updated_at = $3 WHERE id = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, to, notes, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update tutor assignment status: %w", err)
	}
	if err := expectAffected(result, "update tutor assignment status"); err != nil {
		if err == sql.ErrNoRows {
			return ErrStatusChanged
		}
		return err
	}
	return nil
}

// Delete removes an assignment. The linked demo class is kept.
func (r *TutorAssignmentRepository) Delete(ctx context.Context, requestID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tutor_assignments WHERE id = $1 AND tutor_request_id = $2`, id, requestID)
	if err != nil {
		return fmt.Errorf("delete tutor assignment: %w", err)
	}
	return expectAffected(result, "delete tutor assignment")
}
