package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

const demoClassColumns = `id, tutor_request_id, student_id, tutor_id, subject, requested_date, duration_minutes, status, student_notes, tutor_notes, admin_notes, created_at, updated_at`

// DemoClassRepository persists demo classes.
type DemoClassRepository struct {
	db *sqlx.DB
}

// NewDemoClassRepository constructs the repository.
func NewDemoClassRepository(db *sqlx.DB) *DemoClassRepository {
	return &DemoClassRepository{db: db}
}

// Create inserts a pending demo class, usually inside the assignment transaction.
func (r *DemoClassRepository) Create(ctx context.Context, exec sqlx.ExtContext, demo *models.DemoClass) error {
	if demo.ID == "" {
		demo.ID = uuid.NewString()
	}
	if demo.Status == "" {
		demo.Status = models.DemoPending
	}
	now := time.Now().UTC()
	demo.CreatedAt = now
	demo.UpdatedAt = now

	const query = `INSERT INTO demo_classes (` + demoClassColumns + `) VALUES (:id, :tutor_request_id, :student_id, :tutor_id, :subject, :requested_date, :duration_minutes, :status, :student_notes, :tutor_notes, :admin_notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, pickExec(r.db, exec), query, demo); err != nil {
		return fmt.Errorf("insert demo class: %w", err)
	}
	return nil
}

// FindByID loads a demo class or returns sql.ErrNoRows.
func (r *DemoClassRepository) FindByID(ctx context.Context, id string) (*models.DemoClass, error) {
	const query = `SELECT ` + demoClassColumns + ` FROM demo_classes WHERE id = $1`
	var demo models.DemoClass
	if err := r.db.GetContext(ctx, &demo, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find demo class: %w", err)
	}
	return &demo, nil
}

// List returns demo classes matching filter with the total count.
func (r *DemoClassRepository) List(ctx context.Context, filter models.DemoClassFilter) ([]models.DemoClass, int, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.TutorID != "" {
		args = append(args, filter.TutorID)
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}

	where := "WHERE 1=1"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}
	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM demo_classes %s ORDER BY requested_date DESC LIMIT %d OFFSET %d", demoClassColumns, where, size, offset)

	var demos []models.DemoClass
	if err := r.db.SelectContext(ctx, &demos, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list demo classes: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM demo_classes "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count demo classes: %w", err)
	}
	return demos, total, nil
}

// Update writes the mutable fields of demo if its stored status still equals
// expected. ErrStatusChanged otherwise.
func (r *DemoClassRepository) Update(ctx context.Context, demo *models.DemoClass, expected models.DemoClassStatus) error {
	demo.UpdatedAt = time.Now().UTC()
	const query = `UPDATE demo_classes SET status = $1, requested_date = $2, duration_minutes = $3, admin_notes = $4, updated_at = $5 WHERE id = $6 AND status = $7`
	result, err := r.db.ExecContext(ctx, query, demo.Status, demo.RequestedDate, demo.DurationMinutes, demo.AdminNotes, demo.UpdatedAt, demo.ID, expected)
	if err != nil {
		return fmt.Errorf("update demo class: %w", err)
	}
	if err := expectAffected(result, "update demo class"); err != nil {
		if err == sql.ErrNoRows {
			return ErrStatusChanged
		}
		return err
	}
	return nil
}

// Delete hard-deletes a demo class; linked assignments keep a NULL link.
func (r *DemoClassRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM demo_classes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete demo class: %w", err)
	}
	return expectAffected(result, "delete demo class")
}
