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

const tutorRequestColumns = `id, student_id, preferred_tutor_id, contact_name, contact_phone, contact_email, subjects, class_levels, district, area, salary_min, salary_max, medium, tutoring_type, student_count, days_per_week, preferred_time, extra_info, admin_note, update_notice, status, created_at, updated_at`

// TutorRequestRepository persists tutor requests.
type TutorRequestRepository struct {
	db *sqlx.DB
}

// NewTutorRequestRepository constructs the repository.
func NewTutorRequestRepository(db *sqlx.DB) *TutorRequestRepository {
	return &TutorRequestRepository{db: db}
}

// Create inserts a new request. ID, status and timestamps are filled in when empty.
func (r *TutorRequestRepository) Create(ctx context.Context, req *models.TutorRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.TutorRequestActive
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	const query = `INSERT INTO tutor_requests (` + tutorRequestColumns + `) VALUES (:id, :student_id, :preferred_tutor_id, :contact_name, :contact_phone, :contact_email, :subjects, :class_levels, :district, :area, :salary_min, :salary_max, :medium, :tutoring_type, :student_count, :days_per_week, :preferred_time, :extra_info, :admin_note, :update_notice, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert tutor request: %w", ErrMissingReference)
		}
		return fmt.Errorf("insert tutor request: %w", err)
	}
	return nil
}

// FindByID loads a request. sql.ErrNoRows is returned untouched.
func (r *TutorRequestRepository) FindByID(ctx context.Context, id string) (*models.TutorRequest, error) {
	return r.find(ctx, r.db, id, "")
}

// LockByID loads a request with a row lock inside exec's transaction.
func (r *TutorRequestRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.TutorRequest, error) {
	return r.find(ctx, pickExec(r.db, exec), id, " FOR UPDATE")
}

func (r *TutorRequestRepository) find(ctx context.Context, exec sqlx.ExtContext, id, suffix string) (*models.TutorRequest, error) {
	query := `SELECT ` + tutorRequestColumns + ` FROM tutor_requests WHERE id = $1` + suffix
	var req models.TutorRequest
	if err := sqlx.GetContext(ctx, exec, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find tutor request: %w", err)
	}
	return &req, nil
}

// List returns requests matching filter along with the total count.
func (r *TutorRequestRepository) List(ctx context.Context, filter models.TutorRequestFilter) ([]models.TutorRequest, int, error) {
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
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(subjects)", len(args)))
	}
	if filter.District != "" {
		args = append(args, filter.District)
		conditions = append(conditions, fmt.Sprintf("LOWER(district) = LOWER($%d)", len(args)))
	}
	if filter.Area != "" {
		args = append(args, filter.Area)
		conditions = append(conditions, fmt.Sprintf("LOWER(area) = LOWER($%d)", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(LOWER(district) LIKE $%d OR LOWER(area) LIKE $%d OR LOWER(array_to_string(subjects, ' ')) LIKE $%d OR LOWER(extra_info) LIKE $%d)", n, n, n, n))
	}

	where := "WHERE 1=1"
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	_, size, offset := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s FROM tutor_requests %s ORDER BY created_at DESC LIMIT %d OFFSET %d", tutorRequestColumns, where, size, offset)

	var requests []models.TutorRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list tutor requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM tutor_requests "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count tutor requests: %w", err)
	}
	return requests, total, nil
}

// Update rewrites the editable fields of a request.
func (r *TutorRequestRepository) Update(ctx context.Context, req *models.TutorRequest) error {
	req.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutor_requests SET contact_name = :contact_name, contact_phone = :contact_phone, contact_email = :contact_email, subjects = :subjects, class_levels = :class_levels, district = :district, area = :area, salary_min = :salary_min, salary_max = :salary_max, medium = :medium, tutoring_type = :tutoring_type, student_count = :student_count, days_per_week = :days_per_week, preferred_time = :preferred_time, extra_info = :extra_info, admin_note = :admin_note, update_notice = :update_notice, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, req)
	if err != nil {
		return fmt.Errorf("update tutor request: %w", err)
	}
	return expectAffected(result, "update tutor request")
}

// UpdateStatus moves a request from one status to another. ErrStatusChanged
// is returned when the row no longer holds from.
func (r *TutorRequestRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, from, to models.TutorRequestStatus) error {
	const query = `UPDATE tutor_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := pickExec(r.db, exec).ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update tutor request status: %w", err)
	}
	if err := expectAffected(result, "update tutor request status"); err != nil {
		if err == sql.ErrNoRows {
			return ErrStatusChanged
		}
		return err
	}
	return nil
}

// Delete removes a request; assignments and applications cascade.
func (r *TutorRequestRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tutor_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tutor request: %w", err)
	}
	return expectAffected(result, "delete tutor request")
}

func expectAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
