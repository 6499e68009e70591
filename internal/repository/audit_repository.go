package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// AuditRepository appends to the audit trail.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog stores entry, filling in ID and CreatedAt when unset.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO audit_logs (id, user_id, action, resource, resource_id, old_values, new_values, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Action, entry.Resource, entry.ResourceID,
		jsonb(entry.OldValues), jsonb(entry.NewValues),
		entry.IPAddress, entry.UserAgent, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create audit log %s: %w", entry.Action, err)
	}
	return nil
}

// jsonb passes raw JSON as text; lib/pq would send a []byte as bytea.
func jsonb(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
