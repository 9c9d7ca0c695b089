package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type AuditRepo struct{ db *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Insert guarda la entrada y devuelve su id (uuid v4 si no venía).
func (r *AuditRepo) Insert(ctx context.Context, e AuditEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_log (id, kind, author, message, delivered) VALUES ($1, $2, $3, $4, $5)
`, e.ID, e.Kind, e.By, e.Message, e.Delivered)
	return e.ID, err
}

func (r *AuditRepo) MarkDelivered(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE audit_log SET delivered = TRUE WHERE id = $1`, id)
	return err
}

func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, kind, author, message, delivered, created_at
  FROM audit_log
 ORDER BY created_at DESC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.By, &e.Message, &e.Delivered, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
