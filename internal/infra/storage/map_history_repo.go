package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

type MapHistoryRepo struct{ db *sql.DB }

func NewMapHistoryRepo(db *sql.DB) *MapHistoryRepo { return &MapHistoryRepo{db: db} }

// List devuelve el historial del más reciente al más viejo.
func (r *MapHistoryRepo) List(ctx context.Context, limit int) ([]domain.MapHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, started_at, ended_at, guessed
  FROM map_history
 ORDER BY started_at DESC, id DESC
 LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MapHistoryEntry
	for rows.Next() {
		var e domain.MapHistoryEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Start, &e.End, &e.Guessed); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MapHistoryRepo) SaveNew(ctx context.Context, name string, start int64, guessed bool) (domain.MapHistoryEntry, error) {
	e := domain.MapHistoryEntry{Name: name, Start: start, Guessed: guessed}
	err := r.db.QueryRowContext(ctx, `
INSERT INTO map_history (name, started_at, guessed) VALUES ($1, $2, $3) RETURNING id
`, name, start, guessed).Scan(&e.ID)
	return e, err
}

// SaveEnd setea el fin de la entrada abierta más reciente con ese nombre.
func (r *MapHistoryRepo) SaveEnd(ctx context.Context, name string, end int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE map_history
   SET ended_at = $2
 WHERE id = (
   SELECT id FROM map_history
    WHERE name = $1 AND ended_at IS NULL
    ORDER BY started_at DESC, id DESC
    LIMIT 1
 )
`, name, end)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
