package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// UserConfigRepo guarda la config de cada feature como JSONB por clave.
type UserConfigRepo struct{ db *sql.DB }

func NewUserConfigRepo(db *sql.DB) *UserConfigRepo { return &UserConfigRepo{db: db} }

// Get devuelve el JSON crudo o ErrNotFound.
func (r *UserConfigRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM user_configs WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return raw, err
}

func (r *UserConfigRepo) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO user_configs (key, value) VALUES ($1, $2::jsonb)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`, key, string(raw))
	return err
}
