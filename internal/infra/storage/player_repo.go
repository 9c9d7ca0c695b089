package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

type PlayerRepo struct{ db *sql.DB }

func NewPlayerRepo(db *sql.DB) *PlayerRepo { return &PlayerRepo{db: db} }

// SavePlayer: upsert por player_id; acumula los nombres usados.
func (r *PlayerRepo) SavePlayer(ctx context.Context, playerID, name string, ts float64) error {
	seen := fromUnixSeconds(ts)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO players (player_id, name, names, first_seen_at, last_seen_at)
VALUES ($1, $2, ARRAY[$2]::text[], $3, $3)
ON CONFLICT (player_id) DO UPDATE SET
  name         = EXCLUDED.name,
  names        = CASE WHEN $2 = ANY(players.names) THEN players.names
                      ELSE array_append(players.names, $2) END,
  last_seen_at = GREATEST(players.last_seen_at, EXCLUDED.last_seen_at)
`, playerID, name, seen)
	return err
}

func (r *PlayerRepo) GetPlayer(ctx context.Context, playerID string) (Player, error) {
	var (
		p           Player
		blacklisted sql.NullBool
		blReason    sql.NullString
		blBy        sql.NullString
		blAt        sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
SELECT p.player_id, p.name, p.names, p.flags, p.first_seen_at, p.last_seen_at,
       p.steam_persona, p.steam_profile_url, p.steam_updated_at,
       b.is_blacklisted, b.reason, b.author, b.created_at
  FROM players p
  LEFT JOIN blacklists b ON b.player_id = p.player_id
 WHERE p.player_id = $1
`, playerID).Scan(
		&p.PlayerID, &p.Name, pq.Array(&p.Names), pq.Array(&p.Flags), &p.FirstSeenAt, &p.LastSeenAt,
		&p.SteamPersona, &p.SteamProfileURL, &p.SteamUpdatedAt,
		&blacklisted, &blReason, &blBy, &blAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, ErrNotFound
	}
	if err != nil {
		return Player{}, err
	}
	if blacklisted.Valid {
		p.Blacklist = &Blacklist{
			IsBlacklisted: blacklisted.Bool,
			Reason:        blReason.String,
			By:            blBy.String,
			CreatedAt:     blAt.Time,
		}
	}
	return p, nil
}

// SetFlags reemplaza los flags del jugador.
func (r *PlayerRepo) SetFlags(ctx context.Context, playerID string, flags []string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE players SET flags = $2 WHERE player_id = $1`, playerID, pq.Array(flags))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PlayerRepo) Blacklist(ctx context.Context, playerID, reason, by string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO blacklists (player_id, is_blacklisted, reason, author)
VALUES ($1, TRUE, $2, $3)
ON CONFLICT (player_id) DO UPDATE SET
  is_blacklisted = TRUE,
  reason         = EXCLUDED.reason,
  author         = EXCLUDED.author
`, playerID, reason, by)
	return err
}

func (r *PlayerRepo) Unblacklist(ctx context.Context, playerID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE blacklists SET is_blacklisted = FALSE WHERE player_id = $1`, playerID)
	return err
}

// StartSession abre una sesión nueva con el timestamp del evento.
func (r *PlayerRepo) StartSession(ctx context.Context, playerID string, ts float64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO player_sessions (player_id, started_at) VALUES ($1, $2)
`, playerID, fromUnixSeconds(ts))
	return err
}

// EndSession cierra la última sesión abierta. Devuelve false si no había ninguna.
func (r *PlayerRepo) EndSession(ctx context.Context, playerID string, ts float64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE player_sessions
   SET ended_at = $2
 WHERE id = (
   SELECT id FROM player_sessions
    WHERE player_id = $1 AND ended_at IS NULL
    ORDER BY started_at DESC
    LIMIT 1
 )
`, playerID, fromUnixSeconds(ts))
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// OpenSession devuelve la sesión abierta más reciente o ErrNotFound.
func (r *PlayerRepo) OpenSession(ctx context.Context, playerID string) (Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
SELECT id, player_id, started_at, ended_at
  FROM player_sessions
 WHERE player_id = $1 AND ended_at IS NULL
 ORDER BY started_at DESC
 LIMIT 1
`, playerID).Scan(&s.ID, &s.PlayerID, &s.StartedAt, &s.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

func (r *PlayerRepo) SaveAction(ctx context.Context, a PlayerAction) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO player_actions (player_id, player_name, action_type, reason, author)
VALUES ($1, $2, $3, $4, $5)
`, a.PlayerID, a.PlayerName, a.ActionType, a.Reason, a.By)
	if err != nil {
		return fmt.Errorf("save action %s for %s: %w", a.ActionType, a.PlayerID, err)
	}
	return nil
}

// UpdateSteamInfo guarda el resumen de perfil de Steam en el jugador.
func (r *PlayerRepo) UpdateSteamInfo(ctx context.Context, playerID string, p domain.SteamProfile) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE players
   SET steam_persona     = $2,
       steam_profile_url = $3,
       steam_avatar      = $4,
       steam_country     = NULLIF($5, ''),
       steam_updated_at  = $6
 WHERE player_id = $1
`, playerID, p.PersonaName, p.ProfileURL, p.Avatar, p.Country, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
