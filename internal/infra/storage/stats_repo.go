package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

type StatsRepo struct{ db *sql.DB }

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

var errMapStillRunning = errors.New("map has no end yet")

// RecordMap cuenta jugadores distintos con sesión solapada con el mapa
// y guarda (o pisa) el resumen.
func (r *StatsRepo) RecordMap(ctx context.Context, m domain.MapHistoryEntry) (MapStats, error) {
	if m.End == nil {
		return MapStats{}, errMapStillRunning
	}
	start := time.Unix(m.Start, 0).UTC()
	end := time.Unix(*m.End, 0).UTC()

	st := MapStats{MapHistoryID: m.ID, MapName: m.Name, DurationSecs: *m.End - m.Start}
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT player_id)
  FROM player_sessions
 WHERE started_at <= $2
   AND (ended_at IS NULL OR ended_at >= $1)
`, start, end).Scan(&st.Players)
	if err != nil {
		return MapStats{}, err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO map_stats (map_history_id, map_name, players, duration_secs)
VALUES ($1, $2, $3, $4)
ON CONFLICT (map_history_id) DO UPDATE SET
  players       = EXCLUDED.players,
  duration_secs = EXCLUDED.duration_secs,
  recorded_at   = now()
`, st.MapHistoryID, st.MapName, st.Players, st.DurationSecs)
	return st, err
}
