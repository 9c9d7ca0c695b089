package storage

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Player struct {
	PlayerID    string
	Name        string
	Names       []string
	Flags       []string
	FirstSeenAt time.Time
	LastSeenAt  time.Time
	Blacklist   *Blacklist // nil si nunca estuvo en blacklist

	SteamPersona    *string
	SteamProfileURL *string
	SteamUpdatedAt  *time.Time
}

type Blacklist struct {
	IsBlacklisted bool
	Reason        string
	By            string
	CreatedAt     time.Time
}

type Session struct {
	ID        int64
	PlayerID  string
	StartedAt time.Time
	EndedAt   *time.Time
}

// PlayerAction es el registro de una acción de moderación (PERMABAN, etc).
type PlayerAction struct {
	PlayerID   string
	PlayerName string
	ActionType string
	Reason     string
	By         string
}

type AuditEntry struct {
	ID        string
	Kind      string
	By        string
	Message   string
	Delivered bool
	CreatedAt time.Time
}

// MapStats es el resumen que deja el stats worker por cada mapa terminado.
type MapStats struct {
	MapHistoryID int64
	MapName      string
	Players      int
	DurationSecs int64
}

// fromUnixSeconds convierte los timestamps float del log (segundos).
func fromUnixSeconds(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
