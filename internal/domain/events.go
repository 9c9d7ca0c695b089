package domain

import (
	"strings"
	"time"
)

// EventKind es el tipo de línea estructurada que emite el log del server.
type EventKind string

const (
	EventConnected    EventKind = "CONNECTED"
	EventDisconnected EventKind = "DISCONNECTED"
	EventMatchStart   EventKind = "MATCH START"
	EventMatchEnded   EventKind = "MATCH ENDED"
	EventCamera       EventKind = "CAMERA"
	EventChat         EventKind = "CHAT"
)

// Kinds son los tipos a los que hay hooks suscritos.
var Kinds = []EventKind{
	EventConnected, EventDisconnected, EventMatchStart,
	EventMatchEnded, EventCamera, EventChat,
}

// LogEvent es una línea de log ya parseada por CRCON.
type LogEvent struct {
	ID          string    `json:"id,omitempty"`
	Kind        EventKind `json:"action"`
	Player      string    `json:"player"`
	PlayerID    string    `json:"player_id_1"`
	SubContent  string    `json:"sub_content"`
	Message     string    `json:"message"`
	TimestampMS int64     `json:"timestamp_ms"`
}

// Time devuelve el timestamp del evento como time.Time.
func (e LogEvent) Time() time.Time {
	return time.UnixMilli(e.TimestampMS)
}

// UnixSeconds trunca el timestamp a segundos (así se guarda en historial).
func (e LogEvent) UnixSeconds() int64 {
	return e.TimestampMS / 1000
}

// NormalizeKind acepta variantes del log ("CHAT[Allies]", "match start", ...).
func NormalizeKind(raw string) EventKind {
	k := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(k, "CHAT"):
		return EventChat
	case strings.HasPrefix(k, "CAMERA"):
		return EventCamera
	}
	return EventKind(k)
}
