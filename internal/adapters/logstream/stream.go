package logstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jose-valero/hll-hooks/internal/app/events"
	"github.com/jose-valero/hll-hooks/internal/domain"
)

// Sink lo implementa events.Router
type Sink interface {
	Dispatch(ctx context.Context, evt domain.LogEvent) []events.Result
}

// rawLog acepta los nombres nuevos y viejos de CRCON.
type rawLog struct {
	ID          string `json:"id"`
	Action      string `json:"action"`
	Player      string `json:"player"`
	PlayerName1 string `json:"player_name_1"`
	PlayerID1   string `json:"player_id_1"`
	SteamID1    string `json:"steam_id_64_1"`
	SubContent  string `json:"sub_content"`
	Message     string `json:"message"`
	TimestampMS int64  `json:"timestamp_ms"`
}

type streamRequest struct {
	LastSeenID *string  `json:"last_seen_id"`
	Actions    []string `json:"actions,omitempty"`
}

type streamResponse struct {
	LastSeenID *string `json:"last_seen_id"`
	Logs       []struct {
		ID  string `json:"id"`
		Log rawLog `json:"log"`
	} `json:"logs"`
	Error *string `json:"error"`
}

func (r rawLog) event(id string) domain.LogEvent {
	evt := domain.LogEvent{
		ID:          firstNonEmpty(id, r.ID),
		Kind:        domain.NormalizeKind(r.Action),
		Player:      firstNonEmpty(r.PlayerName1, r.Player),
		PlayerID:    firstNonEmpty(r.PlayerID1, r.SteamID1),
		SubContent:  r.SubContent,
		Message:     r.Message,
		TimestampMS: r.TimestampMS,
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	return evt
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// ParseLine decodifica una línea de log suelta (replay desde archivo).
func ParseLine(b []byte) (domain.LogEvent, error) {
	var r rawLog
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.LogEvent{}, err
	}
	if strings.TrimSpace(r.Action) == "" {
		return domain.LogEvent{}, errors.New("log line without action")
	}
	return r.event(""), nil
}

// Decode parsea un mensaje del stream.
func Decode(b []byte) ([]domain.LogEvent, *string, error) {
	var res streamResponse
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, nil, err
	}
	if res.Error != nil && *res.Error != "" {
		return nil, res.LastSeenID, fmt.Errorf("log stream: %s", *res.Error)
	}
	out := make([]domain.LogEvent, 0, len(res.Logs))
	for _, l := range res.Logs {
		out = append(out, l.Log.event(l.ID))
	}
	return out, res.LastSeenID, nil
}

type Stream struct {
	url    string
	token  string
	sink   Sink
	dialer *websocket.Dialer

	minBackoff time.Duration
	maxBackoff time.Duration

	lastSeen *string
}

type Option func(*Stream)

func WithBackoff(lo, hi time.Duration) Option {
	return func(s *Stream) { s.minBackoff, s.maxBackoff = lo, hi }
}

func WithDialer(d *websocket.Dialer) Option { return func(s *Stream) { s.dialer = d } }

func New(url, token string, sink Sink, opts ...Option) *Stream {
	s := &Stream{
		url:        url,
		token:      token,
		sink:       sink,
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		minBackoff: time.Second,
		maxBackoff: time.Minute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run se reconecta hasta que ctx se cancele. Los eventos se despachan de a
// uno, en el orden en que llegan.
func (s *Stream) Run(ctx context.Context) error {
	backoff := s.minBackoff
	for {
		connected, err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			backoff = s.minBackoff
		}
		log.Printf("[logstream] disconnected: %v (retry in %s)", err, backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, s.maxBackoff)
	}
}

func (s *Stream) runOnce(ctx context.Context) (bool, error) {
	h := http.Header{}
	if s.token != "" {
		h.Set("Authorization", "Bearer "+s.token)
	}
	conn, _, err := s.dialer.DialContext(ctx, s.url, h)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// ReadMessage no respeta ctx: cerramos la conexión para cortarlo
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(streamRequest{LastSeenID: s.lastSeen, Actions: actions()}); err != nil {
		return true, fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("[logstream] connected to %s", s.url)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		evts, last, err := Decode(msg)
		if err != nil {
			log.Printf("[logstream] bad message: %v", err)
			continue
		}
		for _, evt := range evts {
			s.sink.Dispatch(ctx, evt)
		}
		if last != nil {
			s.lastSeen = last
		}
	}
}

func actions() []string {
	out := make([]string, len(domain.Kinds))
	for i, k := range domain.Kinds {
		out[i] = string(k)
	}
	return out
}
