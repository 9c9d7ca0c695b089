package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jose-valero/hll-hooks/internal/domain"
)

// Handler procesa un evento. Un error no corta la cadena: el router lo
// registra y sigue con el siguiente handler del mismo tipo.
type Handler func(ctx context.Context, evt domain.LogEvent) error

// Subscriber es lo que necesitan los servicios para colgarse del router.
type Subscriber interface {
	Subscribe(kind domain.EventKind, name string, h Handler)
}

type subscription struct {
	name string
	h    Handler
}

// Result de un handler para un evento.
type Result struct {
	Handler string
	Err     error
	Took    time.Duration
}

func (r Result) OK() bool { return r.Err == nil }

type Router struct {
	log *slog.Logger

	mu   sync.RWMutex
	subs map[domain.EventKind][]subscription
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{log: log, subs: map[domain.EventKind][]subscription{}}
}

func (r *Router) Subscribe(kind domain.EventKind, name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[kind] = append(r.subs[kind], subscription{name: name, h: h})
}

// Handlers lista los nombres registrados para kind, en orden.
func (r *Router) Handlers(kind domain.EventKind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.subs[kind]))
	for _, s := range r.subs[kind] {
		out = append(out, s.name)
	}
	return out
}

// Dispatch corre todos los handlers de evt.Kind en orden de registro.
func (r *Router) Dispatch(ctx context.Context, evt domain.LogEvent) []Result {
	r.mu.RLock()
	subs := append([]subscription(nil), r.subs[evt.Kind]...)
	r.mu.RUnlock()

	results := make([]Result, 0, len(subs))
	for _, s := range subs {
		start := time.Now()
		err := r.safeCall(ctx, s, evt)
		res := Result{Handler: s.name, Err: err, Took: time.Since(start)}
		if err != nil {
			r.log.Error("handler failed",
				"handler", s.name,
				"kind", evt.Kind,
				"player", evt.Player,
				"player_id", evt.PlayerID,
				"event_id", evt.ID,
				"err", err,
			)
		}
		results = append(results, res)
	}
	return results
}

func (r *Router) safeCall(ctx context.Context, s subscription, evt domain.LogEvent) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in %s: %v", s.name, rec)
		}
	}()
	return s.h(ctx, evt)
}
