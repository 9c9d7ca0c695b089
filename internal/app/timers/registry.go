package timers

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jose-valero/hll-hooks/internal/clock"
)

// Registry guarda como mucho UN timer pendiente por clave (player id).
// Programar de nuevo la misma clave cancela el anterior antes de armar el nuevo.
type Registry struct {
	mu      sync.Mutex
	clk     clock.Clock
	seq     uint64
	pending map[string]entry
}

type entry struct {
	id    uint64
	timer clock.Timer
	due   time.Time
}

func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.NewReal()
	}
	return &Registry{clk: clk, pending: map[string]entry{}}
}

// Schedule arma fn para dentro de delay. Devuelve true si reemplazó un timer vivo.
func (r *Registry) Schedule(key string, delay time.Duration, fn func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := false
	if prev, ok := r.pending[key]; ok {
		replaced = prev.timer.Stop()
		delete(r.pending, key)
		if replaced {
			log.Printf("[timers] replaced pending timer for %s", key)
		}
	}

	r.seq++
	id := r.seq
	t := r.clk.AfterFunc(delay, func() {
		r.mu.Lock()
		// sólo se borra si seguimos siendo el timer registrado
		if cur, ok := r.pending[key]; ok && cur.id == id {
			delete(r.pending, key)
		}
		r.mu.Unlock()
		fn()
	})
	r.pending[key] = entry{id: id, timer: t, due: r.clk.Now().Add(delay)}
	return replaced
}

// Cancel para y descarta el timer de key. Devuelve true si había uno sin disparar.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.pending[key]
	if !ok {
		return false
	}
	delete(r.pending, key)
	return prev.timer.Stop()
}

// CancelPrefix cancela todas las claves que empiezan con prefix
// (ej. "<player_id>/" cancela todo lo pendiente del jugador).
func (r *Registry) CancelPrefix(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.pending {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if e.timer.Stop() {
			n++
		}
		delete(r.pending, k)
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Pending es una foto de las claves con su vencimiento, ordenadas.
type Pending struct {
	Key string    `json:"key"`
	Due time.Time `json:"due"`
}

func (r *Registry) Snapshot() []Pending {
	r.mu.Lock()
	out := make([]Pending, 0, len(r.pending))
	for k, e := range r.pending {
		out = append(out, Pending{Key: k, Due: e.due})
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// StopAll cancela todo (shutdown).
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, e := range r.pending {
		e.timer.Stop()
		delete(r.pending, k)
	}
}
