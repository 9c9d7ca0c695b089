package clock

import (
	"sort"
	"sync"
	"time"
)

// Virtual es un reloj manual para tests. Los callbacks de AfterFunc
// corren de forma sincrónica dentro de Advance, en orden de deadline.
type Virtual struct {
	mu      sync.Mutex
	current time.Time
	seq     int
	pending []*virtualTimer
}

type virtualTimer struct {
	c        *Virtual
	seq      int
	deadline time.Time
	f        func()
	stopped  bool
	fired    bool
}

func NewVirtual(start time.Time) *Virtual {
	return &Virtual{current: start}
}

func (c *Virtual) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Virtual) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

func (c *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &virtualTimer{c: c, seq: c.seq, deadline: c.current.Add(d), f: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance mueve el reloj y dispara los timers vencidos.
// Panics si d es negativo.
func (c *Virtual) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}
	c.mu.Lock()
	c.current = c.current.Add(d)
	due := c.drain()
	c.mu.Unlock()

	// fuera del lock: los callbacks pueden volver a usar el reloj
	for _, t := range due {
		t.f()
	}
}

// Pending cuenta timers armados (ni disparados ni cancelados).
func (c *Virtual) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// drain saca los timers vencidos. Requiere c.mu tomado.
func (c *Virtual) drain() []*virtualTimer {
	var due []*virtualTimer
	remaining := c.pending[:0]
	for _, t := range c.pending {
		if !t.deadline.After(c.current) {
			t.fired = true
			due = append(due, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	c.pending = remaining
	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	return due
}

func (t *virtualTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	for i, p := range t.c.pending {
		if p == t {
			t.c.pending = append(t.c.pending[:i], t.c.pending[i+1:]...)
			break
		}
	}
	return true
}
