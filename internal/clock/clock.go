package clock

import "time"

// Clock abstrae el tiempo para que las ventanas de frescura y los timers
// diferidos se puedan testear sin esperar.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// AfterFunc ejecuta f en su propia goroutine pasado d.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer es lo único que necesitamos de *time.Timer.
type Timer interface {
	Stop() bool
}

type Real struct{}

func NewReal() *Real { return &Real{} }

func (Real) Now() time.Time                  { return time.Now() }
func (Real) Since(t time.Time) time.Duration { return time.Since(t) }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
