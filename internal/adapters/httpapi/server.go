package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jose-valero/hll-hooks/internal/adapters/logstream"
	"github.com/jose-valero/hll-hooks/internal/app/events"
	"github.com/jose-valero/hll-hooks/internal/app/settings"
	"github.com/jose-valero/hll-hooks/internal/app/timers"
	"github.com/jose-valero/hll-hooks/internal/domain"
	"github.com/jose-valero/hll-hooks/internal/infra/storage"
)

// Dispatcher lo implementa events.Router
type Dispatcher interface {
	Dispatch(ctx context.Context, evt domain.LogEvent) []events.Result
	Handlers(kind domain.EventKind) []string
}

type TimerSnapshotter interface {
	Snapshot() []timers.Pending
}

type AuditLister interface {
	Recent(ctx context.Context, limit int) ([]storage.AuditEntry, error)
}

type MapLister interface {
	List(ctx context.Context, limit int) ([]domain.MapHistoryEntry, error)
}

type ConfigStore interface {
	Raw(ctx context.Context, key string) ([]byte, error)
	Patch(ctx context.Context, key string, raw []byte) ([]byte, error)
}

type Deps struct {
	Router  Dispatcher
	Timers  TimerSnapshotter
	Audit   AuditLister
	Maps    MapLister
	Configs ConfigStore
}

type Server struct {
	secret string
	deps   Deps
	router chi.Router
}

// New: todo lo que no es /healthz pide el header X-Hooks-Secret.
func New(secret string, d Deps) *Server {
	s := &Server{secret: secret, deps: d}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireSecret)
		r.Get("/timers", s.handleTimers)
		r.Get("/handlers", s.handleHandlers)
		r.Post("/events", s.handleInject)
		r.Get("/audit", s.handleAudit)
		r.Get("/maps", s.handleMaps)
		r.Get("/configs", s.handleConfigKeys)
		r.Get("/configs/{key}", s.handleConfigGet)
		r.Patch("/configs/{key}", s.handleConfigPatch)
	})
	s.router = r
}

func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Hooks-Secret")), []byte(s.secret)) != 1 {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTimers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Timers.Snapshot())
}

func (s *Server) handleHandlers(w http.ResponseWriter, r *http.Request) {
	out := map[domain.EventKind][]string{}
	for _, k := range domain.Kinds {
		out[k] = s.deps.Router.Handlers(k)
	}
	writeJSON(w, http.StatusOK, out)
}

type resultDTO struct {
	Handler string `json:"handler"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	TookMS  int64  `json:"took_ms"`
}

// handleInject despacha una línea de log como si viniera del stream.
func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "body too large")
		return
	}
	evt, err := logstream.ParseLine(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if evt.TimestampMS == 0 {
		evt.TimestampMS = time.Now().UnixMilli()
	}
	log.Printf("[http] injected %s event %s", evt.Kind, evt.ID)

	results := s.deps.Router.Dispatch(r.Context(), evt)
	out := make([]resultDTO, 0, len(results))
	for _, res := range results {
		d := resultDTO{Handler: res.Handler, OK: res.OK(), TookMS: res.Took.Milliseconds()}
		if res.Err != nil {
			d.Error = res.Err.Error()
		}
		out = append(out, d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": evt.ID, "kind": evt.Kind, "results": out})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Audit.Recent(r.Context(), limitParam(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	maps, err := s.deps.Maps.List(r.Context(), limitParam(r, 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, maps)
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, settings.Keys())
}

func (s *Server) handleConfigGet(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Configs.Raw(r.Context(), chi.URLParam(r, "key"))
	s.writeConfig(w, b, err)
}

func (s *Server) handleConfigPatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		writeError(w, http.StatusBadRequest, "body too large")
		return
	}
	b, err := s.deps.Configs.Patch(r.Context(), chi.URLParam(r, "key"), body)
	s.writeConfig(w, b, err)
}

func (s *Server) writeConfig(w http.ResponseWriter, b []byte, err error) {
	switch {
	case errors.Is(err, settings.ErrUnknownKey):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	}
}

func limitParam(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 || n > 500 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Start bloquea hasta que ctx se cancele y después hace shutdown.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Printf("🌐 HTTP listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
