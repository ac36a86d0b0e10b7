// Package httpapi is the control surface around the monitor: target CRUD,
// live settings, and a status/updates view fed from the scheduler's update
// sink.
package httpapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"pingmon/internal/config"
	"pingmon/internal/domain"
	"pingmon/internal/repo"
	"pingmon/internal/scheduler"
)

const recentUpdates = 100

type Server struct {
	Logger   *zap.Logger
	Targets  repo.TargetStore
	Settings *config.Store
	Monitor  *scheduler.Scheduler

	mu     sync.Mutex
	recent []domain.MonitorUpdate
	latest map[string]domain.MonitorUpdate
}

func NewServer(l *zap.Logger, ts repo.TargetStore, set *config.Store, mon *scheduler.Scheduler) *Server {
	return &Server{
		Logger:   l,
		Targets:  ts,
		Settings: set,
		Monitor:  mon,
		latest:   make(map[string]domain.MonitorUpdate),
	}
}

// Consume drains the scheduler's update sink into a bounded recent-updates
// ring plus a latest-per-alias view. Run it in its own goroutine.
func (s *Server) Consume(ctx context.Context, updates <-chan domain.MonitorUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			s.record(u)
		}
	}
}

func (s *Server) record(u domain.MonitorUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[u.Alias] = u
	s.recent = append(s.recent, u)
	if len(s.recent) > recentUpdates {
		s.recent = s.recent[len(s.recent)-recentUpdates:]
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/targets", s.handleListTargets)
	r.Post("/api/targets", s.handleAddTarget)
	r.Patch("/api/targets/{alias}", s.handlePatchTarget)
	r.Delete("/api/targets/{alias}", s.handleDeleteTarget)

	r.Get("/api/status", s.handleStatus)
	r.Get("/api/updates", s.handleUpdates)

	r.Get("/api/settings", s.handleGetSettings)
	r.Put("/api/settings", s.handlePutSettings)

	return r
}
