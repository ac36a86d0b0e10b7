package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pingmon/internal/domain"
	"pingmon/internal/outage"
)

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Targets.List(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ts)
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var t domain.Target
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil || t.Host == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	t.Normalize()

	// Alias is the identity key; adding must not silently overwrite.
	if existing, err := s.Targets.Get(r.Context(), t.Alias); err == nil && existing != nil {
		http.Error(w, "alias already exists", http.StatusConflict)
		return
	}
	if err := s.Targets.Upsert(r.Context(), t); err != nil {
		http.Error(w, "could not add", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("target_added",
		zap.String("alias", t.Alias),
		zap.String("host", t.Host),
		zap.Bool("enabled", t.Enabled),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(t)
}

type patchPayload struct {
	Host     *string `json:"host,omitempty"`
	Interval *int    `json:"interval,omitempty"`
	Timeout  *int    `json:"timeout,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
}

func (s *Server) handlePatchTarget(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	t, err := s.Targets.Get(r.Context(), alias)
	if err != nil {
		http.Error(w, "lookup error", http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.Error(w, "unknown target", http.StatusNotFound)
		return
	}

	var p patchPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if p.Host != nil {
		t.Host = *p.Host
	}
	if p.Interval != nil {
		t.IntervalSec = *p.Interval
	}
	if p.Timeout != nil {
		t.TimeoutMS = *p.Timeout
	}
	if p.Enabled != nil {
		t.Enabled = *p.Enabled
	}
	t.Normalize()

	if err := s.Targets.Upsert(r.Context(), *t); err != nil {
		http.Error(w, "could not update", http.StatusInternalServerError)
		return
	}
	s.Logger.Info("target_updated",
		zap.String("alias", t.Alias),
		zap.Bool("enabled", t.Enabled),
	)
	writeJSON(w, t)
}

func (s *Server) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if err := s.Targets.Delete(r.Context(), alias); err != nil {
		http.Error(w, "could not delete", http.StatusInternalServerError)
		return
	}
	s.Logger.Info("target_deleted", zap.String("alias", alias))
	w.WriteHeader(http.StatusNoContent)
}

type statusRow struct {
	Alias  string `json:"alias"`
	Host   string `json:"host"`
	Status string `json:"status"`
	Line   string `json:"line,omitempty"`
}

// handleStatus joins the target list with the monitor's outage snapshot and
// the last published line per alias. Targets never scheduled this session
// report UP (every session starts UP).
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Targets.List(r.Context())
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	statuses := map[string]outage.Status{}
	if s.Monitor != nil {
		statuses = s.Monitor.Statuses()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([]statusRow, 0, len(ts))
	for _, t := range ts {
		row := statusRow{Alias: t.Alias, Host: t.Host, Status: statuses[t.Alias].String()}
		if u, ok := s.latest[t.Alias]; ok {
			row.Line = u.Line
		}
		rows = append(rows, row)
	}
	writeJSON(w, rows)
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]domain.MonitorUpdate(nil), s.recent...)
	s.mu.Unlock()
	writeJSON(w, out)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Settings.Snapshot())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	st := s.Settings.Snapshot()
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if err := s.Settings.Apply(st); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Logger.Info("settings_updated",
		zap.Int("concurrency", st.Concurrency),
		zap.String("display_mode", st.DisplayMode),
		zap.Bool("notifications", st.NotificationsEnabled),
	)
	writeJSON(w, st)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
