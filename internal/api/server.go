package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/prepdeck/coach-engine/internal/engine"
	"github.com/prepdeck/coach-engine/internal/signals"
)

// #region server

// Server is the thin HTTP facade over the coaching engine. All invariants
// live in the engine; handlers only decode, delegate, and encode.
type Server struct {
	router *chi.Mux
	engine *engine.Engine
	log    *logrus.Logger
	port   int
}

// NewServer wires routes over the engine.
func NewServer(e *engine.Engine, log *logrus.Logger, port int) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		engine: e,
		log:    log,
		port:   port,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.createSession)
		r.Get("/sessions/{sessionID}", s.getSession)
		r.Post("/sessions/{sessionID}/signals", s.ingest)
		r.Delete("/sessions/{sessionID}", s.closeSession)
		r.Post("/rules/reload", s.reloadRules)
	})

	return s
}

// Start blocks serving HTTP on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.WithField("addr", addr).Info("coach API starting")
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// #endregion server

// #region handlers

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	StateID   string `json:"state_id"`
	VoiceLine string `json:"voice_line"`
	Subtitle  string `json:"subtitle"`
	Tip       string `json:"tip"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id, def := s.engine.CreateSession()
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: id,
		StateID:   def.ID,
		VoiceLine: def.Response.VoiceLine,
		Subtitle:  def.Response.Subtitle,
		Tip:       def.Response.Tip,
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	info, ok := s.engine.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var sample signals.RawSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		writeError(w, http.StatusBadRequest, "malformed signal sample")
		return
	}

	resp := s.engine.Ingest(id, sample)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) closeSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s.engine.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reloadRules(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ReloadRules(); err != nil {
		s.log.WithError(err).Error("rules reload failed")
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

// #endregion handlers

// #region helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// #endregion helpers
