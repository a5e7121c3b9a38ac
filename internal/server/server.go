package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"parlor/internal/game"
	"parlor/internal/session"
)

// Server is the HTTP server.
type Server struct {
	router   chi.Router
	registry *game.Registry
	manager  *session.Manager
	webFS    fs.FS
	log      *zap.Logger
}

// New creates a server with all routes and subscribes it to timer-driven
// session changes. webFS should be the "web" subdirectory of the embedded
// filesystem.
func New(registry *game.Registry, manager *session.Manager, webFS fs.FS, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		router:   chi.NewRouter(),
		registry: registry,
		manager:  manager,
		webFS:    webFS,
		log:      log,
	}
	s.routes()
	manager.OnChange(s.broadcastState)
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&logFormatter{log: s.log}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{code}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Post("/start", s.handleStartSession)
			r.Post("/actions", s.handleAction)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	// Static files
	r.Handle("/*", http.FileServer(http.FS(s.webFS)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.List())
}

type createSessionRequest struct {
	GameType string `json:"gameType"`
	PlayerID string `json:"playerId"`
}

type createSessionResponse struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.GameType = strings.TrimSpace(req.GameType)
	req.PlayerID = strings.TrimSpace(req.PlayerID)
	if req.GameType == "" {
		writeError(w, http.StatusBadRequest, "gameType required")
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}

	sess, err := s.manager.Create(req.GameType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.AddPlayer(req.PlayerID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.saveRoster(sess)

	writeJSON(w, http.StatusCreated, createSessionResponse{Code: sess.Code, PlayerID: req.PlayerID})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := s.manager.Get(chi.URLParam(r, "code"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sess, ok
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.Start(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.saveState(sess)
	// Broadcast new state to all players
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

type actionRequest struct {
	PlayerID string      `json:"playerId"`
	Action   game.Action `json:"action"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "playerId and action required")
		return
	}
	if err := sess.Apply(req.PlayerID, req.Action); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, game.ErrRejected) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, game.Message(err))
		return
	}
	s.saveState(sess)
	s.broadcastState(sess)
	writeJSON(w, http.StatusOK, newStatePayload(sess.Snapshot(req.PlayerID)))
}

func (s *Server) saveState(sess *session.Session) {
	if err := s.manager.SaveMatchState(sess); err != nil {
		s.log.Error("save match state", zap.String("session", sess.Code), zap.Error(err))
	}
}

func (s *Server) saveRoster(sess *session.Session) {
	if err := s.manager.SaveSessionPlayers(sess); err != nil {
		s.log.Error("save session players", zap.String("session", sess.Code), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
