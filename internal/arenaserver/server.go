// Package arenaserver serves the HTTP and websocket API in front of the
// combat engine: lobby registration, combat start, action submission,
// read-side views, admin key management, and push notifications.
//
// Routes without a game_id query parameter operate on the default game,
// so single-arena clients never deal in game ids at all.
package arenaserver

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/session"
	"github.com/cory-johannsen/arena/internal/identity"
	"github.com/cory-johannsen/arena/internal/server"
)

const (
	serverName    = "Arena Server"
	serverVersion = "0.1.0"
)

var _ server.Service = (*Server)(nil)

// Options carries everything a Server needs. All fields are required
// unless noted.
type Options struct {
	// Server is the HTTP listener configuration.
	Server config.ServerConfig
	// Arena supplies join-time defaults such as movement speed.
	Arena config.ArenaConfig
	// Engine is the combat engine the server fronts.
	Engine *combat.Engine
	// DefaultGameID is the game served by routes without an explicit
	// game_id query parameter.
	DefaultGameID string
	// Identity resolves API keys to owner accounts.
	Identity *identity.Service
	// Sessions fans combat events out to websocket subscribers.
	Sessions *session.Manager
	// Logger receives structured request and push diagnostics.
	Logger *zap.Logger
}

// Server is the HTTP transport. It owns no game state: every request is
// resolved against engine snapshots and engine operations.
type Server struct {
	cfg           config.ServerConfig
	arena         config.ArenaConfig
	engine        *combat.Engine
	defaultGameID string
	ids           *identity.Service
	sessions      *session.Manager
	logger        *zap.Logger
	http          *http.Server
}

// NewServer builds a Server and its underlying http.Server.
//
// Precondition: opts.Engine, opts.Identity, opts.Sessions, and
// opts.Logger must be non-nil.
func NewServer(opts Options) *Server {
	s := &Server{
		cfg:           opts.Server,
		arena:         opts.Arena,
		engine:        opts.Engine,
		defaultGameID: opts.DefaultGameID,
		ids:           opts.Identity,
		sessions:      opts.Sessions,
		logger:        opts.Logger,
	}
	s.http = &http.Server{
		Addr:    opts.Server.Addr(),
		Handler: s.Handler(),
	}
	return s
}

// Handler builds the route table. Exposed separately from Start so tests
// can drive the full middleware stack through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /games", s.requireAuth(http.HandlerFunc(s.handleGamesCreate)))
	mux.HandleFunc("GET /games", s.handleGamesList)

	mux.Handle("POST /lobby/join", s.requireAuth(http.HandlerFunc(s.handleLobbyJoin)))
	mux.Handle("POST /lobby/start", s.requireAuth(http.HandlerFunc(s.handleLobbyStart)))
	mux.HandleFunc("GET /lobby/game", s.handleLobbyGame)

	mux.Handle("GET /game/state", s.requireAuth(http.HandlerFunc(s.handleGameState)))
	mux.Handle("POST /game/action", s.requireAuth(http.HandlerFunc(s.handleGameAction)))
	mux.HandleFunc("GET /game/log", s.handleGameLog)
	mux.HandleFunc("GET /game/history", s.handleGameHistory)

	mux.Handle("POST /admin/register", s.requireAdmin(http.HandlerFunc(s.handleAdminRegister)))
	mux.Handle("GET /admin/users", s.requireAdmin(http.HandlerFunc(s.handleAdminUsers)))

	mux.HandleFunc("GET /ws", s.handleWS)

	return mux
}

// Start runs the HTTP listener until Stop is called. It blocks, which is
// the contract the lifecycle manager expects.
func (s *Server) Start() error {
	s.logger.Info("http server listening",
		zap.String("addr", s.http.Addr),
		zap.String("default_game_id", s.defaultGameID),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests and closes the listener. Hijacked
// websocket connections are not waited on; they end when their outboxes
// close or the process exits.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"name":    serverName,
		"version": serverVersion,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"healthy": true})
}

// gameFrom resolves the request's target game: the game_id query
// parameter when present, the default game otherwise. A miss writes the
// 404 so callers just return on !ok.
func (s *Server) gameFrom(w http.ResponseWriter, r *http.Request) (*combat.Game, bool) {
	id := r.URL.Query().Get("game_id")
	if id == "" {
		id = s.defaultGameID
	}
	game, ok := s.engine.Game(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "Game not found")
		return nil, false
	}
	return game, true
}
