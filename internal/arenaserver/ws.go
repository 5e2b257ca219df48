package arenaserver

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/combat"
)

// Close codes sent to clients that connect badly. They sit in the 4xxx
// range reserved for application use.
const (
	closeInvalidKey  websocket.StatusCode = 4001
	closeNoCharacter websocket.StatusCode = 4002
)

type connectedEvent struct {
	Type        string `json:"type"`
	CharacterID string `json:"character_id"`
}

type turnStartEvent struct {
	Type        string `json:"type"`
	CharacterID string `json:"character_id"`
	RoundNumber int    `json:"round_number"`
}

// actionEvent flattens the action result fields next to the type tag.
type actionEvent struct {
	Type string `json:"type"`
	*arena.ActionResult
}

type gameOverEvent struct {
	Type     string  `json:"type"`
	WinnerID *string `json:"winner_id"`
}

// handleWS upgrades the connection, authenticates the token query
// parameter, resolves the caller's character, and then streams combat
// events until either side goes away. The socket is push-only: inbound
// frames are read and discarded.
//
// Authentication happens after the upgrade because a websocket close
// code is the only rejection a connected client can observe.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close(websocket.StatusInternalError, "") }()

	account, err := s.ids.Verify(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		_ = conn.Close(closeInvalidKey, "Invalid API key")
		return
	}

	me := game.Snapshot().FindByOwner(account.OwnerID)
	if me == nil {
		_ = conn.Close(closeNoCharacter, "No character found for this user")
		return
	}

	sess := s.sessions.Attach(game.ID(), account.OwnerID, me.ID)
	defer func() { _ = s.sessions.Detach(sess.ID) }()

	s.logger.Info("websocket connected",
		zap.String("game_id", game.ID()),
		zap.String("owner_id", account.OwnerID),
		zap.String("session_id", sess.ID),
	)

	ctx := r.Context()
	if err := writeEvent(ctx, conn, connectedEvent{Type: "connected", CharacterID: me.ID}); err != nil {
		return
	}

	// The read loop exists only to notice the client going away.
	readerGone := make(chan struct{})
	go func() {
		defer close(readerGone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, open := <-sess.Outbox.Events():
			if !open {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				s.logger.Debug("websocket write failed",
					zap.String("session_id", sess.ID),
					zap.Error(err),
				)
				return
			}
		case <-readerGone:
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// broadcast fans an event out to every session watching the game.
// Sessions that could not take the event are detached here, which is
// the lazy prune: nothing in the mutation path ever waits on a slow
// consumer.
func (s *Server) broadcast(gameID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encoding push event failed", zap.Error(err))
		return
	}

	_, dropped := s.sessions.Broadcast(gameID, data)
	for _, sessionID := range dropped {
		if err := s.sessions.Detach(sessionID); err == nil {
			s.logger.Warn("detached unresponsive session",
				zap.String("game_id", gameID),
				zap.String("session_id", sessionID),
			)
		}
	}
}

func (s *Server) notifyTurnStart(gameID, characterID string, roundNumber int) {
	s.broadcast(gameID, turnStartEvent{
		Type:        "turn_start",
		CharacterID: characterID,
		RoundNumber: roundNumber,
	})
}

// notifyAfterAction pushes the action result and whatever followed from
// it: the next turn holder while combat continues, or game_over when
// the action decided the fight. NPC turns resolved in between are part
// of the same mutation and are not announced individually.
func (s *Server) notifyAfterAction(game *combat.Game, result *arena.ActionResult) {
	s.broadcast(game.ID(), actionEvent{Type: "action_result", ActionResult: result})

	snap := game.Snapshot()
	if snap.Status != arena.StatusActive {
		s.broadcast(game.ID(), gameOverEvent{
			Type:     "game_over",
			WinnerID: nullableID(snap.WinnerID),
		})
		return
	}
	if result.ActionType.EndsTurn() {
		if current := snap.CurrentTurnCharacter(); current != nil {
			s.notifyTurnStart(game.ID(), current.ID, snap.RoundNumber)
		}
	}
}
