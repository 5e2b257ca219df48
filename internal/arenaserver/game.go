package arenaserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
)

// stateView is the per-owner view of a game. Every other combatant is
// visible, dead or alive; there is no fog of war.
type stateView struct {
	GameID            string                 `json:"game_id"`
	Status            arena.Status           `json:"status"`
	RoundNumber       int                    `json:"round_number"`
	IsYourTurn        bool                   `json:"is_your_turn"`
	YourCharacter     *character.Character   `json:"your_character"`
	VisibleCharacters []*character.Character `json:"visible_characters"`
	AvailableActions  []arena.ActionType     `json:"available_actions"`
	TurnDeadline      *string                `json:"turn_deadline"`
	WinnerID          *string                `json:"winner_id"`
	PastCombats       int                    `json:"past_combats"`
}

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}
	account := accountFrom(r.Context())

	snap := game.Snapshot()
	me := snap.FindByOwner(account.OwnerID)
	if me == nil {
		s.writeError(w, http.StatusNotFound, "You have no character in this game")
		return
	}

	visible := make([]*character.Character, 0, len(snap.Characters))
	for _, c := range snap.CharactersInOrder() {
		if c.ID != me.ID {
			visible = append(visible, c)
		}
	}

	// The dead are reduced to spectating their own corpse.
	actions := []arena.ActionType{arena.ActionEndTurn}
	if me.IsAlive {
		actions = arena.AllActionTypes()
	}

	current := snap.CurrentTurnCharacter()
	s.writeJSON(w, http.StatusOK, stateView{
		GameID:            snap.GameID,
		Status:            snap.Status,
		RoundNumber:       snap.RoundNumber,
		IsYourTurn:        current != nil && current.ID == me.ID,
		YourCharacter:     me,
		VisibleCharacters: visible,
		AvailableActions:  actions,
		TurnDeadline:      formatDeadline(snap.TurnDeadline),
		WinnerID:          nullableID(snap.WinnerID),
		PastCombats:       len(snap.CombatLogHistory),
	})
}

// handleGameAction submits an action for the caller's character. The
// character id always comes from the resolved identity; whatever the
// client put in the body is overwritten.
//
// The turn pre-check runs here against a snapshot so acting out of turn
// is a 409 rather than the engine's structured failure. The engine
// re-checks under its lock, so a race just downgrades to a 400.
func (s *Server) handleGameAction(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}
	account := accountFrom(r.Context())

	var req arena.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap := game.Snapshot()
	if snap.Status != arena.StatusActive {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Game is not active (status: %s)", snap.Status))
		return
	}

	me := snap.FindByOwner(account.OwnerID)
	if me == nil {
		s.writeError(w, http.StatusNotFound, "You have no character in this game")
		return
	}
	req.CharacterID = me.ID

	current := snap.CurrentTurnCharacter()
	if current == nil || current.ID != me.ID {
		s.writeError(w, http.StatusConflict, "It's not your turn")
		return
	}

	result, err := game.ProcessAction(r.Context(), me.ID, &req)
	if err != nil {
		s.logger.Error("action processing failed",
			zap.String("game_id", game.ID()),
			zap.String("character_id", me.ID),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !result.Success {
		s.writeError(w, http.StatusBadRequest, result.Error)
		return
	}

	s.notifyAfterAction(game, result)
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGameLog(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}
	events := game.Snapshot().EventLog
	if events == nil {
		events = []arena.Event{}
	}
	s.writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGameHistory(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}
	history := game.Snapshot().CombatLogHistory
	if history == nil {
		history = [][]arena.Event{}
	}
	s.writeJSON(w, http.StatusOK, history)
}
