package arenaserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// joinRequest is the lobby join body. Pointer fields distinguish an
// omitted field from an explicit zero so defaults apply only to
// omissions.
type joinRequest struct {
	Name          string                   `json:"name"`
	AbilityScores *character.AbilityScores `json:"ability_scores"`
	MaxHP         int                      `json:"max_hp"`
	ArmorClass    int                      `json:"armor_class"`
	Speed         *int                     `json:"speed"`
	Attacks       []character.Attack       `json:"attacks"`
}

// sheet converts the request into a builder sheet, filling in the
// configured movement speed and baseline ability scores where the
// client left them out.
func (req joinRequest) sheet(defaultSpeed int) character.Sheet {
	sheet := character.Sheet{
		Name:       req.Name,
		Abilities:  character.DefaultAbilityScores(),
		MaxHP:      req.MaxHP,
		ArmorClass: req.ArmorClass,
		Speed:      defaultSpeed,
		Attacks:    req.Attacks,
	}
	if req.AbilityScores != nil {
		sheet.Abilities = *req.AbilityScores
	}
	if req.Speed != nil {
		sheet.Speed = *req.Speed
	}
	return sheet
}

// handleLobbyJoin registers a character for the authenticated owner, or
// reconnects them to a living one. Every rejection the engine produces
// here is a client mistake, so they all come back as 400s with the
// engine's own message.
func (s *Server) handleLobbyJoin(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}
	account := accountFrom(r.Context())

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := game.Join(r.Context(), account.OwnerID, req.sheet(s.arena.DefaultSpeed))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleLobbyStart begins combat. The waiting and roster checks run
// twice: once here against a snapshot, so these route errors take
// precedence, and again inside Start under the game lock, where racing
// starts resolve.
func (s *Server) handleLobbyStart(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}

	snap := game.Snapshot()
	if snap.Status != arena.StatusWaiting {
		s.writeError(w, http.StatusBadRequest, "Game has already started")
		return
	}
	if len(snap.Characters) < 2 {
		s.writeError(w, http.StatusBadRequest, "Need at least 2 characters to start")
		return
	}

	result, err := game.Start(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if started := game.Snapshot(); started.CurrentTurnCharacter() != nil {
		s.notifyTurnStart(game.ID(), started.CurrentTurnCharacter().ID, started.RoundNumber)
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLobbyGame(w http.ResponseWriter, r *http.Request) {
	game, ok := s.gameFrom(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, summarize(game.Snapshot()))
}

// createGameRequest names a new arena. The body may be omitted entirely.
type createGameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleGamesCreate(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	game, err := s.engine.CreateGame(r.Context(), req.Name)
	if err != nil {
		s.logger.Error("creating game failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, summarize(game.Snapshot()))
}

func (s *Server) handleGamesList(w http.ResponseWriter, _ *http.Request) {
	games := s.engine.Games()
	summaries := make([]gameSummary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, summarize(game.Snapshot()))
	}
	s.writeJSON(w, http.StatusOK, summaries)
}

// characterSummary is the public roster entry: enough to watch a game,
// nothing a rival bot should not see.
type characterSummary struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	OwnerID   string         `json:"owner_id"`
	CurrentHP int            `json:"current_hp"`
	MaxHP     int            `json:"max_hp"`
	Position  *grid.Position `json:"position"`
	IsAlive   bool           `json:"is_alive"`
}

// gameSummary is the unauthenticated view of one game.
type gameSummary struct {
	GameID           string             `json:"game_id"`
	Name             string             `json:"name"`
	Status           arena.Status       `json:"status"`
	RoundNumber      int                `json:"round_number"`
	Characters       []characterSummary `json:"characters"`
	InitiativeOrder  []string           `json:"initiative_order"`
	CurrentTurnIndex int                `json:"current_turn_index"`
	WinnerID         *string            `json:"winner_id"`
	PastCombats      int                `json:"past_combats"`
}

func summarize(snap *arena.State) gameSummary {
	characters := make([]characterSummary, 0, len(snap.Characters))
	for _, c := range snap.CharactersInOrder() {
		characters = append(characters, characterSummary{
			ID:        c.ID,
			Name:      c.Name,
			OwnerID:   c.OwnerID,
			CurrentHP: c.CurrentHP,
			MaxHP:     c.MaxHP,
			Position:  c.Position,
			IsAlive:   c.IsAlive,
		})
	}
	order := snap.InitiativeOrder
	if order == nil {
		order = []string{}
	}
	return gameSummary{
		GameID:           snap.GameID,
		Name:             snap.Name,
		Status:           snap.Status,
		RoundNumber:      snap.RoundNumber,
		Characters:       characters,
		InitiativeOrder:  order,
		CurrentTurnIndex: snap.CurrentTurnIndex,
		WinnerID:         nullableID(snap.WinnerID),
		PastCombats:      len(snap.CombatLogHistory),
	}
}
