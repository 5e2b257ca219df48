package arenaserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/identity"
)

type registerRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

// registerResponse carries the freshly minted key. This is the only
// place a key ever appears in a response; it is not recoverable later.
type registerResponse struct {
	APIKey  string `json:"api_key"`
	OwnerID string `json:"owner_id"`
}

// userSummary lists an account without its key material.
type userSummary struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

func (s *Server) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OwnerID == "" || req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "owner_id and name are required")
		return
	}

	account, key, err := s.ids.Register(r.Context(), req.OwnerID, req.Name)
	if errors.Is(err, identity.ErrAccountExists) {
		s.writeError(w, http.StatusConflict,
			fmt.Sprintf("owner_id '%s' is already registered", req.OwnerID))
		return
	}
	if err != nil {
		s.logger.Error("registering account failed",
			zap.String("owner_id", req.OwnerID),
			zap.Error(err),
		)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.logger.Info("account registered",
		zap.String("owner_id", account.OwnerID),
		zap.String("name", account.Name),
	)
	s.writeJSON(w, http.StatusOK, registerResponse{APIKey: key, OwnerID: account.OwnerID})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ids.List(r.Context())
	if err != nil {
		s.logger.Error("listing accounts failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	users := make([]userSummary, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, userSummary{OwnerID: account.OwnerID, Name: account.Name})
	}
	s.writeJSON(w, http.StatusOK, users)
}
