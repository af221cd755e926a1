package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lab1702/subwar/world"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}

type credentialsResponse struct {
	UserID string `json:"user_id"`
	APIKey string `json:"api_key"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}
	if err := s.validator.Validate(&req); err != nil {
		writeError(w, newError(KindBadRequest, err.Error()))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	for _, u := range s.World.Users {
		if u.Username == req.Username {
			writeError(w, newError(KindConflict, "username already taken"))
			return
		}
	}

	user := &world.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: HashPassword(req.Password),
		CreatedAt:    time.Now(),
	}
	if s.Cfg.Server.AdminSeed != "" && req.Username == s.Cfg.Server.AdminSeed {
		user.IsAdmin = true
	}
	s.World.Users[user.ID] = user

	key, err := s.issueAPIKey(user.ID)
	if err != nil {
		writeError(w, newError(KindInternal, "failed to issue API key"))
		return
	}

	if store := s.World.Store(); store != nil {
		_ = store.SaveUser(user)
	}

	writeJSON(w, http.StatusCreated, credentialsResponse{UserID: user.ID, APIKey: key})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	var user *world.User
	for _, u := range s.World.Users {
		if u.Username == req.Username {
			user = u
			break
		}
	}
	if user == nil || user.PasswordHash != HashPassword(req.Password) {
		writeError(w, newError(KindUnauthorized, "invalid credentials"))
		return
	}

	key, err := s.issueAPIKey(user.ID)
	if err != nil {
		writeError(w, newError(KindInternal, "failed to issue API key"))
		return
	}

	writeJSON(w, http.StatusOK, credentialsResponse{UserID: user.ID, APIKey: key})
}

// issueAPIKey generates and persists a fresh opaque key for userID.
// Caller must hold World.Mu.
func (s *Server) issueAPIKey(userID string) (string, error) {
	key, err := GenerateAPIKey()
	if err != nil {
		return "", err
	}
	entry := &world.ApiKey{Key: key, UserID: userID, CreatedAt: time.Now()}
	s.World.APIKeys[key] = entry
	if store := s.World.Store(); store != nil {
		_ = store.SaveAPIKey(entry)
	}
	return key, nil
}
