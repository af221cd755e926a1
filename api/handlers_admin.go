package api

import (
	"encoding/json"
	"net/http"
)

type adminWorldView struct {
	SubmarineCount int `json:"submarine_count"`
	TorpedoCount   int `json:"torpedo_count"`
	FuelerCount    int `json:"fueler_count"`
	CloudCount     int `json:"cloud_count"`
	UserCount      int `json:"user_count"`
}

// handleAdminWorld dumps aggregate world counts. Every /admin/* route is
// gated behind is_admin, including this one, because it exposes live
// player and entity counts an ungated endpoint would otherwise leak to
// any caller.
func (s *Server) handleAdminWorld(w http.ResponseWriter, r *http.Request) {
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	writeJSON(w, http.StatusOK, adminWorldView{
		SubmarineCount: len(s.World.Subs),
		TorpedoCount:   len(s.World.Torps),
		FuelerCount:    len(s.World.Fuelers),
		CloudCount:     len(s.World.Clouds),
		UserCount:      len(s.World.Users),
	})
}

type adminGrantRequest struct {
	Username string `json:"username" validate:"required"`
}

// handleAdminGrant promotes a user to admin by username.
func (s *Server) handleAdminGrant(w http.ResponseWriter, r *http.Request) {
	var req adminGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	for _, u := range s.World.Users {
		if u.Username == req.Username {
			u.IsAdmin = true
			if store := s.World.Store(); store != nil {
				_ = store.SaveUser(u)
			}
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeError(w, newError(KindNotFound, "user not found"))
}
