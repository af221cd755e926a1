package api

import (
	"net/http"
	"time"

	"github.com/lab1702/subwar/sim"
	"github.com/lab1702/subwar/world"
)

// handleListFuelers returns every fueler owned by the caller (at most
// one is ever active at a time).
func (s *Server) handleListFuelers(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	var owned []*world.Fueler
	for _, f := range s.World.Fuelers {
		if f.OwnerUserID == user.ID {
			owned = append(owned, f)
		}
	}
	writeJSON(w, http.StatusOK, owned)
}

// handleCallFueler spawns a fueler for the caller's submarine, rejecting
// the request if the user already has one active — only one fueler per
// user may exist at a time.
func (s *Server) handleCallFueler(w http.ResponseWriter, r *http.Request) {
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	user := UserFromContext(r.Context())
	if _, ok := s.World.FuelerByUser(user.ID); ok {
		writeError(w, newError(KindConflict, "fueler already active"))
		return
	}

	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	f := sim.SpawnFuelerForUser(s.World, &s.Cfg.Fueler, user.ID, sub.X, sub.Y, time.Now())
	if store := s.World.Store(); store != nil {
		_ = store.UpsertFueler(f)
	}
	writeJSON(w, http.StatusCreated, f)
}
