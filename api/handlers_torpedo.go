package api

import (
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/sim"
	"github.com/lab1702/subwar/world"
)

func (s *Server) ownedTorpedo(r *http.Request, id string) (*world.Torpedo, *Error) {
	tp, ok := s.World.Torps[id]
	if !ok {
		return nil, newError(KindNotFound, "torpedo not found")
	}
	if tp.UserID != UserFromContext(r.Context()).ID {
		return nil, newError(KindForbidden, "torpedo not owned by caller")
	}
	return tp, nil
}

type torpedoGuideRequest struct {
	HeadingDeg *float64 `json:"heading_deg"`
	TurnDeg    *float64 `json:"turn_deg"`
	DepthM     *float64 `json:"depth_m"`
}

// handleTorpedoGuide lets the owner steer a wire-guided torpedo. A
// severed (free-running) torpedo can no longer be retargeted.
func (s *Server) handleTorpedoGuide(w http.ResponseWriter, r *http.Request) {
	var req torpedoGuideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	tp, ok := s.World.Torps[r.PathValue("id")]
	if !ok {
		writeError(w, newError(KindNotFound, "torpedo not found"))
		return
	}
	if tp.UserID != UserFromContext(r.Context()).ID {
		writeError(w, newError(KindForbidden, "torpedo not owned by caller"))
		return
	}
	if tp.ControlMode != world.ControlWire {
		writeError(w, newError(KindConflict, "torpedo's wire has been severed"))
		return
	}

	if req.TurnDeg != nil {
		tp.PendingTurn = *req.TurnDeg * math.Pi / 180
	}
	if req.HeadingDeg != nil {
		h := geo.CompassToWorld(*req.HeadingDeg)
		tp.TargetHeading = &h
	}
	if req.DepthM != nil {
		d := math.Max(0, *req.DepthM)
		tp.TargetDepth = &d
	}

	writeJSON(w, http.StatusOK, tp)
}

type torpedoPingRequest struct {
	MaxRangeM float64 `json:"max_range_m"`
}

// handleTorpedoPing fires the torpedo's own manual active ping: an
// immediate, narrow-beam contact list, distinct from both a submarine's
// ping and the torpedo's own scheduled auto-ping.
func (s *Server) handleTorpedoPing(w http.ResponseWriter, r *http.Request) {
	var req torpedoPingRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, newError(KindBadRequest, "malformed request body"))
			return
		}
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	tp, apiErr := s.ownedTorpedo(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	contacts, err := sim.TorpedoManualPing(s.World, tp, req.MaxRangeM, &s.Cfg.Torpedo, time.Now())
	if err != nil {
		writeError(w, newError(KindConflict, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

type toggleRequest struct {
	On bool `json:"on"`
}

// handleTorpedoAutoPingToggle enables or disables the torpedo's own
// periodic active ping.
func (s *Server) handleTorpedoAutoPingToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	tp, apiErr := s.ownedTorpedo(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	tp.ActiveEnabled = req.On
	writeJSON(w, http.StatusOK, tp)
}

// handleTorpedoPassiveToggle enables or disables the torpedo's passive
// sonar. Once the wire is severed the torpedo has no link back to report
// through, so the toggle is rejected outright.
func (s *Server) handleTorpedoPassiveToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	tp, apiErr := s.ownedTorpedo(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if tp.ControlMode != world.ControlWire {
		writeError(w, newError(KindConflict, "torpedo's wire has been severed"))
		return
	}
	tp.PassiveEnabled = req.On
	writeJSON(w, http.StatusOK, tp)
}

// handleTorpedoDetonate triggers the torpedo's warhead immediately,
// rather than waiting for the tick loop's proximity fuze or battery-dead
// check, reusing the same graduated blast-damage bands.
func (s *Server) handleTorpedoDetonate(w http.ResponseWriter, r *http.Request) {
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	tp, apiErr := s.ownedTorpedo(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if tp.Delete {
		writeError(w, newError(KindConflict, "torpedo already detonated"))
		return
	}
	sim.Detonate(s.World, tp, &s.Cfg.Torpedo, s.Fabric, time.Now())
	writeJSON(w, http.StatusOK, tp)
}
