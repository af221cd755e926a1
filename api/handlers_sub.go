package api

import (
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/sim"
	"github.com/lab1702/subwar/world"
)

func (s *Server) ownedSub(r *http.Request, id string) (*world.Submarine, *Error) {
	sub, ok := s.World.Subs[id]
	if !ok {
		return nil, newError(KindNotFound, "submarine not found")
	}
	if sub.UserID != UserFromContext(r.Context()).ID {
		return nil, newError(KindForbidden, "submarine not owned by caller")
	}
	return sub, nil
}

func (s *Server) handleSpawnSub(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()

	now := time.Now()
	cooldown := time.Duration(s.Cfg.Submarine.RespawnCooldownS) * time.Second

	// A recent death only eats one of the user's submarine slots for the
	// duration of the cooldown; it never blocks a respawn outright once
	// every one of the user's subs is already dead, since at that point
	// current_subs (0) can't reach or exceed available_slots.
	activeCooldowns := 0
	if user.LastDeathTS.Add(cooldown).After(now) {
		activeCooldowns++
	}
	if user.PrevDeathTS.Add(cooldown).After(now) {
		activeCooldowns++
	}
	availableSlots := s.Cfg.Submarine.MaxSubsPerUser - activeCooldowns
	currentSubs := len(s.World.SubsByUser(user.ID))
	if currentSubs > 0 && currentSubs >= availableSlots {
		writeError(w, newError(KindConflict, "respawn cooldown still active"))
		return
	}

	theta := rand.Float64() * 2 * math.Pi
	spawnR := s.Cfg.World.RingRadiusM + rand.Float64()*s.Cfg.World.SpawnAnnulusM

	sub := &world.Submarine{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Name:         "unnamed",
		X:            s.Cfg.World.RingCenterX + spawnR*math.Cos(theta),
		Y:            s.Cfg.World.RingCenterY + spawnR*math.Sin(theta),
		Heading:      rand.Float64() * 2 * math.Pi,
		Battery:      100,
		Fuel:         s.Cfg.Submarine.MaxFuelUnits,
		Health:       100,
		TorpedoAmmo:  s.Cfg.Submarine.MagazineSize,
		MagazineSize: s.Cfg.Submarine.MagazineSize,
		CreatedAt:    time.Now(),
	}
	s.World.Subs[sub.ID] = sub
	if store := s.World.Store(); store != nil {
		_ = store.UpsertSubmarine(sub)
	}

	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleListSubs(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	s.World.Mu.Lock()
	subs := s.World.SubsByUser(user.ID)
	s.World.Mu.Unlock()
	writeJSON(w, http.StatusOK, subs)
}

type helmRequest struct {
	Rudder          *float64 `json:"rudder"`
	Planes          *float64 `json:"planes"`
	Throttle        *float64 `json:"throttle"`
	TargetHeadingDeg *float64 `json:"target_heading_deg"`
	TargetDepthM    *float64 `json:"target_depth_m"`
}

func (s *Server) handleHelm(w http.ResponseWriter, r *http.Request) {
	var req helmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	if req.Rudder != nil {
		sub.RudderCmd = geo.Clamp(*req.Rudder, -1, 1)
	}
	if req.Planes != nil {
		sub.Planes = geo.Clamp(*req.Planes, -1, 1)
	}
	if req.Throttle != nil {
		sub.Throttle = geo.Clamp(*req.Throttle, 0, 1)
	}
	if req.TargetHeadingDeg != nil {
		h := geo.CompassToWorld(*req.TargetHeadingDeg)
		sub.TargetHeading = &h
	}
	if req.TargetDepthM != nil {
		d := math.Max(0, *req.TargetDepthM)
		sub.TargetDepth = &d
	}

	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleBlow(w http.ResponseWriter, r *http.Request) {
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if sub.BlowCharge <= 0 {
		writeError(w, newError(KindConflict, "emergency blow not charged"))
		return
	}
	sub.BlowActive = true
	writeJSON(w, http.StatusOK, sub)
}

type snorkelRequest struct {
	On bool `json:"on"`
}

func (s *Server) handleSnorkel(w http.ResponseWriter, r *http.Request) {
	var req snorkelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if req.On && sub.Depth > s.Cfg.Submarine.SnorkelDepthM {
		writeError(w, newError(KindConflict, "too deep to snorkel"))
		return
	}
	sub.IsSnorkeling = req.On
	writeJSON(w, http.StatusOK, sub)
}

type pingRequest struct {
	BearingDeg   float64 `json:"bearing_deg"`
	BeamWidthDeg float64 `json:"beam_width_deg"`
	MaxRangeM    float64 `json:"max_range_m"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	var req pingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	ringCX, ringCY, ringR := s.Cfg.World.RingCenterX, s.Cfg.World.RingCenterY, s.Cfg.World.RingRadiusM
	if err := sim.RequestPing(s.World, sub, req.BearingDeg, req.BeamWidthDeg, req.MaxRangeM, &s.Cfg.Sonar, ringCX, ringCY, ringR, s.Fabric, s.Engine.Echoes, time.Now()); err != nil {
		writeError(w, newError(KindConflict, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type fireRequest struct {
	HeadingDeg  float64 `json:"heading_deg"`
	DepthM      float64 `json:"depth_m"`
	RangeM      float64 `json:"range_m"`
	ControlMode string  `json:"control_mode"`
}

// handleFire launches a torpedo from the magazine. Launching costs no
// battery — the magazine round is the cost — and the client's requested
// range becomes the torpedo's wire-severance budget, clamped to the
// weapon's maximum range. Recharging the magazine is a separate,
// battery-costed operation; see handleReload.
func (s *Server) handleFire(w http.ResponseWriter, r *http.Request) {
	var req fireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if sub.TorpedoAmmo <= 0 {
		writeError(w, newError(KindConflict, "no torpedoes remaining"))
		return
	}

	mode := world.ControlWire
	if req.ControlMode == string(world.ControlFree) {
		mode = world.ControlFree
	}

	rangeM := req.RangeM
	if rangeM <= 0 {
		rangeM = 1000
	}
	wireLength := geo.Clamp(rangeM, 0, s.Cfg.Torpedo.MaxRangeM)

	heading := geo.CompassToWorld(req.HeadingDeg)
	launchX := sub.X + math.Cos(heading)*s.Cfg.Submarine.NoseOffsetM
	launchY := sub.Y + math.Sin(heading)*s.Cfg.Submarine.NoseOffsetM
	targetDepth := math.Max(0, req.DepthM)

	tp := &world.Torpedo{
		ID:          uuid.NewString(),
		UserID:      sub.UserID,
		ParentSubID: sub.ID,
		X:           launchX,
		Y:           launchY,
		Depth:       sub.Depth,
		Heading:     heading,
		TargetDepth: &targetDepth,
		Speed:       s.Cfg.Torpedo.MinSpeedMps,
		TargetSpeed: s.Cfg.Torpedo.MaxSpeedMps,
		ControlMode: mode,
		WireLength:  wireLength,
		CreatedAt:   time.Now(),
		Battery:     100,
		StartX:      sub.X,
		StartY:      sub.Y,
	}
	s.World.Torps[tp.ID] = tp
	sub.TorpedoAmmo--
	if store := s.World.Store(); store != nil {
		_ = store.UpsertTorpedo(tp)
	}

	writeJSON(w, http.StatusCreated, tp)
}

type reloadRequest struct {
	Count *int `json:"count"`
}

// handleReload recharges the magazine, spending battery per round. This
// is the only operation that deducts ReloadBatteryCostPerTorp; firing
// itself is free.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, newError(KindBadRequest, "malformed request body"))
			return
		}
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	missing := sub.MagazineSize - sub.TorpedoAmmo
	if missing <= 0 {
		writeError(w, newError(KindConflict, "magazine already full"))
		return
	}
	count := missing
	if req.Count != nil {
		if *req.Count <= 0 {
			writeError(w, newError(KindBadRequest, "count must be positive"))
			return
		}
		count = *req.Count
		if count > missing {
			count = missing
		}
	}

	cost := s.Cfg.Submarine.ReloadBatteryCostPerTorp * float64(count)
	if sub.Battery < cost {
		writeError(w, newError(KindConflict, "insufficient battery to reload"))
		return
	}
	sub.Battery -= cost
	sub.TorpedoAmmo += count

	writeJSON(w, http.StatusOK, sub)
}

// handleWeatherScan sweeps for nearby hazard clouds at the cost of
// battery and some self-generated passive-sonar noise.
func (s *Server) handleWeatherScan(w http.ResponseWriter, r *http.Request) {
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	contacts, err := sim.WeatherScan(s.World, sub, &s.Cfg.Submarine, time.Now())
	if err != nil {
		writeError(w, newError(KindConflict, err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

type passiveArrayRequest struct {
	DirectionDeg float64 `json:"direction_deg"`
}

// handlePassiveArray points the submarine's towed passive array.
func (s *Server) handlePassiveArray(w http.ResponseWriter, r *http.Request) {
	var req passiveArrayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, newError(KindBadRequest, "malformed request body"))
		return
	}

	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	sub.PassiveArrayDir = geo.CompassToWorld(req.DirectionDeg)
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleRefuelBind(w http.ResponseWriter, r *http.Request) {
	s.World.Mu.Lock()
	defer s.World.Mu.Unlock()
	sub, apiErr := s.ownedSub(r, r.PathValue("id"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if !sim.BindForRefuel(s.World, &s.Cfg.Fueler, &s.Cfg.Submarine, sub) {
		writeError(w, newError(KindConflict, "no fueler in range"))
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
