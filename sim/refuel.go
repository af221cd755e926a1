package sim

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/world"
)

// RunRefuel advances every bound refuel session, expires fuelers, and
// clears bindings whose fueler has vanished or drifted out
// of range, per spec.md §4.7.
func RunRefuel(w *world.World, cfg *config.FuelerConfig, dt float64, now time.Time) {
	for _, s := range w.Subs {
		if !s.RefuelActive {
			continue
		}
		f, ok := w.Fuelers[s.BoundFuelerID]
		if !ok {
			s.RefuelActive = false
			s.RefuelTimer = 0
			continue
		}
		if geo.Distance2D(s.X, s.Y, f.X, f.Y) > cfg.ProximityM {
			s.RefuelActive = false
			s.RefuelTimer = 0
			continue
		}

		s.RefuelTimer += dt
		if s.RefuelTimer < cfg.WarmupS {
			continue
		}

		if f.FirstUseTime.IsZero() {
			f.FirstUseTime = now
		}
		transfer := math.Min(cfg.RefuelRatePerS*dt, f.Fuel)
		if transfer <= 0 {
			continue
		}
		s.Fuel += transfer
		f.Fuel -= transfer
	}

	for id, f := range w.Fuelers {
		expired := now.Sub(f.SpawnTime).Seconds() > cfg.LifetimeS
		firstUseExpired := !f.FirstUseTime.IsZero() && now.Sub(f.FirstUseTime).Seconds() > cfg.FirstUseExpiryS
		if expired || firstUseExpired || f.Fuel <= 0 {
			delete(w.Fuelers, id)
			if w.Store() != nil {
				_ = w.Store().DeleteFueler(id)
			}
			for _, s := range w.Subs {
				if s.BoundFuelerID == id {
					s.RefuelActive = false
					s.RefuelTimer = 0
					s.BoundFuelerID = ""
				}
			}
		}
	}
}

// SpawnFuelerForUser creates the single active fueler a user may own,
// placed between SpawnMinKm and SpawnMaxKm from their submarine.
func SpawnFuelerForUser(w *world.World, cfg *config.FuelerConfig, userID string, originX, originY float64, now time.Time) *world.Fueler {
	distM := (cfg.SpawnMinKm + rand.Float64()*(cfg.SpawnMaxKm-cfg.SpawnMinKm)) * 1000
	theta := rand.Float64() * 2 * math.Pi
	f := &world.Fueler{
		ID:          fmt.Sprintf("fueler-%d", rand.Int63()),
		OwnerUserID: userID,
		X:           originX + distM*math.Cos(theta),
		Y:           originY + distM*math.Sin(theta),
		Fuel:        cfg.MaxFuelUnits,
		MaxFuel:     cfg.MaxFuelUnits,
		SpawnTime:   now,
	}
	w.Fuelers[f.ID] = f
	return f
}

// BindForRefuel attaches sub to its owner's fueler if that fueler is
// within proximity range, starting the warmup countdown. Binding also
// forces the boat up to snorkel depth for the duration of the transfer,
// the same way surfacing to refuel would in practice.
func BindForRefuel(w *world.World, fuelerCfg *config.FuelerConfig, subCfg *config.SubmarineConfig, sub *world.Submarine) bool {
	f, ok := w.FuelerByUser(sub.UserID)
	if !ok {
		return false
	}
	if geo.Distance2D(sub.X, sub.Y, f.X, f.Y) > fuelerCfg.ProximityM {
		return false
	}
	sub.RefuelActive = true
	sub.BoundFuelerID = f.ID
	sub.RefuelTimer = 0
	sub.IsSnorkeling = true
	snorkelDepth := subCfg.SnorkelDepthM
	sub.TargetDepth = &snorkelDepth
	return true
}
