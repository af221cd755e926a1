package sim

import (
	"math"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/world"
)

// ResolveWeapons checks every live torpedo for detonation this tick:
// unconditionally once its battery is dead, or via proximity fuze once
// armed and within range of a submarine. The torpedo's own parent is
// exempt from its proximity fuze only while still inside
// MinSafeDistanceM of it (so a torpedo does not arm against the boat
// that just fired it); beyond that distance it is a normal target, like
// any other submarine. A battery-dead detonation is unconditional and
// can still catch the parent at any distance.
func ResolveWeapons(w *world.World, cfg *config.TorpedoConfig, fabric *events.Fabric, now time.Time) {
	for _, t := range w.Torps {
		if t.Delete {
			continue
		}
		if t.BatteryDead {
			Detonate(w, t, cfg, fabric, now)
			continue
		}

		armed := now.Sub(t.CreatedAt).Seconds() >= cfg.ArmingDelayS
		if !armed {
			continue
		}

		for _, s := range w.Subs {
			if s.Health <= 0 {
				continue
			}
			dist := geo.Distance3D(t.X, t.Y, t.Depth, s.X, s.Y, s.Depth)
			if s.ID == t.ParentSubID && dist < cfg.MinSafeDistanceM {
				continue
			}
			if dist <= cfg.ProximityFuzeM {
				Detonate(w, t, cfg, fabric, now)
				break
			}
		}
	}
}

// Detonate applies graduated blast damage to every submarine within
// blast radius of t's current position, sends an explosion event to the
// owner of each submarine it kills, credits a kill to t's firer for each
// such victim, and marks t for deletion (the tick's commit removes it
// from the world). Exported so the
// command-detonate control endpoint can trigger the same blast outside
// the tick loop, under the world mutex.
func Detonate(w *world.World, t *world.Torpedo, cfg *config.TorpedoConfig, fabric *events.Fabric, now time.Time) {
	firer := w.Subs[t.ParentSubID]

	for _, s := range w.Subs {
		if s.Health <= 0 {
			continue
		}
		dist := geo.Distance3D(t.X, t.Y, t.Depth, s.X, s.Y, s.Depth)
		if dist > cfg.BlastRadiusM {
			continue
		}

		dmg := blastDamage(dist)
		s.Health = math.Max(0, s.Health-dmg)

		if s.Health <= 0 {
			fabric.Publish(s.UserID, events.Event{
				Kind: events.KindExplosion,
				Data: events.Explosion{
					At:           [3]float64{t.X, t.Y, t.Depth},
					TorpedoID:    t.ID,
					BlastRadiusM: cfg.BlastRadiusM,
					Damage:       dmg,
					Distance:     dist,
					Time:         events.UnixSeconds(now),
				},
			})
		}

		if s.Health <= 0 && firer != nil && s.ID != firer.ID {
			firer.Kills++
		}
	}

	t.Delete = true
}

func blastDamage(dist float64) float64 {
	switch {
	case dist <= 60:
		return 100
	case dist <= 80:
		return 75
	case dist <= 100:
		return 50
	default:
		return 25
	}
}

// AwardScore accrues time-based score for every submarine still alive,
// compounding with kill count per spec's score-rate formula.
func AwardScore(w *world.World, cfg *config.SubmarineConfig, dt float64) {
	for _, s := range w.Subs {
		if s.Health <= 0 {
			continue
		}
		s.Score += cfg.ScoreBaseRatePerS * (1 + cfg.ScoreKillMultiplier*float64(s.Kills)) * dt
	}
}
