// Package sim is the tick-driven simulation core: submarine and torpedo
// physics, weapons resolution, sonar, refueling, and the scheduling
// that ties them together once per tick.
package sim

import (
	"log"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/world"
)

const maxDt = 0.25

// Engine owns the authoritative world and advances it one tick at a
// time. All of its state is guarded by World.Mu except Echoes, which
// carries its own narrower lock.
type Engine struct {
	World  *world.World
	Cfg    *config.Config
	Fabric *events.Fabric
	Echoes *PendingEchoes

	lastTick     time.Time
	lastSnapshot map[string]time.Time
}

// NewEngine constructs an Engine ready to Tick.
func NewEngine(w *world.World, cfg *config.Config, fabric *events.Fabric) *Engine {
	return &Engine{
		World:        w,
		Cfg:          cfg,
		Fabric:       fabric,
		Echoes:       NewPendingEchoes(),
		lastSnapshot: make(map[string]time.Time),
	}
}

// Run drives the tick loop at the configured rate until stop is closed.
// It is meant to run in its own goroutine for the life of the process.
func (e *Engine) Run(stop <-chan struct{}) {
	period := time.Second / time.Duration(e.Cfg.Server.TickRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			e.Tick(now)
		}
	}
}

// Tick advances the whole world by one step. Called on the engine's own
// ticker in production and directly, with an arbitrary now, from tests.
func (e *Engine) Tick(now time.Time) {
	e.World.Mu.Lock()
	defer e.World.Mu.Unlock()

	if e.lastTick.IsZero() {
		e.lastTick = now
		return
	}
	dt := now.Sub(e.lastTick).Seconds()
	if dt < 0 {
		dt = 0
	}
	if dt > maxDt {
		dt = maxDt
	}
	e.lastTick = now

	ringCX := e.Cfg.World.RingCenterX
	ringCY := e.Cfg.World.RingCenterY
	ringR := e.Cfg.World.RingRadiusM

	var positions [][2]float64
	for _, s := range e.World.Subs {
		if s.Health > 0 {
			positions = append(positions, [2]float64{s.X, s.Y})
		}
	}
	world.MaintainWeather(e.World, &e.Cfg.Weather, ringCX, ringCY, ringR, now, positions)

	for _, s := range e.World.Subs {
		if s.Health <= 0 {
			continue
		}
		UpdateSubmarinePhysics(s, dt, &e.Cfg.Submarine, ringCX, ringCY, ringR, e.World.Clouds)
	}
	for _, t := range e.World.Torps {
		if t.Delete || t.Expired {
			continue
		}
		UpdateTorpedoPhysics(t, dt, &e.Cfg.Torpedo, e.World.Subs[t.ParentSubID])
	}

	RunRefuel(e.World, &e.Cfg.Fueler, dt, now)
	ResolveWeapons(e.World, &e.Cfg.Torpedo, e.Fabric, now)
	AwardScore(e.World, &e.Cfg.Submarine, dt)
	RunPassiveSonar(e.World, &e.Cfg.Sonar, ringCX, ringCY, ringR, e.Fabric, now)
	DeliverDueEchoes(e.Echoes, &e.Cfg.Sonar, e.Fabric, now)
	ResolveTorpedoAutoPing(e.World, &e.Cfg.Sonar, &e.Cfg.Torpedo, e.Fabric, now)

	e.commit(now)
	e.dispatchSnapshots(now)
}

// commit persists the tick's outcome: living entities are upserted,
// entities that died or expired this tick are removed from both memory
// and the store.
func (e *Engine) commit(now time.Time) {
	store := e.World.Store()

	for id, s := range e.World.Subs {
		if s.Health <= 0 {
			if u, ok := e.World.Users[s.UserID]; ok {
				u.PrevDeathTS = u.LastDeathTS
				u.LastDeathTS = now
				if store != nil {
					if err := store.SaveUser(u); err != nil {
						log.Printf("sim: save user %s: %v", u.ID, err)
					}
				}
			}
			delete(e.World.Subs, id)
			if store != nil {
				if err := store.DeleteSubmarine(id); err != nil {
					log.Printf("sim: delete submarine %s: %v", id, err)
				}
			}
			continue
		}
		s.LastUpdated = now
		if store != nil {
			if err := store.UpsertSubmarine(s); err != nil {
				log.Printf("sim: upsert submarine %s: %v", id, err)
			}
		}
	}

	for id, t := range e.World.Torps {
		if t.Delete || t.Expired || t.BatteryDead {
			delete(e.World.Torps, id)
			if store != nil {
				if err := store.DeleteTorpedo(id); err != nil {
					log.Printf("sim: delete torpedo %s: %v", id, err)
				}
			}
			continue
		}
		if store != nil {
			if err := store.UpsertTorpedo(t); err != nil {
				log.Printf("sim: upsert torpedo %s: %v", id, err)
			}
		}
	}

	if store != nil {
		for _, f := range e.World.Fuelers {
			if err := store.UpsertFueler(f); err != nil {
				log.Printf("sim: upsert fueler %s: %v", f.ID, err)
			}
		}
	}
}

// dispatchSnapshots pushes a whole-world snapshot to every user whose
// interval has elapsed, per spec.md's snapshot cadence.
func (e *Engine) dispatchSnapshots(now time.Time) {
	interval := time.Duration(e.Cfg.Events.SnapshotIntervalS * float64(time.Second))

	seen := make(map[string]bool)
	for _, s := range e.World.Subs {
		seen[s.UserID] = true
	}
	for userID := range seen {
		if last, ok := e.lastSnapshot[userID]; ok && now.Sub(last) < interval {
			continue
		}
		e.lastSnapshot[userID] = now
		e.Fabric.Publish(userID, events.Event{Kind: events.KindSnapshot, Data: e.buildSnapshot(now)})
	}
}

func (e *Engine) buildSnapshot(now time.Time) events.Snapshot {
	snap := events.Snapshot{Time: events.UnixSeconds(now)}
	for _, s := range e.World.Subs {
		if s.Health <= 0 {
			continue
		}
		snap.Subs = append(snap.Subs, events.SubView{
			ID: s.ID, UserID: s.UserID, X: s.X, Y: s.Y, Depth: s.Depth,
			Heading: s.Heading, Speed: s.Speed, Battery: s.Battery, Fuel: s.Fuel,
			Health: s.Health, Snorkel: s.IsSnorkeling, Score: s.Score, Kills: s.Kills,
			TorpAmmo: s.TorpedoAmmo,
		})
	}
	for _, t := range e.World.Torps {
		if t.Delete {
			continue
		}
		snap.Torpedoes = append(snap.Torpedoes, events.TorpedoView{
			ID: t.ID, UserID: t.UserID, X: t.X, Y: t.Y, Depth: t.Depth,
			Heading: t.Heading, Speed: t.Speed, Mode: string(t.ControlMode), Battery: t.Battery,
		})
	}
	for _, f := range e.World.Fuelers {
		snap.Fuelers = append(snap.Fuelers, events.FuelerView{ID: f.ID, X: f.X, Y: f.Y, Fuel: f.Fuel, MaxFuel: f.MaxFuel})
	}
	return snap
}
