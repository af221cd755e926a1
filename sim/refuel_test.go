package sim

import (
	"testing"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/world"
)

func testFuelerConfig() *config.FuelerConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return &cfg.Fueler
}

func testSubmarineConfig() *config.SubmarineConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return &cfg.Submarine
}

func TestRunRefuelTransfersAfterWarmup(t *testing.T) {
	cfg := testFuelerConfig()
	now := time.Now()
	f := &world.Fueler{ID: "f1", Fuel: 1000, MaxFuel: 2000, SpawnTime: now}
	s := &world.Submarine{RefuelActive: true, BoundFuelerID: "f1", RefuelTimer: cfg.WarmupS, Fuel: 0}
	w := &world.World{
		Subs:    map[string]*world.Submarine{"s": s},
		Fuelers: map[string]*world.Fueler{"f1": f},
	}

	RunRefuel(w, cfg, 1.0, now)

	if s.Fuel <= 0 {
		t.Fatal("expected fuel transfer once warmup has elapsed")
	}
	if f.Fuel >= 1000 {
		t.Fatal("expected the fueler's reserve to decrease")
	}
}

func TestRunRefuelNoTransferDuringWarmup(t *testing.T) {
	cfg := testFuelerConfig()
	now := time.Now()
	f := &world.Fueler{ID: "f1", Fuel: 1000, MaxFuel: 2000, SpawnTime: now}
	s := &world.Submarine{RefuelActive: true, BoundFuelerID: "f1", RefuelTimer: 0, Fuel: 0}
	w := &world.World{
		Subs:    map[string]*world.Submarine{"s": s},
		Fuelers: map[string]*world.Fueler{"f1": f},
	}

	RunRefuel(w, cfg, 1.0, now)

	if s.Fuel != 0 {
		t.Fatal("expected no transfer before warmup elapses")
	}
}

func TestRunRefuelUnbindsOutOfRange(t *testing.T) {
	cfg := testFuelerConfig()
	now := time.Now()
	f := &world.Fueler{ID: "f1", Fuel: 1000, X: 10000, Y: 0, SpawnTime: now}
	s := &world.Submarine{RefuelActive: true, BoundFuelerID: "f1", RefuelTimer: cfg.WarmupS, X: 0, Y: 0}
	w := &world.World{
		Subs:    map[string]*world.Submarine{"s": s},
		Fuelers: map[string]*world.Fueler{"f1": f},
	}

	RunRefuel(w, cfg, 1.0, now)

	if s.RefuelActive {
		t.Fatal("expected refuel to break once out of proximity range")
	}
}

func TestRunRefuelExpiresFueler(t *testing.T) {
	cfg := testFuelerConfig()
	now := time.Now()
	f := &world.Fueler{ID: "f1", Fuel: 1000, SpawnTime: now.Add(-time.Duration(cfg.LifetimeS+10) * time.Second)}
	w := &world.World{
		Subs:    map[string]*world.Submarine{},
		Fuelers: map[string]*world.Fueler{"f1": f},
	}

	RunRefuel(w, cfg, 1.0, now)

	if _, ok := w.Fuelers["f1"]; ok {
		t.Fatal("expected expired fueler to be removed")
	}
}

func TestBindForRefuelWithinRange(t *testing.T) {
	cfg := testFuelerConfig()
	subCfg := testSubmarineConfig()
	sub := &world.Submarine{UserID: "u1", X: 0, Y: 0}
	f := &world.Fueler{ID: "f1", OwnerUserID: "u1", X: 10, Y: 0}
	w := &world.World{
		Subs:    map[string]*world.Submarine{},
		Fuelers: map[string]*world.Fueler{"f1": f},
	}

	if !BindForRefuel(w, cfg, subCfg, sub) {
		t.Fatal("expected bind to succeed within proximity range")
	}
	if sub.BoundFuelerID != "f1" {
		t.Fatal("expected submarine bound to the nearby fueler")
	}
	if !sub.IsSnorkeling {
		t.Fatal("expected bind to force snorkel mode on")
	}
}
