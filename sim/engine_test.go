package sim

import (
	"testing"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/world"
)

func testEngineConfig() *config.Config {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return cfg
}

func TestEngineTickAcceleratesSubmarine(t *testing.T) {
	cfg := testEngineConfig()
	w := &world.World{
		Subs:    map[string]*world.Submarine{"s1": {ID: "s1", UserID: "u1", Battery: 100, Health: 100, Throttle: 1.0}},
		Torps:   map[string]*world.Torpedo{},
		Fuelers: map[string]*world.Fueler{},
	}
	fabric := events.NewFabric(100)
	e := NewEngine(w, cfg, fabric)

	now := time.Now()
	e.Tick(now)
	now = now.Add(100 * time.Millisecond)
	e.Tick(now)

	s := w.Subs["s1"]
	if s.Speed <= 0 {
		t.Fatal("expected the submarine to have begun accelerating after one real tick")
	}
}

func TestEngineTickFirstCallIsNoop(t *testing.T) {
	cfg := testEngineConfig()
	w := &world.World{
		Subs:    map[string]*world.Submarine{"s1": {ID: "s1", UserID: "u1", Battery: 100, Health: 100, Throttle: 1.0}},
		Torps:   map[string]*world.Torpedo{},
		Fuelers: map[string]*world.Fueler{},
	}
	fabric := events.NewFabric(100)
	e := NewEngine(w, cfg, fabric)

	e.Tick(time.Now())

	if w.Subs["s1"].Speed != 0 {
		t.Fatal("expected the first tick to only establish the clock baseline")
	}
}

func TestEngineTickRemovesDeadSubmarines(t *testing.T) {
	cfg := testEngineConfig()
	w := &world.World{
		Subs:    map[string]*world.Submarine{"s1": {ID: "s1", UserID: "u1", Health: 0}},
		Torps:   map[string]*world.Torpedo{},
		Fuelers: map[string]*world.Fueler{},
	}
	fabric := events.NewFabric(100)
	e := NewEngine(w, cfg, fabric)

	now := time.Now()
	e.Tick(now)
	e.Tick(now.Add(100 * time.Millisecond))

	if _, ok := w.Subs["s1"]; ok {
		t.Fatal("expected a dead submarine to be removed from the world")
	}
}

func TestEngineDispatchesSnapshotToOwner(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Events.SnapshotIntervalS = 0
	w := &world.World{
		Subs:    map[string]*world.Submarine{"s1": {ID: "s1", UserID: "u1", Battery: 100, Health: 100}},
		Torps:   map[string]*world.Torpedo{},
		Fuelers: map[string]*world.Fueler{},
	}
	fabric := events.NewFabric(100)
	q := fabric.Subscribe("u1")
	e := NewEngine(w, cfg, fabric)

	now := time.Now()
	e.Tick(now)
	e.Tick(now.Add(100 * time.Millisecond))

	select {
	case ev := <-q.C():
		if ev.Kind != events.KindSnapshot {
			t.Fatalf("expected a snapshot event, got %v", ev.Kind)
		}
	default:
		t.Fatal("expected a snapshot to be dispatched")
	}
}
