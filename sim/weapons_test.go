package sim

import (
	"testing"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/world"
)

func testTorpWeaponsConfig() *config.TorpedoConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return &cfg.Torpedo
}

func newWorldWithSubs(subs ...*world.Submarine) *world.World {
	w := &world.World{Subs: map[string]*world.Submarine{}, Torps: map[string]*world.Torpedo{}}
	for _, s := range subs {
		w.Subs[s.ID] = s
	}
	return w
}

func TestResolveWeaponsBatteryDeadDetonatesUnconditionally(t *testing.T) {
	cfg := testTorpWeaponsConfig()
	firer := &world.Submarine{ID: "firer", UserID: "u1", Health: 100}
	victim := &world.Submarine{ID: "victim", UserID: "u2", Health: 100}
	w := newWorldWithSubs(firer, victim)
	tp := &world.Torpedo{ID: "t1", ParentSubID: "firer", BatteryDead: true, CreatedAt: time.Now()}
	w.Torps["t1"] = tp
	fabric := events.NewFabric(10)
	fabric.Subscribe("u2")

	ResolveWeapons(w, cfg, fabric, time.Now())

	if !tp.Delete {
		t.Fatal("expected battery-dead torpedo to be marked for deletion")
	}
	if victim.Health >= 100 {
		t.Fatal("expected victim at blast center to take full damage")
	}
}

func TestResolveWeaponsParentExemptFromProximity(t *testing.T) {
	cfg := testTorpWeaponsConfig()
	firer := &world.Submarine{ID: "firer", UserID: "u1", Health: 100}
	w := newWorldWithSubs(firer)
	tp := &world.Torpedo{ID: "t1", ParentSubID: "firer", X: 0, Y: 0, Depth: 0, CreatedAt: time.Now().Add(-time.Hour)}
	w.Torps["t1"] = tp
	fabric := events.NewFabric(10)

	ResolveWeapons(w, cfg, fabric, time.Now())

	if tp.Delete {
		t.Fatal("expected torpedo at its parent's position to never proximity-detonate against the parent")
	}
	if firer.Health < 100 {
		t.Fatal("expected the parent to take no damage")
	}
}

func TestResolveWeaponsParentVulnerableBeyondMinSafeDistance(t *testing.T) {
	cfg := testTorpWeaponsConfig()
	// A wide proximity fuze (wider than the min-safe-distance) makes the
	// parent-beyond-min-safe-distance case reachable: under the default
	// tuning ProximityFuzeM is much tighter than MinSafeDistanceM, so the
	// parent is never in range at the moment it would stop being exempt.
	// The blast radius is widened to match so the parent, detonated on
	// beyond the default 120m blast radius, is still inside the blast.
	cfg.ProximityFuzeM = 200
	cfg.BlastRadiusM = 200
	firer := &world.Submarine{ID: "firer", UserID: "u1", Health: 100, X: cfg.MinSafeDistanceM + 10, Y: 0, Depth: 0}
	w := newWorldWithSubs(firer)
	tp := &world.Torpedo{ID: "t1", ParentSubID: "firer", X: 0, Y: 0, Depth: 0, CreatedAt: time.Now().Add(-time.Hour)}
	w.Torps["t1"] = tp
	fabric := events.NewFabric(10)
	fabric.Subscribe("u1")

	ResolveWeapons(w, cfg, fabric, time.Now())

	if !tp.Delete {
		t.Fatal("expected torpedo beyond its parent's min-safe-distance to proximity-detonate against it")
	}
	if firer.Health >= 100 {
		t.Fatal("expected the parent to take blast damage once beyond min-safe-distance")
	}
}

func TestResolveWeaponsArmingDelayBlocksEarlyProximity(t *testing.T) {
	cfg := testTorpWeaponsConfig()
	firer := &world.Submarine{ID: "firer", UserID: "u1", Health: 100}
	victim := &world.Submarine{ID: "victim", UserID: "u2", Health: 100, X: 1, Y: 0, Depth: 0}
	w := newWorldWithSubs(firer, victim)
	tp := &world.Torpedo{ID: "t1", ParentSubID: "firer", CreatedAt: time.Now()}
	w.Torps["t1"] = tp
	fabric := events.NewFabric(10)

	ResolveWeapons(w, cfg, fabric, time.Now())

	if tp.Delete {
		t.Fatal("expected a freshly-launched torpedo to not yet be armed")
	}
}

func TestResolveWeaponsProximityDetonatesOnOtherSub(t *testing.T) {
	cfg := testTorpWeaponsConfig()
	firer := &world.Submarine{ID: "firer", UserID: "u1", Health: 100}
	victim := &world.Submarine{ID: "victim", UserID: "u2", Health: 100, X: 10, Y: 0, Depth: 0}
	w := newWorldWithSubs(firer, victim)
	tp := &world.Torpedo{ID: "t1", ParentSubID: "firer", CreatedAt: time.Now().Add(-time.Hour)}
	w.Torps["t1"] = tp
	fabric := events.NewFabric(10)
	fabric.Subscribe("u2")

	ResolveWeapons(w, cfg, fabric, time.Now())

	if !tp.Delete {
		t.Fatal("expected torpedo within proximity fuze range to detonate")
	}
	if victim.Health >= 100 {
		t.Fatal("expected victim to take blast damage")
	}
}

func TestBlastDamageBands(t *testing.T) {
	cases := []struct {
		dist float64
		want float64
	}{
		{0, 100}, {60, 100}, {61, 75}, {80, 75}, {81, 50}, {100, 50}, {101, 25}, {119, 25},
	}
	for _, c := range cases {
		if got := blastDamage(c.dist); got != c.want {
			t.Errorf("blastDamage(%v) = %v, want %v", c.dist, got, c.want)
		}
	}
}

func TestAwardScoreCompoundsWithKills(t *testing.T) {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	s := &world.Submarine{Health: 100, Kills: 2}
	w := &world.World{Subs: map[string]*world.Submarine{"s": s}}
	AwardScore(w, &cfg.Submarine, 1.0)
	want := cfg.Submarine.ScoreBaseRatePerS * (1 + cfg.Submarine.ScoreKillMultiplier*2)
	if s.Score != want {
		t.Fatalf("got score %v, want %v", s.Score, want)
	}
}
