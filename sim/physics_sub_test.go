package sim

import (
	"math"
	"testing"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/world"
)

func testSubConfig() *config.SubmarineConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return &cfg.Submarine
}

func TestSubmarineAcceleratesTowardThrottle(t *testing.T) {
	cfg := testSubConfig()
	s := &world.Submarine{Battery: 100, Throttle: 1.0}
	for i := 0; i < 400; i++ {
		UpdateSubmarinePhysics(s, 0.1, cfg, 0, 0, 20000, nil)
	}
	if math.Abs(s.Speed-cfg.MaxSpeedMps) > 0.01 {
		t.Fatalf("expected speed to settle near max %v, got %v", cfg.MaxSpeedMps, s.Speed)
	}
}

func TestSubmarineHeadingSeeksTarget(t *testing.T) {
	cfg := testSubConfig()
	target := math.Pi / 2
	s := &world.Submarine{Battery: 100, TargetHeading: &target}
	for i := 0; i < 500; i++ {
		UpdateSubmarinePhysics(s, 0.1, cfg, 0, 0, 20000, nil)
	}
	if math.Abs(s.Heading-target) > 0.05 {
		t.Fatalf("expected heading to converge to %v, got %v", target, s.Heading)
	}
}

func TestSubmarineBatteryDrainsUnderThrottle(t *testing.T) {
	cfg := testSubConfig()
	s := &world.Submarine{Battery: 100, Throttle: 1.0}
	UpdateSubmarinePhysics(s, 1.0, cfg, 0, 0, 20000, nil)
	if s.Battery >= 100 {
		t.Fatalf("expected battery to drain under full throttle, got %v", s.Battery)
	}
}

func TestSubmarineBatteryDeadLocksDepthControl(t *testing.T) {
	cfg := testSubConfig()
	depth := 100.0
	s := &world.Submarine{Battery: 0, TargetDepth: &depth, Planes: 0.5}
	UpdateSubmarinePhysics(s, 0.1, cfg, 0, 0, 20000, nil)
	if s.TargetDepth != nil {
		t.Fatal("expected dead battery to clear target depth")
	}
	if s.Planes != 0 {
		t.Fatal("expected dead battery to zero planes")
	}
}

func TestSubmarineCrushDamageBeyondCrushDepth(t *testing.T) {
	cfg := testSubConfig()
	s := &world.Submarine{Battery: 100, Health: 100, Depth: cfg.CrushDepthM + 100}
	UpdateSubmarinePhysics(s, 1.0, cfg, 0, 0, 20000, nil)
	if s.Health >= 100 {
		t.Fatal("expected crush damage beyond crush depth")
	}
}

func TestSubmarineWeatherDamageOutsideRing(t *testing.T) {
	cfg := testSubConfig()
	clouds := []*world.WeatherCloud{
		{CenterX: 21000, CenterY: 0, Radius: 500, MinDepth: 0, MaxDepth: 300, DamageDps: 5},
	}
	s := &world.Submarine{Battery: 100, Health: 100, X: 21000, Y: 0, Depth: 50}
	UpdateSubmarinePhysics(s, 1.0, cfg, 0, 0, 20000, clouds)
	if s.Health >= 100 {
		t.Fatal("expected weather damage while inside a cloud outside the safe ring")
	}
}

func TestSubmarineSnorkelRechargesBattery(t *testing.T) {
	cfg := testSubConfig()
	s := &world.Submarine{Battery: 50, Fuel: 100, IsSnorkeling: true, Depth: cfg.SnorkelDepthM - 1}
	UpdateSubmarinePhysics(s, 1.0, cfg, 0, 0, 20000, nil)
	if s.Battery <= 50 {
		t.Fatal("expected battery to recharge while snorkeling at periscope depth")
	}
	if s.Fuel >= 100 {
		t.Fatal("expected fuel to be consumed by the recharge")
	}
}

func TestSubmarineSnorkelAutoOffBelowHysteresis(t *testing.T) {
	cfg := testSubConfig()
	s := &world.Submarine{Battery: 50, Fuel: 100, IsSnorkeling: true, Depth: cfg.SnorkelDepthM + cfg.SnorkelOffHysteresisM + 5}
	UpdateSubmarinePhysics(s, 0.1, cfg, 0, 0, 20000, nil)
	if s.IsSnorkeling {
		t.Fatal("expected snorkel to auto-disengage well below periscope depth")
	}
}
