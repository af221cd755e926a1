package sim

import (
	"math"
	"testing"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/world"
)

func testTorpConfig() *config.TorpedoConfig {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return &cfg.Torpedo
}

func TestTorpedoAcceleratesTowardTargetSpeed(t *testing.T) {
	cfg := testTorpConfig()
	tp := &world.Torpedo{Battery: 100, TargetSpeed: cfg.MaxSpeedMps}
	for i := 0; i < 60; i++ {
		UpdateTorpedoPhysics(tp, 0.1, cfg, nil)
	}
	if math.Abs(tp.Speed-cfg.MaxSpeedMps) > 0.01 {
		t.Fatalf("expected speed to reach max %v, got %v", cfg.MaxSpeedMps, tp.Speed)
	}
}

func TestTorpedoHeadingSeeksTarget(t *testing.T) {
	cfg := testTorpConfig()
	target := math.Pi
	tp := &world.Torpedo{Battery: 100, TargetHeading: &target, TargetSpeed: cfg.MinSpeedMps}
	for i := 0; i < 200; i++ {
		UpdateTorpedoPhysics(tp, 0.1, cfg, nil)
	}
	if math.Abs(geoAngleDiff(tp.Heading, target)) > 0.05 {
		t.Fatalf("expected heading to converge to %v, got %v", target, tp.Heading)
	}
}

func TestTorpedoPendingTurnAppliedOnce(t *testing.T) {
	cfg := testTorpConfig()
	tp := &world.Torpedo{Battery: 100, PendingTurn: math.Pi / 4}
	UpdateTorpedoPhysics(tp, 0.1, cfg, nil)
	if tp.PendingTurn != 0 {
		t.Fatal("expected pending turn to be consumed")
	}
	if tp.TargetHeading == nil {
		t.Fatal("expected pending turn to set a target heading")
	}
}

func TestTorpedoRangeExpiry(t *testing.T) {
	cfg := testTorpConfig()
	cfg.MaxRangeM = 100
	tp := &world.Torpedo{Battery: 100, TargetSpeed: cfg.MaxSpeedMps, Speed: cfg.MaxSpeedMps}
	for i := 0; i < 50 && !tp.Expired; i++ {
		UpdateTorpedoPhysics(tp, 1.0, cfg, nil)
	}
	if !tp.Expired {
		t.Fatal("expected torpedo to expire after exceeding max range")
	}
}

func TestTorpedoWireSeveranceSwitchesToFree(t *testing.T) {
	cfg := testTorpConfig()
	tp := &world.Torpedo{
		Battery:     100,
		ControlMode: world.ControlWire,
		WireLength:  50,
		TargetSpeed: cfg.MaxSpeedMps,
		Speed:       cfg.MaxSpeedMps,
	}
	parent := &world.Submarine{X: 0, Y: 0}
	for i := 0; i < 20 && tp.ControlMode == world.ControlWire; i++ {
		UpdateTorpedoPhysics(tp, 1.0, cfg, parent)
	}
	if tp.ControlMode != world.ControlFree {
		t.Fatal("expected wire to sever and switch to free control once past wire length")
	}
}

func TestTorpedoWireSeveredWhenParentGone(t *testing.T) {
	cfg := testTorpConfig()
	tp := &world.Torpedo{
		Battery:     100,
		ControlMode: world.ControlWire,
		WireLength:  5000,
	}
	UpdateTorpedoPhysics(tp, 1.0, cfg, nil)
	if tp.ControlMode != world.ControlFree {
		t.Fatal("expected wire to sever immediately when the parent submarine no longer exists")
	}
}

func TestTorpedoBatteryDepletes(t *testing.T) {
	cfg := testTorpConfig()
	tp := &world.Torpedo{Battery: 0.001, TargetSpeed: cfg.MaxSpeedMps, Speed: cfg.MaxSpeedMps}
	UpdateTorpedoPhysics(tp, 1.0, cfg, nil)
	if !tp.BatteryDead {
		t.Fatal("expected torpedo battery to reach zero and mark battery-dead")
	}
}

func geoAngleDiff(a, b float64) float64 {
	d := math.Mod(b-a+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}
