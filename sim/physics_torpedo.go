package sim

import (
	"math"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/world"
)

// UpdateTorpedoPhysics advances one torpedo by dt seconds: guidance,
// speed ramp, position integration, wire severance, and battery drain.
// It sets Expired/BatteryDead but never removes the torpedo — that is
// the tick loop's job once every torpedo has been advanced. parent is
// t's live firing submarine, looked up by the caller; it is nil once
// that submarine has died or respawned under a new ID, in which case a
// wire-guided torpedo is treated as severed rather than panicking.
func UpdateTorpedoPhysics(t *world.Torpedo, dt float64, cfg *config.TorpedoConfig, parent *world.Submarine) {
	if t.PendingTurn != 0 {
		h := geo.WrapAngle(t.Heading + t.PendingTurn)
		t.TargetHeading = &h
		t.PendingTurn = 0
	}

	if t.TargetHeading != nil {
		errAngle := geo.AngleDiff(t.Heading, *t.TargetHeading)
		maxStep := cfg.TurnRateRadPerS * dt
		turn := geo.Clamp(errAngle, -maxStep, maxStep)
		t.Heading = geo.WrapAngle(t.Heading + turn)
	}

	if t.TargetDepth != nil {
		maxStep := cfg.DepthRateMps * dt
		diff := *t.TargetDepth - t.Depth
		if diff > maxStep {
			diff = maxStep
		} else if diff < -maxStep {
			diff = -maxStep
		}
		t.Depth = math.Max(0, t.Depth+diff)
	}

	target := geo.Clamp(t.TargetSpeed, cfg.MinSpeedMps, cfg.MaxSpeedMps)
	maxStep := cfg.AccelMps2 * dt
	if target > t.Speed {
		t.Speed = math.Min(t.Speed+maxStep, target)
	} else if target < t.Speed {
		t.Speed = math.Max(t.Speed-maxStep, target)
	}

	dx := math.Cos(t.Heading) * t.Speed * dt
	dy := math.Sin(t.Heading) * t.Speed * dt
	t.X += dx
	t.Y += dy

	traveled := math.Hypot(dx, dy)
	t.AddRangeTraveled(traveled)
	rangeBudget := cfg.MaxRangeM
	if t.WireLength > 0 && t.WireLength < rangeBudget {
		rangeBudget = t.WireLength
	}
	if t.RangeTraveled() >= rangeBudget {
		t.Expired = true
	}

	if t.ControlMode == world.ControlWire {
		if parent == nil {
			t.ControlMode = world.ControlFree
		} else if math.Hypot(t.X-parent.X, t.Y-parent.Y) >= t.WireLength {
			t.ControlMode = world.ControlFree
		}
	}

	t.Battery = math.Max(0, t.Battery-cfg.DrainPerMpsPerS*t.Speed*t.Speed*dt-cfg.BatteryCostPer100m*(traveled/100))
	if t.Battery <= 0 {
		t.BatteryDead = true
	}
}
