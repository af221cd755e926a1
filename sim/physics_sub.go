package sim

import (
	"math"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/world"
)

// UpdateSubmarinePhysics advances one submarine by dt seconds, following
// the per-tick sequence in spec.md §4.2, including crush and weather
// damage to this submarine. It never touches other submarines;
// cross-entity effects such as blast damage are resolved by their own
// stages.
func UpdateSubmarinePhysics(s *world.Submarine, dt float64, cfg *config.SubmarineConfig, ringCX, ringCY, ringRadius float64, clouds []*world.WeatherCloud) {
	batteryDead := s.Battery <= 0

	// 1. Rudder servo.
	targetRudder := geo.Clamp(s.RudderCmd, -1, 1) * cfg.MaxRudderRad
	if !batteryDead {
		maxStep := cfg.RudderRateRadPerS * dt
		diff := targetRudder - s.RudderAngle
		if diff > maxStep {
			diff = maxStep
		} else if diff < -maxStep {
			diff = -maxStep
		}
		s.RudderAngle = geo.Clamp(s.RudderAngle+diff, -cfg.MaxRudderRad, cfg.MaxRudderRad)
	}

	// 2. Heading update.
	if s.TargetHeading != nil {
		errAngle := geo.AngleDiff(s.Heading, *s.TargetHeading)
		yaw := geo.Clamp(0.5*errAngle, -cfg.YawRateRadPerS, cfg.YawRateRadPerS)
		s.Heading = geo.WrapAngle(s.Heading + yaw*dt)
		if math.Abs(errAngle) < 2*math.Pi/180 {
			s.TargetHeading = nil
		}
	} else {
		yaw := cfg.YawRateRadPerS * (s.RudderAngle / cfg.MaxRudderRad)
		s.Heading = geo.WrapAngle(s.Heading + yaw*dt)
	}

	// 3. Pitch.
	if !batteryDead {
		targetPitch := s.Planes * cfg.PlanesEffectDeg * math.Pi / 180
		maxStep := cfg.PitchRateRadPerS * dt
		diff := targetPitch - s.Pitch
		if diff > maxStep {
			diff = maxStep
		} else if diff < -maxStep {
			diff = -maxStep
		}
		s.Pitch += diff
	}

	// 4. Throttle & speed.
	maxSpeed := cfg.MaxSpeedMps
	if s.IsSnorkeling {
		maxSpeed *= cfg.SnorkelSpeedMultiplier
	}
	var targetSpeed float64
	if batteryDead || s.RefuelActive {
		targetSpeed = 0
	} else {
		targetSpeed = s.Throttle * maxSpeed
	}
	maxStep := cfg.AccelerationMps2 * dt
	if targetSpeed > s.Speed {
		s.Speed = math.Min(s.Speed+maxStep, targetSpeed)
	} else if targetSpeed < s.Speed {
		s.Speed = math.Max(s.Speed-maxStep, targetSpeed)
	}

	// 5. Battery-dead lockout of depth control.
	if batteryDead && !s.BlowActive {
		s.TargetDepth = nil
		s.Planes = 0
	}

	// 6. Vertical velocity.
	vDown := cfg.NeutralBias * (1 - s.Throttle)
	if s.Speed < 2 {
		vDown += 0.8 * (2 - s.Speed) / 2
	}
	if s.BlowActive {
		if s.BlowCharge > 0 {
			vDown -= cfg.BlowUpwardMps
			s.BlowCharge = math.Max(0, s.BlowCharge-dt/cfg.BlowDurationS)
		}
		if s.BlowCharge <= 0 {
			s.BlowActive = false
		}
	}
	if s.TargetDepth != nil && math.Abs(s.Planes) < 0.05 {
		depthErr := *s.TargetDepth - s.Depth
		vDown += geo.Clamp(depthErr*0.02, -1.5, 1.5)
	}
	vDown -= math.Sin(s.Pitch) * math.Max(s.Speed, 0) * 0.45

	// 7. Position integration.
	s.Depth = math.Max(0, s.Depth+vDown*dt)
	s.X += math.Cos(s.Heading) * s.Speed * dt
	s.Y += math.Sin(s.Heading) * s.Speed * dt

	// 8. Battery drain.
	r := s.Speed / cfg.MaxSpeedMps
	mult := 1.0
	if r > 0.5 {
		mult = 1 + math.Pow(2*(r-0.5), 2)*cfg.HighSpeedMultiplier
	}
	throttle := s.Throttle
	if s.RefuelActive {
		throttle = 0
	}
	s.Battery = math.Max(0, s.Battery-throttle*cfg.DrainPerThrottleS*mult*dt)

	// 9. Snorkel recharge.
	if s.IsSnorkeling && s.Depth <= cfg.SnorkelDepthM && s.Fuel > 0 {
		transfer := math.Min(cfg.RechargePerS*dt, s.Fuel)
		transfer = math.Min(transfer, 100-s.Battery)
		if transfer > 0 {
			s.Battery += transfer
			s.Fuel -= transfer
		}
		if s.Fuel > 0 {
			s.BlowCharge = math.Min(1, s.BlowCharge+dt/cfg.BlowDurationS)
		}
	}

	// 10. Snorkel auto-off hysteresis.
	if !s.RefuelActive && s.Depth > cfg.SnorkelDepthM+cfg.SnorkelOffHysteresisM {
		s.IsSnorkeling = false
	}

	// 11. Moor while refueling.
	if s.RefuelActive {
		s.Depth = cfg.SnorkelDepthM
	}

	// 12. Crush damage.
	if s.Depth > cfg.CrushDepthM {
		s.Health = math.Max(0, s.Health-((s.Depth-cfg.CrushDepthM)/100)*cfg.CrushDps*dt)
	}

	// 13. Weather damage.
	if world.OutsideRing(s.X, s.Y, ringCX, ringCY, ringRadius) {
		worstDps := 0.0
		for _, c := range world.CloudsContaining(clouds, s.X, s.Y, s.Depth) {
			if c.DamageDps > worstDps {
				worstDps = c.DamageDps
			}
		}
		if worstDps > 0 {
			s.Health = math.Max(0, s.Health-worstDps*dt)
		}
	}

	s.Battery = geo.Clamp(s.Battery, 0, 100)
	s.Health = geo.Clamp(s.Health, 0, 100)
	s.BlowCharge = geo.Clamp(s.BlowCharge, 0, 1)
}
