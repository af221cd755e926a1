package world

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/lab1702/subwar/config"
)

// GenerateInitialClouds builds the boot-time cloud field: count clouds in
// an annulus just outside the ring, radii sampled biased toward the
// outer edge, per spec.md §4.8.
func GenerateInitialClouds(cfg *config.WeatherConfig, ringCX, ringCY, ringRadius float64) []*WeatherCloud {
	clouds := make([]*WeatherCloud, 0, cfg.BaseCount)
	innerR := ringRadius + cfg.AnnulusInnerM
	outerR := ringRadius + cfg.AnnulusOuterM
	for i := 0; i < cfg.BaseCount; i++ {
		clouds = append(clouds, spawnCloud(cfg, ringCX, ringCY, innerR, outerR, time.Time{}))
	}
	return clouds
}

// spawnCloud samples a single cloud at a radius in [innerR, outerR],
// biased toward the outer edge via a sqrt transform of a uniform sample.
func spawnCloud(cfg *config.WeatherConfig, cx, cy, innerR, outerR float64, expiry time.Time) *WeatherCloud {
	u := rand.Float64()
	r := innerR + math.Sqrt(u)*(outerR-innerR)
	theta := rand.Float64() * 2 * math.Pi

	radius := cfg.MinRadiusM + rand.Float64()*(cfg.MaxRadiusM-cfg.MinRadiusM)
	depthCenter := 50 + rand.Float64()*250
	thickness := 40 + rand.Float64()*120

	return &WeatherCloud{
		ID:            fmt.Sprintf("cloud-%d", rand.Int63()),
		CenterX:       cx + r*math.Cos(theta),
		CenterY:       cy + r*math.Sin(theta),
		Radius:        radius,
		MinDepth:      math.Max(0, depthCenter-thickness/2),
		MaxDepth:      depthCenter + thickness/2,
		AttenuationDb: cfg.MinAttenuationDb + rand.Float64()*(cfg.MaxAttenuationDb-cfg.MinAttenuationDb),
		DamageDps:     cfg.MinDamageDps + rand.Float64()*(cfg.MaxDamageDps-cfg.MinDamageDps),
		ExpiryTime:    expiry,
	}
}

// radiusFromRing returns a cloud's (or point's) distance from the ring
// center.
func radiusFromRing(cx, cy, ringCX, ringCY float64) float64 {
	dx := cx - ringCX
	dy := cy - ringCY
	return math.Sqrt(dx*dx + dy*dy)
}

// MaintainWeather runs the per-tick dynamic weather bookkeeping described
// in spec.md §4.8. Caller must hold the World mutex; playerPositions is
// every live submarine's (x, y).
func MaintainWeather(w *World, cfg *config.WeatherConfig, ringCX, ringCY, ringRadius float64, now time.Time, playerPositions [][2]float64) {
	// 1. Remove expired clouds.
	kept := w.Clouds[:0]
	for _, c := range w.Clouds {
		if !c.ExpiryTime.IsZero() && !c.ExpiryTime.After(now) {
			continue
		}
		kept = append(kept, c)
	}
	w.Clouds = kept

	// 2. Extend outward if any player is beyond the current furthest cloud.
	currentMaxR := ringRadius + cfg.AnnulusOuterM
	for _, c := range w.Clouds {
		if r := radiusFromRing(c.CenterX, c.CenterY, ringCX, ringCY); r > currentMaxR {
			currentMaxR = r
		}
	}
	furthestPlayerR := 0.0
	for _, p := range playerPositions {
		if r := radiusFromRing(p[0], p[1], ringCX, ringCY); r > furthestPlayerR {
			furthestPlayerR = r
		}
	}
	if furthestPlayerR > currentMaxR {
		newMaxR := math.Max(currentMaxR, furthestPlayerR+1500)
		density := float64(cfg.BaseCount) / (cfg.AnnulusOuterM - cfg.AnnulusInnerM)
		bandWidth := newMaxR - currentMaxR
		n := int(density * bandWidth)
		for i := 0; i < n; i++ {
			w.Clouds = append(w.Clouds, spawnCloud(cfg, ringCX, ringCY, currentMaxR, newMaxR, time.Time{}))
		}
	}

	// 3. Local spawn: ensure a minimum density around each far-out sub.
	if cfg.LocalSpawnEnabled {
		for _, p := range playerPositions {
			r := radiusFromRing(p[0], p[1], ringCX, ringCY)
			if r < ringRadius+cfg.LocalFarMarginM {
				continue
			}
			innerR := math.Max(0, r-cfg.LocalInnerOffsetM)
			outerR := r + cfg.LocalOuterOffsetM
			count := 0
			for _, c := range w.Clouds {
				cr := radiusFromRing(c.CenterX, c.CenterY, ringCX, ringCY)
				if cr >= innerR && cr <= outerR {
					count++
				}
			}
			for count < cfg.LocalMinClouds {
				w.Clouds = append(w.Clouds, spawnCloud(cfg, ringCX, ringCY, innerR, outerR, now.Add(time.Duration(cfg.LocalCloudTTLs)*time.Second)))
				count++
			}
		}
	}

	// 4. Cap enforcement: trim innermost clouds first.
	cap := int(float64(cfg.BaseCount) * cfg.MaxCountFactor)
	for len(w.Clouds) > cap {
		trimInnermost(w, ringCX, ringCY)
	}
}

func trimInnermost(w *World, ringCX, ringCY float64) {
	if len(w.Clouds) == 0 {
		return
	}
	minIdx := 0
	minR := radiusFromRing(w.Clouds[0].CenterX, w.Clouds[0].CenterY, ringCX, ringCY)
	for i, c := range w.Clouds[1:] {
		r := radiusFromRing(c.CenterX, c.CenterY, ringCX, ringCY)
		if r < minR {
			minR = r
			minIdx = i + 1
		}
	}
	w.Clouds = append(w.Clouds[:minIdx], w.Clouds[minIdx+1:]...)
}

// OutsideRing reports whether (x, y) lies outside the central ring.
func OutsideRing(x, y, ringCX, ringCY, ringRadius float64) bool {
	return radiusFromRing(x, y, ringCX, ringCY) > ringRadius
}

// CloudsContaining returns every cloud whose cylinder contains (x, y, depth).
func CloudsContaining(clouds []*WeatherCloud, x, y, depth float64) []*WeatherCloud {
	var out []*WeatherCloud
	for _, c := range clouds {
		if !c.ContainsDepth(depth) {
			continue
		}
		dx := x - c.CenterX
		dy := y - c.CenterY
		if dx*dx+dy*dy <= c.Radius*c.Radius {
			out = append(out, c)
		}
	}
	return out
}
