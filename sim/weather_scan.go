package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/world"
)

const errInsufficientBatteryScan sonarError = "insufficient battery for weather scan"

// WeatherScanContact is one noisy sector detection returned by a
// weather-scan sweep.
type WeatherScanContact struct {
	BearingDeg    float64 `json:"bearing_deg"`
	RangeM        float64 `json:"range_m"`
	ApproxRadiusM float64 `json:"approx_radius_m"`
	DepthMinM     float64 `json:"depth_min_m"`
	DepthMaxM     float64 `json:"depth_max_m"`
}

// WeatherScan sweeps 360 degrees around sub in 10-degree sectors,
// reporting the nearest cloud edge per sector within its depth band and
// configured range, with noise applied to bearing and range. It also
// makes sub noisier to passive sonar for a configured duration, the same
// transducer sweep that reveals the weather also broadcasts the boat's
// own position.
func WeatherScan(w *world.World, sub *world.Submarine, cfg *config.SubmarineConfig, now time.Time) ([]WeatherScanContact, error) {
	if sub.Battery < cfg.WeatherScanCost {
		return nil, errInsufficientBatteryScan
	}
	sub.Battery = math.Max(0, sub.Battery-cfg.WeatherScanCost)

	noiseUntil := now.Add(time.Duration(cfg.WeatherScanNoiseDurS * float64(time.Second)))
	if noiseUntil.After(sub.ScannerNoiseUntil) {
		sub.ScannerNoiseUntil = noiseUntil
	}

	type sectorHit struct {
		cloud    *world.WeatherCloud
		edgeDist float64
	}
	nearest := make(map[int]sectorHit)
	for _, c := range w.Clouds {
		if c.MaxDepth < sub.Depth-50 || c.MinDepth > sub.Depth+50 {
			continue
		}
		centerDist := geo.Distance2D(sub.X, sub.Y, c.CenterX, c.CenterY)
		edgeDist := math.Max(0, centerDist-c.Radius)
		if edgeDist > cfg.WeatherScanRangeM {
			continue
		}
		bearingDeg := geo.WorldToCompass(geo.Bearing(sub.X, sub.Y, c.CenterX, c.CenterY))
		sector := int(bearingDeg / 10)
		if cur, ok := nearest[sector]; !ok || edgeDist < cur.edgeDist {
			nearest[sector] = sectorHit{cloud: c, edgeDist: edgeDist}
		}
	}

	contacts := make([]WeatherScanContact, 0, len(nearest))
	for _, hit := range nearest {
		bearingDeg := geo.WorldToCompass(geo.Bearing(sub.X, sub.Y, hit.cloud.CenterX, hit.cloud.CenterY))
		bearingNoise := (rand.Float64()*2 - 1) * cfg.WeatherScanBrgSigmaDeg
		rangeNoise := (rand.Float64()*2 - 1) * cfg.WeatherScanRngSigmaM
		contacts = append(contacts, WeatherScanContact{
			BearingDeg:    math.Mod(bearingDeg+bearingNoise+360, 360),
			RangeM:        math.Max(0, hit.edgeDist+rangeNoise),
			ApproxRadiusM: hit.cloud.Radius,
			DepthMinM:     hit.cloud.MinDepth,
			DepthMaxM:     hit.cloud.MaxDepth,
		})
	}
	return contacts, nil
}
