package sim

import (
	"math"
	"math/rand"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/world"
)

// RunPassiveSonar delivers each submarine's periodic passive contact
// report and updates each torpedo's own passive track, per spec.md §4.5.
// A submarine observer reports on a jittered 2-4s cadence rather than
// every tick. A torpedo with passive sonar enabled checks every tick and
// records the bearing and time of its latest submarine contact on itself
// (LastBearing, LastContactTime); it publishes no event for it.
func RunPassiveSonar(w *world.World, cfg *config.SonarConfig, ringCX, ringCY, ringR float64, fabric *events.Fabric, now time.Time) {
	for _, obs := range w.Subs {
		if obs.Health <= 0 {
			continue
		}
		if obs.NextReportIntervalS == 0 {
			obs.NextReportIntervalS = cfg.ReportIntervalMinS + rand.Float64()*(cfg.ReportIntervalMaxS-cfg.ReportIntervalMinS)
		}
		if now.Sub(obs.LastPassiveReport).Seconds() < obs.NextReportIntervalS {
			continue
		}
		obs.LastPassiveReport = now
		obs.NextReportIntervalS = cfg.ReportIntervalMinS + rand.Float64()*(cfg.ReportIntervalMaxS-cfg.ReportIntervalMinS)

		for _, tgt := range w.Subs {
			if tgt.ID == obs.ID || tgt.Health <= 0 {
				continue
			}
			snr, dist := subToSubSNR(obs, tgt, cfg, w.Clouds, ringCX, ringCY, ringR, now)
			if snr < cfg.ThresholdSub {
				continue
			}
			fabric.Publish(obs.UserID, events.Event{
				Kind: events.KindContact,
				Data: buildContact(obs, tgt.X, tgt.Y, dist, snr, cfg, "submarine", now),
			})
		}

		for _, tp := range w.Torps {
			if tp.Delete {
				continue
			}
			snr, dist := torpAsTargetSNR(obs, tp, cfg, w.Clouds, ringCX, ringCY, ringR)
			if snr < cfg.ThresholdTorpAsTarget {
				continue
			}
			bearing := geo.Bearing(obs.X, obs.Y, tp.X, tp.Y)
			fabric.Publish(obs.UserID, events.Event{
				Kind: events.KindTorpedoContact,
				Data: events.TorpedoContact{
					TorpedoID:       tp.ID,
					Bearing:         geo.WorldToCompass(jitterBearing(bearing, obs.Depth, cfg)),
					BearingRelative: geo.WorldToCompass(geo.AngleDiff(obs.Heading, bearing)),
					RangeClass:      classifyRange(dist, cfg),
					SNR:             snr,
					ContactType:     "torpedo",
					Time:            events.UnixSeconds(now),
				},
			})
		}
	}

	for _, tp := range w.Torps {
		if tp.Delete || !tp.PassiveEnabled {
			continue
		}
		for _, tgt := range w.Subs {
			if tgt.Health <= 0 {
				continue
			}
			dist := geo.Distance3D(tp.X, tp.Y, tp.Depth, tgt.X, tgt.Y, tgt.Depth)
			if dist > cfg.TorpObserverRangeM {
				continue
			}
			bearing := geo.Bearing(tp.X, tp.Y, tgt.X, tgt.Y)
			rel := geo.AngleDiff(tp.Heading, bearing)
			if math.Abs(rel)*180/math.Pi > cfg.TorpObserverBeamDeg/2 {
				continue
			}
			snr := cfg.BaseSNR - cfg.FalloffTorpSub*(dist/1000)
			if snr < cfg.ThresholdTorpObserver {
				continue
			}
			tp.LastBearing = bearing
			tp.LastContactTime = now
		}
	}
}

func subToSubSNR(obs, tgt *world.Submarine, cfg *config.SonarConfig, clouds []*world.WeatherCloud, ringCX, ringCY, ringR float64, now time.Time) (float64, float64) {
	dist := geo.Distance3D(obs.X, obs.Y, obs.Depth, tgt.X, tgt.Y, tgt.Depth)
	snr := cfg.BaseSNR + cfg.SpeedNoiseGain*tgt.Speed/12 - cfg.FalloffSubSub*(dist/1000) - tgt.Depth/200
	if tgt.IsSnorkeling {
		snr += cfg.SnorkelBonus
	}
	if tgt.BlowActive {
		snr += cfg.BlowBonus
	}
	if tgt.ScannerNoiseUntil.After(now) {
		snr += cfg.ScannerNoiseBonus
	}
	snr -= cloudAttenuation(obs.X, obs.Y, obs.Depth, tgt.X, tgt.Y, tgt.Depth, dist, clouds, cfg, ringCX, ringCY, ringR)
	return snr, dist
}

func torpAsTargetSNR(obs *world.Submarine, tp *world.Torpedo, cfg *config.SonarConfig, clouds []*world.WeatherCloud, ringCX, ringCY, ringR float64) (float64, float64) {
	dist := geo.Distance3D(obs.X, obs.Y, obs.Depth, tp.X, tp.Y, tp.Depth)
	capped := dist
	if cap := cfg.SubTorpRangeCapFactor * cfg.TorpObserverRangeM; cap > 0 && capped > cap {
		return -1, dist
	}
	snr := cfg.BaseSNR + cfg.SpeedNoiseGain*tp.Speed/28 - cfg.FalloffSubTorp*(dist/1000) - tp.Depth/200
	snr -= cloudAttenuation(obs.X, obs.Y, obs.Depth, tp.X, tp.Y, tp.Depth, dist, clouds, cfg, ringCX, ringCY, ringR)
	return snr, dist
}

// cloudAttenuation is the weather-masking term subtracted from a sonar
// SNR: it only applies once the two endpoints are far enough apart to
// leave the "close hearing" ring (spec's cloud_close_hear_range_m),
// and is the sum of three terms: a flat penalty when either endpoint
// lies outside the central ring, the worst cloud either endpoint sits
// inside, and the worst cloud the line of sound actually crosses. Within
// each of the last two terms overlapping clouds do not stack; only the
// strongest one counts.
func cloudAttenuation(x1, y1, depth1, x2, y2, depth2, dist float64, clouds []*world.WeatherCloud, cfg *config.SonarConfig, ringCX, ringCY, ringR float64) float64 {
	if dist < cfg.CloudCloseHearRangeM {
		return 0
	}

	total := 0.0
	if world.OutsideRing(x1, y1, ringCX, ringCY, ringR) || world.OutsideRing(x2, y2, ringCX, ringCY, ringR) {
		total = cfg.OutsideRingAttenuationDb
	}

	pointMax := 0.0
	for _, c := range world.CloudsContaining(clouds, x1, y1, depth1) {
		pointMax = math.Max(pointMax, c.AttenuationDb)
	}
	for _, c := range world.CloudsContaining(clouds, x2, y2, depth2) {
		pointMax = math.Max(pointMax, c.AttenuationDb)
	}
	total += pointMax

	lo, hi := depth1, depth2
	if lo > hi {
		lo, hi = hi, lo
	}
	occlusionMax := 0.0
	for _, c := range clouds {
		if c.MaxDepth < lo || c.MinDepth > hi {
			continue
		}
		if !geo.SegmentCircleIntersects(x1, y1, x2, y2, c.CenterX, c.CenterY, c.Radius) {
			continue
		}
		occlusionMax = math.Max(occlusionMax, c.AttenuationDb)
	}
	total += occlusionMax

	return total
}

func jitterBearing(bearing, depth float64, cfg *config.SonarConfig) float64 {
	maxJitter := cfg.BearingJitterDeg
	if depth < cfg.ShallowDepthM {
		maxJitter = math.Min(maxJitter, cfg.ShallowJitterClampDeg)
	}
	jitterRad := (rand.Float64()*2 - 1) * maxJitter * math.Pi / 180
	return geo.WrapAngle(bearing + jitterRad)
}

func classifyRange(dist float64, cfg *config.SonarConfig) events.RangeClass {
	switch {
	case dist <= cfg.RangeShortM:
		return events.RangeShort
	case dist <= cfg.RangeMediumM:
		return events.RangeMedium
	default:
		return events.RangeLong
	}
}

func buildContact(obs *world.Submarine, tx, ty, dist, snr float64, cfg *config.SonarConfig, contactType string, now time.Time) events.Contact {
	bearing := geo.Bearing(obs.X, obs.Y, tx, ty)
	jittered := jitterBearing(bearing, obs.Depth, cfg)
	return events.Contact{
		Type:            "passive",
		ObserverSubID:   obs.ID,
		Bearing:         geo.WorldToCompass(jittered),
		BearingRelative: geo.WorldToCompass(geo.AngleDiff(obs.Heading, jittered)),
		RangeClass:      classifyRange(dist, cfg),
		SNR:             snr,
		ContactType:     contactType,
		Time:            events.UnixSeconds(now),
	}
}
