package sim

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/lab1702/subwar/config"
	"github.com/lab1702/subwar/events"
	"github.com/lab1702/subwar/geo"
	"github.com/lab1702/subwar/world"
)

// pendingEcho is one scheduled active-ping return, captured at ping time
// and delivered once the acoustic round trip elapses. Only the raw
// acoustic level and geometry are stored; quality and noise are derived
// at delivery time so a long-in-flight echo degrades the same way a
// freshly pinged one would.
type pendingEcho struct {
	pingerUserID    string
	arrival         time.Time
	observerSubID   string
	observerHeading float64
	echoLevel       float64
	rng             float64
	bearing         float64
	targetDepth     float64
}

// PendingEchoes is the narrower mutex-guarded queue of in-flight active
// pings, kept separate from the world mutex so delivery bookkeeping
// never needs the whole-world lock.
type PendingEchoes struct {
	mu    sync.Mutex
	items []pendingEcho
}

// NewPendingEchoes constructs an empty echo queue.
func NewPendingEchoes() *PendingEchoes {
	return &PendingEchoes{}
}

type sonarError string

func (e sonarError) Error() string { return string(e) }

const (
	errCooldown   sonarError = "ping cooldown active"
	errLowBattery sonarError = "insufficient battery for active ping"
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// RequestPing validates and fires an active ping from sub: it charges
// battery scaled to the requested max range, immediately warns every
// other live submarine whose detection SNR exceeds 1.0 that a ping went
// out (active_ping_detected is not limited to the ping's own working
// range), and schedules an
// echo for delivery to the pinger after the round-trip travel time, for
// every contact that actually falls in beam and in range. Call with the
// world mutex held.
func RequestPing(w *world.World, sub *world.Submarine, beamCenterCompassDeg, beamWidthDeg, maxRangeM float64, cfg *config.SonarConfig, ringCX, ringCY, ringR float64, fabric *events.Fabric, echoes *PendingEchoes, now time.Time) error {
	if now.Sub(sub.LastPingTime).Seconds() < cfg.PingCooldownS {
		return errCooldown
	}
	if sub.Battery < cfg.PingMinBattery {
		return errLowBattery
	}
	if beamWidthDeg <= 0 || beamWidthDeg > cfg.PingMaxAngleDeg {
		beamWidthDeg = cfg.PingMaxAngleDeg
	}
	maxRange := maxRangeM
	if maxRange <= 0 || maxRange > cfg.ActiveMaxRangeM {
		maxRange = cfg.ActiveMaxRangeM
	}

	cost := cfg.PingBaseCost + cfg.PingCostPerDeg*beamWidthDeg + cfg.PingCostPer100m*(maxRange/100)
	sub.Battery = math.Max(0, sub.Battery-cost)
	sub.LastPingTime = now

	beamCenterRad := geo.CompassToWorld(beamCenterCompassDeg)

	// A ping itself is loud: other live submarines are warned whether or
	// not they lie within the ping's own range. The detection SNR rises
	// with beam width and requested range and falls with the target's
	// distance from the pinger; only SNR above 1.0 is reported.
	for _, tgt := range w.Subs {
		if tgt.ID == sub.ID || tgt.Health <= 0 {
			continue
		}
		dist := geo.Distance2D(sub.X, sub.Y, tgt.X, tgt.Y)
		snr := 15*(beamWidthDeg/90) + (maxRange/1000)*3 - (dist / 600)
		if snr <= 1.0 {
			continue
		}
		bearingBack := geo.Bearing(tgt.X, tgt.Y, sub.X, sub.Y)
		fabric.Publish(tgt.UserID, events.Event{
			Kind: events.KindContact,
			Data: events.Contact{
				Type:            "active_ping_detected",
				ObserverSubID:   tgt.ID,
				Bearing:         geo.WorldToCompass(bearingBack),
				BearingRelative: geo.WorldToCompass(geo.AngleDiff(tgt.Heading, bearingBack)),
				RangeClass:      classifyRange(dist, cfg),
				SNR:             snr,
				ContactType:     "submarine",
				Time:            events.UnixSeconds(now),
			},
		})
	}

	var scheduled []pendingEcho
	for _, tgt := range w.Subs {
		if tgt.ID == sub.ID || tgt.Health <= 0 {
			continue
		}
		dist3 := geo.Distance3D(sub.X, sub.Y, sub.Depth, tgt.X, tgt.Y, tgt.Depth)
		if dist3 > maxRange {
			continue
		}
		bearingOut := geo.Bearing(sub.X, sub.Y, tgt.X, tgt.Y)
		rel := geo.AngleDiff(beamCenterRad, bearingOut)
		if math.Abs(rel)*180/math.Pi > beamWidthDeg/2 {
			continue
		}

		focusBonus := math.Max(0, (90-beamWidthDeg)/90) * cfg.BeamFocusMaxBonus
		echoLevel := 18 - dist3/400 + focusBonus
		if tgt.IsSnorkeling {
			echoLevel += cfg.SnorkelEchoBonus
		}
		echoLevel -= cloudAttenuation(sub.X, sub.Y, sub.Depth, tgt.X, tgt.Y, tgt.Depth, dist3, w.Clouds, cfg, ringCX, ringCY, ringR)

		etaS := 2 * dist3 / cfg.SoundSpeedMps
		scheduled = append(scheduled, pendingEcho{
			pingerUserID:    sub.UserID,
			arrival:         now.Add(time.Duration(etaS * float64(time.Second))),
			observerSubID:   sub.ID,
			observerHeading: sub.Heading,
			echoLevel:       echoLevel,
			rng:             dist3,
			bearing:         bearingOut,
			targetDepth:     tgt.Depth,
		})
	}

	echoes.mu.Lock()
	echoes.items = append(echoes.items, scheduled...)
	echoes.mu.Unlock()
	return nil
}

// DeliverDueEchoes pushes every scheduled echo whose round-trip time has
// elapsed to its pinger's event queue, applying delivery-time noise
// scaled by the echo's acoustic quality: a strong echo (high echoLevel)
// arrives nearly exact, a weak one is smeared across bearing, range, and
// estimated depth. Called once per tick from the engine, independent of
// the world mutex.
func DeliverDueEchoes(echoes *PendingEchoes, cfg *config.SonarConfig, fabric *events.Fabric, now time.Time) {
	echoes.mu.Lock()
	var due []pendingEcho
	remaining := echoes.items[:0]
	for _, e := range echoes.items {
		if e.arrival.After(now) {
			remaining = append(remaining, e)
		} else {
			due = append(due, e)
		}
	}
	echoes.items = remaining
	echoes.mu.Unlock()

	for _, e := range due {
		q := sigmoid((e.echoLevel - 10) / 6)

		bearingNoise := (rand.Float64()*2 - 1) * (cfg.EchoBearingSigmaDeg * math.Pi / 180) * (1 - q)
		rangeNoise := (rand.Float64()*2 - 1) * math.Max(5, cfg.EchoRangeSigmaM*(1-q))
		depthNoise := (rand.Float64()*2 - 1) * math.Max(15, (e.rng/50)*(1-q)*25)

		noisyBearing := geo.WrapAngle(e.bearing + bearingNoise)
		fabric.Publish(e.pingerUserID, events.Event{
			Kind: events.KindEcho,
			Data: events.Echo{
				ObserverSubID:   e.observerSubID,
				Bearing:         geo.WorldToCompass(noisyBearing),
				BearingRelative: geo.WorldToCompass(geo.AngleDiff(e.observerHeading, noisyBearing)),
				Range:           math.Max(0, e.rng+rangeNoise),
				EstimatedDepth:  math.Max(0, e.targetDepth+depthNoise),
				Quality:         q,
				Time:            events.UnixSeconds(now),
			},
		})
	}
}

// ResolveTorpedoAutoPing runs each torpedo's own narrow-beam auto-active
// ping on its configured interval, provided it carries enough battery to
// afford one, and reports raw bearing/range/depth contacts directly to
// the torpedo's owner. Battery is only spent when the ping actually
// raises a contact.
func ResolveTorpedoAutoPing(w *world.World, sonarCfg *config.SonarConfig, torpCfg *config.TorpedoConfig, fabric *events.Fabric, now time.Time) {
	for _, tp := range w.Torps {
		if tp.Delete || !tp.ActiveEnabled {
			continue
		}
		if now.Sub(tp.LastPingTime).Seconds() < torpCfg.PingIntervalS {
			continue
		}
		cost := math.Max(torpCfg.ActivePingCost, torpCfg.MinBatteryForPing)
		if tp.Battery < cost {
			continue
		}
		tp.LastPingTime = now

		var contacts []events.TorpedoPingContact
		for _, tgt := range w.Subs {
			if tgt.Health <= 0 {
				continue
			}
			dist := geo.Distance2D(tp.X, tp.Y, tgt.X, tgt.Y)
			if dist > sonarCfg.ActiveMaxRangeM {
				continue
			}
			bearing := geo.Bearing(tp.X, tp.Y, tgt.X, tgt.Y)
			rel := geo.AngleDiff(tp.Heading, bearing)
			if math.Abs(rel)*180/math.Pi > sonarCfg.TorpAutoPingBeamDeg/2 {
				continue
			}
			contacts = append(contacts, events.TorpedoPingContact{
				Bearing: geo.WorldToCompass(bearing),
				Range:   dist,
				Depth:   tgt.Depth,
			})
		}
		if len(contacts) == 0 {
			continue
		}
		tp.Battery = math.Max(0, tp.Battery-cost)
		fabric.Publish(tp.UserID, events.Event{
			Kind: events.KindTorpedoPing,
			Data: events.TorpedoPing{
				TorpedoID: tp.ID,
				Contacts:  contacts,
				Time:      events.UnixSeconds(now),
			},
		})
	}
}

// TorpedoManualPing is a torpedo's own on-demand active ping: a fixed,
// narrow beam straight ahead, an immediate (non-delayed) contact list
// with flat noise rather than the scheduled, quality-graded echo a
// submarine ping produces, and its own battery cost gate.
func TorpedoManualPing(w *world.World, tp *world.Torpedo, maxRangeM float64, cfg *config.TorpedoConfig, now time.Time) ([]events.TorpedoPingContact, error) {
	cost := math.Max(cfg.ActivePingCost, cfg.MinBatteryForPing)
	if tp.Battery < cost {
		return nil, errLowBattery
	}

	maxRange := maxRangeM
	if maxRange <= 0 {
		maxRange = cfg.ManualPingDefaultRangeM
	}
	if maxRange > cfg.ManualPingMaxRangeM {
		maxRange = cfg.ManualPingMaxRangeM
	}

	tp.Battery = math.Max(0, tp.Battery-cost)
	tp.LastPingTime = now

	var contacts []events.TorpedoPingContact
	for _, tgt := range w.Subs {
		if tgt.Health <= 0 {
			continue
		}
		dist := geo.Distance2D(tp.X, tp.Y, tgt.X, tgt.Y)
		if dist > maxRange {
			continue
		}
		bearing := geo.Bearing(tp.X, tp.Y, tgt.X, tgt.Y)
		rel := geo.AngleDiff(tp.Heading, bearing)
		if math.Abs(rel)*180/math.Pi > cfg.ManualPingBeamDeg/2 {
			continue
		}
		rangeNoise := (rand.Float64()*2 - 1) * cfg.ManualPingNoiseM
		depthNoise := (rand.Float64()*2 - 1) * cfg.ManualPingNoiseM
		contacts = append(contacts, events.TorpedoPingContact{
			Bearing: geo.WorldToCompass(bearing),
			Range:   math.Max(0, dist+rangeNoise),
			Depth:   math.Max(0, tgt.Depth+depthNoise),
		})
	}
	return contacts, nil
}
