// Package events defines the per-user event fabric: typed event
// payloads, the SSE wire envelope, and bounded per-user delivery queues.
package events

import "time"

// Kind identifies an event's wire type, used as the SSE "event:" line.
type Kind string

const (
	KindHello          Kind = "hello"
	KindSnapshot       Kind = "snapshot"
	KindContact        Kind = "contact"
	KindTorpedoContact Kind = "torpedo_contact"
	KindTorpedoPing    Kind = "torpedo_ping"
	KindEcho           Kind = "echo"
	KindExplosion      Kind = "explosion"
	KindPing           Kind = "ping"
	KindError          Kind = "error"
)

// Event is a single typed payload destined for one user's queue. Data
// must be JSON-marshalable; it is encoded as the SSE "data:" line.
type Event struct {
	Kind Kind
	Data interface{}
}

// Hello is sent once, immediately after a stream connects.
type Hello struct {
	UserID string  `json:"user_id"`
	Time   float64 `json:"time"`
}

// SubView is the snapshot's per-submarine projection.
type SubView struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Depth    float64  `json:"depth"`
	Heading  float64  `json:"heading"`
	Speed    float64  `json:"speed"`
	Battery  float64  `json:"battery"`
	Fuel     float64  `json:"fuel"`
	Health   float64  `json:"health"`
	Snorkel  bool     `json:"is_snorkeling"`
	Score    float64  `json:"score"`
	Kills    int      `json:"kills"`
	TorpAmmo int      `json:"torpedo_ammo"`
}

// TorpedoView is the snapshot's per-torpedo projection.
type TorpedoView struct {
	ID      string  `json:"id"`
	UserID  string  `json:"user_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Depth   float64 `json:"depth"`
	Heading float64 `json:"heading"`
	Speed   float64 `json:"speed"`
	Mode    string  `json:"control_mode"`
	Battery float64 `json:"battery"`
}

// FuelerView is the snapshot's per-fueler projection.
type FuelerView struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Fuel    float64 `json:"fuel"`
	MaxFuel float64 `json:"max_fuel"`
}

// Snapshot is the whole-world view for a single user, per spec.md §6.3.
type Snapshot struct {
	Subs      []SubView     `json:"subs"`
	Torpedoes []TorpedoView `json:"torpedoes"`
	Fuelers   []FuelerView  `json:"fuelers"`
	Time      float64       `json:"time"`
}

// RangeClass buckets a sonar contact's range for display without
// revealing the exact number.
type RangeClass string

const (
	RangeShort  RangeClass = "short"
	RangeMedium RangeClass = "medium"
	RangeLong   RangeClass = "long"
)

// Contact is a passive or active-ping-detected sonar event routed to the
// observing submarine's owner.
type Contact struct {
	Type            string     `json:"type"` // "passive" | "active_ping_detected"
	ObserverSubID   string     `json:"observer_sub_id"`
	Bearing         float64    `json:"bearing"`
	BearingRelative float64    `json:"bearing_relative"`
	RangeClass      RangeClass `json:"range_class"`
	SNR             float64    `json:"snr"`
	ContactType     string     `json:"contact_type"`
	Time            float64    `json:"time"`
}

// TorpedoContact is a torpedo heard by a submarine's passive sonar,
// sent to that submarine's owner. A torpedo's own passive detections
// are not published as events.
type TorpedoContact struct {
	TorpedoID       string     `json:"torpedo_id"`
	Bearing         float64    `json:"bearing"`
	BearingRelative float64    `json:"bearing_relative"`
	RangeClass      RangeClass `json:"range_class"`
	SNR             float64    `json:"snr"`
	ContactType     string     `json:"contact_type"` // "torpedo"
	Time            float64    `json:"time"`
}

// TorpedoPingContact is one submarine echo inside a torpedo auto-ping.
type TorpedoPingContact struct {
	Bearing float64 `json:"bearing"`
	Range   float64 `json:"range"`
	Depth   float64 `json:"depth"`
}

// TorpedoPing is emitted by a torpedo's own auto-active-ping.
type TorpedoPing struct {
	TorpedoID string               `json:"torpedo_id"`
	Contacts  []TorpedoPingContact `json:"contacts"`
	Time      float64              `json:"time"`
}

// Echo is an active-ping return delivered to the pinging submarine's owner.
type Echo struct {
	ObserverSubID   string  `json:"observer_sub_id"`
	Bearing         float64 `json:"bearing"`
	BearingRelative float64 `json:"bearing_relative"`
	Range           float64 `json:"range"`
	EstimatedDepth  float64 `json:"estimated_depth"`
	Quality         float64 `json:"quality"`
	Time            float64 `json:"time"`
}

// Explosion is delivered to the owner of a submarine killed by a blast.
type Explosion struct {
	At         [3]float64 `json:"at"`
	TorpedoID  string     `json:"torpedo_id"`
	BlastRadiusM float64  `json:"blast_radius"`
	Damage     float64    `json:"damage"`
	Distance   float64    `json:"distance"`
	Time       float64    `json:"time"`
}

// Keepalive is the periodic "ping" event that keeps an SSE stream alive.
type Keepalive struct {
	Time float64 `json:"time"`
}

// Error carries a structured failure to a stream that requested
// something the core could not do out-of-band of its HTTP response
// (reserved for future async failures; current control API errors are
// all synchronous HTTP responses per spec.md §7).
type Error struct {
	Message string `json:"message"`
	Time    float64 `json:"time"`
}

// UnixSeconds is a small helper so callers don't sprinkle float64(...Unix())
// conversions through the sim/api packages.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
