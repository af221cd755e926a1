// Package world holds the durable data model for the simulation (Users,
// ApiKeys, Submarines, Torpedoes, Fuelers) plus the process-memory-only
// weather field, and the single mutex that serializes every reader and
// writer of that state.
package world

import "time"

// User is an authenticated account. Submarines, ApiKeys, and Fuelers are
// owned by a User.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	IsAdmin      bool
	LastDeathTS  time.Time
	PrevDeathTS  time.Time
	CreatedAt    time.Time
}

// ApiKey maps an opaque token to exactly one User.
type ApiKey struct {
	Key       string
	UserID    string
	CreatedAt time.Time
}

// ControlMode is a torpedo's guidance mode.
type ControlMode string

const (
	ControlWire ControlMode = "wire"
	ControlFree ControlMode = "free"
)

// Submarine is a player-controlled vessel.
type Submarine struct {
	ID     string
	UserID string
	Name   string

	X, Y, Depth float64
	Heading     float64 // world radians
	Pitch       float64

	RudderAngle float64 // current servo angle
	RudderCmd   float64 // commanded, [-1,1]
	Planes      float64 // [-1,1]
	Throttle    float64 // [0,1]

	TargetDepth   *float64
	TargetHeading *float64

	Speed float64

	Battery float64 // [0,100]
	Fuel    float64 // diesel units, >=0

	RefuelActive    bool
	BoundFuelerID   string
	RefuelTimer     float64
	IsSnorkeling    bool

	BlowActive  bool
	BlowCharge  float64 // [0,1]
	BlowEndTime time.Time

	Health float64 // [0,100]

	PassiveArrayDir float64

	TorpedoAmmo  int
	MagazineSize int

	Score float64
	Kills int

	ScannerNoiseUntil time.Time

	LastPassiveReport   time.Time
	NextReportIntervalS float64
	LastPingTime        time.Time

	CreatedAt   time.Time
	LastUpdated time.Time
}

// Torpedo is a launched weapon owned by a User and linked to the
// Submarine that fired it.
type Torpedo struct {
	ID           string
	UserID       string
	ParentSubID  string

	X, Y, Depth float64
	Heading     float64
	TargetDepth *float64
	TargetHeading *float64
	PendingTurn float64 // single-shot relative turn, consumed on next update

	Speed       float64
	TargetSpeed float64

	ControlMode ControlMode
	WireLength  float64 // max range budget, also wire-severance threshold

	CreatedAt time.Time

	PassiveEnabled  bool
	LastBearing     float64
	LastContactTime time.Time

	ActiveEnabled bool
	LastPingTime  time.Time

	Battery float64 // [0,100]

	// Ephemeral tick-local state.
	StartX, StartY float64
	rangeTraveled  float64
	Expired        bool
	CheckProx      bool
	BatteryDead    bool
	Delete         bool
}

// RangeTraveled returns the cumulative XY distance flown since launch.
func (t *Torpedo) RangeTraveled() float64 { return t.rangeTraveled }

// AddRangeTraveled accumulates distance flown this tick.
func (t *Torpedo) AddRangeTraveled(d float64) { t.rangeTraveled += d }

// Fueler is a surface refueling vessel, at most one active per owning User.
type Fueler struct {
	ID            string
	OwnerUserID   string
	X, Y          float64
	Fuel, MaxFuel float64
	SpawnTime     time.Time
	FirstUseTime  time.Time // zero value means "never used"
}

// WeatherCloud is a cylindrical hazard region. Process-memory only; never
// persisted, may be regenerated at boot.
type WeatherCloud struct {
	ID               string
	CenterX, CenterY float64
	Radius           float64
	MinDepth         float64
	MaxDepth         float64
	AttenuationDb    float64
	DamageDps        float64
	OwningSubID      string // optional
	ExpiryTime       time.Time // zero value means no expiry
}

// ContainsDepth reports whether depth falls within the cloud's band.
func (c *WeatherCloud) ContainsDepth(depth float64) bool {
	return depth >= c.MinDepth && depth <= c.MaxDepth
}
