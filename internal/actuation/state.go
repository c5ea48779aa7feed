package actuation

// CarState is the tick-scoped snapshot supplied by the upstream car-state
// collaborator (spec §3, CS). It is treated as caller-owned: the controller
// never mutates it in place. Instead Longitudinal returns a
// CarStateWriteback describing the fields the caller should copy back onto
// its own bus-facing CarState, per the Design Notes' split between a
// per-tick input snapshot and persistent controller state.
type CarState struct {
	VEgo           float64 // m/s
	AEgo           float64 // m/s^2
	SteeringTorque float64
	SteeringAngle  float64 // degrees
	Pitch          float64 // radians
	EngineRPM      float64
	Gear           Gear
	CruiseEnabled  bool
	Standstill     bool
	EVWatts        float64

	OnePedal OnePedalState
	Coast    CoastConfig

	LaneChangeSteerFactor float64
	LKAEnabled            bool
	LKMode                bool
	SteerWarning          bool
	SteerError            bool
	FollowLevel           int

	PauseLongOnGasPress bool
	GasPressed          bool
	RegenPaddlePressed  bool

	CruiseMainOn     bool
	AutoHoldEnabled  bool
	AutoHoldActive   bool
	SNGSupported     bool
	ResumeSupported  bool

	// LeadAccelEventSeconds is the wall-clock time (seconds since boot) of
	// the most recent externally-recorded lead-acceleration event, or a
	// negative value if none has occurred. NowSeconds is the current
	// wall-clock time on the same clock.
	LeadAccelEventSeconds float64
	NowSeconds            float64

	// LoopbackCounter is the ECU-reported steering command counter last
	// observed on the bus; the lateral core gates transmission on this
	// advancing between ticks.
	LoopbackCounter int

	// ApplyBrakeFromPlanner is the planner's own brake command prior to
	// the one-pedal merge rule (spec §4.1 "Brake merge rule").
	ApplyBrakeFromPlanner float64
}

// Gear enumerates the transmission state relevant to longitudinal control.
type Gear int

const (
	GearUnknown Gear = iota
	GearDrive
	GearLow
	GearEVLow // EV "L" regen gear
	GearPark
	GearReverse
)

// OnePedalState carries the externally-set one-pedal mode flags (spec §3).
type OnePedalState struct {
	Mode               OnePedalMode
	BrakingAllowed     bool
	BrakeMode          BrakeMode
	DLCoastingEnabled  bool
}

// OnePedalMode is the one-pedal state machine's externally driven mode.
type OnePedalMode int

const (
	OnePedalOff OnePedalMode = iota
	OnePedalCoast
	OnePedalActive
)

// CoastConfig carries the coasting-specific configuration and lockout
// tables, all supplied by CS per spec §3 (these are per-drive / per-route
// parameters, not vehicle-wide Params).
type CoastConfig struct {
	Enabled          bool
	NoFrictionBrake  bool
	SourceIsCoast    bool // planner's source tag is in COAST_SOURCES

	SpeedLimitActive float64 // m/s, 0 if no active speed limit
	VCruise          float64 // m/s

	OverSpeedBP, OverSpeedV []float64 // factor vs vEgo/checkSpeed

	// Lead lockout breakpoints/values, one BP/V pair per axis, in the
	// order: relative velocity, lead velocity, TTC, time-gap ratio,
	// distance. Gas and brake each get their own value tables over the
	// same breakpoints.
	LockoutBP      [5][]float64
	GasLockoutV    [5][]float64
	BrakeLockoutV  [5][]float64

	// LeadValid, LeadDRel, LeadVLead describe the coasting-lead evidence
	// used by the lockout axes above (sourced from radarfusion output).
	LeadValid bool
	LeadDRel  float64
	LeadVLead float64
}

// Actuators carries the planner's per-tick longitudinal/lateral intent
// (spec §6).
type Actuators struct {
	Steer                 float64 // [-1, 1]
	Accel                 float64 // m/s^2
	AccelPitchCompensated float64 // m/s^2
	SourceIsCoast         bool
}

// HUD carries the planner's HUD/alert requests (spec §6); AC does not
// render these, only forwards them into the dashboard frame.
type HUD struct {
	VCruise   float64
	ShowLanes bool
	ShowCar   bool
	Alert     string
}

// ControllerState is the small set of fields the Design Notes call out as
// genuinely persistent across ticks: PID state, rate-limited decel, last
// applied steering torque, and the mode-transition edges the state machine
// needs to detect. Everything else lives in the per-tick CarState/Actuators
// inputs.
type ControllerState struct {
	LastAppliedSteer int
	LkaCounter       int
	LastLoopback     int
	haveLastLoopback bool

	PID PIDState

	OnePedalDecel       float64
	OnePedalDecelIn     float64
	OnePedalModeActive  bool
	CoastOnePedalActive bool

	LastLKAIcon string

	tick int64
}

// NewControllerState returns a zeroed ControllerState suitable for the
// first tick; PID gains are supplied separately at construction of the
// Controller.
func NewControllerState() ControllerState {
	return ControllerState{}
}

// CarStateWriteback lists the mutable CarState fields AC computed this
// tick, to be copied back onto the bus-owned CarState by the caller (spec
// §5 "Shared resource policy").
type CarStateWriteback struct {
	BrakeCmd               float64
	ApplyBrakePercent      float64
	AutoHoldActivated      bool
	ResumeButtonPressed    bool
	ResumeRequired         bool
	AccEnabled             *bool // nil = unchanged
	OnePedalModeActiveLast bool
	CoastOnePedalModeActiveLast bool
}
