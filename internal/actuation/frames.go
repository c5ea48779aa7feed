package actuation

// FrameKind names the actuator frames emitted per spec §4.3.
type FrameKind int

const (
	FrameSteeringCommand FrameKind = iota
	FrameGasBrake
	FrameAccDashboard
	FrameAdasTimeHeadlights
	FrameAdasSteeringStatus
	FrameAdasAccelSpeed
	FrameAdasKeepalive
	FrameLKAHudIcon
)

// Frame is an opaque outbound actuator command, matching the (bus, arb id,
// payload) shape spec §6 names; frame packing/encoding itself is out of
// scope and left to the CAN-frame-packing collaborator.
type Frame struct {
	Kind          FrameKind
	BusID         int
	ArbitrationID uint32
	Counter       int
	Payload       map[string]any
}

// speedAndAccelStep is the fixed 50 Hz cadence for the ADAS steering-status
// and accelerometer/speed frames; unlike the steering command itself, this
// does not scale with Params.SteerStep.
const speedAndAccelStep = 2

// timeAndHeadlightsStep is the fixed 10 Hz cadence for the ADAS time and
// headlights-status frame.
const timeAndHeadlightsStep = 10

// Schedule decides, for a given 100 Hz tick number, which frame kinds are
// due this tick, per the modular table in spec §4.3.
func Schedule(p Params, tick int64) []FrameKind {
	var kinds []FrameKind
	if tick%int64(p.SteerStep) == 0 {
		kinds = append(kinds, FrameSteeringCommand)
	}
	if tick%4 == 0 {
		kinds = append(kinds, FrameGasBrake, FrameAccDashboard)
	}
	if tick%timeAndHeadlightsStep == 0 {
		kinds = append(kinds, FrameAdasTimeHeadlights)
	}
	if tick%speedAndAccelStep == 0 {
		kinds = append(kinds, FrameAdasSteeringStatus, FrameAdasAccelSpeed)
	}
	if tick%int64(p.AdasKeepaliveStep) == 0 {
		kinds = append(kinds, FrameAdasKeepalive)
	}
	if tick%int64(p.CameraKeepaliveStep) == 0 {
		kinds = append(kinds, FrameLKAHudIcon)
	}
	return kinds
}

// counterFor returns the 2-bit rolling counter for a frame kind scheduled
// at the given modulus.
func counterFor(tick int64, step int64) int {
	return int((tick / step) % 4)
}
