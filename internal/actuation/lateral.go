package actuation

// LateralOutput is the result of one steering decision.
type LateralOutput struct {
	Steer            int
	Counter          int
	RateLimited      bool
	Skip             bool // loopback counter has not advanced; no frame emitted
	SteerWarnOrError bool
}

// MaxSteerDeltaPerTick is the per-tick torque rate limit enforced by
// apply_std_steer_torque_limits, in the same units as Actuators.Steer *
// Params.SteerMax.
const MaxSteerDeltaPerTick = 50

// DriverOverrideFactor scales how strongly driver-applied steering torque
// blends into the rate limit, allowing the driver to override faster than
// the nominal ramp.
const DriverOverrideFactor = 3

// Lateral runs the steering core described in spec §4.2: an enable gate,
// torque-limited steering command, and ECU loopback-counter gating to avoid
// duplicate-counter EPS faults.
func Lateral(p Params, cs CarState, act Actuators, state *ControllerState, enabled bool) LateralOutput {
	enable := (enabled || cs.PauseLongOnGasPress) &&
		cs.LKMode &&
		!cs.SteerWarning && !cs.SteerError &&
		cs.VEgo > p.MinSteerSpeed &&
		cs.LaneChangeSteerFactor > 0

	advanced := !state.haveLastLoopback || cs.LoopbackCounter != state.LastLoopback
	state.LastLoopback = cs.LoopbackCounter
	state.haveLastLoopback = true

	if !advanced {
		return LateralOutput{Skip: true, Steer: state.LastAppliedSteer, Counter: state.LkaCounter}
	}

	var newSteer int
	if enable {
		newSteer = roundI(act.Steer * p.SteerMax * cs.LaneChangeSteerFactor)
	}

	applied := applyStdSteerTorqueLimits(newSteer, state.LastAppliedSteer, cs.SteeringTorque)
	rateLimited := applied != newSteer

	state.LastAppliedSteer = applied
	state.LkaCounter = (state.LkaCounter + 1) % 4

	return LateralOutput{
		Steer:            applied,
		Counter:          state.LkaCounter,
		RateLimited:      rateLimited,
		SteerWarnOrError: cs.SteerWarning || cs.SteerError,
	}
}

// applyStdSteerTorqueLimits enforces a per-tick maximum delta and blends in
// driver override torque, matching the openpilot-style torque-limit helper
// that this controller's steering core is grounded on.
func applyStdSteerTorqueLimits(desired, last int, driverTorque float64) int {
	maxDelta := MaxSteerDeltaPerTick
	if driverTorque*float64(sign(desired-last)) < 0 {
		maxDelta = int(float64(maxDelta) * DriverOverrideFactor)
	}
	lo := last - maxDelta
	hi := last + maxDelta
	if desired < lo {
		return lo
	}
	if desired > hi {
		return hi
	}
	return desired
}

func sign(x int) int {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}
