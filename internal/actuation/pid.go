package actuation

// PIDState is the persistent state of the one-pedal deceleration PID:
// integrator accumulator and the filtered derivative term. Continuous PID
// with speed-scheduled gains, a derivative filter period of 0.1 s, and a
// saturation clamp to [-3.5, 0] (spec §3).
type PIDState struct {
	integral   float64
	prevError  float64
	derivative float64
	reset      bool
}

const (
	pidRate           = 1.0 / (DTCtrl * 4) // 25 Hz
	pidDT             = 1.0 / pidRate
	derivativeFilterT = 0.1 // seconds
	pidLowerLimit     = -3.5
	pidUpperLimit     = 0.0
)

// Reset clears integrator and derivative state; called on every transition
// into an active one-pedal mode and on the disabled branch.
func (s *PIDState) Reset() {
	*s = PIDState{reset: true}
}

// Step advances the PID by one 25 Hz slot given the current setpoint,
// measurement and feedforward term, and returns the saturated output.
func (s *PIDState) Step(p Params, vEgo, setpoint, measurement, feedforward float64) float64 {
	kp := interp(vEgo, p.PIDKpBP, p.PIDKpV)
	ki := interp(vEgo, p.PIDKiBP, p.PIDKiV)
	kd := interp(vEgo, p.PIDKdBP, p.PIDKdV)

	err := setpoint - measurement

	if s.reset {
		s.prevError = err
		s.derivative = 0
		s.reset = false
	}

	alpha := pidDT / (derivativeFilterT + pidDT)
	rawDeriv := (err - s.prevError) / pidDT
	s.derivative += alpha * (rawDeriv - s.derivative)
	s.prevError = err

	unclamped := feedforward + kp*err + ki*s.integral + kd*s.derivative
	out := clamp(unclamped, pidLowerLimit, pidUpperLimit)

	// Anti-windup: only integrate while not saturated, or while the error
	// would pull the output back into range.
	if out == unclamped || (out == pidLowerLimit && err > 0) || (out == pidUpperLimit && err < 0) {
		s.integral += ki * err * pidDT
	}

	return out
}
