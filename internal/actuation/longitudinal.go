package actuation

// LongitudinalOutput is the result of one 25 Hz longitudinal decision,
// combining the brake and gas actuator levels with the auxiliary flags the
// friction-brake and auto-hold frames need.
type LongitudinalOutput struct {
	ApplyBrake int
	ApplyGas   int

	NearStop   bool
	AtFullStop bool

	// AutoHoldFrame is true when the auto-hold branch fired; the caller
	// must emit the friction-brake frame instead of the normal brake frame
	// this slot (spec §4.1 "mutually exclusive with the normal brake
	// frame").
	AutoHoldFrame bool

	SteerRateLimitedIrrelevant bool // placeholder removed by Lateral(); kept false here
}

// axisValues computes the five lockout axes from the coasting-lead
// evidence: relative velocity, lead velocity, TTC, time-gap, distance.
func axisValues(cfg CoastConfig, vEgo float64) (relVel, leadVel, ttc, timeGap, dist float64) {
	d := cfg.LeadDRel
	vL := cfg.LeadVLead
	vRel := vL - vEgo

	ttcVal := 100.0
	if d > 0 && vRel < 0 {
		t := -d / vRel
		if t < 100 {
			ttcVal = t
		}
	}

	timeGapVal := 10.0
	if vEgo > 0 {
		timeGapVal = d / vEgo
	}

	return vRel, vL, ttcVal, timeGapVal, d
}

// leadLockoutFactors evaluates the five-axis max-interpolation described in
// spec §4.1, returning gas and brake lockout factors in [0, 1]. 1.0 means
// "regular cruise logic unaltered"; 0.0 means "do not apply cruise
// brake/lift cruise gas".
func leadLockoutFactors(cfg CoastConfig, vEgo float64) (gasFactor, brakeFactor float64) {
	if !cfg.LeadValid || cfg.LeadDRel <= 0 {
		return 1, 1
	}

	axes := [5]float64{}
	axes[0], axes[1], axes[2], axes[3], axes[4] = axisValues(cfg, vEgo)

	gasFactor = 1
	for i := 0; i < 5; i++ {
		if cfg.LockoutBP[i] == nil {
			continue
		}
		v := interp(axes[i], cfg.LockoutBP[i], cfg.GasLockoutV[i])
		if v < gasFactor {
			gasFactor = v
		}
	}
	// The brake axis is only evaluated once the gas tripwire has engaged.
	brakeFactor = 1
	if gasFactor < 1 {
		for i := 0; i < 5; i++ {
			if cfg.LockoutBP[i] == nil {
				continue
			}
			v := interp(axes[i], cfg.LockoutBP[i], cfg.BrakeLockoutV[i])
			if v < brakeFactor {
				brakeFactor = v
			}
		}
	}
	return gasFactor, brakeFactor
}

// Longitudinal runs the 25 Hz longitudinal core described in spec §4.1 and
// returns the actuator output plus the CarState fields the caller should
// write back.
func Longitudinal(p Params, cs CarState, act Actuators, hud HUD, state *ControllerState, enabled bool) (LongitudinalOutput, CarStateWriteback) {
	var wb CarStateWriteback

	autoHoldCandidate := cs.CruiseMainOn && !enabled && cs.AutoHoldEnabled && cs.AutoHoldActive &&
		!cs.GasPressed && (cs.Gear == GearDrive || cs.Gear == GearLow) &&
		cs.VEgo < 0.02 && !cs.RegenPaddlePressed

	if (!enabled || cs.PauseLongOnGasPress) && !autoHoldCandidate {
		state.PID.Reset()
		state.OnePedalDecel = cs.AEgo
		state.OnePedalDecelIn = cs.AEgo
		state.OnePedalModeActive = false
		state.CoastOnePedalActive = false
		out := LongitudinalOutput{ApplyGas: roundI(p.MaxAccRegen), ApplyBrake: 0}
		return out, wb
	}

	k := interp(cs.VEgo, []float64{5, 10}, []float64{0, 1})
	brakeAccel := k*act.AccelPitchCompensated + (1-k)*act.Accel
	gasAccel := act.AccelPitchCompensated
	noPitchApplyGas := roundI(interp(act.Accel, p.GasLookupBP, p.GasLookupV))

	speedForThreshold := cs.VEgo
	if cs.OnePedal.Mode == OnePedalActive {
		speedForThreshold = maxF(cs.VEgo, 2.1)
	}
	thresholdAccel := p.UpdateGasBrakeThreshold(speedForThreshold, cs.EngineRPM > 0)

	gasLockout, brakeLockout := leadLockoutFactors(cs.Coast, cs.VEgo)

	applyBrake := roundI(interp(brakeAccel, p.BrakeLookupBP, p.BrakeLookupV))
	applyGas := roundI(interp(gasAccel, p.GasLookupBP, p.GasLookupV))

	effectiveMode := cs.OnePedal.Mode
	lockoutActive := cs.OnePedal.BrakingAllowed && cs.NowSeconds-cs.LeadAccelEventSeconds < p.LeadAccelLockoutSeconds && cs.LeadAccelEventSeconds >= 0
	if effectiveMode == OnePedalActive && !state.OnePedalModeActive && lockoutActive {
		effectiveMode = OnePedalOff
	}

	var onePedalApplyBrake int
	switch effectiveMode {
	case OnePedalActive:
		if !state.OnePedalModeActive {
			state.PID.Reset()
			state.OnePedalDecel = cs.AEgo
			state.OnePedalDecelIn = cs.AEgo
		}
		state.OnePedalModeActive = true
		state.CoastOnePedalActive = false

		mode := cs.OnePedal.BrakeMode
		decelIn := interp(cs.VEgo, p.OnePedalModeDecelBP[mode], p.OnePedalModeDecelV[mode])

		if mode > 0 && len(p.AngleCutoffBP) > 0 {
			absAngle := absF(cs.SteeringAngle)
			if absAngle > p.AngleCutoffBP[0] {
				lowerDecel := interp(cs.VEgo, p.OnePedalModeDecelBP[mode-1], p.OnePedalModeDecelV[mode-1])
				decelIn = interp(absAngle, p.AngleCutoffBP, []float64{decelIn, lowerDecel})
			}
		}

		const g = 9.81
		pitchAccel := cs.Pitch * g
		var pitchFactor float64
		if pitchAccel < 0 {
			pitchFactor = interp(cs.VEgo, p.PitchFactorDescentBP, p.PitchFactorDescentV)
		} else {
			pitchFactor = interp(cs.VEgo, p.PitchFactorInclineBP, p.PitchFactorInclineV)
		}
		pitchAccel *= pitchFactor

		errWeight := interp(cs.VEgo, []float64{1.5, 20}, []float64{0.4, 0.2})
		e := (decelIn - minF(0, cs.AEgo+pitchAccel)) * errWeight

		measurement := decelIn - e
		raw := state.PID.Step(p, cs.VEgo, decelIn, measurement, decelIn)

		up := 0.8 * DTCtrl * 4 * maxF(1, 0.5-raw*0.5)
		down := 0.8 * DTCtrl * 4
		newDecel := rateLimit(raw, state.OnePedalDecel, up, down)
		if newDecel < -3.5 {
			newDecel = -3.5
		}
		state.OnePedalDecel = newDecel
		state.OnePedalDecelIn = decelIn

		onePedalApplyBrake = roundI(interp(state.OnePedalDecel, p.BrakeLookupBP, p.BrakeLookupV))

		if cs.OnePedal.DLCoastingEnabled && cs.Gear == GearEVLow && cs.VEgo > 0.05 {
			applyGas = roundI(p.ZeroGas)
		} else {
			applyGas = roundI(p.MaxAccRegen)
		}

	case OnePedalCoast:
		if !state.CoastOnePedalActive {
			state.PID.Reset()
			state.OnePedalDecel = cs.AEgo
			state.OnePedalDecelIn = cs.AEgo
		}
		state.CoastOnePedalActive = true
		state.OnePedalModeActive = false

		target := minF(cs.AEgo, thresholdAccel)
		up := 0.8 * DTCtrl * 4 * maxF(1, 0.5-target*0.5)
		down := 0.8 * DTCtrl * 4
		state.OnePedalDecel = rateLimit(target, state.OnePedalDecel, up, down)
		if state.OnePedalDecel < -3.5 {
			state.OnePedalDecel = -3.5
		}
		onePedalApplyBrake = 0

		if cs.OnePedal.DLCoastingEnabled && cs.Gear == GearEVLow && cs.VEgo > 0.05 {
			applyGas = roundI(p.ZeroGas)
		} else {
			applyGas = roundI(p.MaxAccRegen)
		}

	default:
		state.OnePedalModeActive = false
		state.CoastOnePedalActive = false
		state.PID.Reset()
	}

	coastSource := act.SourceIsCoast
	switch {
	case effectiveMode != OnePedalOff:
		if !cs.OnePedal.BrakingAllowed || onePedalApplyBrake > applyBrake {
			applyBrake = onePedalApplyBrake
		}

	case cs.Coast.Enabled && brakeLockout < 1:
		if coastSource && (applyBrake > 0 || applyGas < int(p.ZeroGas)) {
			checkSpeed := minF(orElse(cs.Coast.SpeedLimitActive, cs.Coast.VCruise), cs.Coast.VCruise)
			if checkSpeed <= 0 {
				checkSpeed = cs.Coast.VCruise
			}
			ratio := 0.0
			if checkSpeed > 0 {
				ratio = cs.VEgo / checkSpeed
			}

			if applyBrake > 0 {
				overSpeed := interp(ratio, cs.Coast.OverSpeedBP, cs.Coast.OverSpeedV)
				overSpeedBrake := float64(applyBrake) * overSpeed
				scaledBrake := float64(applyBrake) * brakeLockout
				if scaledBrake < overSpeedBrake {
					scaledBrake = overSpeedBrake
				}
				applyBrake = roundI(scaledBrake)
			}

			if applyGas < int(p.ZeroGas) && gasLockout < 1 {
				overSpeed := interp(ratio, cs.Coast.OverSpeedBP, cs.Coast.OverSpeedV)
				coastApplyGas := p.ZeroGas - overSpeed*(p.ZeroGas-float64(applyGas))
				applyGas = roundI(float64(applyGas)*gasLockout + coastApplyGas*(1-gasLockout))
			}
		}

	case cs.Coast.NoFrictionBrake && brakeLockout < 1:
		if coastSource && applyBrake > 0 {
			applyBrake = roundI(float64(applyBrake) * brakeLockout)
		}
	}

	out := LongitudinalOutput{}

	nearStop := cs.VEgo < p.NearStopBrakePhase && noPitchApplyGas < int(p.ZeroGas)
	atFullStop := cs.Standstill && noPitchApplyGas < int(p.ZeroGas)

	if autoHoldCandidate {
		out.AutoHoldFrame = true
		out.NearStop = nearStop
		out.AtFullStop = atFullStop
		out.ApplyBrake = applyBrake
		out.ApplyGas = applyGas
		wb.AutoHoldActivated = true
		return out, wb
	}

	if cs.Standstill && noPitchApplyGas >= int(p.ZeroGas) {
		if cs.SNGSupported {
			wb.AccEnabled = boolPtr(false)
			wb.ResumeButtonPressed = true
		} else if cs.VEgo < 1.5 {
			wb.ResumeRequired = true
		}
	}

	out.ApplyBrake = applyBrake
	out.ApplyGas = applyGas
	out.NearStop = nearStop
	out.AtFullStop = atFullStop

	wb.BrakeCmd = float64(applyBrake)
	wb.ApplyBrakePercent = float64(applyBrake) / maxF(1, float64(p.BrakeLookupV[0]))
	wb.OnePedalModeActiveLast = state.OnePedalModeActive
	wb.CoastOnePedalModeActiveLast = state.CoastOnePedalActive

	return out, wb
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absF(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}

func orElse(primary, fallback float64) float64 {
	if primary > 0 {
		return primary
	}
	return fallback
}

func boolPtr(b bool) *bool { return &b }
