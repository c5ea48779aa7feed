package actuation

import (
	"github.com/adascore/controller/internal/monitoring"
)

// Tick bundles everything the controller needs for one 100 Hz step: the
// frame counter, enable flag, car-state snapshot, planner actuators and
// HUD request.
type Tick struct {
	Frame     int64
	Enabled   bool
	CS        CarState
	Actuators Actuators
	HUD       HUD
}

// Controller is the Actuator Controller entry point (spec §2 AC). It owns
// the persistent ControllerState and emits the per-tick frame sequence in
// the order the ECU's interlock requires: steering, then brake, then gas
// (spec §5 "Ordering guarantees").
type Controller struct {
	Params Params
	State  ControllerState

	lastLKAIcon string
}

// NewController builds a Controller from already-resolved Params.
func NewController(p Params) *Controller {
	return &Controller{Params: p, State: NewControllerState()}
}

// Update runs one tick and returns the frames due this tick plus the
// CarState fields the caller must write back.
func (c *Controller) Update(t Tick) ([]Frame, CarStateWriteback) {
	var frames []Frame
	var wb CarStateWriteback

	kinds := Schedule(c.Params, t.Frame)
	kindDue := make(map[FrameKind]bool, len(kinds))
	for _, k := range kinds {
		kindDue[k] = true
	}

	if kindDue[FrameSteeringCommand] {
		lat := Lateral(c.Params, t.CS, t.Actuators, &c.State, t.Enabled)
		if !lat.Skip {
			frames = append(frames, Frame{
				Kind:          FrameSteeringCommand,
				ArbitrationID: arbSteeringCommand,
				Counter:       lat.Counter,
				Payload: map[string]any{
					"steer":        lat.Steer,
					"rate_limited": lat.RateLimited,
				},
			})
		} else {
			monitoring.Logf("actuation: steering frame skipped, loopback counter unchanged")
		}
	}

	if kindDue[FrameAdasSteeringStatus] {
		frames = append(frames, Frame{Kind: FrameAdasSteeringStatus, ArbitrationID: arbAdasSteeringStatus, Counter: counterFor(t.Frame, speedAndAccelStep)})
	}
	if kindDue[FrameAdasAccelSpeed] {
		frames = append(frames, Frame{Kind: FrameAdasAccelSpeed, ArbitrationID: arbAdasAccelSpeed, Counter: counterFor(t.Frame, speedAndAccelStep),
			Payload: map[string]any{"v_ego": t.CS.VEgo, "a_ego": t.CS.AEgo}})
	}

	if kindDue[FrameGasBrake] {
		out, lwb := Longitudinal(c.Params, t.CS, t.Actuators, t.HUD, &c.State, t.Enabled)
		wb = lwb

		if out.AutoHoldFrame {
			frames = append(frames, Frame{
				Kind: FrameGasBrake, ArbitrationID: arbFrictionBrake, Counter: counterFor(t.Frame, 4),
				Payload: map[string]any{
					"apply_brake":  out.ApplyBrake,
					"near_stop":    out.NearStop,
					"at_full_stop": out.AtFullStop,
					"auto_hold":    true,
				},
			})
		} else {
			frames = append(frames, Frame{
				Kind: FrameGasBrake, ArbitrationID: arbFrictionBrake, Counter: counterFor(t.Frame, 4),
				Payload: map[string]any{"apply_brake": out.ApplyBrake, "near_stop": out.NearStop, "at_full_stop": out.AtFullStop},
			})
			frames = append(frames, Frame{
				Kind: FrameGasBrake, ArbitrationID: arbGasRegen, Counter: counterFor(t.Frame, 4),
				Payload: map[string]any{"apply_gas": out.ApplyGas},
			})
		}

		frames = append(frames, Frame{
			Kind: FrameAccDashboard, ArbitrationID: arbAccDashboard, Counter: counterFor(t.Frame, 4),
			Payload: map[string]any{"v_cruise": t.HUD.VCruise, "show_lanes": t.HUD.ShowLanes, "show_car": t.HUD.ShowCar, "alert": t.HUD.Alert},
		})
	}

	if kindDue[FrameAdasTimeHeadlights] {
		frames = append(frames, Frame{Kind: FrameAdasTimeHeadlights, ArbitrationID: arbAdasTimeHeadlights, Counter: counterFor(t.Frame, 10)})
	}

	if kindDue[FrameAdasKeepalive] {
		frames = append(frames, Frame{Kind: FrameAdasKeepalive, ArbitrationID: arbAdasKeepalive, Counter: counterFor(t.Frame, int64(c.Params.AdasKeepaliveStep))})
	}

	icon := lkaIconFor(t.CS, t.HUD)
	if kindDue[FrameLKAHudIcon] || icon != c.lastLKAIcon {
		frames = append(frames, Frame{
			Kind: FrameLKAHudIcon, ArbitrationID: arbLKAHudIcon, Counter: counterFor(t.Frame, int64(c.Params.CameraKeepaliveStep)),
			Payload: map[string]any{"icon": icon},
		})
		c.lastLKAIcon = icon
	}

	return frames, wb
}

func lkaIconFor(cs CarState, hud HUD) string {
	switch {
	case cs.SteerWarning || cs.SteerError:
		return "fault"
	case !cs.LKAEnabled:
		return "off"
	case cs.LKMode:
		return "active"
	default:
		return "available"
	}
}

// Arbitration IDs are placeholders: the real vehicle DBC is an external
// collaborator (spec §1 "explicitly out of scope"); these only need to be
// stable and distinct within this process.
const (
	arbSteeringCommand     uint32 = 0x2e4
	arbFrictionBrake       uint32 = 0x1fa
	arbGasRegen            uint32 = 0x200
	arbAccDashboard        uint32 = 0x30c
	arbAdasTimeHeadlights  uint32 = 0x321
	arbAdasSteeringStatus  uint32 = 0x2e5
	arbAdasAccelSpeed      uint32 = 0x346
	arbAdasKeepalive       uint32 = 0x489
	arbLKAHudIcon          uint32 = 0x4f1
)
