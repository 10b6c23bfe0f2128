package robot

import (
	"context"

	"github.com/brickgate/brickgate/pkg/protocol/nxt"
)

// NXTMotor drives one motor. Obtain one through NXT.Motor.
type NXTMotor struct {
	h    *NXT
	port nxt.OutPort
}

// Run starts the motor at regulated power in [-100, 100] with no tacho
// limit.
func (m NXTMotor) Run(power int) error {
	return m.h.pl.Enqueue(&nxt.SetOutputState{
		Port:       m.port,
		Power:      power,
		Mode:       nxt.ModeMotorOn | nxt.ModeRegulated,
		Regulation: nxt.RegulationSpeed,
		RunState:   nxt.RunStateRunning,
	}, nil)
}

// RotateBy turns the motor by degrees at the given power, using the
// firmware's ramp-up run state so the movement starts smoothly.
// Negative degrees reverse the direction.
func (m NXTMotor) RotateBy(degrees, power int) error {
	if degrees < 0 {
		degrees = -degrees
		power = -power
	}
	return m.h.pl.Enqueue(&nxt.SetOutputState{
		Port:       m.port,
		Power:      power,
		Mode:       nxt.ModeMotorOn | nxt.ModeRegulated,
		Regulation: nxt.RegulationSpeed,
		RunState:   nxt.RunStateRampUp,
		TachoLimit: uint32(degrees),
	}, nil)
}

// Stop halts the motor, braking or coasting. Critical: Close and
// FlushAll wait for it.
func (m NXTMotor) Stop(brake bool) error {
	state := &nxt.SetOutputState{Port: m.port}
	if brake {
		state.Mode = nxt.ModeMotorOn | nxt.ModeBrake | nxt.ModeRegulated
		state.Regulation = nxt.RegulationSpeed
		state.RunState = nxt.RunStateRunning
	} else {
		state.RunState = nxt.RunStateIdle
	}
	return m.h.pl.EnqueueCritical(state, nil)
}

// Position reads the tacho counter in degrees.
func (m NXTMotor) Position(ctx context.Context) (int, bool) {
	res, err := roundTrip(ctx, m.h.pl, &nxt.GetOutputState{Port: m.port})
	if err != nil {
		return 0, false
	}
	return int(res.(nxt.OutputState).TachoCount), true
}

// ResetPosition zeroes the tacho counter. relative resets against the
// last programmed movement instead of the absolute count.
func (m NXTMotor) ResetPosition(relative bool) error {
	return m.h.pl.Enqueue(&nxt.ResetMotorPosition{Port: m.port, Relative: relative}, nil)
}
