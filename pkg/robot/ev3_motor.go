package robot

import (
	"context"

	"github.com/brickgate/brickgate/pkg/protocol/ev3"
)

// EV3Motor drives one motor. The zero value is not usable; obtain one
// through EV3.Motor.
type EV3Motor struct {
	h    *EV3
	port ev3.OutPort
}

// SetPower sets unregulated power in [-100, 100].
func (m EV3Motor) SetPower(power int) error {
	return m.h.pl.Enqueue(&ev3.OutputPower{Ports: m.port, Power: power}, nil)
}

// SetSpeed sets regulated speed in [-100, 100].
func (m EV3Motor) SetSpeed(speed int) error {
	return m.h.pl.Enqueue(&ev3.OutputSpeed{Ports: m.port, Speed: speed}, nil)
}

// Start runs the motor at its configured power or speed.
func (m EV3Motor) Start() error {
	return m.h.pl.Enqueue(&ev3.OutputStart{Ports: m.port}, nil)
}

// Stop halts the motor, braking or coasting. Stops are critical:
// Close and FlushAll wait for them.
func (m EV3Motor) Stop(brake bool) error {
	return m.h.pl.EnqueueCritical(&ev3.OutputStop{Ports: m.port, Brake: brake}, nil)
}

// RotateBy turns the motor by degrees at the given speed, ramping up
// over the first third of the distance and down over the last third.
// Negative degrees reverse the direction.
func (m EV3Motor) RotateBy(degrees, speed int) error {
	if degrees < 0 {
		degrees = -degrees
		speed = -speed
	}
	steps := uint32(degrees)
	ramp := steps / 3
	return m.h.pl.Enqueue(&ev3.OutputStepSpeed{
		Ports:    m.port,
		Speed:    speed,
		RampUp:   ramp,
		Steps:    steps - 2*ramp,
		RampDown: ramp,
		Brake:    true,
	}, nil)
}

// Position reads the tacho counter in degrees. ok is false when the
// read failed.
func (m EV3Motor) Position(ctx context.Context) (int, bool) {
	res, err := roundTrip(ctx, m.h.pl, &ev3.OutputGetCount{Port: m.port})
	if err != nil {
		return 0, false
	}
	return int(res.(ev3.Tacho)), true
}

// ResetPosition zeroes the tacho counter.
func (m EV3Motor) ResetPosition() error {
	return m.h.pl.Enqueue(&ev3.OutputClearCount{Ports: m.port}, nil)
}

// EV3MotorPair drives two motors in lockstep. Obtain one through
// EV3.MotorPair, which validates the ports.
type EV3MotorPair struct {
	h     *EV3
	ports ev3.OutPort
}

// Steer runs both motors for steps tacho degrees at the given speed.
// turn in [-200, 200] skews the pair: 0 is straight, ±100 pivots on
// one wheel, ±200 spins in place.
func (p EV3MotorPair) Steer(speed, turn int, steps uint32, brake bool) error {
	return p.h.pl.Enqueue(&ev3.OutputStepSync{
		Ports: p.ports,
		Speed: speed,
		Turn:  turn,
		Steps: steps,
		Brake: brake,
	}, nil)
}

// Stop halts both motors. Critical, like single-motor stops.
func (p EV3MotorPair) Stop(brake bool) error {
	return p.h.pl.EnqueueCritical(&ev3.OutputStop{Ports: p.ports, Brake: brake}, nil)
}
