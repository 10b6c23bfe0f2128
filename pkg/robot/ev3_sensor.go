package robot

import (
	"context"

	"github.com/brickgate/brickgate/pkg/pipeline"
	"github.com/brickgate/brickgate/pkg/protocol/ev3"
)

// EV3Sensor reads one input port. Obtain one through EV3.Sensor.
type EV3Sensor struct {
	h    *EV3
	port ev3.InPort
}

// TypeMode asks the brick what is attached to the port.
func (s EV3Sensor) TypeMode(ctx context.Context) (ev3.TypeMode, bool) {
	res, err := roundTrip(ctx, s.h.pl, &ev3.InputGetTypeMode{Port: s.port})
	if err != nil {
		return ev3.TypeMode{}, false
	}
	return res.(ev3.TypeMode), true
}

// Value reads one SI value in the given device type and mode.
func (s EV3Sensor) Value(ctx context.Context, typ, mode byte) (float64, bool) {
	res, err := roundTrip(ctx, s.h.pl, &ev3.InputReadySI{Port: s.port, Type: typ, Mode: mode})
	if err != nil {
		return 0, false
	}
	return float64(res.(ev3.SIValue)), true
}

// Pressed reads a touch sensor.
func (s EV3Sensor) Pressed(ctx context.Context) (bool, bool) {
	v, ok := s.Value(ctx, ev3.TypeTouch, ev3.ModeTouchPressed)
	return v != 0, ok
}

// Reflected reads a color sensor's reflected light percentage.
func (s EV3Sensor) Reflected(ctx context.Context) (float64, bool) {
	return s.Value(ctx, ev3.TypeColor, ev3.ModeColorReflected)
}

// Ambient reads a color sensor's ambient light percentage.
func (s EV3Sensor) Ambient(ctx context.Context) (float64, bool) {
	return s.Value(ctx, ev3.TypeColor, ev3.ModeColorAmbient)
}

// ColorCode reads a color sensor's detected color code (0-7).
func (s EV3Sensor) ColorCode(ctx context.Context) (int, bool) {
	v, ok := s.Value(ctx, ev3.TypeColor, ev3.ModeColorColor)
	return int(v), ok
}

// DistanceCM reads an ultrasonic sensor in centimeters.
func (s EV3Sensor) DistanceCM(ctx context.Context) (float64, bool) {
	return s.Value(ctx, ev3.TypeUltrasonic, ev3.ModeUltrasonicCM)
}

// Angle reads a gyro sensor's accumulated angle in degrees.
func (s EV3Sensor) Angle(ctx context.Context) (float64, bool) {
	return s.Value(ctx, ev3.TypeGyro, ev3.ModeGyroAngle)
}

// Rate reads a gyro sensor's rotation rate in degrees per second.
func (s EV3Sensor) Rate(ctx context.Context) (float64, bool) {
	return s.Value(ctx, ev3.TypeGyro, ev3.ModeGyroRate)
}

// Proximity reads an infrared sensor's proximity percentage.
func (s EV3Sensor) Proximity(ctx context.Context) (float64, bool) {
	return s.Value(ctx, ev3.TypeInfrared, ev3.ModeIRProximity)
}

// sample returns a SampleFunc that round-trips one SI read.
func (s EV3Sensor) sample(typ, mode byte) pipeline.SampleFunc {
	return func(done pipeline.CompletionFunc) error {
		return s.h.pl.Enqueue(&ev3.InputReadySI{Port: s.port, Type: typ, Mode: mode}, done)
	}
}

// WaitValue blocks until pred accepts an SI reading in the given type
// and mode, polling with cfg (zero fields take the defaults).
func (s EV3Sensor) WaitValue(ctx context.Context, typ, mode byte, cfg pipeline.PollConfig, pred func(float64) bool) (float64, error) {
	res, err := s.h.pl.WaitUntil(ctx, cfg, s.sample(typ, mode), func(v any) bool {
		return pred(float64(v.(ev3.SIValue)))
	})
	if err != nil {
		return 0, err
	}
	return float64(res.(ev3.SIValue)), nil
}

// NotifyValue is WaitValue without blocking: notify fires once, on the
// pipeline's dispatch goroutine, with the accepted reading or the
// terminal error.
func (s EV3Sensor) NotifyValue(typ, mode byte, cfg pipeline.PollConfig, pred func(float64) bool, notify func(float64, error)) error {
	return s.h.pl.NotifyWhen(cfg, s.sample(typ, mode), func(v any) bool {
		return pred(float64(v.(ev3.SIValue)))
	}, func(v any, err error) {
		if err != nil {
			notify(0, err)
			return
		}
		notify(float64(v.(ev3.SIValue)), nil)
	})
}
