package robot

import (
	"context"

	"github.com/brickgate/brickgate/pkg/pipeline"
	"github.com/brickgate/brickgate/pkg/protocol/nxt"
)

// noEcho is the distance byte the ultrasonic sensor reports when it
// heard nothing back.
const noEcho = 0xFF

// NXTSensor reads one sensor port. Obtain one through NXT.Sensor.
type NXTSensor struct {
	h    *NXT
	port nxt.SensorPort
}

// configure switches the port to the given sensor type and mode. The
// mode change rides in front of the read in the same queue, so no
// drain is needed between them.
func (s NXTSensor) configure(typ, mode byte) error {
	return s.h.pl.Enqueue(&nxt.SetInputMode{Port: s.port, Type: typ, Mode: mode}, nil)
}

// read configures the port and round-trips one GetInputValues.
func (s NXTSensor) read(ctx context.Context, typ, mode byte) (nxt.InputValues, bool) {
	if err := s.configure(typ, mode); err != nil {
		return nxt.InputValues{}, false
	}
	res, err := roundTrip(ctx, s.h.pl, &nxt.GetInputValues{Port: s.port})
	if err != nil {
		return nxt.InputValues{}, false
	}
	vals := res.(nxt.InputValues)
	if !vals.Valid {
		return nxt.InputValues{}, false
	}
	return vals, true
}

// Pressed reads a touch sensor.
func (s NXTSensor) Pressed(ctx context.Context) (bool, bool) {
	vals, ok := s.read(ctx, nxt.TypeSwitch, nxt.ModeBoolean)
	if !ok {
		return false, false
	}
	return vals.Scaled != 0, true
}

// LightPercent reads a light sensor as a percentage. active turns the
// sensor's own illumination on.
func (s NXTSensor) LightPercent(ctx context.Context, active bool) (int, bool) {
	typ := nxt.TypeLightInactive
	if active {
		typ = nxt.TypeLightActive
	}
	vals, ok := s.read(ctx, typ, nxt.ModePctFullScale)
	if !ok {
		return 0, false
	}
	return int(vals.Scaled), true
}

// SoundDB reads a sound sensor as a percentage of full scale. adjusted
// applies the dBA curve that models human hearing.
func (s NXTSensor) SoundDB(ctx context.Context, adjusted bool) (int, bool) {
	typ := nxt.TypeSoundDB
	if adjusted {
		typ = nxt.TypeSoundDBA
	}
	vals, ok := s.read(ctx, typ, nxt.ModePctFullScale)
	if !ok {
		return 0, false
	}
	return int(vals.Scaled), true
}

// ResetScaled zeroes the port's scaled value, for modes that
// accumulate.
func (s NXTSensor) ResetScaled() error {
	return s.h.pl.Enqueue(&nxt.ResetInputScaledValue{Port: s.port}, nil)
}

// DistanceCM reads an ultrasonic sensor in centimeters. The sensor is
// an I2C device behind the low-speed bus: a measurement is requested
// with LSWrite, the bus is polled until a byte is ready, then the
// distance is fetched with LSRead. The bus is slow and flaky, so the
// status poll uses the 50ms/10-failure ultrasonic profile. ok is false
// on failure and when the sensor saw no echo.
func (s NXTSensor) DistanceCM(ctx context.Context) (int, bool) {
	if err := s.configure(nxt.TypeLowSpeed9V, nxt.ModeRaw); err != nil {
		return 0, false
	}
	if _, err := roundTrip(ctx, s.h.pl, &nxt.LSWrite{
		Port:  s.port,
		Data:  []byte{nxt.UltrasonicAddress, nxt.UltrasonicReadCommand},
		RxLen: 1,
	}); err != nil {
		return 0, false
	}

	cfg := pipeline.PollConfig{
		Interval:       pipeline.UltrasonicPollInterval,
		FailureCeiling: pipeline.UltrasonicFailureCeiling,
	}
	sample := func(done pipeline.CompletionFunc) error {
		return s.h.pl.Enqueue(&nxt.LSGetStatus{Port: s.port}, done)
	}
	if _, err := s.h.pl.WaitUntil(ctx, cfg, sample, func(v any) bool {
		return v.(nxt.BytesReady) >= 1
	}); err != nil {
		return 0, false
	}

	res, err := roundTrip(ctx, s.h.pl, &nxt.LSRead{Port: s.port})
	if err != nil {
		return 0, false
	}
	data := res.(nxt.LSData)
	if len(data) < 1 || data[0] == noEcho {
		return 0, false
	}
	return int(data[0]), true
}

// NXTSound plays tones and sound files.
type NXTSound struct {
	h *NXT
}

// Tone plays a tone at frequency in Hz for duration in ms.
func (s NXTSound) Tone(frequency, durationMS int) error {
	return s.h.pl.Enqueue(&nxt.PlayTone{Frequency: frequency, DurationMS: durationMS}, nil)
}

// PlayFile plays a sound file stored on the brick, e.g. "Woops.rso".
func (s NXTSound) PlayFile(name string, loop bool) error {
	return s.h.pl.Enqueue(&nxt.PlaySoundFile{Name: name, Loop: loop}, nil)
}

// Stop halts playback. Critical so teardown silences looping sounds.
func (s NXTSound) Stop() error {
	return s.h.pl.EnqueueCritical(&nxt.StopSoundPlayback{}, nil)
}
