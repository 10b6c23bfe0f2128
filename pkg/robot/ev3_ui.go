package robot

import (
	"context"
	"sync"

	"github.com/brickgate/brickgate/pkg/pipeline"
	"github.com/brickgate/brickgate/pkg/protocol/ev3"
)

// EV3Sound plays tones and sound files.
type EV3Sound struct {
	h *EV3
}

// Tone plays a tone at volume 0-100, frequency in Hz, duration in ms.
func (s EV3Sound) Tone(volume, frequency, durationMS int) error {
	return s.h.pl.Enqueue(&ev3.SoundTone{
		Volume: volume, Frequency: frequency, DurationMS: durationMS,
	}, nil)
}

// PlayFile plays a sound file stored on the brick, by path without the
// .rsf extension.
func (s EV3Sound) PlayFile(volume int, name string, repeat bool) error {
	return s.h.pl.Enqueue(&ev3.SoundPlayFile{Volume: volume, Name: name, Repeat: repeat}, nil)
}

// Stop halts playback. Critical so teardown silences looping sounds.
func (s EV3Sound) Stop() error {
	return s.h.pl.EnqueueCritical(&ev3.SoundBreak{}, nil)
}

// Busy reports whether playback is in progress.
func (s EV3Sound) Busy(ctx context.Context) (bool, bool) {
	res, err := roundTrip(ctx, s.h.pl, &ev3.SoundTest{})
	if err != nil {
		return false, false
	}
	return bool(res.(ev3.Busy)), true
}

// EV3Display draws on the brick LCD. In batched mode drawing calls
// skip the screen refresh until Flush, so multi-element scenes appear
// at once.
type EV3Display struct {
	h *EV3

	mu      sync.Mutex
	batched bool
}

// Batch turns batched mode on or off. Turning it off does not refresh;
// call Flush for that.
func (d *EV3Display) Batch(on bool) {
	d.mu.Lock()
	d.batched = on
	d.mu.Unlock()
}

// draw enqueues cmd and, outside batched mode, the screen refresh.
func (d *EV3Display) draw(cmd pipeline.Command) error {
	d.mu.Lock()
	batched := d.batched
	d.mu.Unlock()
	if err := d.h.pl.Enqueue(cmd, nil); err != nil {
		return err
	}
	if batched {
		return nil
	}
	return d.h.pl.Enqueue(&ev3.DrawUpdate{}, nil)
}

// Flush refreshes the screen with everything drawn so far.
func (d *EV3Display) Flush() error {
	return d.h.pl.Enqueue(&ev3.DrawUpdate{}, nil)
}

// Clean clears the screen.
func (d *EV3Display) Clean() error {
	return d.draw(&ev3.DrawClean{})
}

// Pixel draws one pixel. color 0 is background, 1 foreground.
func (d *EV3Display) Pixel(color byte, x, y int) error {
	return d.draw(&ev3.DrawPixel{Color: color, X: x, Y: y})
}

// Line draws a line between two points.
func (d *EV3Display) Line(color byte, x0, y0, x1, y1 int) error {
	return d.draw(&ev3.DrawLine{Color: color, X0: x0, Y0: y0, X1: x1, Y1: y1})
}

// Rect draws a rectangle, optionally filled.
func (d *EV3Display) Rect(color byte, x, y, w, h int, fill bool) error {
	return d.draw(&ev3.DrawRect{Color: color, X: x, Y: y, W: w, H: h, Fill: fill})
}

// Circle draws a circle, optionally filled.
func (d *EV3Display) Circle(color byte, x, y, r int, fill bool) error {
	return d.draw(&ev3.DrawCircle{Color: color, X: x, Y: y, R: r, Fill: fill})
}

// Text draws a string at a pixel position.
func (d *EV3Display) Text(color byte, x, y int, text string) error {
	return d.draw(&ev3.DrawText{Color: color, X: x, Y: y, Text: text})
}

// Bitmap blits a bitmap file stored on the brick.
func (d *EV3Display) Bitmap(color byte, x, y int, path string) error {
	return d.draw(&ev3.DrawBmpFile{Color: color, X: x, Y: y, Path: path})
}

// Topline shows or hides the brick status bar.
func (d *EV3Display) Topline(enabled bool) error {
	return d.draw(&ev3.DrawTopline{Enabled: enabled})
}

// EV3Buttons reads the brick face buttons.
type EV3Buttons struct {
	h *EV3
}

// Pressed reports whether one button is currently held.
func (b EV3Buttons) Pressed(ctx context.Context, button ev3.Button) (bool, bool) {
	res, err := roundTrip(ctx, b.h.pl, &ev3.ButtonPressed{Button: button})
	if err != nil {
		return false, false
	}
	return bool(res.(ev3.Pressed)), true
}

// WaitForAny blocks until any face button is held, polling all six in
// one pipeline cycle per interval.
func (b EV3Buttons) WaitForAny(ctx context.Context) (ev3.Button, error) {
	sample := func(done pipeline.CompletionFunc) error {
		var (
			mu        sync.Mutex
			pressed   ev3.Button
			firstErr  error
			remaining int
		)
		buttons := ev3.Buttons()
		enqueued := 0
		for _, btn := range buttons {
			btn := btn
			err := b.h.pl.Enqueue(&ev3.ButtonPressed{Button: btn}, func(v any, err error) {
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if err == nil && pressed == 0 && bool(v.(ev3.Pressed)) {
					pressed = btn
				}
				remaining--
				fire := remaining == 0
				res, resErr := pressed, firstErr
				mu.Unlock()
				if fire {
					if resErr != nil {
						done(nil, resErr)
					} else {
						done(res, nil)
					}
				}
			})
			if err != nil {
				if enqueued == 0 {
					return err
				}
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				break
			}
			enqueued++
		}
		mu.Lock()
		remaining += enqueued
		fire := remaining == 0
		res, resErr := pressed, firstErr
		mu.Unlock()
		if fire {
			// Every completion already ran.
			if resErr != nil {
				done(nil, resErr)
			} else {
				done(res, nil)
			}
		}
		return nil
	}

	res, err := b.h.pl.WaitUntil(ctx, pipeline.PollConfig{}, sample, func(v any) bool {
		return v.(ev3.Button) != 0
	})
	if err != nil {
		return 0, err
	}
	return res.(ev3.Button), nil
}

// EV3LED sets the brick button backlight.
type EV3LED struct {
	h *EV3
}

// Set applies a backlight pattern.
func (l EV3LED) Set(pattern ev3.LEDPattern) error {
	return l.h.pl.Enqueue(&ev3.LEDWrite{Pattern: pattern}, nil)
}
