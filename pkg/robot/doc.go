// Package robot provides the user-facing handles for EV3 and NXT
// bricks and their facades: motors, sensors, sound, display, buttons
// and LEDs.
//
// A handle owns one pipeline over one transport, so two connected
// bricks never share a queue. Construction discovers the device from
// BRICKGATE_DEVICE_* environment variables (or uses an injected
// transport), checks the device class and the firmware version, and
// registers the handle for process-wide teardown flushing. Facade
// values are cheap port references into the handle; obtaining one
// sends nothing to the brick.
//
// Read accessors return (value, ok): a failed read is absence, not a
// panic. Commands that stop hardware are enqueued as critical so
// Close and Registry.FlushAll wait for them.
package robot
