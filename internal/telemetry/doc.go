// Package telemetry publishes brick sensor readings and daemon status
// over MQTT.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Reading and status message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The daemon polls sensors through the command pipeline and hands each
// sample to this package, which serialises it as JSON and publishes it
// to a per-robot, per-port topic:
//
//	brickgate/reading/<robot>/<port>
//
// Daemon liveness is published retained to brickgate/system/status, so
// subscribers that come up late still see the last known state.
//
// # Usage
//
//	client, err := telemetry.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	msg := telemetry.NewReading("brick-001", "in1", "touch", 1)
//	err = client.PublishReading(msg)
package telemetry
