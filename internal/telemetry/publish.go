package telemetry

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "brickgate/reading/brick-001/in4")
//   - payload: The message payload (typically JSON, max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message for new subscribers
//
// QoS Levels:
//   - 0: At most once (fire and forget)
//   - 1: At least once (guaranteed delivery, may duplicate)
//   - 2: Exactly once (guaranteed, no duplicates, higher overhead)
//
// Retained Messages:
//   - When true, broker stores the last message for each topic
//   - New subscribers immediately receive the retained message
//   - Use for status topics, not for readings (every sample matters)
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	// Validate inputs
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	// Check connection state
	if !c.IsConnected() {
		return ErrNotConnected
	}

	// Publish with timeout
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishReading serialises a sensor reading and publishes it to the
// per-robot, per-port reading topic with the configured default QoS.
//
// Readings are not retained: subscribers want the live stream, and the
// datalog keeps history.
func (c *Client) PublishReading(msg ReadingMessage) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	topic := Topics{}.Reading(msg.Robot, msg.Port)
	return c.Publish(topic, payload, byte(c.cfg.QoS), false)
}

// PublishRobotStatus publishes a robot's connection state, retained so
// new subscribers see the current state immediately.
func (c *Client) PublishRobotStatus(robot, status string) error {
	payload, err := newStatus(status, robot, "").Encode()
	if err != nil {
		return err
	}
	topic := Topics{}.RobotStatus(robot)
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}
