package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReadingMessage is the JSON payload published for every sensor sample.
//
// Example:
//
//	{
//	  "id": "6c8f6f2e-6d35-4a0e-9f3f-1b9e5a7c0d21",
//	  "robot": "brick-001",
//	  "port": "in4",
//	  "sensor": "ultrasonic",
//	  "value": 47,
//	  "recorded_at": "2026-08-26T14:03:22Z"
//	}
type ReadingMessage struct {
	ID         string    `json:"id"`
	Robot      string    `json:"robot"`
	Port       string    `json:"port"`
	Sensor     string    `json:"sensor"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// StatusMessage is the JSON payload published to status topics.
// It covers both the daemon lifecycle (online/offline) and per-robot
// connection state.
type StatusMessage struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Status values published to status topics.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// NewReading builds a ReadingMessage with a fresh ID and a UTC timestamp.
func NewReading(robot, port, sensor string, value float64) ReadingMessage {
	return ReadingMessage{
		ID:         uuid.New().String(),
		Robot:      robot,
		Port:       port,
		Sensor:     sensor,
		Value:      value,
		RecordedAt: time.Now().UTC(),
	}
}

// Encode serialises the reading as JSON.
func (m ReadingMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return data, nil
}

// DecodeReading parses a ReadingMessage from a JSON payload.
func DecodeReading(payload []byte) (ReadingMessage, error) {
	var m ReadingMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return ReadingMessage{}, fmt.Errorf("telemetry: decoding reading: %w", err)
	}
	return m, nil
}

// newStatus builds a StatusMessage with a UTC timestamp.
func newStatus(status, clientID, reason string) StatusMessage {
	return StatusMessage{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// Encode serialises the status message as JSON.
func (m StatusMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return data, nil
}
