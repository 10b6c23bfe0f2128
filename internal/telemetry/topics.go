package telemetry

import "fmt"

// Topic prefixes for the brickgate MQTT namespace.
//
// Readings use the flat scheme: brickgate/reading/{robot}/{port}
// so a subscriber can select one port, one robot, or everything with
// standard MQTT wildcards.
const (
	// TopicPrefix is the base for all brickgate topics.
	TopicPrefix = "brickgate"

	// TopicPrefixSystem is the base for daemon lifecycle topics.
	TopicPrefixSystem = "brickgate/system"
)

// Topics provides builders for brickgate MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := telemetry.Topics{}
//	t := topics.Reading("brick-001", "in4")
//	// Returns: "brickgate/reading/brick-001/in4"
type Topics struct{}

// Reading returns the topic for sensor readings from one port of one robot.
//
// Example: brickgate/reading/brick-001/in4
func (Topics) Reading(robot, port string) string {
	return fmt.Sprintf("%s/reading/%s/%s", TopicPrefix, robot, port)
}

// RobotStatus returns the topic for per-robot connection state.
//
// Example: brickgate/status/brick-001
func (Topics) RobotStatus(robot string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, robot)
}

// SystemStatus returns the daemon status topic.
//
// Example: brickgate/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllReadings returns a pattern matching readings from every robot and port.
//
// Pattern: brickgate/reading/+/+
func (Topics) AllReadings() string {
	return fmt.Sprintf("%s/reading/+/+", TopicPrefix)
}

// RobotReadings returns a pattern matching all ports of one robot.
//
// Pattern: brickgate/reading/brick-001/+
func (Topics) RobotReadings(robot string) string {
	return fmt.Sprintf("%s/reading/%s/+", TopicPrefix, robot)
}

// AllRobotStatuses returns a pattern matching every robot's status topic.
//
// Pattern: brickgate/status/+
func (Topics) AllRobotStatuses() string {
	return fmt.Sprintf("%s/status/+", TopicPrefix)
}

// AllTopics returns a pattern matching all brickgate topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: brickgate/#
func (Topics) AllTopics() string {
	return "brickgate/#"
}
