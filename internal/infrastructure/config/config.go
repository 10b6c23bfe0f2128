package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the brickgate daemon.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Robot    RobotConfig    `yaml:"robot"`
	Poll     PollConfig     `yaml:"poll"`
	Sensors  []SensorConfig `yaml:"sensors"`
	Database DatabaseConfig `yaml:"database"`
	Datalog  DatalogConfig  `yaml:"datalog"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// RobotConfig describes the brick the daemon connects to.
type RobotConfig struct {
	// Name identifies the robot in topics and datalog rows.
	Name string `yaml:"name"`

	// Class is the brick family: "ev3" or "nxt".
	Class string `yaml:"class"`

	// Port is the serial device path, e.g. "/dev/rfcomm0".
	Port string `yaml:"port"`

	// Baud is the serial line speed. Default: 57600.
	Baud int `yaml:"baud"`

	// MinFirmware is a semver constraint checked at connection,
	// e.g. ">= 1.26". Empty uses the family default.
	MinFirmware string `yaml:"min_firmware"`

	// KeepAliveInterval is how often the brick sleep timer is reset.
	// 0 disables keep-alives.
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
}

// PollConfig contains the default sensor polling cadence.
type PollConfig struct {
	// Interval between samples. Default: 100ms.
	Interval time.Duration `yaml:"interval"`

	// FailureCeiling is the number of consecutive failed samples that
	// stops a poll loop. Default: 3.
	FailureCeiling int `yaml:"failure_ceiling"`
}

// SensorConfig describes one polled sensor.
type SensorConfig struct {
	// Name identifies the sensor in topics and datalog rows.
	Name string `yaml:"name"`

	// Port is the input port number, 1-4.
	Port int `yaml:"port"`

	// Kind selects the typed read: "touch", "color", "ambient",
	// "ultrasonic", "gyro", "infrared" on EV3; "touch", "light",
	// "sound", "ultrasonic" on NXT.
	Kind string `yaml:"kind"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// DatalogConfig contains reading-history settings.
type DatalogConfig struct {
	// Enabled turns local SQLite logging of readings on.
	Enabled bool `yaml:"enabled"`

	// Retention is how long readings are kept before Prune removes
	// them. 0 keeps everything.
	Retention time.Duration `yaml:"retention"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: BRICKGATE_SECTION_KEY
// For example: BRICKGATE_DEVICE_PORT, BRICKGATE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Robot: RobotConfig{
			Name:              "brick-001",
			Class:             "ev3",
			Baud:              57600,
			KeepAliveInterval: 5 * time.Minute,
		},
		Poll: PollConfig{
			Interval:       100 * time.Millisecond,
			FailureCeiling: 3,
		},
		Database: DatabaseConfig{
			Path:        "./data/brickgate.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Datalog: DatalogConfig{
			Enabled:   true,
			Retention: 7 * 24 * time.Hour,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "brickgate",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: BRICKGATE_SECTION_KEY.
// BRICKGATE_DEVICE_* is shared with library-level discovery so the daemon
// and plain library users configure the serial port the same way.
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("BRICKGATE_DEVICE_CLASS"); v != "" {
		cfg.Robot.Class = v
	}
	if v := os.Getenv("BRICKGATE_DEVICE_PORT"); v != "" {
		cfg.Robot.Port = v
	}
	if v := os.Getenv("BRICKGATE_DEVICE_BAUD"); v != "" {
		if baud, err := strconv.Atoi(v); err == nil {
			cfg.Robot.Baud = baud
		}
	}

	// Database
	if v := os.Getenv("BRICKGATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("BRICKGATE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("BRICKGATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("BRICKGATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
}

// validSensorKinds lists the accepted sensors.kind values per class.
var validSensorKinds = map[string]map[string]bool{
	"ev3": {
		"touch": true, "color": true, "ambient": true,
		"ultrasonic": true, "gyro": true, "infrared": true,
	},
	"nxt": {
		"touch": true, "light": true, "sound": true, "ultrasonic": true,
	},
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Robot.Name == "" {
		errs = append(errs, "robot.name is required")
	}
	kinds, classOK := validSensorKinds[c.Robot.Class]
	if !classOK {
		errs = append(errs, fmt.Sprintf("robot.class %q must be ev3 or nxt", c.Robot.Class))
	}
	if c.Robot.Port == "" {
		errs = append(errs, "robot.port is required (or set BRICKGATE_DEVICE_PORT)")
	}
	if c.Robot.Baud <= 0 {
		errs = append(errs, "robot.baud must be positive")
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, "poll.interval must be positive")
	}
	if c.Poll.FailureCeiling <= 0 {
		errs = append(errs, "poll.failure_ceiling must be positive")
	}

	for i, s := range c.Sensors {
		if s.Name == "" {
			errs = append(errs, fmt.Sprintf("sensors[%d].name is required", i))
		}
		if s.Port < 1 || s.Port > 4 {
			errs = append(errs, fmt.Sprintf("sensors[%d].port must be 1-4", i))
		}
		if classOK && !kinds[s.Kind] {
			errs = append(errs, fmt.Sprintf("sensors[%d].kind %q not valid for class %q", i, s.Kind, c.Robot.Class))
		}
	}

	if c.Datalog.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when datalog is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// BrokerURL returns the MQTT broker URL in paho's scheme://host:port form.
func (c *Config) BrokerURL() string {
	scheme := "tcp"
	if c.MQTT.Broker.TLS {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.MQTT.Broker.Host, c.MQTT.Broker.Port)
}

// BusyTimeout returns the SQLite busy timeout as a Duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeout) * time.Second
}
