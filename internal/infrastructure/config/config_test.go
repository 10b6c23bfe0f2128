package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
robot:
  name: "rover"
  class: "nxt"
  port: "/dev/rfcomm0"
poll:
  interval: 250ms
  failure_ceiling: 5
sensors:
  - name: "bumper"
    port: 1
    kind: "touch"
  - name: "eyes"
    port: 4
    kind: "ultrasonic"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: true
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Robot.Name != "rover" {
		t.Errorf("Robot.Name = %q, want %q", cfg.Robot.Name, "rover")
	}

	if cfg.Robot.Class != "nxt" {
		t.Errorf("Robot.Class = %q, want %q", cfg.Robot.Class, "nxt")
	}

	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Errorf("Poll.Interval = %v, want 250ms", cfg.Poll.Interval)
	}

	if len(cfg.Sensors) != 2 || cfg.Sensors[1].Kind != "ultrasonic" {
		t.Errorf("Sensors = %+v", cfg.Sensors)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
robot:
  name: ""
  class: "ev3"
  port: "/dev/rfcomm0"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty robot.name, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Robot.Port = "/dev/rfcomm0"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing robot name",
			mutate:  func(c *Config) { c.Robot.Name = "" },
			wantErr: true,
		},
		{
			name:    "unknown class",
			mutate:  func(c *Config) { c.Robot.Class = "rcx" },
			wantErr: true,
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Robot.Port = "" },
			wantErr: true,
		},
		{
			name:    "zero poll interval",
			mutate:  func(c *Config) { c.Poll.Interval = 0 },
			wantErr: true,
		},
		{
			name: "sensor port out of range",
			mutate: func(c *Config) {
				c.Sensors = []SensorConfig{{Name: "s", Port: 5, Kind: "touch"}}
			},
			wantErr: true,
		},
		{
			name: "sensor kind wrong for class",
			mutate: func(c *Config) {
				c.Robot.Class = "nxt"
				c.Sensors = []SensorConfig{{Name: "g", Port: 2, Kind: "gyro"}}
			},
			wantErr: true,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "mqtt disabled skips broker checks",
			mutate: func(c *Config) {
				c.MQTT.Enabled = false
				c.MQTT.Broker.Host = ""
				c.MQTT.QoS = 9
			},
			wantErr: false,
		},
		{
			name: "datalog without database path",
			mutate: func(c *Config) {
				c.Datalog.Enabled = true
				c.Database.Path = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("BRICKGATE_DEVICE_CLASS", "nxt")
	t.Setenv("BRICKGATE_DEVICE_PORT", "/dev/rfcomm7")
	t.Setenv("BRICKGATE_DEVICE_BAUD", "115200")
	t.Setenv("BRICKGATE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("BRICKGATE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("BRICKGATE_MQTT_USERNAME", "testuser")
	t.Setenv("BRICKGATE_MQTT_PASSWORD", "testpass")

	applyEnvOverrides(cfg)

	if cfg.Robot.Class != "nxt" {
		t.Errorf("Robot.Class = %q, want %q", cfg.Robot.Class, "nxt")
	}

	if cfg.Robot.Port != "/dev/rfcomm7" {
		t.Errorf("Robot.Port = %q, want %q", cfg.Robot.Port, "/dev/rfcomm7")
	}

	if cfg.Robot.Baud != 115200 {
		t.Errorf("Robot.Baud = %d, want 115200", cfg.Robot.Baud)
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Robot.Name == "" {
		t.Error("defaultConfig should have non-empty Robot.Name")
	}

	if cfg.Robot.Baud != 57600 {
		t.Errorf("defaultConfig Robot.Baud = %d, want 57600", cfg.Robot.Baud)
	}

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.BrokerURL(); got != "tcp://localhost:1883" {
		t.Errorf("BrokerURL() = %q, want tcp://localhost:1883", got)
	}

	cfg.MQTT.Broker.TLS = true
	cfg.MQTT.Broker.Port = 8883
	if got := cfg.BrokerURL(); got != "ssl://localhost:8883" {
		t.Errorf("BrokerURL() = %q, want ssl://localhost:8883", got)
	}
}
