package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("BRICKGATE_CONFIG")
	defer os.Setenv("BRICKGATE_CONFIG", originalEnv)

	os.Unsetenv("BRICKGATE_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("BRICKGATE_CONFIG")
	defer os.Setenv("BRICKGATE_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("BRICKGATE_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("BRICKGATE_CONFIG")
	defer os.Setenv("BRICKGATE_CONFIG", originalEnv)

	os.Setenv("BRICKGATE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingSerialPort verifies run fails when the configured
// serial device does not exist. MQTT and the datalog are disabled so
// the failure is isolated to the robot connection.
func TestRun_MissingSerialPort(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
robot:
  name: test-brick
  class: nxt
  port: "` + filepath.Join(tmpDir, "no-such-port") + `"
  baud: 57600

poll:
  interval: 100ms
  failure_ceiling: 3

sensors:
  - name: bumper
    port: 1
    kind: touch

datalog:
  enabled: false

mqtt:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("BRICKGATE_CONFIG")
	defer os.Setenv("BRICKGATE_CONFIG", originalEnv)
	os.Setenv("BRICKGATE_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail when the serial port does not exist")
	}
	if !strings.Contains(err.Error(), "connecting to robot") {
		t.Errorf("run() error = %v, want robot connection failure", err)
	}
}

// TestBoolValue verifies the touch reading conversion.
func TestBoolValue(t *testing.T) {
	if boolValue(true) != 1 {
		t.Errorf("boolValue(true) = %v, want 1", boolValue(true))
	}
	if boolValue(false) != 0 {
		t.Errorf("boolValue(false) = %v, want 0", boolValue(false))
	}
}
