package transport

import (
	"errors"
	"testing"
)

func TestDiscover(t *testing.T) {
	tests := []struct {
		name    string
		class   string
		port    string
		baud    string
		want    DeviceInfo
		wantErr error
	}{
		{
			name:  "ev3 with default baud",
			class: "ev3",
			port:  "/dev/rfcomm0",
			want:  DeviceInfo{Class: DeviceEV3, Port: "/dev/rfcomm0", Baud: 57600},
		},
		{
			name:  "nxt with explicit baud",
			class: "nxt",
			port:  "/dev/rfcomm1",
			baud:  "115200",
			want:  DeviceInfo{Class: DeviceNXT, Port: "/dev/rfcomm1", Baud: 115200},
		},
		{
			name:    "nothing configured",
			wantErr: ErrNoDevice,
		},
		{
			name:    "unknown class",
			class:   "rcx",
			port:    "/dev/rfcomm0",
			wantErr: ErrBadDeviceEnv,
		},
		{
			name:    "class without port",
			class:   "ev3",
			wantErr: ErrBadDeviceEnv,
		},
		{
			name:    "negative baud",
			class:   "ev3",
			port:    "/dev/rfcomm0",
			baud:    "-1",
			wantErr: ErrBadDeviceEnv,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BRICKGATE_DEVICE_CLASS", tt.class)
			t.Setenv("BRICKGATE_DEVICE_PORT", tt.port)
			baud := tt.baud
			if baud == "" {
				baud = "57600"
			}
			t.Setenv("BRICKGATE_DEVICE_BAUD", baud)

			got, err := Discover()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Discover() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Discover() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Discover() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeviceInfoValidate(t *testing.T) {
	info := DeviceInfo{Class: DeviceEV3, Port: "/dev/rfcomm0", Baud: 57600}

	if err := info.Validate(DeviceEV3); err != nil {
		t.Errorf("Validate(DeviceEV3) = %v, want nil", err)
	}
	if err := info.Validate(DeviceNXT); !errors.Is(err, ErrClassMismatch) {
		t.Errorf("Validate(DeviceNXT) = %v, want ErrClassMismatch", err)
	}
}
