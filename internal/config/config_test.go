package config

import "testing"

func TestLoadAppliesFixedDefaults(t *testing.T) {
	t.Setenv("NARCISSUS_SERVER_SOCKET_PATH", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.SocketPath != "/tmp/narcissus.sock" {
		t.Fatalf("SocketPath = %q, want /tmp/narcissus.sock", cfg.Server.SocketPath)
	}
	if cfg.Webcam.Device != "/dev/video0" {
		t.Fatalf("Device = %q, want /dev/video0", cfg.Webcam.Device)
	}
	if cfg.Webcam.IntervalNumerator != 1 || cfg.Webcam.IntervalDenom != 30 {
		t.Fatalf("webcamInterval = %d/%d, want 1/30", cfg.Webcam.IntervalNumerator, cfg.Webcam.IntervalDenom)
	}
	if cfg.Webcam.Width != 640 || cfg.Webcam.Height != 480 {
		t.Fatalf("resolution = %dx%d, want 640x480", cfg.Webcam.Width, cfg.Webcam.Height)
	}
}

func TestFrameSize(t *testing.T) {
	cfg := Config{Webcam: WebcamConfig{Width: 640, Height: 480}}
	if got, want := cfg.FrameSize(), 640*480*2; got != want {
		t.Fatalf("FrameSize = %d, want %d", got, want)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("NARCISSUS_WEBCAM_DEVICE", "/dev/video1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Webcam.Device != "/dev/video1" {
		t.Fatalf("Device = %q, want env override /dev/video1", cfg.Webcam.Device)
	}
}
