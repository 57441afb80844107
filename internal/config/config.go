// Package config loads runtime configuration for the narcissus daemon.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the daemon.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Webcam  WebcamConfig  `mapstructure:"webcam"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig describes the UNIX-domain socket listener and session limits.
type ServerConfig struct {
	SocketPath         string        `mapstructure:"socket_path"`
	PidFile            string        `mapstructure:"pid_file"`
	ClientHelloTimeout time.Duration `mapstructure:"client_hello_timeout"`
	ClientIdleTimeout  time.Duration `mapstructure:"client_idle_timeout"`
}

// WebcamConfig describes the V4L-class capture device.
type WebcamConfig struct {
	Device            string `mapstructure:"device"`
	IntervalNumerator int    `mapstructure:"interval_numerator"`
	IntervalDenom     int    `mapstructure:"interval_denominator"`
	Width             int    `mapstructure:"width"`
	Height            int    `mapstructure:"height"`
	DetectorModelPath string `mapstructure:"detector_model_path"`
}

// LoggingConfig controls the LTSV logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from environment variables and an optional
// config file, falling back to the daemon's fixed defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.socket_path", "/tmp/narcissus.sock")
	v.SetDefault("server.pid_file", "/tmp/narcissus.pid")
	v.SetDefault("server.client_hello_timeout", 2*time.Second)
	v.SetDefault("server.client_idle_timeout", 15*time.Second)

	v.SetDefault("webcam.device", "/dev/video0")
	v.SetDefault("webcam.interval_numerator", 1)
	v.SetDefault("webcam.interval_denominator", 30)
	v.SetDefault("webcam.width", 640)
	v.SetDefault("webcam.height", 480)
	v.SetDefault("webcam.detector_model_path", "seeta_fd_frontal_v1.0.bin")

	v.SetDefault("logging.level", "info")

	v.SetConfigName("narcissus")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/narcissus")
	v.SetEnvPrefix("NARCISSUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Optional: a config file is nice-to-have, never required.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}

	if cfg.Webcam.IntervalDenom <= 0 {
		cfg.Webcam.IntervalDenom = 30
	}
	if cfg.Webcam.IntervalNumerator <= 0 {
		cfg.Webcam.IntervalNumerator = 1
	}

	return cfg, nil
}

// FrameSize returns the fixed per-frame byte count for YUYV at the
// configured resolution (width*height*2).
func (c Config) FrameSize() int {
	return c.Webcam.Width * c.Webcam.Height * 2
}
