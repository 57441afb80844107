package server

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"narcissus/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Server: config.ServerConfig{
			SocketPath:         filepath.Join(t.TempDir(), "narcissus.sock"),
			ClientHelloTimeout: 200 * time.Millisecond,
			ClientIdleTimeout:  15 * time.Second,
		},
	}
}

func TestNewRemovesStaleSocketFile(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Server.SocketPath, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed stale file: %v", err)
	}

	srv, err := New(cfg, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer srv.Close()
}

func TestRunStopsOnSignal(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(cfg, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer srv.Close()

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- srv.Run(stop) }()

	close(stop)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on clean stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after stop was closed")
	}
}

func TestRunAcceptsConnection(t *testing.T) {
	cfg := testConfig(t)
	srv, err := New(cfg, nil, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer srv.Close()

	stop := make(chan struct{})
	go srv.Run(stop)
	defer close(stop)

	conn, err := net.DialTimeout("unix", cfg.Server.SocketPath, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The accepted connection will fail its Hello handshake quickly
	// (client sends nothing) and the session goroutine exits on its own;
	// this just confirms Accept doesn't error out the Run loop.
	time.Sleep(300 * time.Millisecond)
}
