package main

import (
	"fmt"
	"os"
	"strconv"

	"narcissus/internal/camera"
	"narcissus/internal/config"
	"narcissus/internal/detector"
	"narcissus/internal/diagnostics"
	"narcissus/internal/exchange"
	"narcissus/internal/logging"
	"narcissus/internal/server"
	"narcissus/internal/supervisor"
	"narcissus/internal/videoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	release, err := acquirePidfile(cfg.Server.PidFile)
	if err != nil {
		logger.Error().Err(err).Msg("pidfile collision, another instance is likely running")
		os.Exit(1)
	}
	defer release()

	diag, err := diagnostics.New()
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize diagnostics")
		os.Exit(1)
	}

	det, err := detector.Load(cfg.Webcam.DetectorModelPath)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load detector model")
		os.Exit(1)
	}

	cam, err := camera.Open(cfg.Webcam.Device)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open camera device")
		os.Exit(1)
	}

	ringSender, ringRecv := videoring.New(cfg.FrameSize(), 0)
	go camera.Run(logging.Thread(logger, "camera"), cam, ringSender, cfg.FrameSize(), diag)

	exch, err := exchange.New(ringRecv, det, cfg.Webcam.Width, cfg.Webcam.Height, logging.Thread(logger, "exchange"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to start exchange")
		os.Exit(1)
	}

	srv, err := server.New(cfg, exch, diag, logging.Thread(logger, "server"))
	if err != nil {
		logger.Error().Err(err).Msg("failed to bind socket")
		os.Exit(1)
	}
	defer srv.Close()

	sup := supervisor.New(exch, srv, diag, logging.Thread(logger, "supervisor"))
	if err := sup.Run(); err != nil {
		logger.Error().Err(err).Msg("supervisor exited with error")
		os.Exit(1)
	}

	logger.Info().Msg("clean shutdown")
}

// acquirePidfile exclusively creates the pidfile, writing this process's
// pid, and returns a func that removes it on clean exit.
func acquirePidfile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pidfile: %w", err)
	}
	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("pidfile: write: %w", err)
	}
	f.Close()
	return func() { os.Remove(path) }, nil
}
