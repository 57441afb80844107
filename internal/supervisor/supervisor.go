// Package supervisor owns the process-wide lifecycle: it restarts the
// Server on unexpected failure, samples process resource usage, and
// reacts to SIGINT-class signals for clean shutdown.
package supervisor

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"narcissus/internal/diagnostics"
	"narcissus/internal/exchange"
	"narcissus/internal/server"
)

// tick is the supervisor's own poll interval.
const tick = 50 * time.Millisecond

// resourceSampleInterval is how often process resource usage is sampled
// and logged.
const resourceSampleInterval = 10 * time.Second

// restartBackoff bounds how fast the supervisor re-enters Server.Run
// after a failure, so a persistent failure (e.g. exhausted file
// descriptors) spins at a bounded rate instead of busy-looping.
const restartBackoff = 500 * time.Millisecond

// Supervisor owns the Exchange and Server for the process lifetime.
type Supervisor struct {
	srv  *server.Server
	log  zerolog.Logger
	diag *diagnostics.Diagnostics

	running int32 // atomic bool
}

// New wires a Supervisor around an already-constructed Server. exch is
// accepted but not stored; the analyzer workers it started run for the
// process.
func New(_ *exchange.Exchange, srv *server.Server, diag *diagnostics.Diagnostics, log zerolog.Logger) *Supervisor {
	s := &Supervisor{srv: srv, log: log, diag: diag}
	atomic.StoreInt32(&s.running, 1)
	return s
}

// Run installs a SIGINT/SIGTERM handler and drives the restart loop
// around the Server until a shutdown is requested or the Server returns
// cleanly. It blocks until shutdown completes.
func (s *Supervisor) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopServer := make(chan struct{})
	go func() {
		<-ctx.Done()
		atomic.StoreInt32(&s.running, 0)
		close(stopServer)
	}()

	go s.sampleResources(ctx)

	for {
		err := s.srv.Run(stopServer)
		if err != nil {
			if atomic.LoadInt32(&s.running) == 0 {
				return nil
			}
			s.log.Error().Err(err).Msg("server loop failed, restarting")
			time.Sleep(restartBackoff)
			continue
		}
		return nil
	}
}

// sampleResources periodically logs process RSS and CPU usage until ctx
// is cancelled.
func (s *Supervisor) sampleResources(ctx context.Context) {
	ticker := time.NewTicker(resourceSampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.diag.LogResourceUsage(s.log)
		}
	}
}
