// Package server binds the UNIX-domain socket and spawns one session
// goroutine per accepted connection.
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"narcissus/internal/config"
	"narcissus/internal/diagnostics"
	"narcissus/internal/exchange"
	"narcissus/internal/session"
)

// acceptPollInterval is the deadline Run sets on each Accept, so that it
// rechecks the stop channel at least this often.
const acceptPollInterval = 20 * time.Millisecond

// Server listens on a UNIX socket and drives one Session per connection.
type Server struct {
	cfg  config.Config
	exch *exchange.Exchange
	diag *diagnostics.Diagnostics
	log  zerolog.Logger

	ln *net.UnixListener

	mu        sync.Mutex
	clientNum int
	shutdowns []chan struct{}
	wg        sync.WaitGroup
}

// New binds the configured socket path, removing any stale file first.
func New(cfg config.Config, exch *exchange.Exchange, diag *diagnostics.Diagnostics, log zerolog.Logger) (*Server, error) {
	if err := os.RemoveAll(cfg.Server.SocketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("server: remove stale socket: %w", err)
	}

	addr, err := net.ResolveUnixAddr("unix", cfg.Server.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("server: resolve socket path: %w", err)
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen: %w", err)
	}

	return &Server{cfg: cfg, exch: exch, diag: diag, log: log, ln: ln}, nil
}

// Run accepts connections until stop is closed, spawning a session
// goroutine per client. It returns nil on a clean stop, or the first
// fatal accept error otherwise (the supervisor restarts on a non-nil
// return unless shutdown was already requested).
func (s *Server) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			s.shutdownAll()
			return nil
		default:
		}

		s.ln.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, err := s.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-stop:
				s.shutdownAll()
				return nil
			default:
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		s.spawn(conn)
	}
}

func (s *Server) spawn(conn net.Conn) {
	s.mu.Lock()
	s.clientNum++
	name := fmt.Sprintf("client_%d", s.clientNum)
	shutdownCh := make(chan struct{})
	s.shutdowns = append(s.shutdowns, shutdownCh)
	s.mu.Unlock()

	sess := session.New(conn, s.cfg, s.exch, s.diag, s.log.With().Str("thread", name).Logger())

	if s.diag != nil {
		s.diag.SessionsAccepted.Inc()
		s.diag.SessionsActive.Inc()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.diag != nil {
			defer s.diag.SessionsActive.Dec()
		}
		sess.Run(shutdownCh)
	}()
}

// shutdownAll signals every live session's shutdown channel and waits for
// all session goroutines to finish their current tick and exit.
func (s *Server) shutdownAll() {
	s.mu.Lock()
	for _, ch := range s.shutdowns {
		close(ch)
	}
	s.shutdowns = nil
	s.mu.Unlock()

	s.wg.Wait()
}

// Close removes the socket file. Call once the supervisor is done with
// the server for good.
func (s *Server) Close() error {
	if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return os.RemoveAll(s.cfg.Server.SocketPath)
}
