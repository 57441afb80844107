// Package session implements the per-client state machine: hello
// handshake, subscription management, throttled writes, heartbeat
// liveness, and graceful shutdown.
package session

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"narcissus/internal/analyzer"
	"narcissus/internal/conflate"
	"narcissus/internal/config"
	"narcissus/internal/diagnostics"
	"narcissus/internal/exchange"
	"narcissus/internal/frame"
)

// tickInterval is how often the ACTIVE loop polls for readability,
// writability and the shutdown signal.
const tickInterval = 20 * time.Millisecond

// ErrClientTimeout is the internal error a session reports when it times
// out a client for inbound silence; it is not sent on the wire.
var ErrClientTimeout = errors.New("session: client timeout")

// readState tracks which half of a frame the session is accumulating.
type readState int

const (
	readingHeader readState = iota
	readingBody
)

// subscription is one analyzer stream's receiver plus its throttling.
type subscription[T any] struct {
	recv     *conflate.Receiver[T]
	interval time.Duration
	lastSend time.Time
	limiter  *rate.Limiter
}

// Session drives one client connection through INIT → HELLO_WAIT →
// ACTIVE ⇄ (header/body) → CLOSING.
type Session struct {
	conn net.Conn
	cfg  config.Config
	exch *exchange.Exchange
	diag *diagnostics.Diagnostics
	log  zerolog.Logger
	id   string

	face subscription[analyzer.FacePosition]
	luma subscription[analyzer.Luminosity]

	state     readState
	headerBuf []byte
	bodyBuf   []byte
	pendingHdr frame.Header

	lastRead time.Time
}

// New constructs a Session bound to conn. Run must be called to drive it.
func New(conn net.Conn, cfg config.Config, exch *exchange.Exchange, diag *diagnostics.Diagnostics, log zerolog.Logger) *Session {
	return &Session{
		conn:      conn,
		cfg:       cfg,
		exch:      exch,
		diag:      diag,
		log:       log,
		headerBuf: make([]byte, 0, frame.HeaderSize),
	}
}

// Run performs the Hello handshake and then drives the ACTIVE loop until
// shutdown is signalled, the client disconnects, times out, or violates
// the protocol. It always closes conn before returning.
func (s *Session) Run(shutdown <-chan struct{}) {
	defer s.conn.Close()
	defer s.dropSubscriptions()

	if err := s.helloHandshake(); err != nil {
		s.log.Info().Err(err).Msg("hello handshake failed")
		return
	}

	s.lastRead = time.Now()

	for {
		select {
		case <-shutdown:
			s.writeFrame(frame.TypeShutdownResp, nil)
			return
		default:
		}

		done, err := s.tickRead()
		if err != nil && !errors.Is(err, errWouldBlock) {
			s.log.Debug().Err(err).Msg("session read error")
		}
		if done {
			return
		}

		if err := s.tickWrite(); err != nil {
			s.log.Info().Err(err).Msg("session ending")
			return
		}

		time.Sleep(tickInterval)
	}
}

// helloHandshake reads exactly one Hello frame within the configured
// timeout and writes the HelloResponse. Any failure terminates the
// session without a response, per the protocol's duplicate/invalid-Hello
// handling.
func (s *Session) helloHandshake() error {
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.Server.ClientHelloTimeout))
	defer s.conn.SetReadDeadline(time.Time{})

	hdrBuf := make([]byte, frame.HeaderSize)
	if _, err := readFull(s.conn, hdrBuf); err != nil {
		return fmt.Errorf("session: hello read: %w", err)
	}
	hdr, err := frame.Decode(hdrBuf)
	if err != nil {
		return err
	}
	if err := frame.ValidateInbound(hdr); err != nil {
		return err
	}
	if hdr.Type != frame.TypeHello {
		return frame.ErrInvalidRequest
	}

	s.id = newSessionID()
	resp := frame.HelloResponse{
		Config: frame.HelloConfig{
			SocketPath:         s.cfg.Server.SocketPath,
			WebcamDevice:       s.cfg.Webcam.Device,
			WebcamInterval:     [2]int{s.cfg.Webcam.IntervalNumerator, s.cfg.Webcam.IntervalDenom},
			WebcamResolution:   [2]int{s.cfg.Webcam.Width, s.cfg.Webcam.Height},
			ClientHelloTimeout: s.cfg.Server.ClientHelloTimeout.Seconds(),
		},
		SessionID: s.id,
	}
	return s.writeFrame(frame.TypeHelloResp, resp)
}

// newSessionID formats 4 random bytes as 8 lowercase hex digits.
func newSessionID() string {
	var b [4]byte
	rand.Read(b[:])
	return fmt.Sprintf("%02x%02x%02x%02x", b[0], b[1], b[2], b[3])
}

func newMsgID() uint32 {
	var b [4]byte
	rand.Read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func (s *Session) noteProtocolError() {
	if s.diag != nil {
		s.diag.ProtocolErrors.Inc()
	}
}

func (s *Session) dropSubscriptions() {
	if s.face.recv != nil {
		s.face.recv.Close()
		s.face.recv = nil
	}
	if s.luma.recv != nil {
		s.luma.recv.Close()
		s.luma.recv = nil
	}
}
