package session

import (
	"time"

	"golang.org/x/time/rate"

	"narcissus/internal/frame"
)

// mutateFaceposition drops any existing faceposition receiver, sets the
// requested interval, and (if nonzero) obtains a fresh receiver.
func (s *Session) mutateFaceposition(updateIntervalMs uint32) {
	if s.face.recv != nil {
		s.face.recv.Close()
		s.face.recv = nil
	}
	s.face.interval = time.Duration(updateIntervalMs) * time.Millisecond
	s.face.lastSend = time.Time{}
	if updateIntervalMs == 0 {
		s.face.limiter = nil
		return
	}
	s.face.recv = s.exch.SubscribeFaceposition()
	s.face.limiter = perStreamLimiter(s.face.interval)
}

// mutateLuminosity is the luminosity twin of mutateFaceposition.
func (s *Session) mutateLuminosity(updateIntervalMs uint32) {
	if s.luma.recv != nil {
		s.luma.recv.Close()
		s.luma.recv = nil
	}
	s.luma.interval = time.Duration(updateIntervalMs) * time.Millisecond
	s.luma.lastSend = time.Time{}
	if updateIntervalMs == 0 {
		s.luma.limiter = nil
		return
	}
	s.luma.recv = s.exch.SubscribeLuminosity()
	s.luma.limiter = perStreamLimiter(s.luma.interval)
}

// perStreamLimiter builds a rate.Limiter allowing at most one event per
// interval, with a burst of 1 — the token-bucket realization of the
// per-stream update_interval throttle.
func perStreamLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// tickWrite enforces the 15s idle timeout and, for each subscribed
// stream whose limiter currently allows it, writes the latest value.
func (s *Session) tickWrite() error {
	if time.Since(s.lastRead) > s.cfg.Server.ClientIdleTimeout {
		s.writeFrame(frame.TypeShutdownResp, nil)
		return ErrClientTimeout
	}

	if s.face.recv != nil && s.face.limiter != nil && s.face.limiter.Allow() {
		if v, ok := s.face.recv.Recv(); ok {
			if err := s.writeFrame(frame.TypeFacepositionResp, v); err != nil {
				return err
			}
			s.face.lastSend = time.Now()
			if s.diag != nil {
				s.diag.MessagesSent.Inc()
			}
		}
	}
	if s.luma.recv != nil && s.luma.limiter != nil && s.luma.limiter.Allow() {
		if v, ok := s.luma.recv.Recv(); ok {
			if err := s.writeFrame(frame.TypeLuminosityResp, v); err != nil {
				return err
			}
			s.luma.lastSend = time.Now()
			if s.diag != nil {
				s.diag.MessagesSent.Inc()
			}
		}
	}
	return nil
}
