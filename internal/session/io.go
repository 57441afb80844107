package session

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"narcissus/internal/frame"
)

// errWouldBlock is returned internally by tickRead when no data was
// available this tick; it is not a session-ending error.
var errWouldBlock = errors.New("session: would block")

// pollDeadline is the read deadline used for each non-blocking poll
// attempt within a tick.
const pollDeadline = time.Millisecond

// tickRead performs one non-blocking read attempt and advances the
// header/body accumulation state machine. done reports whether the
// session should terminate (clean Shutdown, or a protocol violation).
func (s *Session) tickRead() (done bool, err error) {
	need := frame.HeaderSize - len(s.headerBuf)
	buf := &s.headerBuf
	if s.state == readingBody {
		need = int(s.pendingHdr.MsgLen) - len(s.bodyBuf)
		buf = &s.bodyBuf
	}
	if need <= 0 {
		// MsgLen==0 body: nothing to read, dispatch immediately.
		return s.dispatchIfComplete()
	}

	s.conn.SetReadDeadline(time.Now().Add(pollDeadline))
	tmp := make([]byte, need)
	n, rerr := s.conn.Read(tmp)
	if n > 0 {
		*buf = append(*buf, tmp[:n]...)
		s.lastRead = time.Now()
	}
	if rerr != nil {
		if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
			return false, errWouldBlock
		}
		if errors.Is(rerr, io.EOF) {
			return true, rerr
		}
		return true, rerr
	}

	return s.dispatchIfComplete()
}

// dispatchIfComplete checks whether the current header/body buffer has
// reached its target size, and if so processes it and resets state.
func (s *Session) dispatchIfComplete() (done bool, err error) {
	if s.state == readingHeader {
		if len(s.headerBuf) < frame.HeaderSize {
			return false, nil
		}
		hdr, derr := frame.Decode(s.headerBuf)
		s.headerBuf = s.headerBuf[:0]
		if derr != nil {
			s.noteProtocolError()
			return true, derr
		}
		if verr := frame.ValidateInbound(hdr); verr != nil {
			s.noteProtocolError()
			return true, verr
		}

		if hdr.Type == frame.TypeShutdown {
			s.writeFrame(frame.TypeShutdownResp, nil)
			return true, nil
		}

		s.pendingHdr = hdr
		if hdr.MsgLen > 0 {
			s.bodyBuf = make([]byte, 0, hdr.MsgLen)
			s.state = readingBody
			return false, nil
		}
		return s.handleRequestBody(hdr, nil)
	}

	if uint32(len(s.bodyBuf)) < s.pendingHdr.MsgLen {
		return false, nil
	}
	hdr := s.pendingHdr
	body := s.bodyBuf
	s.bodyBuf = nil
	s.state = readingHeader
	return s.handleRequestBody(hdr, body)
}

// handleRequestBody dispatches a completed header+body pair.
func (s *Session) handleRequestBody(hdr frame.Header, body []byte) (done bool, err error) {
	switch hdr.Type {
	case frame.TypeFacepositionReq:
		var req frame.FacepositionRequest
		if uerr := json.Unmarshal(body, &req); uerr != nil {
			s.noteProtocolError()
			return true, frame.ErrInvalidRequest
		}
		s.mutateFaceposition(req.UpdateInterval)
		return false, nil
	case frame.TypeLuminosityReq:
		var req frame.LuminosityRequest
		if uerr := json.Unmarshal(body, &req); uerr != nil {
			s.noteProtocolError()
			return true, frame.ErrInvalidRequest
		}
		s.mutateLuminosity(req.UpdateInterval)
		return false, nil
	case frame.TypeHeartbeat:
		return false, nil
	case frame.TypeHello:
		// A second Hello once the session is ACTIVE is a protocol violation.
		s.noteProtocolError()
		return true, frame.ErrInvalidRequest
	default:
		if len(body) > 0 {
			s.noteProtocolError()
			return true, frame.ErrInvalidRequest
		}
		return false, nil
	}
}

// writeFrame synchronously encodes and writes one frame. It loops until
// the whole frame is emitted; a zero-byte write due to the socket being
// momentarily unwritable is retried, any other error aborts.
func (s *Session) writeFrame(typ frame.Type, body any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	hdr := frame.Header{Version: frame.Version, Type: typ, MsgLen: uint32(len(payload)), MsgID: newMsgID()}
	enc := hdr.Encode()

	out := make([]byte, 0, frame.HeaderSize+len(payload))
	out = append(out, enc[:]...)
	out = append(out, payload...)

	return s.writeAll(out)
}

func (s *Session) writeAll(out []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(time.Second))
	total := 0
	for total < len(out) {
		n, err := s.conn.Write(out[total:])
		if n == 0 && err == nil {
			continue
		}
		total += n
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() && n > 0 {
				continue
			}
			return err
		}
	}
	return nil
}

// readFull is used only by the Hello handshake, which still blocks on a
// deadline-bounded read of the fixed-size header.
func readFull(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
