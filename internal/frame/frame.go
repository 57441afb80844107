// Package frame implements the wire framing protocol: a fixed 10-byte
// header followed by a UTF-8 JSON body.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the fixed wire size of a Header.
const HeaderSize = 10

// Wire version. Any other value on an inbound header is a protocol
// violation.
const Version = 0

// Type is a single-byte message type code. Inbound (client→server) codes
// are uppercase; outbound (server→client) codes are lowercase. This
// asymmetry is deliberate and must round-trip bit-exactly.
type Type byte

const (
	TypeHello             Type = 'A'
	TypeShutdown          Type = 'Z'
	TypeHeartbeat         Type = 'H'
	TypeFacepositionReq   Type = 'F'
	TypeLuminosityReq     Type = 'L'
	TypeHelloResp         Type = 'a'
	TypeShutdownResp      Type = 'z'
	TypeFacepositionResp  Type = 'f'
	TypeLuminosityResp    Type = 'l'
)

// ErrInvalidRequest is returned for any protocol violation: bad version,
// unknown type byte, or a non-zero body on a type that must be empty.
var ErrInvalidRequest = errors.New("frame: invalid request")

// Header is the fixed 10-byte frame header: version, type, msg_len (LE
// u32), msg_id (LE u32).
type Header struct {
	Version byte
	Type    Type
	MsgLen  uint32
	MsgID   uint32
}

// Encode writes h to a fresh HeaderSize-byte buffer.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	buf[0] = h.Version
	buf[1] = byte(h.Type)
	binary.LittleEndian.PutUint32(buf[2:6], h.MsgLen)
	binary.LittleEndian.PutUint32(buf[6:10], h.MsgID)
	return buf
}

// Decode parses a HeaderSize-byte buffer into a Header.
func Decode(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, fmt.Errorf("frame: header must be %d bytes, got %d", HeaderSize, len(buf))
	}
	return Header{
		Version: buf[0],
		Type:    Type(buf[1]),
		MsgLen:  binary.LittleEndian.Uint32(buf[2:6]),
		MsgID:   binary.LittleEndian.Uint32(buf[6:10]),
	}, nil
}

// ValidateInbound checks an inbound header against the protocol rules:
// version must be 0, the type must be a known inbound code, and Hello
// must carry an empty body. Shutdown/Heartbeat bodies are accepted
// regardless of length (and ignored by the caller).
func ValidateInbound(h Header) error {
	if h.Version != Version {
		return ErrInvalidRequest
	}
	switch h.Type {
	case TypeHello:
		if h.MsgLen != 0 {
			return ErrInvalidRequest
		}
	case TypeShutdown, TypeHeartbeat, TypeFacepositionReq, TypeLuminosityReq:
		// body length unconstrained here; Shutdown/Heartbeat bodies are
		// ignored by the session regardless of msg_len.
	default:
		return ErrInvalidRequest
	}
	return nil
}
