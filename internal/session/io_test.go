package session

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"narcissus/internal/frame"
)

// TestHeartbeatWithBodyDoesNotDesyncFraming sends a Heartbeat frame whose
// body is non-empty, immediately followed by a second Heartbeat frame.
// If the first frame's body were left unread on the wire, the leftover
// body bytes would be misinterpreted as the start of the next header,
// and the resulting garbage header would fail Decode or ValidateInbound
// well before both frames are drained.
func TestHeartbeatWithBodyDoesNotDesyncFraming(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	sess := New(serverConn, testConfig(), nil, nil, zerolog.Nop())

	go func() {
		hdr1 := frame.Header{Version: frame.Version, Type: frame.TypeHeartbeat, MsgLen: 4, MsgID: 1}
		enc1 := hdr1.Encode()
		clientConn.Write(enc1[:])
		clientConn.Write([]byte{0xde, 0xad, 0xbe, 0xef})

		hdr2 := frame.Header{Version: frame.Version, Type: frame.TypeHeartbeat, MsgLen: 0, MsgID: 2}
		enc2 := hdr2.Encode()
		clientConn.Write(enc2[:])
	}()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		done, err := sess.tickRead()
		if done {
			t.Fatalf("tickRead reported done unexpectedly (err=%v); framing likely desynced", err)
		}
		time.Sleep(time.Millisecond)
	}

	if sess.state != readingHeader || len(sess.headerBuf) != 0 || len(sess.bodyBuf) != 0 {
		t.Fatalf("session not in a clean header-reading state after two heartbeats: state=%v headerBuf=%v bodyBuf=%v",
			sess.state, sess.headerBuf, sess.bodyBuf)
	}
}
