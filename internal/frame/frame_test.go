package frame

import "testing"

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	types := []Type{TypeHello, TypeShutdown, TypeHeartbeat, TypeFacepositionReq, TypeLuminosityReq,
		TypeHelloResp, TypeShutdownResp, TypeFacepositionResp, TypeLuminosityResp}

	for _, typ := range types {
		h := Header{Version: Version, Type: typ, MsgLen: 1234, MsgID: 0xdeadbeef}
		enc := h.Encode()
		got, err := Decode(enc[:])
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != h {
			t.Fatalf("round trip mismatch for type %q: got %+v, want %+v", typ, got, h)
		}
	}
}

func TestValidateInboundRejectsBadVersion(t *testing.T) {
	h := Header{Version: 1, Type: TypeHeartbeat}
	if err := ValidateInbound(h); err != ErrInvalidRequest {
		t.Fatalf("ValidateInbound = %v, want ErrInvalidRequest", err)
	}
}

func TestValidateInboundRejectsUnknownType(t *testing.T) {
	h := Header{Version: Version, Type: Type('X')}
	if err := ValidateInbound(h); err != ErrInvalidRequest {
		t.Fatalf("ValidateInbound = %v, want ErrInvalidRequest", err)
	}
}

func TestValidateInboundRejectsNonZeroHelloBody(t *testing.T) {
	h := Header{Version: Version, Type: TypeHello, MsgLen: 1}
	if err := ValidateInbound(h); err != ErrInvalidRequest {
		t.Fatalf("ValidateInbound = %v, want ErrInvalidRequest", err)
	}
}

func TestValidateInboundAcceptsZeroLenHello(t *testing.T) {
	h := Header{Version: Version, Type: TypeHello, MsgLen: 0}
	if err := ValidateInbound(h); err != nil {
		t.Fatalf("ValidateInbound = %v, want nil", err)
	}
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Fatal("Decode accepted a non-10-byte buffer")
	}
}
