package camera

import (
	"encoding/binary"
	"os"
	"testing"
)

func TestFileSourceReadFrame(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "frames")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}

	var tsBuf [8]byte
	binary.LittleEndian.PutUint64(tsBuf[:], 12345)
	f.Write(tsBuf[:])
	f.Write([]byte{1, 2, 3, 4})
	f.Seek(0, 0)

	src := NewFileSource(f)
	buf := make([]byte, 4)
	ts, err := src.ReadFrame(buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if ts != 12345 {
		t.Fatalf("ts = %d, want 12345", ts)
	}
	if string(buf) != "\x01\x02\x03\x04" {
		t.Fatalf("buf = %v, want [1 2 3 4]", buf)
	}
	src.Close()
}

func TestFileSourceReadFrameEOF(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "empty")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	src := NewFileSource(f)
	if _, err := src.ReadFrame(make([]byte, 4)); err == nil {
		t.Fatal("ReadFrame succeeded on an empty file, want EOF error")
	}
	src.Close()
}
