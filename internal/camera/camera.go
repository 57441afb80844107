// Package camera is the narrow interface between the daemon and the
// camera-acquisition collaborator (out of scope per the spec: this
// package only produces raw frames and timestamps for the VideoRing
// producer loop to publish).
package camera

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Source produces fixed-size raw frames from a capture device.
type Source interface {
	// ReadFrame blocks until a full frame is available and copies it
	// into buf, returning a monotone timestamp in nanoseconds.
	ReadFrame(buf []byte) (timestamp uint64, err error)
	Close() error
}

// Device is a Source backed by a V4L-class character device opened in
// non-blocking mode. It treats the device as a raw YUYV byte stream at
// the configured resolution; real V4L2 negotiation (format, buffer
// queueing) is the external collaborator's responsibility and is not
// reimplemented here.
type Device struct {
	fd int
}

// Open opens path (e.g. "/dev/video0") for raw frame reads.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("camera: open %s: %w", path, err)
	}
	return &Device{fd: fd}, nil
}

// clockBase is the reference point for Device timestamps; time.Since
// measures from it on the monotonic clock.
var clockBase = time.Now()

// ReadFrame fills buf with exactly len(buf) bytes, retrying on
// EAGAIN/EWOULDBLOCK until the device has data, and stamps it with the
// current monotonic time.
func (d *Device) ReadFrame(buf []byte) (uint64, error) {
	total := 0
	for total < len(buf) {
		n, err := unix.Read(d.fd, buf[total:])
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(time.Millisecond)
				continue
			}
			return 0, fmt.Errorf("camera: read: %w", err)
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		total += n
	}
	return uint64(time.Since(clockBase)), nil
}

// Close releases the underlying file descriptor.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}

// FileSource adapts an *os.File (used by tests, and by anything that
// records frames to a plain file for replay) into a Source.
type FileSource struct {
	f *os.File
}

// NewFileSource wraps f as a Source, for test fixtures that stream
// fixed-size frames (each prefixed by an 8-byte little-endian timestamp)
// from a regular file.
func NewFileSource(f *os.File) *FileSource {
	return &FileSource{f: f}
}

func (s *FileSource) ReadFrame(buf []byte) (uint64, error) {
	var tsBuf [8]byte
	if _, err := readFull(s.f, tsBuf[:]); err != nil {
		return 0, err
	}
	if _, err := readFull(s.f, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(tsBuf[:]), nil
}

func (s *FileSource) Close() error { return s.f.Close() }

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
