// Package videoring implements a lossy, zero-copy, single-writer/
// multi-reader ring of fixed-size frame buffers.
//
// A Sender never blocks and never copies a frame payload anywhere but
// into the next free ring slot. A Receiver borrows the latest published
// slot for the duration of a Borrow; the producer will not overwrite a
// slot with an in-flight reader.
package videoring

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrSenderClosed is returned by Receiver.Recv once the Sender has
// dropped and no further frames will arrive.
var ErrSenderClosed = errors.New("videoring: sender closed")

// slotCount is the number of frame buffers in the ring. Two is the
// minimum required to keep the producer from ever overwriting a frame
// a reader currently holds; a third slot smooths scheduling jitter.
const slotCount = 3

// pollInterval is how long Recv sleeps between polls when no frame
// newer than the receiver's last-seen timestamp has been published.
const pollInterval = 20 * time.Millisecond

type slot struct {
	data      []byte
	timestamp uint64
	inFlight  int32 // atomic
}

// ring is the shared state between one Sender and any number of Receivers.
type ring struct {
	slots       [slotCount]slot
	current     int32 // atomic index into slots, -1 until the first frame
	closed      int32 // atomic bool
	receivers   int32 // atomic count of live Receivers
	maxReceivers int32
}

// Sender publishes frames into the ring. There is exactly one per ring.
type Sender struct {
	r        *ring
	bufSize  int
	nextSlot int // round-robin search start, producer-owned, no sync needed
}

// Receiver borrows the latest frame from the ring. Clone() to create an
// independent one; Close() to release it.
type Receiver struct {
	r        *ring
	lastSeen uint64
	lastInit bool
}

// Borrow is a scoped handle on a ring slot. Release (via Close) as soon
// as the frame's bytes are no longer needed; the producer cannot reuse
// the slot while any Borrow referencing it is outstanding.
type Borrow struct {
	s         *slot
	Timestamp uint64
}

// Bytes returns the frame payload. Valid only until Close is called.
func (b *Borrow) Bytes() []byte { return b.s.data }

// Close releases the borrow, allowing the producer to reuse the slot.
func (b *Borrow) Close() {
	if b.s != nil {
		atomic.AddInt32(&b.s.inFlight, -1)
		b.s = nil
	}
}

// New allocates a ring of fixed-size frame buffers and returns the single
// Sender and the first Receiver. maxReceivers caps the number of live
// Receivers, the first one included; Receiver.Clone fails once the cap is
// reached (0 means unbounded).
func New(bufSize int, maxReceivers int32) (*Sender, *Receiver) {
	r := &ring{current: -1, maxReceivers: maxReceivers}
	for i := range r.slots {
		r.slots[i].data = make([]byte, bufSize)
	}
	atomic.AddInt32(&r.receivers, 1)
	return &Sender{r: r, bufSize: bufSize}, &Receiver{r: r}
}

// Send publishes a frame, copying payload into the next free ring slot.
// If every slot other than the published one is still borrowed, the
// frame is dropped. It reports whether any receivers remain; the caller
// (the camera producer) should stop once this is false.
func (s *Sender) Send(payload []byte, timestamp uint64) bool {
	r := s.r
	// Find a slot with zero in-flight readers, starting from the last
	// one we used. The published slot is skipped: a reader may be
	// claiming it at this moment.
	cur := atomic.LoadInt32(&r.current)
	idx := -1
	for i := 0; i < slotCount; i++ {
		candidate := (s.nextSlot + i) % slotCount
		if int32(candidate) != cur && atomic.LoadInt32(&r.slots[candidate].inFlight) == 0 {
			idx = candidate
			break
		}
	}
	if idx < 0 {
		return atomic.LoadInt32(&r.receivers) > 0
	}
	sl := &r.slots[idx]
	n := copy(sl.data, payload)
	if n < len(sl.data) {
		// Zero-pad short writes so stale bytes from a prior frame never leak.
		for i := n; i < len(sl.data); i++ {
			sl.data[i] = 0
		}
	}
	sl.timestamp = timestamp
	s.nextSlot = (idx + 1) % slotCount
	atomic.StoreInt32(&r.current, int32(idx))

	return atomic.LoadInt32(&r.receivers) > 0
}

// Close marks the ring closed; outstanding and future Recv calls return
// ErrSenderClosed.
func (s *Sender) Close() {
	atomic.StoreInt32(&s.r.closed, 1)
}

// Recv blocks until a frame strictly newer than this receiver's
// last-observed timestamp is published, or the sender closes.
func (r *Receiver) Recv() (*Borrow, error) {
	for {
		if atomic.LoadInt32(&r.r.closed) != 0 {
			return nil, ErrSenderClosed
		}

		idx := atomic.LoadInt32(&r.r.current)
		if idx < 0 {
			time.Sleep(pollInterval)
			continue
		}
		sl := &r.r.slots[idx]

		atomic.AddInt32(&sl.inFlight, 1)
		// Verify the published index didn't move while we were claiming
		// the slot; if it did, our claim may be on a slot mid-overwrite.
		if atomic.LoadInt32(&r.r.current) != idx {
			atomic.AddInt32(&sl.inFlight, -1)
			continue
		}

		ts := sl.timestamp
		if r.lastInit && ts <= r.lastSeen {
			atomic.AddInt32(&sl.inFlight, -1)
			time.Sleep(pollInterval)
			continue
		}

		r.lastSeen = ts
		r.lastInit = true
		return &Borrow{s: sl, Timestamp: ts}, nil
	}
}

// Clone creates an independent Receiver over the same ring. It fails if
// the ring's receiver cap (if any) is already reached.
func (r *Receiver) Clone() (*Receiver, bool) {
	if r.r.maxReceivers > 0 {
		for {
			cur := atomic.LoadInt32(&r.r.receivers)
			if cur >= r.r.maxReceivers {
				return nil, false
			}
			if atomic.CompareAndSwapInt32(&r.r.receivers, cur, cur+1) {
				break
			}
		}
	} else {
		atomic.AddInt32(&r.r.receivers, 1)
	}
	return &Receiver{r: r.r, lastSeen: r.lastSeen, lastInit: r.lastInit}, true
}

// Close drops this receiver, decrementing the ring's live receiver count.
func (r *Receiver) Close() {
	atomic.AddInt32(&r.r.receivers, -1)
}
