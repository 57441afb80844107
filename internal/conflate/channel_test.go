package conflate

import (
	"sync"
	"testing"
)

func TestSendRecvLatestValue(t *testing.T) {
	sender, recv := NewSender[int]()
	defer recv.Close()

	sender.Send(1)
	sender.Send(2)

	v, ok := recv.Recv()
	if !ok {
		t.Fatal("Recv reported closed")
	}
	if v != 2 {
		t.Fatalf("Recv = %d, want latest value 2", v)
	}
}

func TestRecvRepeatsLastValueWithoutNewSend(t *testing.T) {
	sender, recv := NewSender[string]()
	defer recv.Close()

	sender.Send("a")
	v1, _ := recv.Recv()
	v2, _ := recv.Recv()
	if v1 != v2 {
		t.Fatalf("two reads without an intervening send diverged: %q vs %q", v1, v2)
	}
}

func TestSendReportsReceiverCount(t *testing.T) {
	sender, recv := NewSender[int]()
	if n := sender.Send(1); n != 1 {
		t.Fatalf("Send receiver count = %d, want 1", n)
	}

	clone := recv.Clone()
	if n := sender.Send(2); n != 2 {
		t.Fatalf("Send receiver count after Clone = %d, want 2", n)
	}

	recv.Close()
	if n := sender.Send(3); n != 1 {
		t.Fatalf("Send receiver count after one Close = %d, want 1", n)
	}

	clone.Close()
	if n := sender.Send(4); n != 0 {
		t.Fatalf("Send receiver count after all closed = %d, want 0", n)
	}
}

func TestCloseMakesRecvReportFalse(t *testing.T) {
	sender, recv := NewSender[int]()
	sender.Send(42)
	sender.Close()

	v, ok := recv.Recv()
	if ok {
		t.Fatal("Recv reported ok after sender Close")
	}
	if v != 0 {
		t.Fatalf("Recv zero value = %d, want 0", v)
	}
}

// TestConcurrentSendRecvIsRaceFree drives one writer goroutine against
// several reader goroutines so `go test -race` can catch any unsynchronized
// access to the published/writeIndex slot indices.
func TestConcurrentSendRecvIsRaceFree(t *testing.T) {
	sender, recv := NewSender[int]()
	defer recv.Close()

	const iterations = 2000
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			sender.Send(i)
		}
	}()

	readers := []*Receiver[int]{recv, recv.Clone(), recv.Clone()}
	for _, r := range readers[1:] {
		defer r.Close()
	}
	for _, r := range readers {
		wg.Add(1)
		go func(r *Receiver[int]) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				r.Recv()
			}
		}(r)
	}

	wg.Wait()
}
