package diagnostics

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestCounterValueTracksIncrements(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	d.SessionsAccepted.Inc()
	d.SessionsAccepted.Inc()

	if got := counterValue(d.SessionsAccepted); got != 2 {
		t.Fatalf("counterValue = %d, want 2", got)
	}
}

func TestGatherReturnsRegisteredFamilies(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mfs, err := d.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(mfs) != 5 {
		t.Fatalf("Gather returned %d metric families, want 5", len(mfs))
	}
}

func TestLogResourceUsageDoesNotPanic(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d.LogResourceUsage(zerolog.Nop())
}
