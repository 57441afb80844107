package analyzer

import (
	"math"
	"testing"
)

func TestComputeLuminosityUniformFrame(t *testing.T) {
	// A uniform Y channel of 100 everywhere: mean=100, stddev=0.
	yuyv := make([]byte, 8)
	for i := 0; i < len(yuyv); i += 2 {
		yuyv[i] = 100
		yuyv[i+1] = 128 // chroma, ignored
	}

	got := computeLuminosity(yuyv, 42)
	if got.Timestamp != 42 {
		t.Fatalf("Timestamp = %d, want 42", got.Timestamp)
	}
	if got.Average != 100 {
		t.Fatalf("Average = %v, want 100", got.Average)
	}
	if got.StandardDeviation != 0 {
		t.Fatalf("StandardDeviation = %v, want 0", got.StandardDeviation)
	}
	if got.Max != 100 || got.Min != 100 {
		t.Fatalf("Max/Min = %v/%v, want 100/100", got.Max, got.Min)
	}
}

func TestComputeLuminosityMatchesDocumentedScaling(t *testing.T) {
	// Two Y samples, 0 and 100: mean=50. sqrt(sum((x-mean)^2))/N is NOT
	// the textbook population stddev; verify the documented formula.
	yuyv := []byte{0, 128, 100, 128}
	got := computeLuminosity(yuyv, 1)

	wantMean := float32(50)
	if got.Average != wantMean {
		t.Fatalf("Average = %v, want %v", got.Average, wantMean)
	}

	sqDiffSum := 2500.0 + 2500.0 // (0-50)^2 + (100-50)^2
	wantStddev := float32(math.Sqrt(sqDiffSum) / 2)
	if got.StandardDeviation != wantStddev {
		t.Fatalf("StandardDeviation = %v, want %v (documented non-textbook scaling)", got.StandardDeviation, wantStddev)
	}
}
