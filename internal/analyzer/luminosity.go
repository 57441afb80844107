package analyzer

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"narcissus/internal/conflate"
	"narcissus/internal/videoring"
)

// idleParkInterval is how long a worker with no subscribers sleeps
// before checking again.
const idleParkInterval = time.Second

// staleFramePoll is how long a worker sleeps after seeing a frame whose
// timestamp matches the last one it already processed.
const staleFramePoll = 20 * time.Millisecond

// LuminosityWorker computes mean/stddev/max/min of the Y channel of
// every frame and broadcasts it to subscribers.
type LuminosityWorker struct {
	recv *videoring.Receiver
	subs subscriberList[Luminosity]
	log  zerolog.Logger
}

// NewLuminosityWorker constructs the worker; call Run in its own goroutine.
func NewLuminosityWorker(recv *videoring.Receiver, log zerolog.Logger) *LuminosityWorker {
	return &LuminosityWorker{recv: recv, log: log}
}

// Subscribe registers a fresh conflation channel for this stream and
// returns the Receiver half. Safe to call concurrently with Run.
func (w *LuminosityWorker) Subscribe() *conflate.Receiver[Luminosity] {
	sender, receiver := conflate.NewSender[Luminosity]()
	w.subs.add(sender)
	return receiver
}

// Run is the worker's long-lived loop; see spec §4.3 for the per-
// iteration protocol this implements step for step.
func (w *LuminosityWorker) Run() {
	var out Luminosity
	haveOutput := false
	wasEmpty := true

	for {
		if wasEmpty {
			time.Sleep(idleParkInterval)
		}

		empty := w.subs.snapshotEmpty()
		if empty {
			wasEmpty = true
			continue
		}
		wasEmpty = false

		if haveOutput {
			w.subs.publishAndPrune(out)
		}

		borrow, err := w.recv.Recv()
		if err != nil {
			w.log.Info().Msg("video sender closed, luminosity worker exiting")
			return
		}

		if haveOutput && borrow.Timestamp == out.Timestamp {
			borrow.Close()
			time.Sleep(staleFramePoll)
			continue
		}

		out = computeLuminosity(borrow.Bytes(), borrow.Timestamp)
		haveOutput = true
		borrow.Close()
	}
}

// computeLuminosity walks every other byte of a YUYV buffer (the Y
// channel) computing mean, a single-pass population-style spread
// against the freshly computed mean, max, and min.
//
// The "standard deviation" field here is sqrt(sum((x-mean)^2))/N, not
// the textbook formula (which divides the sum by N before the sqrt).
// This is intentional: it is preserved bit-for-bit for wire
// compatibility with existing clients and documented as a scaling
// choice rather than a true standard deviation.
func computeLuminosity(yuyv []byte, timestamp uint64) Luminosity {
	if len(yuyv) < 2 {
		return Luminosity{Timestamp: timestamp}
	}

	var sum float64
	count := 0
	max := float32(0)
	min := float32(255)
	for i := 0; i < len(yuyv); i += 2 {
		y := float32(yuyv[i])
		sum += float64(y)
		count++
		if y > max {
			max = y
		}
		if y < min {
			min = y
		}
	}
	mean := sum / float64(count)

	var sqDiffSum float64
	for i := 0; i < len(yuyv); i += 2 {
		d := float64(yuyv[i]) - mean
		sqDiffSum += d * d
	}
	stddev := math.Sqrt(sqDiffSum) / float64(count)

	return Luminosity{
		Timestamp:         timestamp,
		Average:           float32(mean),
		StandardDeviation: float32(stddev),
		Max:               max,
		Min:               min,
	}
}
