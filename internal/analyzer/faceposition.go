package analyzer

import (
	"time"

	"github.com/rs/zerolog"

	"narcissus/internal/conflate"
	"narcissus/internal/detector"
	"narcissus/internal/videoring"
)

// FacepositionWorker hands the Y channel of each frame to a Detector and
// broadcasts the largest detected face.
type FacepositionWorker struct {
	recv *videoring.Receiver
	det  detector.Detector
	subs subscriberList[FacePosition]
	log  zerolog.Logger

	width, height int
}

// NewFacepositionWorker constructs the worker; call Run in its own goroutine.
func NewFacepositionWorker(recv *videoring.Receiver, det detector.Detector, width, height int, log zerolog.Logger) *FacepositionWorker {
	return &FacepositionWorker{recv: recv, det: det, width: width, height: height, log: log}
}

// Subscribe registers a fresh conflation channel for this stream.
func (w *FacepositionWorker) Subscribe() *conflate.Receiver[FacePosition] {
	sender, receiver := conflate.NewSender[FacePosition]()
	w.subs.add(sender)
	return receiver
}

// Run is the worker's long-lived loop; see spec §4.3.
func (w *FacepositionWorker) Run() {
	var out FacePosition
	haveOutput := false
	wasEmpty := true

	for {
		if wasEmpty {
			time.Sleep(idleParkInterval)
		}

		if w.subs.snapshotEmpty() {
			wasEmpty = true
			continue
		}
		wasEmpty = false

		if haveOutput {
			w.subs.publishAndPrune(out)
		}

		borrow, err := w.recv.Recv()
		if err != nil {
			w.log.Info().Msg("video sender closed, faceposition worker exiting")
			return
		}

		if haveOutput && borrow.Timestamp == out.Timestamp {
			borrow.Close()
			time.Sleep(staleFramePoll)
			continue
		}

		gray := yuyvToGray(borrow.Bytes())
		ts := borrow.Timestamp
		borrow.Close()

		boxes, err := w.det.Detect(gray, w.width, w.height)
		if err != nil {
			w.log.Warn().Err(err).Msg("detector error")
			continue
		}

		if best, ok := largestBox(boxes); ok {
			out = FacePosition{
				Timestamp:  ts,
				BottomLeft: [2]uint32{clampToZero(best.X), clampToZero(best.Y + best.H)},
				TopRight:   [2]uint32{clampToZero(best.X + best.W), clampToZero(best.Y)},
			}
			haveOutput = true
		}
		// No face found: out keeps the previous box and timestamp, so the
		// next publish repeats the last value and no new timestamp reaches
		// subscribers.
	}
}

// yuyvToGray extracts the Y (luma) channel, every other byte, into a
// tightly packed grayscale buffer for the detector.
func yuyvToGray(yuyv []byte) []byte {
	gray := make([]byte, len(yuyv)/2)
	for i, j := 0, 0; i < len(yuyv); i, j = i+2, j+1 {
		gray[j] = yuyv[i]
	}
	return gray
}

// largestBox picks the detected box with maximum area.
func largestBox(boxes []detector.Box) (detector.Box, bool) {
	if len(boxes) == 0 {
		return detector.Box{}, false
	}
	best := boxes[0]
	bestArea := area(best)
	for _, b := range boxes[1:] {
		if a := area(b); a > bestArea {
			best, bestArea = b, a
		}
	}
	return best, true
}

func area(b detector.Box) int { return b.W * b.H }

func clampToZero(v int) uint32 {
	if v < 0 {
		return 0
	}
	return uint32(v)
}
