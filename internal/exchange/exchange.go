// Package exchange owns the running analyzer workers for one camera and
// hands out fresh conflation subscriptions to sessions by name.
package exchange

import (
	"fmt"

	"github.com/rs/zerolog"

	"narcissus/internal/analyzer"
	"narcissus/internal/conflate"
	"narcissus/internal/detector"
	"narcissus/internal/videoring"
)

// Stream identifies which analyzer output a session wants to follow.
type Stream string

const (
	StreamFaceposition Stream = "faceposition"
	StreamLuminosity   Stream = "luminosity"
)

// Exchange is the single point of contact between sessions and the
// analyzer workers: it starts the workers once, and serves out new
// subscriptions in O(1) for the lifetime of the process.
type Exchange struct {
	faceposition *analyzer.FacepositionWorker
	luminosity   *analyzer.LuminosityWorker
}

// New starts a FacepositionWorker, reading a Receiver cloned from
// ringRecv, and a LuminosityWorker, reading ringRecv itself, and returns
// the Exchange that fronts them. ringRecv's ownership passes to the
// Exchange.
func New(ringRecv *videoring.Receiver, det detector.Detector, width, height int, log zerolog.Logger) (*Exchange, error) {
	faceRecv, ok := ringRecv.Clone()
	if !ok {
		return nil, fmt.Errorf("exchange: video ring receiver cap reached")
	}
	lumaRecv := ringRecv

	fw := analyzer.NewFacepositionWorker(faceRecv, det, width, height, log.With().Str("worker", "faceposition").Logger())
	lw := analyzer.NewLuminosityWorker(lumaRecv, log.With().Str("worker", "luminosity").Logger())

	go fw.Run()
	go lw.Run()

	return &Exchange{faceposition: fw, luminosity: lw}, nil
}

// SubscribeFaceposition registers a new faceposition subscription.
func (e *Exchange) SubscribeFaceposition() *conflate.Receiver[analyzer.FacePosition] {
	return e.faceposition.Subscribe()
}

// SubscribeLuminosity registers a new luminosity subscription.
func (e *Exchange) SubscribeLuminosity() *conflate.Receiver[analyzer.Luminosity] {
	return e.luminosity.Subscribe()
}
