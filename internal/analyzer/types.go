// Package analyzer holds the per-frame metadata types and the long-lived
// worker goroutines that compute them.
package analyzer

// FacePosition is the output of the faceposition analyzer. The zero value
// is the documented default (no face, origin box).
type FacePosition struct {
	Timestamp  uint64  `json:"timestamp"`
	BottomLeft [2]uint32 `json:"bottomLeft"`
	TopRight   [2]uint32 `json:"topRight"`
}

// Luminosity is the output of the luminosity analyzer. The zero value is
// the documented default.
type Luminosity struct {
	Timestamp          uint64  `json:"timestamp"`
	Average            float32 `json:"average"`
	StandardDeviation  float32 `json:"standardDeviation"`
	Max                float32 `json:"max"`
	Min                float32 `json:"min"`
}
