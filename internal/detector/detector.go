// Package detector defines the narrow interface the faceposition worker
// uses to find faces in a grayscale frame. The actual detection algorithm
// (and its integral-image preprocessing) is an external collaborator;
// this package only describes the contract so it can be stubbed in tests.
package detector

// Box is a detected bounding box. X and Y may be negative; the
// faceposition worker clamps them to zero before publishing.
type Box struct {
	X, Y, W, H int
}

// Detector finds faces in a WxH grayscale buffer.
type Detector interface {
	Detect(gray []byte, width, height int) ([]Box, error)
}

// Load returns the production Detector for the model at path. It does not
// open or check the model file, and the returned shim reports no faces
// for any frame; it exists so the daemon links even when the
// model/shim is not present in the build environment, and so tests can
// substitute a fake Detector entirely.
func Load(path string) (Detector, error) {
	return &shimDetector{modelPath: path}, nil
}

// shimDetector is the production binding to the external face-detection
// shim. It is intentionally left unimplemented beyond the interface
// boundary: the detection algorithm itself is out of scope for this
// daemon (see spec Non-goals), and is treated as an opaque collaborator.
type shimDetector struct {
	modelPath string
}

func (d *shimDetector) Detect(gray []byte, width, height int) ([]Box, error) {
	return nil, nil
}
