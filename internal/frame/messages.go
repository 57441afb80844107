package frame

import "narcissus/internal/analyzer"

// HelloConfig is the config sub-document echoed in a HelloResponse.
type HelloConfig struct {
	SocketPath         string  `json:"socketPath"`
	WebcamDevice       string  `json:"webcamDevice"`
	WebcamInterval     [2]int  `json:"webcamInterval"`
	WebcamResolution   [2]int  `json:"webcamResolution"`
	ClientHelloTimeout float64 `json:"clientHelloTimeout"`
}

// HelloResponse is the body of the outbound Hello response.
type HelloResponse struct {
	Config    HelloConfig `json:"config"`
	SessionID string      `json:"sessionId"`
}

// FacepositionRequest is the body of an inbound FacepositionRequest.
// UpdateInterval is milliseconds; 0 unsubscribes.
type FacepositionRequest struct {
	UpdateInterval uint32 `json:"updateInterval"`
}

// LuminosityRequest is the body of an inbound LuminosityRequest.
type LuminosityRequest struct {
	UpdateInterval uint32 `json:"updateInterval"`
}

// FacepositionMessage and LuminosityMessage are the outbound wire bodies
// for the two analyzer streams; they mirror the analyzer package's
// internal types directly since the wire schema is the same shape.
type FacepositionMessage = analyzer.FacePosition
type LuminosityMessage = analyzer.Luminosity
