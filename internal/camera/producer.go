package camera

import (
	"github.com/rs/zerolog"

	"narcissus/internal/diagnostics"
	"narcissus/internal/videoring"
)

// Run drives src frames into sender until src errors or sender reports
// no receivers remain, at which point it closes both and returns. diag
// may be nil, in which case frame counts are simply not recorded.
func Run(logger zerolog.Logger, src Source, sender *videoring.Sender, frameSize int, diag *diagnostics.Diagnostics) {
	buf := make([]byte, frameSize)
	defer sender.Close()
	defer src.Close()

	for {
		ts, err := src.ReadFrame(buf)
		if err != nil {
			logger.Error().Err(err).Msg("camera read failed, stopping producer")
			return
		}

		if diag != nil {
			diag.FramesIngested.Inc()
		}

		if anyReceivers := sender.Send(buf, ts); !anyReceivers {
			logger.Info().Msg("no video ring receivers remain, stopping camera")
			return
		}
	}
}
