package audiocapture

import "time"

const (
	// vadFrame is the analysis window of HasSpeech (20 ms at 16 kHz).
	vadFrame = TargetSampleRate / 50

	// MinVoiced is how much voiced audio HasSpeech requires.
	MinVoiced = 100 * time.Millisecond
)

// HasSpeech reports whether 16 kHz samples contain at least MinVoiced of
// frames whose RMS exceeds threshold. Voiced frames need not be contiguous.
func HasSpeech(samples []float32, threshold float32) bool {
	need := int(MinVoiced / (time.Second / 50))
	voiced := 0
	for off := 0; off+vadFrame <= len(samples); off += vadFrame {
		if RMS(samples[off:off+vadFrame]) > threshold {
			voiced++
			if voiced >= need {
				return true
			}
		}
	}
	return false
}
