// Package speech turns narration text into a mono 16-bit audio track.
// Backends are injected through the Synthesizer interface so the pipeline
// never holds process-wide client state.
package speech

import (
	"context"
)

// AudioTrack is mono signed 16-bit PCM.
type AudioTrack struct {
	Samples    []int16
	SampleRate int
}

// Duration in seconds; zero when the rate is unknown.
func (a *AudioTrack) Duration() float64 {
	if a == nil || a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// Synthesizer converts text to speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*AudioTrack, error)
	Name() string
}
