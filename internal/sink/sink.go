// Package sink abstracts the fixed-format hardware audio output the mixer
// writes its combined stream to: stereo, 16-bit signed, at the project
// sample rate.
package sink

// Sink is the real-time audio output boundary the mixer loop drives.
type Sink interface {
	// Ready reports whether the sink will currently accept writes. The
	// engine's mixer loop does not call it; it gates its writes on the
	// engine's own flag, set through Engine.SetSinkReady.
	Ready() bool
	// Write blocks until the interleaved stereo 16-bit samples in frames
	// have been accepted by the sink, returning how many were written.
	Write(frames []int16) (int, error)
}
