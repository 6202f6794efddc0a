package assets

import (
	"encoding/binary"
	"math"
)

const demoSampleRate = 22050

// Builtin sound ids for the handful of tones every module ships with,
// available even when persistent storage is missing or doesn't carry a
// file for the requested index.
const (
	SoundChime   uint16 = 1
	SoundError   uint16 = 2
	SoundSilence uint16 = 0xFFFE
)

// NewBuiltinRegistry returns the registry of built-in tones: a short
// chime, an error buzzer, and a silence placeholder. Real firmware builds
// extend this table with variant-specific tones; this core ships only the
// three every variant needs for tests and the demo binary.
func NewBuiltinRegistry() *Registry {
	return New([]Entry{
		{SoundID: SoundChime, Name: "chime", Bytes: wrapPCM(demoSampleRate, tone(880, 0.15, demoSampleRate))},
		{SoundID: SoundError, Name: "error-buzzer", Bytes: wrapPCM(demoSampleRate, tone(220, 0.25, demoSampleRate))},
		{SoundID: SoundSilence, Name: "silence", Bytes: wrapPCM(demoSampleRate, silence(0.1, demoSampleRate))},
	})
}

// tone synthesizes a mono 16-bit sine wave at freqHz for durationSec.
func tone(freqHz, durationSec float64, sampleRate uint32) []byte {
	n := int(durationSec * float64(sampleRate))
	pcm := make([]byte, n*2)
	const amplitude = 12000
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		s := int16(amplitude * math.Sin(2*math.Pi*freqHz*t))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}

// silence synthesizes durationSec of mono 16-bit silence.
func silence(durationSec float64, sampleRate uint32) []byte {
	n := int(durationSec * float64(sampleRate))
	return make([]byte, n*2)
}
