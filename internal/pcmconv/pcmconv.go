// Package pcmconv converts WAV PCM samples into the engine's common
// 16-bit format: 8-to-16-bit widening and linear-interpolation resampling.
// Both transforms operate on caller-provided buffers and never allocate,
// matching the decoder task's fixed scratch-buffer budget.
package pcmconv

// ConvertBitDepth widens unsigned 8-bit PCM samples to signed 16-bit,
// preserving channel interleaving. len(out) must be >= len(in).
func ConvertBitDepth(in []byte, out []int16) {
	for i, s := range in {
		out[i] = int16(int(s)-128) << 8
	}
}

// ResampleFactorMax bounds the worst-case output/input frame ratio the
// decoder's scratch buffers must be sized for.
const ResampleFactorMax = 3

// Resample linearly interpolates inFrames frames (channels samples each) at
// inRate to outRate, writing output frames into out (also channels samples
// each) and returning the number of output frames produced. It stops once
// either the input or the output buffer is exhausted.
func Resample(in []int16, inFrames, channels int, inRate, outRate uint32, out []int16) int {
	if inFrames == 0 || channels == 0 {
		return 0
	}
	outCap := len(out) / channels

	if inRate == outRate {
		n := inFrames
		if n > outCap {
			n = outCap
		}
		copy(out[:n*channels], in[:n*channels])
		return n
	}

	ratio := float64(inRate) / float64(outRate)
	lastFrame := inFrames - 1
	produced := 0

	for i := 0; i < outCap; i++ {
		pos := float64(i) * ratio
		j := int(pos)
		if j > lastFrame {
			break
		}
		frac := pos - float64(j)

		j1 := j + 1
		if j1 > lastFrame {
			j1 = lastFrame
		}

		for c := 0; c < channels; c++ {
			a := in[j*channels+c]
			b := in[j1*channels+c]
			out[i*channels+c] = int16(int32(a) + int32(float64(int32(b)-int32(a))*frac))
		}
		produced++
	}
	return produced
}
