package engine

import (
	"encoding/binary"
	"io"

	"github.com/soundmodule/mixer-engine/internal/pcmconv"
)

// runDecoder is the per-slot producer goroutine (C3): it parses the
// origin's header, then repeatedly reads raw chunks, converts them to
// 16-bit PCM at the sink rate, and pushes them into the slot's ring until
// stopped or out of input. It touches only flags and the ring; slot
// metadata belongs to the mutex-guarded table and is never read here,
// mirroring the teacher's goroutine-per-stage producers that only see
// their own channel/buffer handles.
func (e *Engine) runDecoder(idx int, origin Origin, flags *slotFlags, loop bool) {
	defer close(flags.done)
	defer origin.Close()
	r := e.rings[idx]

	info, err := origin.Header()
	if err != nil {
		flags.decodeErr.Store(true)
		flags.eofReached.Store(true)
		return
	}
	flags.wavInfo.Store(&info)

	channels := int(info.Channels)
	bytesPerInFrame := info.BytesPerFrame()
	if channels == 0 || bytesPerInFrame == 0 {
		flags.decodeErr.Store(true)
		flags.eofReached.Store(true)
		return
	}

	chunkFrames := e.params.ChunkInFrames
	rawBuf := make([]byte, chunkFrames*bytesPerInFrame)
	wideBuf := make([]int16, chunkFrames*channels)
	resampleBuf := make([]int16, chunkFrames*channels*pcmconv.ResampleFactorMax)
	outBytes := make([]byte, len(resampleBuf)*2)

	freshSeek := false
	for {
		if flags.stopping.Load() {
			return
		}

		n, rerr := origin.ReadChunk(rawBuf)
		if n == 0 {
			if rerr != nil && rerr != io.EOF {
				flags.decodeErr.Store(true)
				flags.eofReached.Store(true)
				return
			}
			if loop && !freshSeek {
				if err := origin.Rewind(); err != nil {
					flags.eofReached.Store(true)
					return
				}
				freshSeek = true
				continue
			}
			// Either looping is off, or a freshly-rewound read came back
			// empty too (a zero-length asset): stop instead of spinning.
			flags.eofReached.Store(true)
			return
		}
		freshSeek = false

		framesRead := n / bytesPerInFrame
		wide := wideBuf[:framesRead*channels]
		if info.BitsPerSample == 8 {
			pcmconv.ConvertBitDepth(rawBuf[:framesRead*bytesPerInFrame], wide)
		} else {
			for i := 0; i < framesRead*channels; i++ {
				wide[i] = int16(binary.LittleEndian.Uint16(rawBuf[i*2:]))
			}
		}

		samples := wide
		frames := framesRead
		if info.SampleRate != e.params.SinkRate {
			n := pcmconv.Resample(wide, framesRead, channels, info.SampleRate, e.params.SinkRate, resampleBuf)
			samples = resampleBuf[:n*channels]
			frames = n
		}

		if frames == 0 {
			continue
		}

		buf := outBytes[:len(samples)*2]
		for i, v := range samples {
			binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
		}

		written := r.Write(buf)
		if written < len(buf) {
			// Cancel() fired mid-write: stopping was requested.
			return
		}
	}
}
