package engine

import (
	"encoding/binary"
	"time"
)

const mixerIdleSleep = 10 * time.Millisecond

// Run drives the mixer loop (C5) until Close is called. Pacing comes from
// the blocking sink write while any slot is playing; when idle it sleeps
// mixerIdleSleep between iterations instead of spinning.
func (e *Engine) Run() {
	for {
		select {
		case <-e.done:
			return
		default:
		}
		playing := e.Tick()
		if !playing {
			time.Sleep(mixerIdleSleep)
		}
	}
}

// Tick runs one mixer iteration: state-machine housekeeping, draining
// every PLAYING slot's ring, mixing with saturation, applying master
// volume, and writing the tick buffer to the sink if it is ready. It
// returns whether any slot was PLAYING, the signal Run uses to decide
// between sink-paced and sleep-paced iterations.
func (e *Engine) Tick() bool {
	frames := e.params.FramesPerTick
	for i := range e.mixAccum {
		e.mixAccum[i] = 0
	}

	e.mu.Lock()
	maxWritten := 0
	anyPlaying := false
	now := time.Now()

	for i := range e.slots {
		s := &e.slots[i]

		switch s.state {
		case StateStopped:
			// A looped slot only reaches STOPPED unreported when its decoder
			// gave up; slots already reported as stopped are deduplicated
			// by emitFinishedLocked.
			if s.queueID != 0 {
				e.emitFinishedLocked(i, ReasonCompleted)
			}
			s.state = StateIdle
			continue
		case StateDraining:
			if !now.Before(s.drainDeadline) {
				s.state = StateStopped
			}
			continue
		case StateStopping:
			select {
			case <-s.flags.done:
				// Decoder has confirmed exit; fall through the normal
				// drain wait so the slot isn't reclaimed mid-ring-flush.
				s.state = StateDraining
				s.drainDeadline = now.Add(time.Duration(e.params.DrainMS) * time.Millisecond)
			default:
			}
			continue
		case StatePlaying:
			// handled below
		default:
			continue
		}

		anyPlaying = true

		info := s.flags.wavInfo.Load()
		if info == nil {
			if s.flags.eofReached.Load() {
				reason := ReasonCompleted
				if s.flags.decodeErr.Load() {
					reason = ReasonError
				}
				e.emitFinishedLocked(i, reason)
				s.state = StateDraining
				s.drainDeadline = now.Add(time.Duration(e.params.DrainMS) * time.Millisecond)
			}
			continue // decoder hasn't published a header yet, or failed before doing so
		}
		channels := int(info.Channels)
		if channels != 1 && channels != 2 {
			continue
		}

		budget := frames * 2 * channels
		if budget > len(e.readBuf) {
			budget = len(e.readBuf)
		}
		raw := e.rings[i].TryRead(budget)

		if len(raw) == 0 {
			if s.flags.eofReached.Load() {
				s.state = StateDraining
				s.drainDeadline = now.Add(time.Duration(e.params.DrainMS) * time.Millisecond)
			}
			continue
		}

		n := mixInto(e.mixAccum, raw, channels, s.volume)
		if n > maxWritten {
			maxWritten = n
		}
	}

	master := e.masterVolume
	sinkReady := e.sinkReady
	e.mu.Unlock()

	for i := 0; i < maxWritten*2; i++ {
		e.outBuf[i] = clampInt16(e.mixAccum[i])
	}
	for i := maxWritten * 2; i < len(e.outBuf); i++ {
		e.outBuf[i] = 0
	}

	if master != 100 && maxWritten > 0 {
		for i := 0; i < maxWritten*2; i++ {
			e.outBuf[i] = int16(int32(e.outBuf[i]) * int32(master) / 100)
		}
	}

	if sinkReady {
		e.sink.Write(e.outBuf)
	}

	return anyPlaying
}

// mixInto downmixes raw ring bytes (channels-interleaved 16-bit PCM) to
// mono and adds the result into both output channels of the wide accum,
// applying volume. It does not clamp; Tick saturates accum to int16 when
// copying it to the output buffer. It returns the number of output frames
// it touched.
func mixInto(accum []int32, raw []byte, channels int, volume int) int {
	switch channels {
	case 1:
		frames := len(raw) / 2
		for i := 0; i < frames; i++ {
			s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
			v := int32(s) * int32(volume) / 100
			accum[i*2] += v
			accum[i*2+1] += v
		}
		return frames
	case 2:
		frames := len(raw) / 4
		for i := 0; i < frames; i++ {
			l := int16(binary.LittleEndian.Uint16(raw[i*4:]))
			r := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
			m := (int32(l) + int32(r)) / 2
			v := m * int32(volume) / 100
			accum[i*2] += v
			accum[i*2+1] += v
		}
		return frames
	default:
		return 0
	}
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
