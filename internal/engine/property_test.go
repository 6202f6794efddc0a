package engine

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/soundmodule/mixer-engine/internal/sink"
)

func TestEmitFinishedLocked_ExactlyOnce(t *testing.T) {
	e := New(Params{SinkRate: 44100, MaxSources: 1, RingBytes: 1024, FramesPerTick: 64, ChunkInFrames: 64, DrainMS: 5}, sink.NewSimSink(true), nil)

	e.slots[0].queueID = 9
	e.slots[0].soundIndex = 3

	e.emitFinishedLocked(0, ReasonCompleted)
	e.emitFinishedLocked(0, ReasonStopped) // must be swallowed: already emitted

	select {
	case ev := <-e.finished:
		if ev.Reason != ReasonCompleted {
			t.Errorf("Reason = %v, want ReasonCompleted", ev.Reason)
		}
	default:
		t.Fatal("expected exactly one FinishedEvent, got none")
	}

	select {
	case ev := <-e.finished:
		t.Fatalf("unexpected second FinishedEvent: %+v", ev)
	default:
	}
}

func TestEmitFinishedLocked_UntaggedSlotNeverEmits(t *testing.T) {
	e := New(Params{SinkRate: 44100, MaxSources: 1, RingBytes: 1024, FramesPerTick: 64, ChunkInFrames: 64, DrainMS: 5}, sink.NewSimSink(true), nil)

	e.emitFinishedLocked(0, ReasonCompleted) // queueID is 0 (untagged): must be a no-op

	select {
	case ev := <-e.finished:
		t.Fatalf("unexpected FinishedEvent for untagged slot: %+v", ev)
	default:
	}
}

// TestMixInto_Saturation checks that any combination of two sources' raw
// 16-bit samples and [0,100] volumes, mixed into one output frame, stays
// within the signed 16-bit range after clamping.
func TestMixInto_Saturation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s1 := int16(rapid.IntRange(-32768, 32767).Draw(rt, "s1"))
		s2 := int16(rapid.IntRange(-32768, 32767).Draw(rt, "s2"))
		v1 := rapid.IntRange(0, 100).Draw(rt, "v1")
		v2 := rapid.IntRange(0, 100).Draw(rt, "v2")

		accum := make([]int32, 2)
		mixInto(accum, sampleBytesMono(s1), 1, v1)
		mixInto(accum, sampleBytesMono(s2), 1, v2)

		for _, v := range accum {
			out := clampInt16(v)
			if int64(out) < -32768 || int64(out) > 32767 {
				rt.Fatalf("clamped output %d out of i16 range", out)
			}
		}
	})
}

// TestMixInto_VolumeMonotonic checks that for an otherwise identical input
// sample, decreasing volume never increases the magnitude of its mixed
// contribution.
func TestMixInto_VolumeMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := int16(rapid.IntRange(-32768, 32767).Draw(rt, "s"))
		vHigh := rapid.IntRange(0, 100).Draw(rt, "vHigh")
		vLow := rapid.IntRange(0, vHigh).Draw(rt, "vLow")

		highAccum := make([]int32, 2)
		mixInto(highAccum, sampleBytesMono(s), 1, vHigh)

		lowAccum := make([]int32, 2)
		mixInto(lowAccum, sampleBytesMono(s), 1, vLow)

		if abs32(lowAccum[0]) > abs32(highAccum[0]) {
			rt.Fatalf("lower volume %d produced larger magnitude (%d) than higher volume %d (%d)",
				vLow, lowAccum[0], vHigh, highAccum[0])
		}
	})
}

// TestMixInto_MonoNormalization checks that a stereo source with L==R
// mixes to the same output as a mono source carrying the same sample at
// the same volume, per the mono-everywhere downmix policy.
func TestMixInto_MonoNormalization(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := int16(rapid.IntRange(-32768, 32767).Draw(rt, "s"))
		v := rapid.IntRange(0, 100).Draw(rt, "v")

		monoAccum := make([]int32, 2)
		mixInto(monoAccum, sampleBytesMono(s), 1, v)

		stereoAccum := make([]int32, 2)
		mixInto(stereoAccum, sampleBytesStereo(s, s), 2, v)

		if monoAccum[0] != stereoAccum[0] || monoAccum[1] != stereoAccum[1] {
			rt.Fatalf("mono %v != stereo-with-L-eq-R %v", monoAccum, stereoAccum)
		}
		if stereoAccum[0] != stereoAccum[1] {
			rt.Fatalf("stereo output channels differ: L=%d R=%d", stereoAccum[0], stereoAccum[1])
		}
	})
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func sampleBytesMono(s int16) []byte {
	return []byte{byte(uint16(s)), byte(uint16(s) >> 8)}
}

func sampleBytesStereo(l, r int16) []byte {
	return []byte{
		byte(uint16(l)), byte(uint16(l) >> 8),
		byte(uint16(r)), byte(uint16(r) >> 8),
	}
}
