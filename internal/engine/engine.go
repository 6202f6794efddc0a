// Package engine implements the mixer core: the per-slot decoder tasks, the
// fixed-size source slot table, and the periodic mixer loop that drains
// their rings and writes the combined stream to a sink.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundmodule/mixer-engine/internal/ring"
	"github.com/soundmodule/mixer-engine/internal/sink"
	"github.com/soundmodule/mixer-engine/internal/wavfmt"
)

// State is a source slot's lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateStopping
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// FinishReason explains why a tagged slot produced a SOUND_FINISHED-worthy
// event.
type FinishReason int

const (
	ReasonCompleted FinishReason = iota
	ReasonStopped
	ReasonError
)

// FinishedEvent is emitted exactly once per tagged slot over its lifetime.
type FinishedEvent struct {
	QueueID    uint8
	SoundIndex uint16
	Reason     FinishReason
}

// Errors returned by the slot allocator.
var (
	ErrMixerFull      = errors.New("engine: no free slot")
	ErrInvalidIndex   = errors.New("engine: slot index out of range")
	ErrInvalidQueueID = errors.New("engine: no slot with that queue id")
)

const unsetSoundIndex = 0xFFFF

// Params bundles the engine's tunable, boot-time parameters; it mirrors the
// relevant fields of config.Config without importing that package.
type Params struct {
	SinkRate      uint32
	MaxSources    int
	RingBytes     int
	FramesPerTick int
	ChunkInFrames int
	DrainMS       int
}

// slotFlags are the only fields the decoder goroutine touches without
// holding the engine's table mutex: stopping/eofReached/decodeErr per
// spec, plus wavInfo, an atomic publish point so the mixer can size its
// per-tick reads as soon as the header is known.
type slotFlags struct {
	stopping   atomic.Bool
	eofReached atomic.Bool
	decodeErr  atomic.Bool
	wavInfo    atomic.Pointer[wavfmt.Info]
	// done is closed by the decoder goroutine on exit. CreateSource's
	// interrupt path waits on it to reclaim a just-stopped slot
	// immediately rather than only considering already-IDLE/STOPPED
	// slots, so an interrupting play never has to wait for the next
	// mixer tick to free up a slot.
	done chan struct{}
}

type slot struct {
	state           State
	label           string
	volume          int
	loop            bool
	queueID         uint8
	soundIndex      uint16
	flags           *slotFlags
	drainDeadline   time.Time
	finishedEmitted bool
}

func (s *slot) active() bool {
	return s.state == StatePlaying || s.state == StatePaused || s.state == StateStopping || s.state == StateDraining
}

// SlotInfo is a read-only snapshot returned by Engine.Info.
type SlotInfo struct {
	Label      string
	Volume     int
	State      State
	Loop       bool
	QueueID    uint8
	SoundIndex uint16
}

// Engine owns the fixed slot table, the rings backing it, and the mixer
// loop. All slot-table mutations happen under mu, per the single
// coarse-mutex design; the rings are not guarded by mu, each ring
// serializing its reader and writer with its own internal mutex.
type Engine struct {
	mu sync.Mutex

	slots        []slot
	rings        []*ring.Ring
	masterVolume int
	sinkReady    bool

	params Params
	sink   sink.Sink
	log    *log.Logger

	finished chan FinishedEvent

	// Mixer scratch buffers, allocated once: readBuf's length caps one
	// slot's per-tick ring read (the bytes themselves come back in a fresh
	// slice from ring.TryRead on every call), mixAccum is the wide
	// accumulator that Tick clamps to int16, outBuf is the final stereo
	// 16-bit tick buffer handed to the sink.
	readBuf  []byte
	mixAccum []int32
	outBuf   []int16

	stopOnce sync.Once
	done     chan struct{}
}

// New constructs an Engine with params.MaxSources pre-allocated slots and
// rings; the rings are reused for the engine's lifetime and reset on reuse
// rather than reallocated.
func New(params Params, snk sink.Sink, logger *log.Logger) *Engine {
	e := &Engine{
		slots:        make([]slot, params.MaxSources),
		rings:        make([]*ring.Ring, params.MaxSources),
		masterVolume: 100,
		params:       params,
		sink:         snk,
		log:          logger,
		finished:     make(chan FinishedEvent, params.MaxSources*2),
		done:         make(chan struct{}),
	}
	for i := range e.rings {
		e.rings[i] = ring.New(params.RingBytes)
		e.slots[i].soundIndex = unsetSoundIndex
	}
	e.readBuf = make([]byte, params.FramesPerTick*4)
	e.mixAccum = make([]int32, params.FramesPerTick*2)
	e.outBuf = make([]int16, params.FramesPerTick*2)
	return e
}

// Finished returns the channel SOUND_FINISHED-worthy events are published
// on, for the command adapter to drain and translate into bus frames.
func (e *Engine) Finished() <-chan FinishedEvent {
	return e.finished
}

// SetSinkReady flips the sink-ready flag the mixer loop gates its first
// write on.
func (e *Engine) SetSinkReady(ready bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinkReady = ready
}

// Close stops the mixer loop if running and cancels every active ring, so
// any decoder goroutines still in flight unblock and exit.
func (e *Engine) Close() {
	e.stopOnce.Do(func() {
		close(e.done)
		e.mu.Lock()
		defer e.mu.Unlock()
		for i := range e.slots {
			if e.slots[i].flags != nil {
				e.slots[i].flags.stopping.Store(true)
			}
			e.rings[i].Cancel()
		}
	})
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
