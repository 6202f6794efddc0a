package busproto

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/soundmodule/mixer-engine/internal/assets"
	"github.com/soundmodule/mixer-engine/internal/bus"
	"github.com/soundmodule/mixer-engine/internal/engine"
	"github.com/soundmodule/mixer-engine/internal/storage"
	"github.com/soundmodule/mixer-engine/internal/telemetry"
)

const unsetSoundIndex uint16 = 0xFFFF

var errSourceNotFound = errors.New("busproto: sound not found in storage or asset registry")

// Adapter is the command adapter (C6): it decodes inbound frames, drives
// the mixer engine, and emits ack/status/finished frames back onto the
// bus. Its receive timeout doubles as the cadence for periodic status
// emission and for draining the engine's FINISHED channel, matching the
// "above-medium priority task, blocks on recv with a short timeout"
// scheduling model.
type Adapter struct {
	bus    bus.Bus
	eng    *engine.Engine
	assets *assets.Registry
	store  storage.Store
	uptime telemetry.Uptime
	log    *log.Logger
	nodeID uint8

	recvTimeout    time.Duration
	statusInterval time.Duration

	mu             sync.Mutex
	queueCounter   uint8
	lastError      ErrorCode
	lastSoundIndex uint16

	stopOnce sync.Once
	done     chan struct{}
}

// NewAdapter wires an Adapter over b, driving eng and resolving sounds
// through store (tried first) then reg (fallback).
func NewAdapter(b bus.Bus, eng *engine.Engine, reg *assets.Registry, store storage.Store, logger *log.Logger, nodeID uint8, statusInterval time.Duration) *Adapter {
	return &Adapter{
		bus:            b,
		eng:            eng,
		assets:         reg,
		store:          store,
		uptime:         telemetry.NewUptime(),
		log:            logger,
		nodeID:         nodeID,
		recvTimeout:    100 * time.Millisecond,
		statusInterval: statusInterval,
		lastSoundIndex: unsetSoundIndex,
		done:           make(chan struct{}),
	}
}

// Close stops Run's loop. Idempotent.
func (a *Adapter) Close() {
	a.stopOnce.Do(func() { close(a.done) })
}

// Run is the adapter's task loop: drains FINISHED events, services one
// inbound frame (or times out), and emits periodic status, until Close.
func (a *Adapter) Run() {
	nextStatus := time.Now().Add(a.statusInterval)
	for {
		select {
		case <-a.done:
			return
		default:
		}

		a.drainFinished()

		f, ok := a.bus.Recv(a.recvTimeout)
		if ok {
			a.handle(f)
		}

		if now := time.Now(); !now.Before(nextStatus) {
			a.emitStatus()
			nextStatus = now.Add(a.statusInterval)
		}
	}
}

func (a *Adapter) drainFinished() {
	for {
		select {
		case ev := <-a.eng.Finished():
			a.bus.Send(encodeSoundFinished(ev.QueueID, ev.SoundIndex, uint8(ev.Reason)))
		default:
			return
		}
	}
}

func (a *Adapter) handle(f bus.Frame) {
	switch f.ID {
	case idModuleQuery:
		a.bus.Send(encodeModuleAnnounce(a.nodeID))
	case idPlaySound:
		a.handlePlay(decodePlaySound(f))
	case idStopSound:
		a.handleStop(decodeStopSound(f))
	case idStopAll:
		a.eng.StopAll()
	}
}

func (a *Adapter) handlePlay(p playSound) {
	origin, label, err := a.resolveOrigin(p.soundIndex)
	if err != nil {
		a.setLastError(ErrFileNotFound)
		a.bus.Send(encodeSoundAck(false, p.soundIndex, 0, ErrFileNotFound, p.requestID))
		return
	}

	volume := 100
	if p.volumeOverride != 0xFF {
		volume = int(p.volumeOverride)
	}

	idx, err := a.eng.CreateSource(engine.CreateParams{
		Origin:    origin,
		Label:     label,
		Volume:    volume,
		Loop:      p.loop,
		Interrupt: p.interrupt,
	})
	if err != nil {
		a.setLastError(ErrMixerFull)
		a.bus.Send(encodeSoundAck(false, p.soundIndex, 0, ErrMixerFull, p.requestID))
		return
	}

	qid := a.nextQueueID()
	if err := a.eng.AssignQueueID(idx, qid, p.soundIndex); err != nil && a.log != nil {
		a.log.Error("assign queue id", "err", err)
	}
	a.setLastSoundIndex(p.soundIndex)
	a.bus.Send(encodeSoundAck(true, p.soundIndex, qid, ErrOk, p.requestID))
}

func (a *Adapter) handleStop(s stopSound) {
	if err := a.eng.StopByQueueID(s.queueID); err != nil {
		a.bus.Send(encodeSoundAck(false, unsetSoundIndex, s.queueID, ErrInvalidQueueID, s.requestID))
		return
	}
	a.bus.Send(encodeSoundAck(true, unsetSoundIndex, s.queueID, ErrOk, s.requestID))
}

// resolveOrigin tries the persistent storage path sounds/NNNN.wav first,
// falling back to the Asset Registry, per spec's fallback chain.
func (a *Adapter) resolveOrigin(soundIndex uint16) (engine.Origin, string, error) {
	path := storage.SoundAssetPath(soundIndex)
	if a.store != nil && a.store.IsMounted() {
		if r, err := a.store.Open(path); err == nil {
			return engine.NewStreamOrigin(r), path, nil
		}
	}
	if a.assets != nil {
		if entry, ok := a.assets.Lookup(soundIndex); ok {
			return engine.NewMemOrigin(entry.Bytes, nil), entry.Name, nil
		}
	}
	return nil, "", errSourceNotFound
}

func (a *Adapter) emitStatus() {
	bits := stateReady
	if a.store != nil && a.store.IsMounted() {
		bits |= stateSD
	}
	if a.eng.AnyPlaying() {
		bits |= statePlaying
	}

	lastErr, lastSound := a.snapshot()
	if lastErr != ErrOk {
		bits |= stateError
	}

	a.bus.Send(encodeSoundStatus(bits, lastSound, lastErr, uint8(a.eng.MasterVolume()), uint16(a.uptime.Seconds())))
}

func (a *Adapter) nextQueueID() uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queueCounter++
	if a.queueCounter == 0 {
		a.queueCounter = 1
	}
	return a.queueCounter
}

func (a *Adapter) setLastError(e ErrorCode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = e
}

func (a *Adapter) setLastSoundIndex(idx uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastSoundIndex = idx
	a.lastError = ErrOk
}

func (a *Adapter) snapshot() (ErrorCode, uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastError, a.lastSoundIndex
}
