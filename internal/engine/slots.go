package engine

// CreateParams describes a new playback request.
type CreateParams struct {
	Origin    Origin
	Label     string
	Volume    int
	Loop      bool
	Interrupt bool
}

// CreateSource allocates a free slot, resets its ring, and spawns a decoder
// goroutine for origin. If interrupt is set, every currently active slot is
// stopped first (emitting FINISHED(reason=stopped) for any that were
// tagged) so the new source always gets a slot.
func (e *Engine) CreateSource(p CreateParams) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var idx int
	var ok bool
	if p.Interrupt {
		e.stopAllLocked(ReasonStopped)
		idx, ok = e.findFreeOrReclaimLocked()
	} else {
		idx, ok = e.findFreeLocked()
	}
	if !ok {
		return -1, ErrMixerFull
	}
	if e.slots[idx].state == StateStopped {
		// The mixer has not retired this slot yet; report its completion
		// before the record is overwritten.
		e.emitFinishedLocked(idx, ReasonCompleted)
	}

	flags := &slotFlags{done: make(chan struct{})}
	e.slots[idx] = slot{
		state:      StatePlaying,
		label:      p.Label,
		volume:     clampVolume(p.Volume),
		loop:       p.Loop,
		soundIndex: unsetSoundIndex,
		flags:      flags,
	}
	e.rings[idx].Reset()

	go e.runDecoder(idx, p.Origin, flags, p.Loop)

	return idx, nil
}

// AssignQueueID tags slot idx with a queue id and sound index, as called by
// the command adapter immediately after a successful CreateSource. A slot
// must be tagged before it can ever produce a FINISHED event.
func (e *Engine) AssignQueueID(idx int, queueID uint8, soundIndex uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.slots) {
		return ErrInvalidIndex
	}
	e.slots[idx].queueID = queueID
	e.slots[idx].soundIndex = soundIndex
	return nil
}

// Stop marks slot idx as stopping. A no-op for slots that are not active.
func (e *Engine) Stop(idx int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.slots) {
		return ErrInvalidIndex
	}
	e.stopLocked(idx, ReasonStopped)
	return nil
}

// StopAll stops every active slot. Idempotent.
func (e *Engine) StopAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAllLocked(ReasonStopped)
}

// StopByQueueID stops the slot tagged with queueID, if any is currently
// active under that tag.
func (e *Engine) StopByQueueID(queueID uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.findByQueueIDLocked(queueID)
	if !ok {
		return ErrInvalidQueueID
	}
	e.stopLocked(idx, ReasonStopped)
	return nil
}

// HandleByQueueID returns the slot index currently tagged with queueID.
func (e *Engine) HandleByQueueID(queueID uint8) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.findByQueueIDLocked(queueID)
}

// SetVolume clamps and stores a per-slot volume.
func (e *Engine) SetVolume(idx, v int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.slots) {
		return ErrInvalidIndex
	}
	e.slots[idx].volume = clampVolume(v)
	return nil
}

// SetMasterVolume clamps and stores the engine-wide master volume.
func (e *Engine) SetMasterVolume(v int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.masterVolume = clampVolume(v)
}

// Pause transitions a PLAYING slot to PAUSED. A no-op otherwise.
func (e *Engine) Pause(idx int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.slots) {
		return ErrInvalidIndex
	}
	if e.slots[idx].state == StatePlaying {
		e.slots[idx].state = StatePaused
	}
	return nil
}

// Resume transitions a PAUSED slot back to PLAYING. A no-op otherwise.
func (e *Engine) Resume(idx int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.slots) {
		return ErrInvalidIndex
	}
	if e.slots[idx].state == StatePaused {
		e.slots[idx].state = StatePlaying
	}
	return nil
}

// Info returns a read-only snapshot of slot idx.
func (e *Engine) Info(idx int) (SlotInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.slots) {
		return SlotInfo{}, ErrInvalidIndex
	}
	s := &e.slots[idx]
	return SlotInfo{
		Label:      s.label,
		Volume:     s.volume,
		State:      s.state,
		Loop:       s.loop,
		QueueID:    s.queueID,
		SoundIndex: s.soundIndex,
	}, nil
}

// MasterVolume returns the current master volume (0..100).
func (e *Engine) MasterVolume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.masterVolume
}

// AnyPlaying reports whether any slot is currently PLAYING, for status
// reporting.
func (e *Engine) AnyPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.slots {
		if e.slots[i].state == StatePlaying {
			return true
		}
	}
	return false
}

func (e *Engine) findFreeLocked() (int, bool) {
	for i := range e.slots {
		if e.slots[i].state == StateIdle || e.slots[i].state == StateStopped {
			return i, true
		}
	}
	return -1, false
}

// findFreeOrReclaimLocked is find_free widened for the interrupt path: if
// no slot is already IDLE/STOPPED, it picks the first slot mid-teardown
// (STOPPING/DRAINING, which stopAllLocked just produced) and waits for its
// decoder to confirm exit before handing the slot back as reusable. The
// wait is bounded by how promptly a cancelled decoder observes stopping;
// for in-memory/local origins that is effectively immediate.
func (e *Engine) findFreeOrReclaimLocked() (int, bool) {
	if idx, ok := e.findFreeLocked(); ok {
		return idx, true
	}
	for i := range e.slots {
		s := &e.slots[i]
		if s.state == StateStopping || s.state == StateDraining {
			if s.flags != nil && s.flags.done != nil {
				<-s.flags.done
			}
			return i, true
		}
	}
	return -1, false
}

func (e *Engine) findByQueueIDLocked(queueID uint8) (int, bool) {
	if queueID == 0 {
		return -1, false
	}
	for i := range e.slots {
		if e.slots[i].active() && e.slots[i].queueID == queueID {
			return i, true
		}
	}
	return -1, false
}

func (e *Engine) stopAllLocked(reason FinishReason) {
	for i := range e.slots {
		e.stopLocked(i, reason)
	}
}

func (e *Engine) stopLocked(idx int, reason FinishReason) {
	s := &e.slots[idx]
	if s.state != StatePlaying && s.state != StatePaused {
		return
	}
	s.flags.stopping.Store(true)
	e.rings[idx].Cancel()
	s.state = StateStopping
	e.emitFinishedLocked(idx, reason)
}

// emitFinishedLocked publishes a FINISHED event for idx if it is tagged
// and has not already produced one, enforcing the "exactly one FINISHED
// per tagged slot" invariant regardless of which code path observes
// termination first (an explicit stop vs. the mixer noticing EOF).
func (e *Engine) emitFinishedLocked(idx int, reason FinishReason) {
	s := &e.slots[idx]
	if s.queueID == 0 || s.finishedEmitted {
		return
	}
	s.finishedEmitted = true
	ev := FinishedEvent{QueueID: s.queueID, SoundIndex: s.soundIndex, Reason: reason}
	select {
	case e.finished <- ev:
	default:
		if e.log != nil {
			e.log.Warn("dropped FINISHED notification, channel full", "queue_id", s.queueID)
		}
	}
}
