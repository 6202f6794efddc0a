// Package busproto implements the command adapter (C6): the frame codec
// for the fixed 8-byte-payload message bus and the dispatch logic wiring
// it into the mixer engine and the asset/storage lookup chain. No bus or
// CAN-style library appears anywhere in the retrieval pack, so this layer
// packs its little-endian fields by hand (le16/putLE16) rather than using
// a third-party framing library.
package busproto

import "github.com/soundmodule/mixer-engine/internal/bus"

// Frame IDs, per the command protocol's reserved 0x42x block.
const (
	idModuleAnnounce uint16 = 0x410
	idModuleQuery    uint16 = 0x411
	idPlaySound      uint16 = 0x420
	idSoundStatus    uint16 = 0x422
	idSoundAck       uint16 = 0x423
	idStopSound      uint16 = 0x421
	idStopAll        uint16 = 0x424
	idSoundFinished  uint16 = 0x425
)

// PLAY_SOUND flag bits.
const (
	flagInterrupt    = 1 << 0
	flagHighPriority = 1 << 1
	flagLoop         = 1 << 2
)

// ErrorCode is the protocol's small error enum, echoed in SOUND_ACK.
type ErrorCode uint8

const (
	ErrOk             ErrorCode = 0
	ErrFileNotFound   ErrorCode = 1
	ErrStorageError   ErrorCode = 2
	ErrBusy           ErrorCode = 3
	ErrInvalidIndex   ErrorCode = 4
	ErrMixerFull      ErrorCode = 5
	ErrInvalidQueueID ErrorCode = 6
)

// playSound is the decoded payload of a PLAY_SOUND frame.
type playSound struct {
	soundIndex     uint16
	interrupt      bool
	highPriority   bool
	loop           bool
	volumeOverride uint8 // 0xFF means "use external/default volume"
	requestID      uint16
}

func decodePlaySound(f bus.Frame) playSound {
	flags := f.Data[2]
	return playSound{
		soundIndex:     le16(f.Data[0], f.Data[1]),
		interrupt:      flags&flagInterrupt != 0,
		highPriority:   flags&flagHighPriority != 0,
		loop:           flags&flagLoop != 0,
		volumeOverride: f.Data[3],
		requestID:      le16(f.Data[4], f.Data[5]),
	}
}

// stopSound is the decoded payload of a STOP_SOUND frame.
type stopSound struct {
	queueID   uint8
	requestID uint16
}

func decodeStopSound(f bus.Frame) stopSound {
	return stopSound{
		queueID:   f.Data[0],
		requestID: le16(f.Data[3], f.Data[4]),
	}
}

func encodeSoundAck(ok bool, soundIndex uint16, queueID uint8, errCode ErrorCode, requestID uint16) bus.Frame {
	var d [8]byte
	if ok {
		d[0] = 1
	}
	putLE16(d[1:3], soundIndex)
	d[3] = queueID
	d[4] = uint8(errCode)
	putLE16(d[5:7], requestID)
	return bus.Frame{ID: idSoundAck, DLC: 8, Data: d}
}

func encodeSoundFinished(queueID uint8, soundIndex uint16, reason uint8) bus.Frame {
	var d [8]byte
	d[0] = queueID
	putLE16(d[1:3], soundIndex)
	d[3] = reason
	return bus.Frame{ID: idSoundFinished, DLC: 8, Data: d}
}

func encodeSoundStatus(stateBits uint8, currentSound uint16, errCode ErrorCode, volume uint8, uptimeS uint16) bus.Frame {
	var d [8]byte
	d[0] = stateBits
	putLE16(d[1:3], currentSound)
	d[3] = uint8(errCode)
	d[4] = volume
	putLE16(d[5:7], uptimeS)
	return bus.Frame{ID: idSoundStatus, DLC: 8, Data: d}
}

// Module identity fields echoed in MODULE_ANNOUNCE.
const (
	moduleType       uint8 = 0x01
	moduleVersionMaj uint8 = 1
	moduleVersionMin uint8 = 0
	moduleCaps       uint8 = 0x01 // bit 0: WAV playback
	reservedIDBlock  uint8 = 0x42
)

func encodeModuleAnnounce(nodeID uint8) bus.Frame {
	d := [8]byte{moduleType, moduleVersionMaj, moduleVersionMin, moduleCaps, reservedIDBlock, nodeID, 0, 0}
	return bus.Frame{ID: idModuleAnnounce, DLC: 8, Data: d}
}

func le16(lo, hi byte) uint16 {
	return uint16(lo) | uint16(hi)<<8
}

func putLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// SOUND_STATUS state bits.
const (
	stateReady   uint8 = 1 << 0
	stateSD      uint8 = 1 << 1
	statePlaying uint8 = 1 << 2
	stateMuted   uint8 = 1 << 3
	stateError   uint8 = 1 << 4
)
