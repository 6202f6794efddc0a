package sink

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ebitengine/oto/v3"
)

// OtoSink drives real audio output through ebitengine/oto, the same
// library and setup sequence the teacher's IQ-to-speaker pipeline used:
// a context at the sink's native rate/format, and a player fed through an
// io.Pipe the mixer writes into.
type OtoSink struct {
	ctx    *oto.Context
	player oto.Player
	writer *io.PipeWriter
}

// NewOtoSink opens a stereo, 16-bit little-endian playback context at
// sampleRate and starts the player. The returned sink is Ready once oto's
// readiness channel fires.
func NewOtoSink(sampleRate int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("sink: init oto context: %w", err)
	}
	<-ready

	reader, writer := io.Pipe()
	player := ctx.NewPlayer(reader)
	player.Play()

	return &OtoSink{ctx: ctx, player: player, writer: writer}, nil
}

// Ready always reports true once construction has completed; oto blocks
// NewOtoSink on its own readiness channel.
func (s *OtoSink) Ready() bool { return true }

// Write encodes frames as little-endian int16 pairs and blocks until oto's
// pipe has accepted them.
func (s *OtoSink) Write(frames []int16) (int, error) {
	buf := make([]byte, len(frames)*2)
	for i, v := range frames {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	n, err := s.writer.Write(buf)
	return n / 2, err
}

// Close stops playback and releases the oto context.
func (s *OtoSink) Close() error {
	s.writer.Close()
	s.player.Close()
	return s.ctx.Suspend()
}
