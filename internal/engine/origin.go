package engine

import (
	"io"

	"github.com/soundmodule/mixer-engine/internal/storage"
	"github.com/soundmodule/mixer-engine/internal/wavfmt"
)

// Origin is a decoder task's source: either a storage-backed stream or an
// in-memory byte slice, per spec's "stream OR byte slice" requirement.
type Origin interface {
	// Header returns the asset's WAV info, parsing it on first call.
	Header() (wavfmt.Info, error)
	// ReadChunk reads up to len(buf) raw PCM bytes. n==0, err==nil means
	// EOF with no error; a non-nil err other than io.EOF is a read failure.
	ReadChunk(buf []byte) (int, error)
	// Rewind repositions the read cursor at the start of the data chunk,
	// for loop playback.
	Rewind() error
	// Close releases any resources the origin holds open.
	Close() error
}

// StreamOrigin reads a WAV asset from a storage.Reader.
type StreamOrigin struct {
	r    storage.Reader
	rs   io.ReadSeeker
	info wavfmt.Info
	have bool
	read uint32 // bytes delivered out of info.DataSize since the last Rewind
}

// NewStreamOrigin wraps an opened storage.Reader as an Origin.
func NewStreamOrigin(r storage.Reader) *StreamOrigin {
	return &StreamOrigin{r: r, rs: storage.AsReadSeeker(r)}
}

func (o *StreamOrigin) Header() (wavfmt.Info, error) {
	if !o.have {
		info, err := wavfmt.Parse(o.rs)
		if err != nil {
			return wavfmt.Info{}, err
		}
		o.info = info
		o.have = true
	}
	return o.info, nil
}

// ReadChunk reads no further than info.DataSize, so any chunk trailing
// "data" (e.g. a "LIST" after it) is never handed to the decoder as PCM.
func (o *StreamOrigin) ReadChunk(buf []byte) (int, error) {
	remaining := o.info.DataSize - o.read
	if remaining == 0 {
		return 0, nil
	}
	if uint32(len(buf)) > remaining {
		buf = buf[:remaining]
	}
	n, err := o.r.Read(buf)
	o.read += uint32(n)
	return n, err
}

func (o *StreamOrigin) Rewind() error {
	o.read = 0
	return o.r.SeekSet(int64(o.info.DataOffset))
}

func (o *StreamOrigin) Close() error {
	return o.r.Close()
}

// MemOrigin reads a WAV asset out of an in-memory byte slice, as used for
// Asset Registry fallback sounds and any caller that already holds the
// bytes. If info is non-nil the caller has pre-parsed the header and
// Header skips re-parsing, per spec's "caller may pre-fill WavInfo"
// allowance.
type MemOrigin struct {
	data []byte
	info wavfmt.Info
	have bool
	pos  int
}

// NewMemOrigin wraps data as an Origin. info may be nil.
func NewMemOrigin(data []byte, info *wavfmt.Info) *MemOrigin {
	m := &MemOrigin{data: data}
	if info != nil {
		m.info = *info
		m.have = true
	}
	return m
}

func (o *MemOrigin) Header() (wavfmt.Info, error) {
	if !o.have {
		info, err := wavfmt.ParseSlice(o.data)
		if err != nil {
			return wavfmt.Info{}, err
		}
		o.info = info
		o.have = true
	}
	if o.pos == 0 {
		o.pos = int(o.info.DataOffset)
	}
	return o.info, nil
}

func (o *MemOrigin) ReadChunk(buf []byte) (int, error) {
	end := int(o.info.DataOffset) + int(o.info.DataSize)
	if end > len(o.data) {
		end = len(o.data)
	}
	if o.pos >= end {
		return 0, nil
	}
	n := copy(buf, o.data[o.pos:end])
	o.pos += n
	return n, nil
}

func (o *MemOrigin) Rewind() error {
	o.pos = int(o.info.DataOffset)
	return nil
}

func (o *MemOrigin) Close() error { return nil }
