// Package wavfmt parses little-endian RIFF/WAVE headers for linear PCM
// audio, exposing just enough of the container to locate and describe the
// data chunk a decoder will stream from. The chunk walk itself is done by
// go-audio/riff.Parser, the same RIFF reader the teacher's decoder used
// indirectly through go-audio/wav; this package adds the fmt-field decode
// and the narrower error taxonomy the engine needs on top of it.
package wavfmt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/go-audio/riff"
)

// Errors returned by Parse and ParseSlice.
var (
	ErrNotRiff           = errors.New("wavfmt: missing RIFF magic")
	ErrNotWave           = errors.New("wavfmt: RIFF container is not WAVE")
	ErrNoFmt             = errors.New("wavfmt: no fmt chunk found")
	ErrNoData            = errors.New("wavfmt: no data chunk found")
	ErrUnsupportedFormat = errors.New("wavfmt: unsupported PCM format, channel count, or bit depth")
	ErrTruncated         = errors.New("wavfmt: header truncated or malformed")
)

// formatPCM is the only audio format code this parser accepts.
const formatPCM = 1

// maxChunks bounds how many sub-chunks Parse will walk before giving up, so
// a malformed or adversarial asset can't spin forever looking for "data".
const maxChunks = 64

// Info describes a parsed WAV asset: its PCM format plus the location of
// the data chunk within the stream/slice it was parsed from.
type Info struct {
	SampleRate    uint32
	Channels      uint16
	BitsPerSample uint16
	DataOffset    uint32
	DataSize      uint32
}

// BytesPerFrame returns the number of bytes one frame (all channels, one
// sample period) occupies at this asset's bit depth.
func (i Info) BytesPerFrame() int {
	return int(i.Channels) * int(i.BitsPerSample) / 8
}

// Parse walks a RIFF/WAVE container from r using riff.Parser, skipping
// unknown chunks between "fmt " and "data". On success r is positioned at
// the first data byte; Info.DataOffset is that position's absolute offset
// within r.
func Parse(r io.ReadSeeker) (Info, error) {
	var riffHdr [12]byte
	if _, err := io.ReadFull(r, riffHdr[:]); err != nil {
		return Info{}, ErrTruncated
	}
	if string(riffHdr[0:4]) != "RIFF" {
		return Info{}, ErrNotRiff
	}
	if string(riffHdr[8:12]) != "WAVE" {
		return Info{}, ErrNotWave
	}

	// riff.New reads sub-chunk headers (id + little-endian size) directly
	// off r; everything after the header - the fmt decode and the skip
	// over unrecognized chunks - is read straight from r too, so the
	// parser and this walk always agree on the stream's position.
	parser := riff.New(r)

	var info Info
	haveFmt, haveData := false, false
	pos := uint32(12)

	for n := 0; !haveData; n++ {
		if n >= maxChunks {
			return Info{}, ErrTruncated
		}
		chunk, err := parser.NextChunk()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Info{}, ErrTruncated
		}
		pos += 8
		size := uint32(chunk.Size)

		switch string(chunk.ID[:]) {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Info{}, ErrTruncated
			}
			if err := decodeFmt(body, &info); err != nil {
				return Info{}, err
			}
			haveFmt = true
			pos += size
			if size%2 == 1 {
				if _, err := io.CopyN(io.Discard, r, 1); err != nil {
					return Info{}, ErrTruncated
				}
				pos++
			}
		case "data":
			info.DataOffset = pos
			info.DataSize = size
			haveData = true
		default:
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Info{}, ErrTruncated
			}
			pos += uint32(skip)
		}
	}

	switch {
	case !haveFmt:
		return Info{}, ErrNoFmt
	case !haveData:
		return Info{}, ErrNoData
	}
	return info, nil
}

// ParseSlice parses a RIFF/WAVE header from an in-memory asset. DataOffset
// is the index into b of the first data byte. It runs the identical
// riff.Parser-backed walk as Parse over a bytes.Reader, rather than keeping
// a second hand-rolled chunk walker for the slice-backed case.
func ParseSlice(b []byte) (Info, error) {
	return Parse(bytes.NewReader(b))
}

func decodeFmt(body []byte, info *Info) error {
	if len(body) < 16 {
		return ErrTruncated
	}
	audioFormat := binary.LittleEndian.Uint16(body[0:2])
	channels := binary.LittleEndian.Uint16(body[2:4])
	sampleRate := binary.LittleEndian.Uint32(body[4:8])
	bitsPerSample := binary.LittleEndian.Uint16(body[14:16])

	if audioFormat != formatPCM {
		return ErrUnsupportedFormat
	}
	if channels != 1 && channels != 2 {
		return ErrUnsupportedFormat
	}
	if bitsPerSample != 8 && bitsPerSample != 16 {
		return ErrUnsupportedFormat
	}

	info.SampleRate = sampleRate
	info.Channels = channels
	info.BitsPerSample = bitsPerSample
	return nil
}
