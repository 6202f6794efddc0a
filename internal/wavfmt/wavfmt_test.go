package wavfmt

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildWav synthesizes a minimal WAV asset with the given format fields and
// an optional extra chunk inserted between "fmt " and "data".
func buildWav(channels, bits uint16, rate uint32, data []byte, extraChunk bool) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // patched below
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, rate)
	byteRate := rate * uint32(channels) * uint32(bits) / 8
	binary.Write(&buf, binary.LittleEndian, byteRate)
	blockAlign := channels * bits / 8
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, bits)

	if extraChunk {
		buf.WriteString("LIST")
		binary.Write(&buf, binary.LittleEndian, uint32(4))
		buf.WriteString("INFO")
	}

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func TestParseSlice_RoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		channels uint16
		bits     uint16
		rate     uint32
		extra    bool
	}{
		{"mono8-22050", 1, 8, 22050, false},
		{"mono16-44100", 1, 16, 44100, false},
		{"stereo16-48000-with-list", 2, 16, 48000, true},
		{"stereo8-8000", 2, 8, 8000, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
			asset := buildWav(c.channels, c.bits, c.rate, data, c.extra)

			info, err := ParseSlice(asset)
			if err != nil {
				t.Fatalf("ParseSlice: %v", err)
			}
			if info.Channels != c.channels {
				t.Errorf("Channels = %d, want %d", info.Channels, c.channels)
			}
			if info.BitsPerSample != c.bits {
				t.Errorf("BitsPerSample = %d, want %d", info.BitsPerSample, c.bits)
			}
			if info.SampleRate != c.rate {
				t.Errorf("SampleRate = %d, want %d", info.SampleRate, c.rate)
			}
			if info.DataSize != uint32(len(data)) {
				t.Errorf("DataSize = %d, want %d", info.DataSize, len(data))
			}
			if int(info.DataOffset)+len(data) > len(asset) {
				t.Fatalf("DataOffset %d out of range for asset of length %d", info.DataOffset, len(asset))
			}
			got := asset[info.DataOffset : int(info.DataOffset)+len(data)]
			if !bytes.Equal(got, data) {
				t.Errorf("data at DataOffset = %v, want %v", got, data)
			}
		})
	}
}

func TestParse_StreamLeavesReaderAtData(t *testing.T) {
	data := []byte{9, 9, 9, 9}
	asset := buildWav(1, 16, 44100, data, true)

	rd := bytes.NewReader(asset)
	info, err := Parse(rd)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.DataOffset == 0 {
		t.Fatal("expected non-zero DataOffset")
	}
	got := asset[info.DataOffset : int(info.DataOffset)+len(data)]
	if !bytes.Equal(got, data) {
		t.Errorf("data at DataOffset = %v, want %v", got, data)
	}
	next := make([]byte, len(data))
	if n, _ := rd.Read(next); n != len(data) || !bytes.Equal(next, data) {
		t.Errorf("reader after Parse yielded %v, want %v", next[:n], data)
	}
}

func TestParse_RejectsBadMagic(t *testing.T) {
	bad := []byte("JUNKxxxxWAVE")
	if _, err := ParseSlice(bad); err != ErrNotRiff {
		t.Errorf("err = %v, want ErrNotRiff", err)
	}
}

func TestParse_RejectsNonWave(t *testing.T) {
	bad := make([]byte, 12)
	copy(bad[0:4], "RIFF")
	copy(bad[8:12], "AIFF")
	if _, err := ParseSlice(bad); err != ErrNotWave {
		t.Errorf("err = %v, want ErrNotWave", err)
	}
}

func TestParse_RejectsUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(3)) // IEEE float, not PCM
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint32(44100))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint16(4))
	binary.Write(&buf, binary.LittleEndian, uint16(32))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(0))

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	if _, err := ParseSlice(out); err != ErrUnsupportedFormat {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParse_MissingDataChunk(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(44100))
	binary.Write(&buf, binary.LittleEndian, uint32(88200))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))

	if _, err := ParseSlice(out); err != ErrNoData {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestParse_TruncatedHeader(t *testing.T) {
	short := []byte("RIFF")
	if _, err := ParseSlice(short); err != ErrTruncated {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
	if _, err := Parse(bytes.NewReader(short)); err != ErrTruncated {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}
