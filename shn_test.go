package shn_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/icza/bitio"

	"github.com/birchlabs/shn"
)

// fixtureWriter builds a complete synthetic .shn bitstream for end-to-end
// tests, the same way this module's internal test helpers build smaller
// fixtures: write with bitio.Writer, decode with the real reader.
type fixtureWriter struct {
	buf *bytes.Buffer
	bw  *bitio.Writer
}

func newFixtureWriter() *fixtureWriter {
	buf := new(bytes.Buffer)
	return &fixtureWriter{buf: buf}
}

// rawBytes writes bytes directly into the buffer. Only valid before the
// first bit-level write (i.e. for the magic and version fields), since it
// bypasses the bitio.Writer entirely.
func (w *fixtureWriter) rawBytes(b []byte) {
	w.buf.Write(b)
}

func (w *fixtureWriter) bw1() *bitio.Writer {
	if w.bw == nil {
		w.bw = bitio.NewWriter(w.buf)
	}
	return w.bw
}

func (w *fixtureWriter) unsignedRice(k byte, v uint32) {
	bw := w.bw1()
	q := v >> k
	for ; q > 0; q-- {
		bw.WriteBool(false)
	}
	bw.WriteBool(true)
	if k > 0 {
		mask := uint64(1)<<k - 1
		bw.WriteBits(uint64(v)&mask, k)
	}
}

func (w *fixtureWriter) signedRice(k byte, v int32) {
	var folded uint32
	if v >= 0 {
		folded = uint32(v) << 1
	} else {
		folded = uint32(-v)<<1 - 1
	}
	w.unsignedRice(k+1, folded)
}

func (w *fixtureWriter) ulong(v uint32) {
	nbits := byte(0)
	for (uint32(1) << nbits) <= v {
		nbits++
	}
	w.unsignedRice(2, uint32(nbits))
	w.unsignedRice(nbits, v)
}

func (w *fixtureWriter) bytes() []byte {
	w.bw1().Close()
	return w.buf.Bytes()
}

const (
	fnDiff0    = 0
	fnQuit     = 4
	fnVerbatim = 9
	fnSize     = 2
	energySize = 3
)

func waveChunk(channels, sampleRate, bitsPerSample int, dataBytes int) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	var riffSize [4]byte
	binary.LittleEndian.PutUint32(riffSize[:], uint32(36+dataBytes))
	b.Write(riffSize[:])
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	var fmtSize [4]byte
	binary.LittleEndian.PutUint32(fmtSize[:], 16)
	b.Write(fmtSize[:])
	var fmtBody [16]byte
	binary.LittleEndian.PutUint16(fmtBody[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fmtBody[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(fmtBody[4:8], uint32(sampleRate))
	byteRate := sampleRate * channels * bitsPerSample / 8
	binary.LittleEndian.PutUint32(fmtBody[8:12], uint32(byteRate))
	blockAlign := channels * bitsPerSample / 8
	binary.LittleEndian.PutUint16(fmtBody[12:14], uint16(blockAlign))
	binary.LittleEndian.PutUint16(fmtBody[14:16], uint16(bitsPerSample))
	b.Write(fmtBody[:])
	b.WriteString("data")
	var dataSize [4]byte
	binary.LittleEndian.PutUint32(dataSize[:], uint32(dataBytes))
	b.Write(dataSize[:])
	return b.Bytes()
}

// buildMonoFixture builds a one-channel, one-block Shorten v2 stream whose
// single DIFF0 block decodes to exactly samples, preceded by a VERBATIM
// block carrying a WAVE header.
func buildMonoFixture(samples []int32) []byte {
	w := newFixtureWriter()
	w.rawBytes([]byte("ajkg"))
	w.rawBytes([]byte{2}) // version

	w.ulong(5) // file type: TYPE_S16LH
	w.ulong(1) // channels
	w.ulong(uint32(len(samples)))
	w.ulong(0) // maxnlpc
	w.ulong(4) // nmean
	w.ulong(0) // nskip

	wave := waveChunk(1, 8000, 16, 2*len(samples))
	w.unsignedRice(fnSize, fnVerbatim)
	w.unsignedRice(5, uint32(len(wave)))
	for _, b := range wave {
		w.unsignedRice(8, uint32(b))
	}

	w.unsignedRice(fnSize, fnDiff0)
	w.unsignedRice(energySize, 0)
	for _, s := range samples {
		w.signedRice(0, s)
	}
	w.unsignedRice(fnSize, fnQuit)

	return w.bytes()
}

func TestReaderDecodesSyntheticStream(t *testing.T) {
	want := []int32{1, -2, 3, -4, 5}
	data := buildMonoFixture(want)

	r, err := shn.New(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}

	info := r.Info()
	if info.Channels != 1 || info.SampleRate != 8000 || info.BitsPerSample != 16 {
		t.Errorf("Info() = %+v, unexpected values", info)
	}

	var got []int32
	for {
		s, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: unexpected error: %v", err)
		}
		got = append(got, s)
	}

	if len(got) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}

	// A Reader latches its terminal error: further calls keep returning EOF.
	if _, err := r.Next(); !shn.IsEOF(err) {
		t.Errorf("Next after EOF: err = %v, want io.EOF", err)
	}
}

func TestNewInvalidMagic(t *testing.T) {
	_, err := shn.New(bytes.NewReader([]byte("xxxxhello")))
	if err != shn.ErrInvalidMagic {
		t.Fatalf("New: err = %v, want ErrInvalidMagic", err)
	}
}
