// Package shn implements a decoder for Shorten (SHN), the lossless and
// near-lossless waveform compression format described in T. Robinson,
// "SHORTEN: Simple lossless and near-lossless waveform compression"
// (Cambridge University Engineering Department, Technical Report 156,
// 1994) — the same report FLAC itself cites for its fixed predictors.
//
// It decodes the bitstream command by command into interleaved PCM samples.
// It does not resample, dither, mix channels, seek, verify embedded CRCs,
// or handle non-PCM Shorten file types.
package shn

import (
	"errors"
	"io"
	"os"

	"github.com/birchlabs/shn/internal/bits"
	"github.com/birchlabs/shn/internal/shnframe"
)

// Re-exported sentinel errors; see internal/shnframe for their meaning.
// Callers should use errors.Is against these rather than internal/shnframe's
// copies, which this package does not expose.
var (
	ErrInvalidMagic        = shnframe.ErrInvalidMagic
	ErrUnsupportedVersion  = shnframe.ErrUnsupportedVersion
	ErrUnsupportedFileType = shnframe.ErrUnsupportedFileType
	ErrInvalidCommand      = shnframe.ErrInvalidCommand
	ErrInvalidBlockSize    = shnframe.ErrInvalidBlockSize
	ErrInvalidLpcOrder     = shnframe.ErrInvalidLpcOrder
	ErrMissingWaveHeader   = shnframe.ErrMissingWaveHeader
)

// Info describes the audio carried by a Shorten stream, recovered from its
// embedded WAVE header (or inferred from the Shorten file type when no
// WAVE header could be found).
type Info struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// Reader decodes a Shorten stream into interleaved PCM samples.
//
// A Reader is forward-only and not safe for concurrent use, the norm for
// this corpus's codec types.
type Reader struct {
	dec  *shnframe.Decoder
	info Info
	done bool
	err  error
}

// Open opens path and parses its Shorten header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := New(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// New parses the Shorten header (and any embedded WAVE header) from r.
// After it returns, call Info for stream metadata and Next to decode
// samples.
func New(r io.Reader) (*Reader, error) {
	br := bits.NewReader(r)
	params, wave, pendingCmd, err := shnframe.ParseHeader(br)
	if err != nil {
		return nil, err
	}

	return &Reader{
		dec: shnframe.NewDecoder(br, params, pendingCmd),
		info: Info{
			Channels:      wave.Channels,
			SampleRate:    wave.SampleRate,
			BitsPerSample: wave.BitsPerSample,
		},
	}, nil
}

// Info returns metadata about the decoded stream.
func (r *Reader) Info() Info {
	return r.info
}

// Next decodes and returns the next interleaved PCM sample. It returns
// io.EOF once the stream's QUIT command has been read and the last block
// fully drained. Once Next has returned a non-nil error, every subsequent
// call returns that same error.
func (r *Reader) Next() (int32, error) {
	if r.done {
		return 0, r.err
	}

	if s, ok := r.dec.NextSample(); ok {
		return s, nil
	}

	ok, err := r.dec.DecodeBlock()
	if err != nil {
		r.done, r.err = true, err
		return 0, err
	}
	if !ok {
		r.done, r.err = true, io.EOF
		return 0, io.EOF
	}

	s, ok := r.dec.NextSample()
	if !ok {
		// A command round produced zero samples for zero channels; treat
		// as end of stream rather than loop forever.
		r.done, r.err = true, io.EOF
		return 0, io.EOF
	}
	return s, nil
}

// IsEOF reports whether err is the sentinel returned once a Reader is
// exhausted.
func IsEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
