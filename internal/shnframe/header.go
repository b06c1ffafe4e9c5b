package shnframe

import (
	"fmt"

	"github.com/birchlabs/shn/internal/bits"
)

var magic = [4]byte{'a', 'j', 'k', 'g'}

// File types understood by this decoder: signed/unsigned 8- and 16-bit PCM.
const (
	TypeS8    = 1
	TypeU8    = 2
	TypeS16HL = 3 // big-endian (AIFF-style)
	TypeU16HL = 4
	TypeS16LH = 5 // little-endian (WAV-style)
	TypeU16LH = 6
)

// Defaults used for header fields absent in version 0/1 streams.
const (
	defaultV0Nmean   = 0
	defaultV2Nmean   = 4
	defaultBlocksize = 256
	defaultMaxNLPC   = 0
	defaultNskip     = 0
)

// StreamParams holds the fixed parameters read from a Shorten header.
type StreamParams struct {
	Version   uint8
	FileType  int32
	Channels  uint32
	Blocksize int
	MaxNLPC   int
	Nmean     int
	Nskip     int
}

// WaveInfo holds the audio parameters recovered from the embedded WAVE
// header, or inferred from the Shorten file type when no WAVE header could
// be found.
type WaveInfo struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
	DataBytes     int
}

// ParseHeader reads the Shorten header and the embedded WAVE header (if
// any) from br. On return br is positioned just past the leading VERBATIM
// command(s); pendingCmd is the first non-VERBATIM command encountered,
// which the caller must dispatch before reading any further commands from
// br, since it has already been consumed here while hunting for the WAVE
// header.
func ParseHeader(br *bits.Reader) (params StreamParams, wave WaveInfo, pendingCmd int32, err error) {
	var got [4]byte
	for i := range got {
		b, err := br.ReadByteDirect()
		if err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading magic: %w", err)
		}
		got[i] = b
	}
	if got != magic {
		return StreamParams{}, WaveInfo{}, 0, ErrInvalidMagic
	}

	version, err := br.ReadByteDirect()
	if err != nil {
		return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading version: %w", err)
	}
	if version == 0 || version > 3 {
		return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	fileType, err := br.ReadULong()
	if err != nil {
		return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading file type: %w", err)
	}
	if fileType < TypeS8 || fileType > TypeU16LH {
		return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("%w: %d", ErrUnsupportedFileType, fileType)
	}

	channels, err := br.ReadULong()
	if err != nil {
		return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading channel count: %w", err)
	}

	params = StreamParams{
		Version:  version,
		FileType: int32(fileType),
		Channels: channels,
	}

	if version >= 2 {
		bs, err := br.ReadULong()
		if err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading blocksize: %w", err)
		}
		if bs == 0 || bs > 65536 {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("%w: %d", ErrInvalidBlockSize, bs)
		}
		maxnlpc, err := br.ReadULong()
		if err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading maxnlpc: %w", err)
		}
		nmean, err := br.ReadULong()
		if err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading nmean: %w", err)
		}
		nskip, err := br.ReadULong()
		if err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading nskip: %w", err)
		}
		params.Blocksize, params.MaxNLPC, params.Nmean, params.Nskip =
			int(bs), int(maxnlpc), int(nmean), int(nskip)
	} else {
		params.Blocksize = defaultBlocksize
		params.MaxNLPC = defaultMaxNLPC
		params.Nskip = defaultNskip
		if version >= 1 {
			params.Nmean = defaultV2Nmean
		} else {
			params.Nmean = defaultV0Nmean
		}
	}

	for i := 0; i < params.Nskip; i++ {
		if _, err := br.ReadULong(); err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: skipping header byte %d: %w", i, err)
		}
	}

	var wi *WaveInfo
	for {
		cmd, err := br.ReadUnsignedRice(fnSize)
		if err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading command: %w", err)
		}
		if int32(cmd) != fnVerbatim {
			pendingCmd = int32(cmd)
			break
		}

		nbytes, err := br.ReadUnsignedRice(verbatimCkSize)
		if err != nil {
			return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading verbatim length: %w", err)
		}
		data := make([]byte, nbytes)
		for i := range data {
			b, err := br.ReadUnsignedRice(verbatimByteSize)
			if err != nil {
				return StreamParams{}, WaveInfo{}, 0, fmt.Errorf("shn: reading verbatim byte %d: %w", i, err)
			}
			data[i] = byte(b)
		}
		if wi == nil {
			if parsed, ok := parseWaveHeader(data); ok {
				wi = &parsed
			}
		}
	}

	if wi == nil {
		bps := 16
		if fileType == TypeS8 || fileType == TypeU8 {
			bps = 8
		}
		wave = WaveInfo{
			SampleRate:    44100,
			BitsPerSample: bps,
			Channels:      int(channels),
		}
	} else {
		wave = *wi
	}

	return params, wave, pendingCmd, nil
}
