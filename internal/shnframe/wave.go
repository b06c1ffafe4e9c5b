package shnframe

import (
	"bytes"
	"encoding/binary"
)

// parseWaveHeader walks the RIFF/WAVE chunks recovered from the stream's
// leading VERBATIM command(s), looking for "fmt " and "data". It returns
// ok=false rather than an error when data does not look like a WAVE header
// at all, so the caller can fall back to inferring parameters from the
// Shorten file type; a malformed "fmt " chunk once RIFF/WAVE is confirmed is
// still reported as a failed parse via ok=false.
func parseWaveHeader(data []byte) (WaveInfo, bool) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return WaveInfo{}, false
	}

	var (
		info     WaveInfo
		fmtFound bool
	)

	pos := 12
	for pos+8 <= len(data) {
		chunkID := data[pos : pos+4]
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]

		switch {
		case bytes.Equal(chunkID, []byte("fmt ")):
			if chunkSize < 16 || len(body) < chunkSize {
				return WaveInfo{}, false
			}
			info.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			fmtFound = true

		case bytes.Equal(chunkID, []byte("data")):
			if !fmtFound {
				return WaveInfo{}, false
			}
			info.DataBytes = chunkSize
			return info, true
		}

		pos += 8 + chunkSize
		if chunkSize%2 != 0 {
			pos++ // chunks are word-aligned
		}
	}

	if fmtFound {
		// fmt found but the data chunk header wasn't included in this
		// verbatim block; data_bytes stays unknown (0).
		return info, true
	}
	return WaveInfo{}, false
}
