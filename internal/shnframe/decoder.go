package shnframe

import (
	"fmt"

	"github.com/birchlabs/shn/internal/bits"
)

// Decoder holds the state needed to decode a Shorten bitstream into
// interleaved PCM samples, one block at a time.
type Decoder struct {
	br *bits.Reader

	channels  int
	blocksize int
	maxnlpc   int
	nmean     int
	bitshift  uint32

	buffers []*channelBuffer
	means   []*meanAccumulator

	currentChannel int
	finished       bool

	outputBuf []int32
	outputPos int

	pendingCmd *int32
}

// NewDecoder constructs a Decoder from a header already parsed by
// ParseHeader. pendingCmd is the first audio command ParseHeader consumed
// while hunting for the WAVE header; Decoder replays it before reading any
// further commands from br.
func NewDecoder(br *bits.Reader, params StreamParams, pendingCmd int32) *Decoder {
	nchan := int(params.Channels)
	buffers := make([]*channelBuffer, nchan)
	means := make([]*meanAccumulator, nchan)
	for i := range buffers {
		buffers[i] = newChannelBuffer(params.Blocksize)
		means[i] = newMeanAccumulator(params.Nmean)
	}

	return &Decoder{
		br:         br,
		channels:   nchan,
		blocksize:  params.Blocksize,
		maxnlpc:    params.MaxNLPC,
		nmean:      params.Nmean,
		buffers:    buffers,
		means:      means,
		pendingCmd: &pendingCmd,
	}
}

// DecodeBlock decodes the next round of per-channel blocks and interleaves
// them into the output buffer accessible via NextSample. It returns false
// once QUIT has been read, with no error and nothing left to read.
func (d *Decoder) DecodeBlock() (bool, error) {
	if d.finished {
		return false, nil
	}

	blocksDecoded := 0
	for blocksDecoded < d.channels {
		var cmd int32
		if d.pendingCmd != nil {
			cmd = *d.pendingCmd
			d.pendingCmd = nil
		} else {
			c, err := d.br.ReadUnsignedRice(fnSize)
			if err != nil {
				return false, fmt.Errorf("shn: reading command: %w", err)
			}
			cmd = int32(c)
		}

		switch cmd {
		case fnQuit:
			d.finished = true
			return false, nil

		case fnBlocksize:
			newBS, err := d.br.ReadULong()
			if err != nil {
				return false, fmt.Errorf("shn: reading block size: %w", err)
			}
			if newBS == 0 || newBS > 65536 {
				return false, fmt.Errorf("%w: %d", ErrInvalidBlockSize, newBS)
			}
			d.blocksize = int(newBS)
			for _, buf := range d.buffers {
				buf.resize(d.blocksize)
			}

		case fnBitshift:
			shift, err := d.br.ReadUnsignedRice(bitshiftSize)
			if err != nil {
				return false, fmt.Errorf("shn: reading bitshift: %w", err)
			}
			d.bitshift = shift

		case fnVerbatim:
			nbytes, err := d.br.ReadUnsignedRice(verbatimCkSize)
			if err != nil {
				return false, fmt.Errorf("shn: reading verbatim length: %w", err)
			}
			for i := uint32(0); i < nbytes; i++ {
				if _, err := d.br.ReadUnsignedRice(verbatimByteSize); err != nil {
					return false, fmt.Errorf("shn: reading verbatim byte: %w", err)
				}
			}

		case fnZero:
			ch := d.currentChannel
			buf := d.buffers[ch]
			buf.resize(d.blocksize)
			for i := 0; i < d.blocksize; i++ {
				buf.set(i, 0)
			}
			if err := d.finishChannelBlock(ch); err != nil {
				return false, err
			}
			blocksDecoded++

		case fnDiff0, fnDiff1, fnDiff2, fnDiff3:
			if err := d.decodeFixedPrediction(int(cmd)); err != nil {
				return false, err
			}
			blocksDecoded++

		case fnQLPC:
			if err := d.decodeQLPC(); err != nil {
				return false, err
			}
			blocksDecoded++

		default:
			return false, fmt.Errorf("%w: %d", ErrInvalidCommand, cmd)
		}
	}

	d.interleaveOutput()
	return true, nil
}

// decodeFixedPrediction decodes one channel's block using a fixed
// polynomial predictor (DIFF0-DIFF3).
func (d *Decoder) decodeFixedPrediction(order int) error {
	ch := d.currentChannel
	energy, err := d.br.ReadUnsignedRice(energySize)
	if err != nil {
		return fmt.Errorf("shn: reading energy: %w", err)
	}

	buf := d.buffers[ch]
	buf.resize(d.blocksize)
	coffset := d.means[ch].coffset()
	coeffs := fixedCoeffs[order]

	for i := 0; i < d.blocksize; i++ {
		residual, err := d.br.ReadSignedRice(byte(energy))
		if err != nil {
			return fmt.Errorf("shn: reading residual: %w", err)
		}

		var prediction int32
		if order == 0 {
			prediction = coffset
		} else {
			for j := 0; j < order; j++ {
				prediction += coeffs[j] * buf.get(i-j-1)
			}
		}
		buf.set(i, residual+prediction)
	}

	return d.finishChannelBlock(ch)
}

// decodeQLPC decodes one channel's block using quantized linear prediction.
func (d *Decoder) decodeQLPC() error {
	ch := d.currentChannel
	energy, err := d.br.ReadUnsignedRice(energySize)
	if err != nil {
		return fmt.Errorf("shn: reading energy: %w", err)
	}

	lpcOrder, err := d.br.ReadUnsignedRice(lpcQSize)
	if err != nil {
		return fmt.Errorf("shn: reading LPC order: %w", err)
	}
	if int(lpcOrder) > d.maxnlpc || lpcOrder > 128 {
		return fmt.Errorf("%w: %d", ErrInvalidLpcOrder, lpcOrder)
	}

	coeffs := make([]int32, lpcOrder)
	for i := range coeffs {
		c, err := d.br.ReadSignedRice(lpcQSize)
		if err != nil {
			return fmt.Errorf("shn: reading LPC coefficient %d: %w", i, err)
		}
		coeffs[i] = c
	}

	buf := d.buffers[ch]
	buf.resize(d.blocksize)

	for i := 0; i < d.blocksize; i++ {
		residual, err := d.br.ReadSignedRice(byte(energy))
		if err != nil {
			return fmt.Errorf("shn: reading residual: %w", err)
		}

		var prediction int64
		for j, c := range coeffs {
			prediction += int64(c) * int64(buf.get(i-j-1))
		}
		buf.set(i, residual+int32(prediction>>lpcQuant))
	}

	return d.finishChannelBlock(ch)
}

// finishChannelBlock applies any pending bitshift, updates the channel's
// running mean, and carries history forward for the next block.
func (d *Decoder) finishChannelBlock(ch int) error {
	buf := d.buffers[ch]

	if d.bitshift > 0 {
		for i := 0; i < d.blocksize; i++ {
			buf.set(i, buf.get(i)<<d.bitshift)
		}
	}

	if d.nmean > 0 {
		var sum int64
		for i := 0; i < d.blocksize; i++ {
			sum += int64(buf.get(i))
		}
		if d.bitshift > 0 {
			sum >>= d.bitshift
		}
		bs := int64(d.blocksize)
		blockMean := int32((sum + bs/2) / bs)
		d.means[ch].push(blockMean)
	}

	buf.wrapAround()
	d.currentChannel = (d.currentChannel + 1) % d.channels
	return nil
}

// interleaveOutput copies this round's decoded blocks into the flat output
// buffer in channel-interleaved order.
func (d *Decoder) interleaveOutput() {
	d.outputBuf = d.outputBuf[:0]
	d.outputPos = 0

	if d.channels == 1 {
		d.outputBuf = append(d.outputBuf, d.buffers[0].blockSamples()...)
		return
	}
	for i := 0; i < d.blocksize; i++ {
		for ch := 0; ch < d.channels; ch++ {
			d.outputBuf = append(d.outputBuf, d.buffers[ch].blockSamples()[i])
		}
	}
}

// NextSample returns the next interleaved sample from the current block, or
// ok=false once it has been fully drained.
func (d *Decoder) NextSample() (int32, bool) {
	if d.outputPos < len(d.outputBuf) {
		s := d.outputBuf[d.outputPos]
		d.outputPos++
		return s, true
	}
	return 0, false
}

// Finished reports whether QUIT has already been read.
func (d *Decoder) Finished() bool {
	return d.finished
}
