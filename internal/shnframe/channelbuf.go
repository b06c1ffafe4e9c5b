package shnframe

// nwrap is the number of history samples kept before each block. DIFF3, the
// highest-order fixed predictor, needs the 3 most recent samples, so 3 is
// enough for every predictor this decoder implements.
const nwrap = 3

// channelBuffer holds one channel's decoded samples: nwrap history samples
// followed by the current block. Index 0 is the first sample of the current
// block; negative indices reach into the history region left by the
// previous block.
type channelBuffer struct {
	data      []int32
	blocksize int
}

func newChannelBuffer(blocksize int) *channelBuffer {
	return &channelBuffer{
		data:      make([]int32, nwrap+blocksize),
		blocksize: blocksize,
	}
}

// resize grows or shrinks the buffer for a new block size (set by a
// BLOCKSIZE command), preserving the history region.
func (b *channelBuffer) resize(blocksize int) {
	if blocksize == b.blocksize {
		return
	}
	data := make([]int32, nwrap+blocksize)
	copy(data, b.data[:min(nwrap, len(b.data))])
	b.data = data
	b.blocksize = blocksize
}

func (b *channelBuffer) get(i int) int32 {
	return b.data[nwrap+i]
}

func (b *channelBuffer) set(i int, v int32) {
	b.data[nwrap+i] = v
}

// wrapAround copies the last nwrap samples of the just-decoded block into
// the history region, so the next block's predictors can reach them through
// negative indices.
func (b *channelBuffer) wrapAround() {
	bs := b.blocksize
	for i := 0; i < nwrap; i++ {
		b.data[i] = b.data[bs+i]
	}
}

// blockSamples returns the current block's decoded samples, excluding the
// history region.
func (b *channelBuffer) blockSamples() []int32 {
	return b.data[nwrap : nwrap+b.blocksize]
}
