package shnframe

// Command IDs, read as a 2-bit-mantissa unsigned Rice code at the start of
// each per-channel block.
const (
	fnDiff0     = 0
	fnDiff1     = 1
	fnDiff2     = 2
	fnDiff3     = 3
	fnQuit      = 4
	fnBlocksize = 5
	fnBitshift  = 6
	fnQLPC      = 7
	fnZero      = 8
	fnVerbatim  = 9
)

// Bit widths and shift constants from Robinson's TR-156.
const (
	fnSize           = 2
	energySize       = 3
	bitshiftSize     = 2
	lpcQSize         = 2
	lpcQuant         = 5
	verbatimCkSize   = 5
	verbatimByteSize = 8
	ulongSize        = 2
)

// fixedCoeffs holds the prediction coefficients for DIFF0 through DIFF3, in
// application order (coeffs[0] multiplies sample[-1], coeffs[1] sample[-2],
// ...). DIFF0 predicts the running DC offset instead of using these.
var fixedCoeffs = [4][3]int32{
	{0, 0, 0},
	{1, 0, 0},
	{2, -1, 0},
	{3, -3, 1},
}
