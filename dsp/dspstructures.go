package dsp

import "errors"

const FrameBytes = 8
const SamplesPerFrame = 14

// Coefs holds the eight predictor pairs of a sample. The high nibble of a
// frame header selects the pair.
type Coefs [8][2]int16

// State is the decoder history: Prev1 is the last sample produced, Prev2
// the one before it.
type State struct {
	Prev1 int16
	Prev2 int16
}

var ErrCodecRange = errors.New("dsp: sample range outside frame")
var ErrShortFrame = errors.New("dsp: frame shorter than 8 bytes")

var nibbleToInt = [16]int32{0, 1, 2, 3, 4, 5, 6, 7, -8, -7, -6, -5, -4, -3, -2, -1}

func sampClamp(val int64) int16 {
	if val < -32768 {
		return -32768
	}
	if val > 32767 {
		return 32767
	}
	return int16(val)
}

// FrameCount returns the number of frames needed for sampleCount samples.
func FrameCount(sampleCount int) int {
	return (sampleCount + SamplesPerFrame - 1) / SamplesPerFrame
}
