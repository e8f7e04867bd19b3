package dsp

import "fmt"

type frameOutput struct {
	out    []int16
	stride int
	dupe   bool
}

func checkRange(in []byte, first int, last int) error {
	if len(in) < FrameBytes {
		return ErrShortFrame
	}

	if first < 0 || first > last || last > SamplesPerFrame {
		return fmt.Errorf("%w: [%d, %d)", ErrCodecRange, first, last)
	}

	return nil
}

func decodeFrame(output *frameOutput, in []byte, coefs *Coefs, state *State, first int, last int) int {
	var cIdx = (in[0] >> 4) & 0x7
	var factor1 = int64(coefs[cIdx][0])
	var factor2 = int64(coefs[cIdx][1])
	var exp = in[0] & 0xf

	var written = 0

	for s := first; s < last; s++ {
		var nibble byte

		if s&1 != 0 {
			nibble = in[s/2+1] & 0xf
		} else {
			nibble = in[s/2+1] >> 4
		}

		var sampleData = int64(nibbleToInt[nibble]) << exp
		sampleData <<= 11
		sampleData += 1024
		sampleData += factor1*int64(state.Prev1) + factor2*int64(state.Prev2)
		sampleData >>= 11

		var sample = sampClamp(sampleData)

		if output != nil {
			var pos = written * output.stride
			output.out[pos] = sample

			if output.dupe {
				output.out[pos+1] = sample
			}
		}

		state.Prev2 = state.Prev1
		state.Prev1 = sample
		written++
	}

	return written
}

func checkOutput(out []int16, count int, stride int) error {
	if len(out) < count*stride {
		return fmt.Errorf("dsp: output holds %d samples, need %d", len(out), count*stride)
	}

	return nil
}

// DecompressFrame decodes the first lastSample samples of one frame into out.
func DecompressFrame(out []int16, in []byte, coefs *Coefs, state *State, lastSample int) (int, error) {
	return DecompressFrameRanged(out, in, coefs, state, 0, lastSample)
}

// DecompressFrameStereoStride writes every decoded sample to out[2*i],
// leaving the other channel's slots alone.
func DecompressFrameStereoStride(out []int16, in []byte, coefs *Coefs, state *State, lastSample int) (int, error) {
	if err := checkRange(in, 0, lastSample); err != nil {
		return 0, err
	}

	if err := checkOutput(out, lastSample, 2); err != nil {
		return 0, err
	}

	return decodeFrame(&frameOutput{out, 2, false}, in, coefs, state, 0, lastSample), nil
}

// DecompressFrameStereoDupe writes every decoded sample to both channels.
func DecompressFrameStereoDupe(out []int16, in []byte, coefs *Coefs, state *State, lastSample int) (int, error) {
	if err := checkRange(in, 0, lastSample); err != nil {
		return 0, err
	}

	if err := checkOutput(out, lastSample, 2); err != nil {
		return 0, err
	}

	return decodeFrame(&frameOutput{out, 2, true}, in, coefs, state, 0, lastSample), nil
}

// DecompressFrameRanged decodes samples [first, last) of a frame. state must
// already hold the history of sample first-1, which is what the previous
// ranged call or a state-only call over the prefix leaves behind.
func DecompressFrameRanged(out []int16, in []byte, coefs *Coefs, state *State, first int, last int) (int, error) {
	if err := checkRange(in, first, last); err != nil {
		return 0, err
	}

	if err := checkOutput(out, last-first, 1); err != nil {
		return 0, err
	}

	return decodeFrame(&frameOutput{out, 1, false}, in, coefs, state, first, last), nil
}

func DecompressFrameStateOnly(in []byte, coefs *Coefs, state *State, lastSample int) (int, error) {
	return DecompressFrameRangedStateOnly(in, coefs, state, 0, lastSample)
}

func DecompressFrameRangedStateOnly(in []byte, coefs *Coefs, state *State, first int, last int) (int, error) {
	if err := checkRange(in, first, last); err != nil {
		return 0, err
	}

	return decodeFrame(nil, in, coefs, state, first, last), nil
}

// DecodeSamples decodes sampleCount samples from consecutive frames starting
// at the given state.
func DecodeSamples(data []byte, coefs *Coefs, state State, sampleCount int) ([]int16, error) {
	var result = make([]int16, sampleCount)
	var produced = 0

	for frame := 0; produced < sampleCount; frame++ {
		var offset = frame * FrameBytes

		if offset+FrameBytes > len(data) {
			return result[:produced], fmt.Errorf("frame %d: %w", frame, ErrShortFrame)
		}

		var count = min(SamplesPerFrame, sampleCount-produced)

		n, err := DecompressFrame(result[produced:], data[offset:offset+FrameBytes], coefs, &state, count)

		if err != nil {
			return result[:produced], err
		}

		produced += n
	}

	return result, nil
}
