package dsp

import (
	"fmt"
	"math"
)

func clamp16(v int32) int32 {
	if v >= 32767 {
		return 32767
	}
	if v <= -32768 {
		return -32768
	}
	return v
}

func iabs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

// EncodeFrame compresses up to 14 samples. pcmInOut[0] and pcmInOut[1] hold
// the two previously reconstructed samples (prev2, prev1); pcmInOut[2:] holds
// the input. On return pcmInOut[2:] holds what a decoder will reconstruct,
// so the last two entries seed the next frame.
func EncodeFrame(pcmInOut *[16]int16, sampleCount int, coefs *Coefs) ([FrameBytes]byte, error) {
	var result [FrameBytes]byte

	if sampleCount < 0 || sampleCount > SamplesPerFrame {
		return result, fmt.Errorf("%w: %d samples", ErrCodecRange, sampleCount)
	}

	var inSamples [8][16]int32
	var outSamples [8][14]int32
	var scale [8]int32
	var distAccum [8]float64

	for i := 0; i < 8; i++ {
		var c0 = int32(coefs[i][0])
		var c1 = int32(coefs[i][1])

		inSamples[i][0] = int32(pcmInOut[0])
		inSamples[i][1] = int32(pcmInOut[1])

		// Largest prediction error with unquantised history picks the
		// starting scale.
		var distance int32 = 0
		for s := 0; s < sampleCount; s++ {
			var v1 = (int32(pcmInOut[s])*c1 + int32(pcmInOut[s+1])*c0) / 2048
			inSamples[i][s+2] = v1
			var v3 = clamp16(int32(pcmInOut[s+2]) - v1)

			if iabs(v3) > iabs(distance) {
				distance = v3
			}
		}

		for scale[i] = 0; scale[i] <= 12 && (distance > 7 || distance < -8); scale[i]++ {
			distance /= 2
		}

		if scale[i] <= 1 {
			scale[i] = -1
		} else {
			scale[i] -= 2
		}

		for {
			scale[i]++
			distAccum[i] = 0
			var index int32 = 0

			for s := 0; s < sampleCount; s++ {
				var v1 = inSamples[i][s]*c1 + inSamples[i][s+1]*c0
				var v2 = (int32(pcmInOut[s+2]) << 11) - v1
				var v3 int32

				var scaled = float64(v2) / float64(int32(1)<<scale[i]) / 2048

				if v2 > 0 {
					v3 = int32(scaled + 0.4999999)
				} else {
					v3 = int32(scaled - 0.4999999)
				}

				if v3 < -8 {
					if index < -8-v3 {
						index = -8 - v3
					}
					v3 = -8
				} else if v3 > 7 {
					if index < v3-7 {
						index = v3 - 7
					}
					v3 = 7
				}

				outSamples[i][s] = v3

				v1 = (v1 + ((v3 * (int32(1) << scale[i])) << 11) + 1024) >> 11
				v2 = clamp16(v1)
				inSamples[i][s+2] = v2

				var diff = float64(int32(pcmInOut[s+2]) - v2)
				distAccum[i] += diff * diff
			}

			for x := index + 8; x > 256; x >>= 1 {
				scale[i]++
				if scale[i] >= 12 {
					scale[i] = 11
				}
			}

			if scale[i] >= 12 || index <= 1 {
				break
			}
		}
	}

	var bestIndex = 0
	var minDist = math.MaxFloat64

	for i := 0; i < 8; i++ {
		if distAccum[i] < minDist {
			minDist = distAccum[i]
			bestIndex = i
		}
	}

	for s := 0; s < sampleCount; s++ {
		pcmInOut[s+2] = int16(inSamples[bestIndex][s+2])
	}

	result[0] = byte(bestIndex<<4) | byte(scale[bestIndex]&0xf)

	for s := sampleCount; s < SamplesPerFrame; s++ {
		outSamples[bestIndex][s] = 0
	}

	for y := 0; y < 7; y++ {
		result[y+1] = byte(outSamples[bestIndex][y*2]<<4) | byte(outSamples[bestIndex][y*2+1]&0xf)
	}

	return result, nil
}

// EncodeSamples compresses a whole sample starting from silent history and
// returns the frame data and the state after the last frame.
func EncodeSamples(pcm []int16, coefs *Coefs) ([]byte, State, error) {
	var result = make([]byte, 0, FrameCount(len(pcm))*FrameBytes)
	var convSamps [16]int16

	for offset := 0; offset < len(pcm); offset += SamplesPerFrame {
		var count = min(SamplesPerFrame, len(pcm)-offset)

		for i := 0; i < SamplesPerFrame; i++ {
			if i < count {
				convSamps[i+2] = pcm[offset+i]
			} else {
				convSamps[i+2] = 0
			}
		}

		frame, err := EncodeFrame(&convSamps, count, coefs)

		if err != nil {
			return nil, State{}, err
		}

		result = append(result, frame[:]...)

		convSamps[0] = convSamps[count]
		convSamps[1] = convSamps[count+1]
	}

	return result, State{Prev1: convSamps[1], Prev2: convSamps[0]}, nil
}
