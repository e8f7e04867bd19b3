package dsp

import "math"

// Order-2 linear prediction helpers. A tvec is indexed 0..2 with index 0
// holding the normalising term.
type tvec [3]float64

const correlateBlockSamples = 0x3800

func clampReflection(v float64) float64 {
	if v >= 1.0 {
		return 0.9999999999
	}
	if v <= -1.0 {
		return -0.9999999999
	}
	return v
}

// Autocorrelation of the current 14-sample frame against lags 0..2; the
// history slice carries the previous frame in front of it.
func innerProductMerge(hist []int16) tvec {
	var out tvec

	for i := 0; i <= 2; i++ {
		for x := 0; x < SamplesPerFrame; x++ {
			out[i] -= float64(hist[SamplesPerFrame+x-i]) * float64(hist[SamplesPerFrame+x])
		}
	}

	return out
}

func outerProductMerge(hist []int16) [3]tvec {
	var mtx [3]tvec

	for x := 1; x <= 2; x++ {
		for y := 1; y <= 2; y++ {
			for z := 0; z < SamplesPerFrame; z++ {
				mtx[x][y] += float64(hist[SamplesPerFrame+z-x]) * float64(hist[SamplesPerFrame+z-y])
			}
		}
	}

	return mtx
}

// luDecomp factors mtx in place and reports whether it is singular.
func luDecomp(mtx *[3]tvec, indx *[3]int) bool {
	var recips [3]float64

	for x := 1; x <= 2; x++ {
		var val = math.Max(math.Abs(mtx[x][1]), math.Abs(mtx[x][2]))

		if val < 2.220446049250313e-16 {
			return true
		}

		recips[x] = 1.0 / val
	}

	var maxIndex = 0

	for i := 1; i <= 2; i++ {
		for x := 1; x < i; x++ {
			var tmp = mtx[x][i]
			for y := 1; y < x; y++ {
				tmp -= mtx[x][y] * mtx[y][i]
			}
			mtx[x][i] = tmp
		}

		var val = 0.0

		for x := i; x <= 2; x++ {
			var tmp = mtx[x][i]
			for y := 1; y < i; y++ {
				tmp -= mtx[x][y] * mtx[y][i]
			}
			mtx[x][i] = tmp

			tmp = math.Abs(tmp) * recips[x]
			if tmp >= val {
				val = tmp
				maxIndex = x
			}
		}

		if maxIndex != i {
			for y := 1; y <= 2; y++ {
				mtx[maxIndex][y], mtx[i][y] = mtx[i][y], mtx[maxIndex][y]
			}
			recips[maxIndex] = recips[i]
		}

		indx[i] = maxIndex

		if mtx[i][i] == 0.0 {
			return true
		}

		if i != 2 {
			var tmp = 1.0 / mtx[i][i]
			for x := i + 1; x <= 2; x++ {
				mtx[x][i] *= tmp
			}
		}
	}

	var min = 1.0e10
	var max = 0.0

	for i := 1; i <= 2; i++ {
		var tmp = math.Abs(mtx[i][i])
		if tmp < min {
			min = tmp
		}
		if tmp > max {
			max = tmp
		}
	}

	return min/max < 1.0e-10
}

func luDecompBackSub(mtx *[3]tvec, indx *[3]int, vec *tvec) {
	var x = 0

	for i := 1; i <= 2; i++ {
		var index = indx[i]
		var tmp = vec[index]
		vec[index] = vec[i]

		if x != 0 {
			for y := x; y <= i-1; y++ {
				tmp -= vec[y] * mtx[i][y]
			}
		} else if tmp != 0.0 {
			x = i
		}

		vec[i] = tmp
	}

	for i := 2; i > 0; i-- {
		var tmp = vec[i]
		for y := i + 1; y <= 2; y++ {
			tmp -= vec[y] * mtx[i][y]
		}
		vec[i] = tmp / mtx[i][i]
	}

	vec[0] = 1.0
}

// kfroma converts predictor coefficients to reflection coefficients in
// place; it reports failure for an unstable filter.
func kfroma(vec *tvec) bool {
	var v2 = vec[2]
	var tmp = 1.0 - v2*v2

	if tmp == 0.0 {
		return true
	}

	var v0 = (vec[0] - v2*v2) / tmp
	var v1 = (vec[1] - vec[1]*v2) / tmp

	vec[0] = v0
	vec[1] = v1

	return math.Abs(v1) > 1.0
}

// afromk rebuilds predictor coefficients from reflection coefficients.
func afromk(in tvec) tvec {
	in[1] = clampReflection(in[1])
	in[2] = clampReflection(in[2])

	return tvec{1.0, in[2]*in[1] + in[1], in[2]}
}

// rfroma gives the autocorrelation implied by a predictor.
func rfroma(src tvec) tvec {
	var mtx [3]tvec

	mtx[2][0] = 1.0
	for i := 1; i <= 2; i++ {
		mtx[2][i] = -src[i]
	}

	for i := 2; i > 0; i-- {
		var div = 1.0 - mtx[i][i]*mtx[i][i]
		for y := 1; y <= i-1; y++ {
			mtx[i-1][y] = (mtx[i][i-y]*mtx[i][i] + mtx[i][y]) / div
		}
	}

	var dst tvec
	dst[0] = 1.0

	for i := 1; i <= 2; i++ {
		for y := 1; y <= i; y++ {
			dst[i] += mtx[i][y] * dst[i-y]
		}
	}

	return dst
}

// durbin solves for a predictor from an autocorrelation and returns it in
// stable, clamped form.
func durbin(src tvec) tvec {
	var dst tvec
	var reflection tvec
	var div = src[0]

	dst[0] = 1.0

	for i := 1; i <= 2; i++ {
		var sum = 0.0
		for y := 1; y < i; y++ {
			sum += dst[y] * src[i-y]
		}

		if div > 0.0 {
			dst[i] = -(sum + src[i]) / div
		} else {
			dst[i] = 0.0
		}

		reflection[i] = dst[i]

		for y := 1; y < i; y++ {
			dst[y] += dst[i] * dst[i-y]
		}

		div *= 1.0 - dst[i]*dst[i]
	}

	return afromk(reflection)
}

func modelDist(table tvec, record tvec) float64 {
	var val = (record[2]*record[1] - record[1]) / (1.0 - record[2]*record[2])
	var val1 = table[0]*table[0] + table[1]*table[1] + table[2]*table[2]
	var val2 = table[0]*table[1] + table[1]*table[2]
	var val3 = table[0] * table[2]

	return val1 + 2.0*val*val2 + 2.0*(-record[1]*val-record[2])*val3
}

func refine(table []tvec, records []tvec) {
	var counts = make([]int, len(table))
	var sums = make([]tvec, len(table))

	for iter := 0; iter < 2; iter++ {
		for i := range table {
			counts[i] = 0
			sums[i] = tvec{}
		}

		for _, record := range records {
			var bestIndex = 0
			var bestValue = 1.0e30

			for i := range table {
				var dist = modelDist(table[i], record)
				if dist < bestValue {
					bestValue = dist
					bestIndex = i
				}
			}

			counts[bestIndex]++
			var autocorr = rfroma(record)
			for j := 0; j <= 2; j++ {
				sums[bestIndex][j] += autocorr[j]
			}
		}

		for i := range table {
			if counts[i] > 0 {
				for j := 0; j <= 2; j++ {
					sums[i][j] /= float64(counts[i])
				}
			}
		}

		for i := range table {
			table[i] = durbin(sums[i])
		}
	}
}

func toCoef(v float64) int16 {
	var d = -v * 2048.0

	if d > 32767.0 {
		return 32767
	}
	if d < -32768.0 {
		return -32768
	}

	return int16(math.Round(d))
}

// CorrelateCoefs derives the eight predictor pairs best suited to pcm.
func CorrelateCoefs(pcm []int16) Coefs {
	var records []tvec
	var hist = make([]int16, SamplesPerFrame*2)
	var block = make([]int16, correlateBlockSamples+SamplesPerFrame)

	for remaining := pcm; len(remaining) > 0; {
		var blockSamples = min(len(remaining), correlateBlockSamples)

		copy(block, remaining[:blockSamples])
		for z := blockSamples; z < len(block); z++ {
			block[z] = 0
		}
		remaining = remaining[blockSamples:]

		for i := 0; i < blockSamples; i += SamplesPerFrame {
			copy(hist[:SamplesPerFrame], hist[SamplesPerFrame:])
			copy(hist[SamplesPerFrame:], block[i:i+SamplesPerFrame])

			var vec = innerProductMerge(hist)

			if math.Abs(vec[0]) <= 10.0 {
				continue
			}

			var mtx = outerProductMerge(hist)
			var indx [3]int

			if luDecomp(&mtx, &indx) {
				continue
			}

			luDecompBackSub(&mtx, &indx, &vec)

			if kfroma(&vec) {
				continue
			}

			records = append(records, afromk(vec))
		}
	}

	var average = tvec{1.0, 0.0, 0.0}

	if len(records) > 0 {
		for _, record := range records {
			var autocorr = rfroma(record)
			average[1] += autocorr[1]
			average[2] += autocorr[2]
		}

		average[1] /= float64(len(records))
		average[2] /= float64(len(records))
	}

	var table = make([]tvec, 8)
	table[0] = durbin(average)

	for count := 1; count < 8; count *= 2 {
		for i := 0; i < count; i++ {
			table[count+i] = table[i]
			table[count+i][1] -= 0.01
		}

		refine(table[:count*2], records)
	}

	var result Coefs

	for z := 0; z < 8; z++ {
		result[z][0] = toCoef(table[z][1])
		result[z][1] = toCoef(table[z][2])
	}

	return result
}
