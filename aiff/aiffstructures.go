package aiff

import (
	"errors"
	"math"
)

const FORM_HEADER = 0x464F524D

const AIFC = 0x41494643
const AIFF = 0x41494646

const COMM = 0x434F4D4D
const INST = 0x494E5354
const SSND = 0x53534E44
const MARK = 0x4D41524B

const (
	NoLooping      = 0
	ForwardLooping = 1
)

const (
	loopStartMarker = 1
	loopEndMarker   = 2
)

var ErrInvalidAiff = errors.New("aiff: invalid file")
var ErrUnsupportedFormat = errors.New("aiff: only uncompressed 16 bit pcm is supported")

// Sign * 1.Mantissa * pow(2, Exponent - 0x3FFF)
type ExtendedFloat struct {
	Sign     bool
	Exponent uint16
	Mantissa uint64
}

type CommonChunk struct {
	NumChannels     int16
	NumSampleFrames int32
	SampleSize      int16
	SampleRate      ExtendedFloat
	CompressionType uint32
	CompressionName string
}

type Marker struct {
	ID       uint16
	Position uint32
	Name     string
}

type MarkerChunk struct {
	Markers []Marker
}

type Loop struct {
	PlayMode  int16
	BeginLoop uint16
	EndLoop   uint16
}

type InstrumentChunk struct {
	BaseNote     uint8
	Detune       uint8
	LowNote      uint8
	HighNote     uint8
	LowVelocity  uint8
	HighVelocity uint8
	Gain         int16
	SustainLoop  Loop
	ReleaseLoop  Loop
}

type SoundDataChunk struct {
	Offset       uint32
	BlockSize    uint32
	WaveformData []byte
}

type Aiff struct {
	Compressed bool
	Common     *CommonChunk
	SoundData  *SoundDataChunk
	Markers    *MarkerChunk
	Instrument *InstrumentChunk
}

func (markers *MarkerChunk) FindMarker(id uint16) *Marker {
	for i := range markers.Markers {
		if markers.Markers[i].ID == id {
			return &markers.Markers[i]
		}
	}

	return nil
}

func ExtendedFromF64(val float64) ExtendedFloat {
	if val == 0 {
		return ExtendedFloat{}
	}

	var asInt = math.Float64bits(val)

	var sign = asInt & 0x8000000000000000
	var exponent = (asInt ^ sign) >> 52
	var mantissa = asInt & 0xFFFFFFFFFFFFF

	exponent = exponent + 0x3FFF - 1023

	mantissa = 0x8000000000000000 | (mantissa << (63 - 52))

	return ExtendedFloat{
		sign != 0,
		uint16(exponent),
		mantissa,
	}
}

func F64FromExtended(val ExtendedFloat) float64 {
	if val.Exponent == 0 && val.Mantissa == 0 {
		return 0
	}

	var sign float64 = 1

	if val.Sign {
		sign = -1
	}

	var mant = float64(val.Mantissa) / math.Pow(2, 63)

	return sign * mant * math.Pow(2, float64(val.Exponent)-0x3FFF)
}

// SampleLoop is a sustain loop in sample frames, end exclusive.
type SampleLoop struct {
	Start uint32
	End   uint32
}

// NewMono16 builds an uncompressed AIFF around mono samples. loop may be nil.
func NewMono16(samples []int16, sampleRate uint32, loop *SampleLoop) *Aiff {
	var data = make([]byte, len(samples)*2)

	for i, sample := range samples {
		data[i*2] = byte(uint16(sample) >> 8)
		data[i*2+1] = byte(sample)
	}

	var result = &Aiff{
		Common: &CommonChunk{
			NumChannels:     1,
			NumSampleFrames: int32(len(samples)),
			SampleSize:      16,
			SampleRate:      ExtendedFromF64(float64(sampleRate)),
		},
		SoundData: &SoundDataChunk{WaveformData: data},
	}

	if loop != nil {
		result.Markers = &MarkerChunk{Markers: []Marker{
			{ID: loopStartMarker, Position: loop.Start, Name: "start"},
			{ID: loopEndMarker, Position: loop.End, Name: "end"},
		}}
		result.Instrument = &InstrumentChunk{
			BaseNote:     60,
			HighNote:     127,
			HighVelocity: 127,
			SustainLoop:  Loop{ForwardLooping, loopStartMarker, loopEndMarker},
		}
	}

	return result
}

func (aiff *Aiff) SampleRate() uint32 {
	if aiff.Common == nil {
		return 0
	}

	return uint32(math.Round(F64FromExtended(aiff.Common.SampleRate)))
}

// Mono16 returns the first channel of uncompressed 16 bit audio.
func (aiff *Aiff) Mono16() ([]int16, error) {
	if aiff.Compressed || aiff.Common == nil || aiff.SoundData == nil ||
		aiff.Common.SampleSize != 16 || aiff.Common.NumChannels <= 0 {
		return nil, ErrUnsupportedFormat
	}

	var stride = int(aiff.Common.NumChannels) * 2
	var data = aiff.SoundData.WaveformData
	var count = min(int(aiff.Common.NumSampleFrames), len(data)/stride)
	var result = make([]int16, max(count, 0))

	for i := range result {
		result[i] = int16(uint16(data[i*stride])<<8 | uint16(data[i*stride+1]))
	}

	return result, nil
}

// SustainLoop resolves the instrument sustain loop through the markers.
func (aiff *Aiff) SustainLoop() *SampleLoop {
	if aiff.Instrument == nil || aiff.Markers == nil || aiff.Instrument.SustainLoop.PlayMode == NoLooping {
		return nil
	}

	var start = aiff.Markers.FindMarker(aiff.Instrument.SustainLoop.BeginLoop)
	var end = aiff.Markers.FindMarker(aiff.Instrument.SustainLoop.EndLoop)

	if start == nil || end == nil || end.Position <= start.Position {
		return nil
	}

	return &SampleLoop{start.Position, end.Position}
}
