package wav

import "errors"

const (
	FORMAT_PCM = 1
)

const RIFF_HEADER = 0x52494646
const FORMAT_HEADER = 0x666d7420
const DATA_HEADER = 0x64617461
const WAVE_FORMAT = 0x57415645

var ErrInvalidWave = errors.New("wav: invalid file")
var ErrUnsupportedFormat = errors.New("wav: only 16 bit pcm is supported")

type WaveHeader struct {
	Format        uint16
	NChannels     uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

type Wave struct {
	Header WaveHeader
	Data   []byte
}

// NewMono16 wraps signed 16 bit mono samples.
func NewMono16(samples []int16, sampleRate uint32) *Wave {
	var data = make([]byte, len(samples)*2)

	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(uint16(sample) >> 8)
	}

	return &Wave{
		Header: WaveHeader{
			Format:        FORMAT_PCM,
			NChannels:     1,
			SampleRate:    sampleRate,
			ByteRate:      sampleRate * 2,
			BlockAlign:    2,
			BitsPerSample: 16,
		},
		Data: data,
	}
}

// Mono16 returns the first channel of a 16 bit pcm wave.
func (wave *Wave) Mono16() ([]int16, error) {
	if wave.Header.Format != FORMAT_PCM || wave.Header.BitsPerSample != 16 || wave.Header.NChannels == 0 {
		return nil, ErrUnsupportedFormat
	}

	var stride = int(wave.Header.NChannels) * 2
	var result = make([]int16, len(wave.Data)/stride)

	for i := range result {
		result[i] = int16(uint16(wave.Data[i*stride]) | uint16(wave.Data[i*stride+1])<<8)
	}

	return result, nil
}
