// Package decode reads source audio for sample encoding. Every format is
// reduced to the first channel as signed 16 bit samples.
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"

	"github.com/lambertjamesd/musyxconv/aiff"
	"github.com/lambertjamesd/musyxconv/wav"
)

var ErrUnknownFormat = errors.New("decode: unsupported audio file")

// Loop is a sustain loop in samples, end exclusive.
type Loop struct {
	Start int
	End   int
}

type PCM struct {
	Samples    []int16
	SampleRate uint32
	// Channels is the channel count of the source before reduction.
	Channels int
	Loop     *Loop
}

type decoder func(reader io.ReadSeeker) (*PCM, error)

var decoders = map[string]decoder{
	".wav":  decodeWav,
	".aif":  decodeAiff,
	".aiff": decodeAiff,
	".mp3":  decodeMp3,
	".flac": decodeFlac,
}

// Supported reports whether File can read path.
func Supported(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

func File(path string) (*PCM, error) {
	var decode, ok = decoders[strings.ToLower(filepath.Ext(path))]

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	reader, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer reader.Close()

	return decode(reader)
}

func decodeWav(reader io.ReadSeeker) (*PCM, error) {
	wave, err := wav.Parse(reader)

	if err != nil {
		return nil, err
	}

	samples, err := wave.Mono16()

	if err != nil {
		return nil, err
	}

	return &PCM{samples, wave.Header.SampleRate, int(wave.Header.NChannels), nil}, nil
}

func decodeAiff(reader io.ReadSeeker) (*PCM, error) {
	sound, err := aiff.Parse(reader)

	if err != nil {
		return nil, err
	}

	samples, err := sound.Mono16()

	if err != nil {
		return nil, err
	}

	var result = &PCM{samples, sound.SampleRate(), int(sound.Common.NumChannels), nil}

	if loop := sound.SustainLoop(); loop != nil {
		result.Loop = &Loop{int(loop.Start), int(loop.End)}
	}

	return result, nil
}

// mp3 output is always interleaved 16 bit little endian stereo.
const mp3Channels = 2

func decodeMp3(reader io.ReadSeeker) (*PCM, error) {
	decoder, err := mp3.NewDecoder(reader)

	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	data, err := io.ReadAll(decoder)

	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}

	var stride = mp3Channels * 2
	var samples = make([]int16, len(data)/stride)

	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*stride:]))
	}

	return &PCM{samples, uint32(decoder.SampleRate()), mp3Channels, nil}, nil
}

func decodeFlac(reader io.ReadSeeker) (*PCM, error) {
	stream, err := flac.New(reader)

	if err != nil {
		return nil, fmt.Errorf("flac: %w", err)
	}

	defer stream.Close()

	var info = stream.Info
	var shift = int(info.BitsPerSample) - 16
	var samples []int16 = nil

	for {
		frame, err := stream.ParseNext()

		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("flac: %w", err)
		}

		for _, sample := range frame.Subframes[0].Samples[:frame.BlockSize] {
			if shift > 0 {
				sample >>= shift
			} else {
				sample <<= -shift
			}

			samples = append(samples, int16(sample))
		}
	}

	return &PCM{samples, info.SampleRate, int(info.NChannels), nil}, nil
}
