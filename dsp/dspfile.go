package dsp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const FileHeaderBytes = 0x60

var ErrInvalidFile = errors.New("dsp: invalid file header")

// File is a standalone mono sample in the 96 byte big endian header layout
// the GameCube SDK tools write. Loop points are in samples.
type File struct {
	SampleCount int
	SampleRate  uint32
	Loop        bool
	LoopStart   int
	LoopEnd     int
	Coefs       Coefs
	Gain        uint16
	Initial     State
	LoopState   State
	LoopHeader  uint16
	Data        []byte
}

func sampleToNibble(sample int) uint32 {
	return uint32(sample/SamplesPerFrame*16 + sample%SamplesPerFrame + 2)
}

func nibbleToSample(nibble uint32) int {
	var frame = int(nibble / 16)
	var offset = int(nibble%16) - 2

	if offset < 0 {
		offset = 0
	}

	return frame*SamplesPerFrame + offset
}

func nibbleCount(sampleCount int) uint32 {
	var frames = sampleCount / SamplesPerFrame
	var rest = sampleCount % SamplesPerFrame
	var result = uint32(frames * 16)

	if rest != 0 {
		result += uint32(rest + 2)
	}

	return result
}

func ParseFile(data []byte) (*File, error) {
	if len(data) < FileHeaderBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidFile, len(data))
	}

	var be = binary.BigEndian
	var result File

	result.SampleCount = int(be.Uint32(data[0:]))
	result.SampleRate = be.Uint32(data[8:])
	result.Loop = be.Uint16(data[12:]) != 0

	if format := be.Uint16(data[14:]); format != 0 {
		return nil, fmt.Errorf("%w: format %d", ErrInvalidFile, format)
	}

	result.LoopStart = nibbleToSample(be.Uint32(data[16:]))
	result.LoopEnd = nibbleToSample(be.Uint32(data[20:]))

	for i := 0; i < 16; i++ {
		result.Coefs[i/2][i%2] = int16(be.Uint16(data[28+i*2:]))
	}

	result.Gain = be.Uint16(data[60:])
	result.Initial = State{Prev1: int16(be.Uint16(data[64:])), Prev2: int16(be.Uint16(data[66:]))}
	result.LoopHeader = be.Uint16(data[68:])
	result.LoopState = State{Prev1: int16(be.Uint16(data[70:])), Prev2: int16(be.Uint16(data[72:]))}

	var frameData = FrameCount(result.SampleCount) * FrameBytes

	if len(data)-FileHeaderBytes < frameData {
		return nil, fmt.Errorf("%w: %d samples need %d bytes of frames, have %d",
			ErrInvalidFile, result.SampleCount, frameData, len(data)-FileHeaderBytes)
	}

	result.Data = data[FileHeaderBytes : FileHeaderBytes+frameData]

	return &result, nil
}

// NewFile encodes pcm with freshly correlated coefficients.
func NewFile(pcm []int16, sampleRate uint32) (*File, error) {
	var coefs = CorrelateCoefs(pcm)

	data, _, err := EncodeSamples(pcm, &coefs)

	if err != nil {
		return nil, err
	}

	return &File{
		SampleCount: len(pcm),
		SampleRate:  sampleRate,
		LoopEnd:     max(len(pcm)-1, 0),
		Coefs:       coefs,
		Data:        data,
	}, nil
}

// SetLoop loops the inclusive sample range [start, end] and records the
// decoder history and frame header at start.
func (file *File) SetLoop(start int, end int) error {
	if start < 0 || end < start || end >= file.SampleCount {
		return fmt.Errorf("%w: loop %d-%d of %d samples", ErrSeekRange, start, end, file.SampleCount)
	}

	var stream = file.Stream()

	if err := stream.Seek(start); err != nil {
		return err
	}

	file.Loop = true
	file.LoopStart = start
	file.LoopEnd = end
	file.LoopState = stream.State()
	file.LoopHeader = uint16(file.Data[start/SamplesPerFrame*FrameBytes])

	return nil
}

func (file *File) Bytes() []byte {
	var be = binary.BigEndian
	var result = make([]byte, FileHeaderBytes, FileHeaderBytes+len(file.Data))

	be.PutUint32(result[0:], uint32(file.SampleCount))
	be.PutUint32(result[4:], nibbleCount(file.SampleCount))
	be.PutUint32(result[8:], file.SampleRate)

	if file.Loop {
		be.PutUint16(result[12:], 1)
	}

	be.PutUint32(result[16:], sampleToNibble(file.LoopStart))
	be.PutUint32(result[20:], sampleToNibble(file.LoopEnd))
	be.PutUint32(result[24:], 2)

	for i := 0; i < 16; i++ {
		be.PutUint16(result[28+i*2:], uint16(file.Coefs[i/2][i%2]))
	}

	be.PutUint16(result[60:], file.Gain)

	if len(file.Data) > 0 {
		be.PutUint16(result[62:], uint16(file.Data[0]))
	}

	be.PutUint16(result[64:], uint16(file.Initial.Prev1))
	be.PutUint16(result[66:], uint16(file.Initial.Prev2))
	be.PutUint16(result[68:], file.LoopHeader)
	be.PutUint16(result[70:], uint16(file.LoopState.Prev1))
	be.PutUint16(result[72:], uint16(file.LoopState.Prev2))

	return append(result, file.Data...)
}

func (file *File) Decode() ([]int16, error) {
	return DecodeSamples(file.Data, &file.Coefs, file.Initial, file.SampleCount)
}

func (file *File) Stream() *Stream {
	return NewStream(file.Data, file.Coefs, file.Initial, file.SampleCount)
}
