package dsp

import (
	"errors"
	"fmt"
	"io"
)

var ErrSeekRange = errors.New("dsp: seek past end of sample")

// Stream decodes a mono DSP sample from an arbitrary sample position. DSP
// frames depend on the history left by every frame before them, so a seek
// replays frames state-only from the closest known state: the current frame
// when moving forward, frame 0 when moving backward.
type Stream struct {
	data        []byte
	coefs       Coefs
	initial     State
	sampleCount int

	state State
	// frame whose first sample state currently precedes
	frame int
	// position inside frame
	offset int
}

func NewStream(data []byte, coefs Coefs, initial State, sampleCount int) *Stream {
	var maxSamples = len(data) / FrameBytes * SamplesPerFrame

	if sampleCount > maxSamples {
		sampleCount = maxSamples
	}

	return &Stream{
		data:        data,
		coefs:       coefs,
		initial:     initial,
		sampleCount: sampleCount,
		state:       initial,
	}
}

func (stream *Stream) SampleCount() int {
	return stream.sampleCount
}

func (stream *Stream) Position() int {
	return stream.frame*SamplesPerFrame + stream.offset
}

func (stream *Stream) State() State {
	return stream.state
}

func (stream *Stream) frameData(frame int) []byte {
	return stream.data[frame*FrameBytes : (frame+1)*FrameBytes]
}

// Seek moves to sample position pos.
func (stream *Stream) Seek(pos int) error {
	if pos < 0 || pos > stream.sampleCount {
		return fmt.Errorf("%w: %d of %d", ErrSeekRange, pos, stream.sampleCount)
	}

	if pos < stream.Position() {
		stream.state = stream.initial
		stream.frame = 0
		stream.offset = 0
	}

	var targetFrame = pos / SamplesPerFrame
	var targetOffset = pos % SamplesPerFrame

	for stream.frame < targetFrame {
		_, err := DecompressFrameRangedStateOnly(stream.frameData(stream.frame), &stream.coefs, &stream.state, stream.offset, SamplesPerFrame)

		if err != nil {
			return err
		}

		stream.frame++
		stream.offset = 0
	}

	if targetOffset > stream.offset {
		_, err := DecompressFrameRangedStateOnly(stream.frameData(stream.frame), &stream.coefs, &stream.state, stream.offset, targetOffset)

		if err != nil {
			return err
		}

		stream.offset = targetOffset
	}

	return nil
}

// Read decodes into out and returns io.EOF once the sample is exhausted.
func (stream *Stream) Read(out []int16) (int, error) {
	var produced = 0

	for produced < len(out) {
		var remaining = stream.sampleCount - stream.Position()

		if remaining <= 0 {
			break
		}

		var last = min(SamplesPerFrame, stream.offset+remaining, stream.offset+len(out)-produced)

		n, err := DecompressFrameRanged(out[produced:], stream.frameData(stream.frame), &stream.coefs, &stream.state, stream.offset, last)

		if err != nil {
			return produced, err
		}

		produced += n
		stream.offset = last

		if stream.offset == SamplesPerFrame {
			stream.frame++
			stream.offset = 0
		}
	}

	if produced == 0 && len(out) > 0 {
		return 0, io.EOF
	}

	return produced, nil
}
