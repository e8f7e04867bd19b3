package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lambertjamesd/musyxconv/aiff"
	"github.com/lambertjamesd/musyxconv/decode"
	"github.com/lambertjamesd/musyxconv/dsp"
	"github.com/lambertjamesd/musyxconv/surround"
	"github.com/lambertjamesd/musyxconv/wav"
)

func runDsp2Wav(opts *options, inputs []string, out io.Writer) error {
	var input = inputs[0]
	var output = inputs[1]

	data, err := os.ReadFile(input)

	if err != nil {
		return err
	}

	file, err := dsp.ParseFile(data)

	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	samples, err := file.Decode()

	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	var encoded bytes.Buffer

	if isAiffFile(output) {
		var loop *aiff.SampleLoop

		if file.Loop {
			loop = &aiff.SampleLoop{Start: uint32(file.LoopStart), End: uint32(file.LoopEnd + 1)}
		}

		err = aiff.NewMono16(samples, file.SampleRate, loop).Serialize(&encoded)
	} else {
		err = wav.NewMono16(samples, file.SampleRate).Serialize(&encoded)
	}

	if err != nil {
		return err
	}

	if err = os.WriteFile(output, encoded.Bytes(), 0664); err != nil {
		return err
	}

	var r report
	r.title("%s", output)
	r.field("Samples", fmt.Sprintf("%d", len(samples)))
	r.field("Sample rate", fmt.Sprintf("%d", file.SampleRate))

	if file.Loop {
		r.field("Loop", fmt.Sprintf("%d-%d", file.LoopStart, file.LoopEnd))
	}

	return r.writeTo(out)
}

func isAiffFile(path string) bool {
	var ext = strings.ToLower(filepath.Ext(path))
	return ext == ".aif" || ext == ".aiff"
}

func runWav2Dsp(opts *options, inputs []string, out io.Writer) error {
	var input = inputs[0]
	var output = inputs[1]

	source, err := decode.File(input)

	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	file, err := dsp.NewFile(source.Samples, source.SampleRate)

	if err != nil {
		return err
	}

	if source.Loop != nil && source.Loop.End <= file.SampleCount {
		if err = file.SetLoop(source.Loop.Start, source.Loop.End-1); err != nil {
			return err
		}
	}

	if err = os.WriteFile(output, file.Bytes(), 0664); err != nil {
		return err
	}

	var r report
	r.title("%s", output)
	r.field("Samples", fmt.Sprintf("%d", file.SampleCount))
	r.field("Frames", fmt.Sprintf("%d", dsp.FrameCount(file.SampleCount)))

	if file.Loop {
		r.field("Loop", fmt.Sprintf("%d-%d", file.LoopStart, file.LoopEnd))
	}

	if source.Channels > 1 {
		r.field("Note", fmt.Sprintf("kept the first of %d channels", source.Channels))
	}

	return r.writeTo(out)
}

// runPan prints the speaker gains of an emitter at x y z for a listener at
// the origin facing +y with +z up.
func runPan(opts *options, inputs []string, out io.Writer) error {
	var coords [3]float32

	for i, input := range inputs[:3] {
		value, err := strconv.ParseFloat(input, 32)

		if err != nil {
			return fmt.Errorf("coordinate %q: %w", input, err)
		}

		coords[i] = float32(value)
	}

	var emitter = surround.Vector3{X: coords[0], Y: coords[1], Z: coords[2]}
	var chanMap = surround.DefaultChannelMap(opts.layout)
	var gains = surround.SetupMatrixWithMap(emitter, surround.Vector3{}, surround.Vector3{Y: 1}, surround.Vector3{Z: 1}, opts.layout, chanMap)

	var r report
	r.title("Emitter %g %g %g", coords[0], coords[1], coords[2])

	for slot := 0; slot < chanMap.Count; slot++ {
		r.field(chanMap.Channels[slot].String(), fmt.Sprintf("%.3f", gains[slot]))
	}

	return r.writeTo(out)
}
