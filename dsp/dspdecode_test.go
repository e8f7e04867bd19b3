package dsp

import (
	"errors"
	"math/rand"
	"testing"
)

var testCoefs = Coefs{
	{0, 0},
	{2048, 0},
	{0, 0},
	{3904, -1856},
	{1024, 1024},
	{-2048, 0},
	{4096, -2048},
	{1500, -700},
}

func randomFrames(rng *rand.Rand, count int) []byte {
	data := make([]byte, count*FrameBytes)
	rng.Read(data)

	for i := 0; i < count; i++ {
		data[i*FrameBytes] &= 0x7f
	}

	return data
}

func TestDecompressFrameKnownValues(t *testing.T) {
	// coef pair 1 (prev1 * 1.0), scale 0: each sample adds its nibble to
	// the previous one.
	frame := []byte{0x10, 0x12, 0x3F, 0x00, 0x00, 0x00, 0x00, 0x00}
	state := State{Prev1: 100, Prev2: 0}
	out := make([]int16, 14)

	n, err := DecompressFrame(out, frame, &testCoefs, &state, 14)
	if err != nil {
		t.Fatal(err)
	}
	if n != 14 {
		t.Fatalf("n = %d", n)
	}

	want := []int16{101, 103, 106, 105}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("out[%d] = %d, want %d", i, out[i], w)
		}
	}
	if state.Prev1 != 105 || state.Prev2 != 105 {
		t.Errorf("state = %+v", state)
	}
}

func TestDecompressFrameSaturates(t *testing.T) {
	// coef pair 4 sums both history samples; near full scale it must clamp.
	frame := []byte{0x4C, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77, 0x77}
	state := State{Prev1: 30000, Prev2: 30000}
	out := make([]int16, 14)

	if _, err := DecompressFrame(out, frame, &testCoefs, &state, 14); err != nil {
		t.Fatal(err)
	}

	for i, s := range out {
		if s != 32767 {
			t.Errorf("out[%d] = %d, want saturation at 32767", i, s)
		}
	}

	frame = []byte{0x4C, 0x88, 0x88, 0x88, 0x88, 0x88, 0x88, 0x88}
	state = State{Prev1: -30000, Prev2: -30000}

	if _, err := DecompressFrame(out, frame, &testCoefs, &state, 14); err != nil {
		t.Fatal(err)
	}

	for i, s := range out {
		if s != -32768 {
			t.Errorf("out[%d] = %d, want saturation at -32768", i, s)
		}
	}
}

func TestDecompressFrameRangeErrors(t *testing.T) {
	frame := make([]byte, FrameBytes)
	out := make([]int16, 14)
	state := State{}

	tests := []struct {
		name  string
		first int
		last  int
	}{
		{"first after last", 5, 4},
		{"last past frame", 0, 15},
		{"negative first", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecompressFrameRanged(out, frame, &testCoefs, &state, tt.first, tt.last)
			if !errors.Is(err, ErrCodecRange) {
				t.Errorf("err = %v, want ErrCodecRange", err)
			}
			_, err = DecompressFrameRangedStateOnly(frame, &testCoefs, &state, tt.first, tt.last)
			if !errors.Is(err, ErrCodecRange) {
				t.Errorf("state only err = %v, want ErrCodecRange", err)
			}
		})
	}

	if _, err := DecompressFrame(out, frame[:7], &testCoefs, &state, 14); !errors.Is(err, ErrShortFrame) {
		t.Errorf("short frame err = %v", err)
	}
}

func TestRangedDecodeMatchesFullFrame(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 50; trial++ {
		frame := randomFrames(rng, 1)
		start := State{Prev1: int16(rng.Intn(65536) - 32768), Prev2: int16(rng.Intn(65536) - 32768)}

		full := make([]int16, 14)
		fullState := start
		if _, err := DecompressFrame(full, frame, &testCoefs, &fullState, 14); err != nil {
			t.Fatal(err)
		}

		for k := 1; k <= 13; k++ {
			split := make([]int16, 14)
			state := start

			if _, err := DecompressFrameRanged(split[:k], frame, &testCoefs, &state, 0, k); err != nil {
				t.Fatal(err)
			}
			if _, err := DecompressFrameRanged(split[k:], frame, &testCoefs, &state, k, 14); err != nil {
				t.Fatal(err)
			}

			for i := range full {
				if full[i] != split[i] {
					t.Fatalf("trial %d k=%d: sample %d = %d, want %d", trial, k, i, split[i], full[i])
				}
			}
			if state != fullState {
				t.Fatalf("trial %d k=%d: state %+v, want %+v", trial, k, state, fullState)
			}
		}
	}
}

func TestStateOnlyMatchesFullDecode(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	frames := randomFrames(rng, 40)
	out := make([]int16, 14)

	full := State{Prev1: 12, Prev2: -7}
	stateOnly := full

	for i := 0; i < 40; i++ {
		frame := frames[i*FrameBytes : (i+1)*FrameBytes]

		if _, err := DecompressFrame(out, frame, &testCoefs, &full, 14); err != nil {
			t.Fatal(err)
		}
		if _, err := DecompressFrameStateOnly(frame, &testCoefs, &stateOnly, 14); err != nil {
			t.Fatal(err)
		}
	}

	if full != stateOnly {
		t.Errorf("state only = %+v, full = %+v", stateOnly, full)
	}
}

func TestStereoVariants(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	frame := randomFrames(rng, 1)

	mono := make([]int16, 14)
	monoState := State{}
	DecompressFrame(mono, frame, &testCoefs, &monoState, 14)

	stride := make([]int16, 28)
	for i := range stride {
		stride[i] = 777
	}
	strideState := State{}
	if _, err := DecompressFrameStereoStride(stride, frame, &testCoefs, &strideState, 14); err != nil {
		t.Fatal(err)
	}

	dupe := make([]int16, 28)
	dupeState := State{}
	if _, err := DecompressFrameStereoDupe(dupe, frame, &testCoefs, &dupeState, 14); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 14; i++ {
		if stride[i*2] != mono[i] || stride[i*2+1] != 777 {
			t.Errorf("stride pair %d = %d,%d", i, stride[i*2], stride[i*2+1])
		}
		if dupe[i*2] != mono[i] || dupe[i*2+1] != mono[i] {
			t.Errorf("dupe pair %d = %d,%d want %d", i, dupe[i*2], dupe[i*2+1], mono[i])
		}
	}

	if _, err := DecompressFrameStereoStride(make([]int16, 27), frame, &testCoefs, &strideState, 14); err == nil {
		t.Error("expected error for undersized stereo buffer")
	}
}

func TestPartialLastSample(t *testing.T) {
	frame := []byte{0x10, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11}
	out := make([]int16, 5)
	state := State{}

	n, err := DecompressFrame(out, frame, &testCoefs, &state, 5)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || state.Prev1 != 5 {
		t.Errorf("n = %d, state = %+v", n, state)
	}
}
