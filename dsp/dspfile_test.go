package dsp

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestNibbleAddresses(t *testing.T) {
	tests := []struct {
		sample int
		nibble uint32
	}{
		{0, 2},
		{13, 15},
		{14, 18},
		{100, 7*16 + 2 + 2},
	}

	for _, tt := range tests {
		if got := sampleToNibble(tt.sample); got != tt.nibble {
			t.Errorf("sampleToNibble(%d) = %d, want %d", tt.sample, got, tt.nibble)
		}
		if got := nibbleToSample(tt.nibble); got != tt.sample {
			t.Errorf("nibbleToSample(%d) = %d, want %d", tt.nibble, got, tt.sample)
		}
	}

	if nibbleCount(28) != 32 || nibbleCount(30) != 36 || nibbleCount(0) != 0 {
		t.Errorf("nibble counts %d %d %d", nibbleCount(28), nibbleCount(30), nibbleCount(0))
	}
}

func TestFileRoundTrip(t *testing.T) {
	var pcm = sineWave(14*30+5, 40, 9000)

	file, err := NewFile(pcm, 32000)
	if err != nil {
		t.Fatal(err)
	}
	if err := file.SetLoop(20, len(pcm)-1); err != nil {
		t.Fatal(err)
	}

	var encoded = file.Bytes()
	if len(encoded) != FileHeaderBytes+FrameCount(len(pcm))*FrameBytes {
		t.Fatalf("file is %d bytes", len(encoded))
	}
	if ps := binary.BigEndian.Uint16(encoded[62:]); ps != uint16(file.Data[0]) {
		t.Errorf("predictor/scale %04X, first frame header %02X", ps, file.Data[0])
	}

	parsed, err := ParseFile(encoded)
	if err != nil {
		t.Fatal(err)
	}

	if parsed.SampleCount != len(pcm) || parsed.SampleRate != 32000 || !parsed.Loop ||
		parsed.LoopStart != 20 || parsed.LoopEnd != len(pcm)-1 || parsed.Coefs != file.Coefs {
		t.Errorf("parsed header %+v", parsed)
	}

	want, err := file.Decode()
	if err != nil {
		t.Fatal(err)
	}

	if parsed.LoopHeader != uint16(file.Data[FrameBytes]) {
		t.Errorf("loop header %02X", parsed.LoopHeader)
	}

	// history before sample 20 is samples 19 and 18
	if parsed.LoopState != (State{Prev1: want[19], Prev2: want[18]}) {
		t.Errorf("loop state %+v, decoded %d %d", parsed.LoopState, want[19], want[18])
	}
	got, err := parsed.Decode()
	if err != nil {
		t.Fatal(err)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSetLoopRange(t *testing.T) {
	file, err := NewFile(sineWave(28, 10, 1000), 8000)
	if err != nil {
		t.Fatal(err)
	}

	for _, loop := range [][2]int{{-1, 5}, {10, 5}, {0, 28}} {
		if err := file.SetLoop(loop[0], loop[1]); !errors.Is(err, ErrSeekRange) {
			t.Errorf("SetLoop(%d, %d) = %v", loop[0], loop[1], err)
		}
	}

	if file.Loop {
		t.Error("failed SetLoop enabled looping")
	}
}

func TestParseFileErrors(t *testing.T) {
	if _, err := ParseFile(make([]byte, 20)); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("short header: %v", err)
	}

	var header = make([]byte, FileHeaderBytes)
	header[3] = 28
	if _, err := ParseFile(header); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("missing frames: %v", err)
	}

	header = append(header, make([]byte, 16)...)
	header[15] = 1
	if _, err := ParseFile(header); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("non adpcm format: %v", err)
	}
}
