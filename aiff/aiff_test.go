package aiff

import (
	"bytes"
	"errors"
	"testing"
)

func TestExtendedFloat(t *testing.T) {
	for _, rate := range []float64{0, 8000, 22050, 32000, 44100, 48000, -1.5} {
		if got := F64FromExtended(ExtendedFromF64(rate)); got != rate {
			t.Errorf("%g came back as %g", rate, got)
		}
	}

	// 44100 Hz as written by most tools
	var known = ExtendedFloat{false, 0x400E, 0xAC44000000000000}
	if ExtendedFromF64(44100) != known {
		t.Errorf("44100 = %+v", ExtendedFromF64(44100))
	}
}

func TestRoundTripWithLoop(t *testing.T) {
	var samples = []int16{0, 300, -300, 32767, -32768, 7, 8, 9, 10}
	var loop = &SampleLoop{Start: 2, End: 9}

	var buf bytes.Buffer
	if err := NewMono16(samples, 32000, loop).Serialize(&buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	if parsed.SampleRate() != 32000 {
		t.Errorf("sample rate %d", parsed.SampleRate())
	}

	got, err := parsed.Mono16()
	if err != nil {
		t.Fatal(err)
	}

	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}

	if parsed.SustainLoop() == nil || *parsed.SustainLoop() != *loop {
		t.Errorf("loop = %+v", parsed.SustainLoop())
	}
}

func TestNoLoop(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMono16([]int16{1, 2, 3}, 8000, nil).Serialize(&buf); err != nil {
		t.Fatal(err)
	}

	if buf.Len()%2 != 0 {
		t.Errorf("odd file length %d", buf.Len())
	}

	parsed, err := Parse(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}

	if parsed.SustainLoop() != nil || parsed.Markers != nil {
		t.Errorf("unexpected loop data")
	}
}

func TestInvalid(t *testing.T) {
	if _, err := Parse(bytes.NewReader([]byte("RIFF\x00\x00\x00\x04WAVE"))); !errors.Is(err, ErrInvalidAiff) {
		t.Errorf("riff: %v", err)
	}

	if _, err := Parse(bytes.NewReader([]byte("FORM\x00\x00\x00\x04AIFF"))); !errors.Is(err, ErrInvalidAiff) {
		t.Errorf("no chunks: %v", err)
	}

	var compressed = NewMono16([]int16{1}, 8000, nil)
	compressed.Compressed = true
	if _, err := compressed.Mono16(); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("aifc: %v", err)
	}
}
