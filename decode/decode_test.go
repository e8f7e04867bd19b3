package decode

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lambertjamesd/musyxconv/aiff"
	"github.com/lambertjamesd/musyxconv/wav"
)

var testSamples = []int16{0, 100, -100, 32767, -32768, 42}

func writeTestFile(t *testing.T, name string, serialize func(buf *bytes.Buffer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := serialize(&buf); err != nil {
		t.Fatal(err)
	}

	var path = filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf.Bytes(), 0664); err != nil {
		t.Fatal(err)
	}

	return path
}

func checkSamples(t *testing.T, pcm *PCM, rate uint32) {
	t.Helper()

	if pcm.SampleRate != rate || pcm.Channels != 1 || len(pcm.Samples) != len(testSamples) {
		t.Fatalf("pcm = %d Hz, %d channels, %d samples", pcm.SampleRate, pcm.Channels, len(pcm.Samples))
	}

	for i := range testSamples {
		if pcm.Samples[i] != testSamples[i] {
			t.Errorf("sample %d = %d", i, pcm.Samples[i])
		}
	}
}

func TestWav(t *testing.T) {
	var path = writeTestFile(t, "a.WAV", func(buf *bytes.Buffer) error {
		return wav.NewMono16(testSamples, 11025).Serialize(buf)
	})

	pcm, err := File(path)
	if err != nil {
		t.Fatal(err)
	}

	checkSamples(t, pcm, 11025)

	if pcm.Loop != nil {
		t.Error("wav has no loop")
	}
}

func TestAiffKeepsLoop(t *testing.T) {
	var path = writeTestFile(t, "a.aiff", func(buf *bytes.Buffer) error {
		return aiff.NewMono16(testSamples, 32000, &aiff.SampleLoop{Start: 1, End: 5}).Serialize(buf)
	})

	pcm, err := File(path)
	if err != nil {
		t.Fatal(err)
	}

	checkSamples(t, pcm, 32000)

	if pcm.Loop == nil || *pcm.Loop != (Loop{1, 5}) {
		t.Errorf("loop = %+v", pcm.Loop)
	}
}

func TestRejectsUnknownAndBrokenFiles(t *testing.T) {
	if Supported("a.ogg") || !Supported("a.Flac") || !Supported("b.mp3") {
		t.Error("supported extensions wrong")
	}

	if _, err := File("a.ogg"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ogg: %v", err)
	}

	for _, name := range []string{"empty.mp3", "empty.flac"} {
		var path = writeTestFile(t, name, func(buf *bytes.Buffer) error { return nil })

		if _, err := File(path); err == nil {
			t.Errorf("%s decoded", name)
		}
	}
}
