package midi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func sampleMidi() *Midi {
	return &Midi{
		Type:            MultipleTracks,
		TicksPerQuarter: 384,
		Tracks: []*Track{
			{Events: []*MidiEvent{
				NewTempoEvent(0, 500000),
				NewTempoEvent(768, 400000),
				NewEndOfTrack(768),
			}},
			{Events: []*MidiEvent{
				{AbsoluteTime: 0, EventType: MidiOn, Channel: 2, FirstParam: 60, SecondParam: 100},
				{AbsoluteTime: 0, EventType: MidiOn, Channel: 2, FirstParam: 64, SecondParam: 90},
				{AbsoluteTime: 200, EventType: ControlChange, Channel: 2, FirstParam: ControllerModWheel, SecondParam: 33},
				NewPitchEvent(300, 2, 0x2100),
				{AbsoluteTime: 384, EventType: MidiOff, Channel: 2, FirstParam: 60},
				{AbsoluteTime: 20000, EventType: MidiOff, Channel: 2, FirstParam: 64},
				NewEndOfTrack(20000),
			}},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	original := sampleMidi()

	data, err := original.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseMidi(data)
	if err != nil {
		t.Fatal(err)
	}

	if parsed.Type != original.Type || parsed.TicksPerQuarter != original.TicksPerQuarter {
		t.Fatalf("header = %d/%d", parsed.Type, parsed.TicksPerQuarter)
	}
	if len(parsed.Tracks) != len(original.Tracks) {
		t.Fatalf("track count = %d", len(parsed.Tracks))
	}

	for ti, track := range original.Tracks {
		got := parsed.Tracks[ti].Events
		if len(got) != len(track.Events) {
			t.Fatalf("track %d: %d events, want %d", ti, len(got), len(track.Events))
		}

		for ei, want := range track.Events {
			e := got[ei]
			if e.AbsoluteTime != want.AbsoluteTime || e.EventType != want.EventType ||
				e.Channel != want.Channel || e.FirstParam != want.FirstParam ||
				e.SecondParam != want.SecondParam || !bytes.Equal(e.Metadata, want.Metadata) {
				t.Errorf("track %d event %d = %+v, want %+v", ti, ei, e, want)
			}
		}
	}

	if !parsed.Tracks[0].Events[1].IsTempo() || parsed.Tracks[0].Events[1].MicrosecondsPerQuarter() != 400000 {
		t.Errorf("tempo event lost: %+v", parsed.Tracks[0].Events[1])
	}
	if parsed.Tracks[1].Events[3].PitchValue() != 0x2100 {
		t.Errorf("pitch = %04X", parsed.Tracks[1].Events[3].PitchValue())
	}
}

func TestVarIntEncoding(t *testing.T) {
	tests := []struct {
		value uint32
		want  []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x81, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x3fff, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x0fffffff, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}

	for _, tt := range tests {
		if got := appendVarInt(nil, tt.value); !bytes.Equal(got, tt.want) {
			t.Errorf("appendVarInt(%X) = % X, want % X", tt.value, got, tt.want)
		}

		value, n, err := readVarInt(bytes.NewReader(tt.want))
		if err != nil || value != tt.value || int(n) != len(tt.want) {
			t.Errorf("readVarInt(% X) = %X, %d, %v", tt.want, value, n, err)
		}
	}
}

func TestRunningStatusAcrossMeta(t *testing.T) {
	track := []byte{
		0x00, 0x90, 60, 100, // note on
		0x10, 62, 100, // running status
		0x00, 0xFF, 0x01, 0x01, 'x', // text meta
		0x10, 64, 100, // running status survives the meta
		0x00, 0xFF, 0x2F, 0x00,
	}

	var buf bytes.Buffer
	buf.Write([]byte{'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0x01, 0x80})
	buf.Write([]byte{'M', 'T', 'r', 'k', 0, 0, 0, byte(len(track))})
	buf.Write(track)

	parsed, err := ParseMidi(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	events := parsed.Tracks[0].Events
	if len(events) != 5 {
		t.Fatalf("%d events", len(events))
	}
	if events[3].EventType != MidiOn || events[3].FirstParam != 64 || events[3].AbsoluteTime != 0x20 {
		t.Errorf("event after meta = %+v", events[3])
	}
}

func TestWriteUsesRunningStatus(t *testing.T) {
	m := &Midi{Type: SingleTrack, TicksPerQuarter: 96, Tracks: []*Track{{Events: []*MidiEvent{
		{AbsoluteTime: 0, EventType: MidiOn, Channel: 1, FirstParam: 60, SecondParam: 100},
		{AbsoluteTime: 0x10, EventType: MidiOn, Channel: 1, FirstParam: 62, SecondParam: 100},
		{AbsoluteTime: 0x10, EventType: MidiOn, Channel: 2, FirstParam: 64, SecondParam: 100},
		NewEndOfTrack(0x10),
	}}}}

	data, err := m.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{
		0x00, 0x91, 60, 100,
		0x10, 62, 100,
		0x00, 0x92, 64, 100,
		0x00, 0xFF, 0x2F, 0x00,
	}

	if !bytes.Equal(data[22:], want) {
		t.Errorf("track data % X\nwant       % X", data[22:], want)
	}
	if length := binary.BigEndian.Uint32(data[18:]); int(length) != len(want) {
		t.Errorf("track length %d", length)
	}
}

func TestReadRejectsBadInput(t *testing.T) {
	good, err := sampleMidi().Bytes()
	if err != nil {
		t.Fatal(err)
	}

	badMagic := append([]byte{}, good...)
	badMagic[0] = 'X'

	badTrack := append([]byte{}, good...)
	badTrack[14] = 'X'

	runningFirst := []byte{'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0x01, 0x80,
		'M', 'T', 'r', 'k', 0, 0, 0, 3, 0x00, 60, 100}

	for name, data := range map[string][]byte{
		"magic":         badMagic,
		"track header":  badTrack,
		"running first": runningFirst,
	} {
		if _, err := ParseMidi(data); !errors.Is(err, ErrInvalidMidi) {
			t.Errorf("%s: err = %v", name, err)
		}
	}

	if _, err := ParseMidi(good[:len(good)-3]); err == nil {
		t.Error("truncated file parsed")
	}
}

func TestWriteRejectsUnorderedEvents(t *testing.T) {
	m := &Midi{Type: SingleTrack, TicksPerQuarter: 96, Tracks: []*Track{{Events: []*MidiEvent{
		NewTempoEvent(10, 500000),
		NewEndOfTrack(5),
	}}}}

	if _, err := m.Bytes(); !errors.Is(err, ErrInvalidMidi) {
		t.Errorf("err = %v", err)
	}

	m.Tracks[0].SortEvents()
	if _, err := m.Bytes(); err != nil {
		t.Errorf("sorted track: %v", err)
	}
	if m.Tracks[0].EndTime() != 10 {
		t.Errorf("EndTime = %d", m.Tracks[0].EndTime())
	}
}
