package midi

import (
	"errors"
	"sort"
)

const MidiHeader = 0x4D546864
const TrackHeader = 0x4D54726B

var ErrInvalidMidi = errors.New("invalid midi data")

type MidiEventType uint8

const (
	MidiOff           = 0x8
	MidiOn            = 0x9 // FirstParam=noteNumber SecondParam=velocity
	AfterTouch        = 0xA
	ControlChange     = 0xB // FirstParam=controller SecondParam=value
	ProgramChange     = 0xC // FirstParam=program index
	ChannelAfterTouch = 0xD
	PitchWheel        = 0xE // FirstParam=lsb SecondParam=msb
	Metadata          = 0xF
)

type MetadataEventType uint8

const (
	MetaSequenceNumber = 0x00
	MetaText           = 0x01
	MetaCopyright      = 0x02
	MetaTrack          = 0x03
	MetaInstrument     = 0x04
	MetaLyric          = 0x05
	MetaMarker         = 0x06
	MetaCue            = 0x07
	MetaEnd            = 0x2F
	MetaTempo          = 0x51
	MetaTime           = 0x58
	MetaKey            = 0x59
	MetaSeqInfo        = 0x7F
)

// Sysex events are stored as Metadata with FirstParam set to the status byte.
const (
	SysexStart  = 0xF0
	SysexEscape = 0xF7
)

const ControllerModWheel = 1

type MidiEvent struct {
	AbsoluteTime uint32
	EventType    MidiEventType
	Channel      uint8
	FirstParam   uint8
	SecondParam  uint8
	Metadata     []byte
}

type Track struct {
	Events []*MidiEvent
}

type MidiFileType uint16

const (
	SingleTrack         = 0x0
	MultipleTracks      = 0x1
	MultipleTracksAsync = 0x2
)

type Midi struct {
	Type            MidiFileType
	TicksPerQuarter uint16
	Tracks          []*Track
}

func bytesForEvent(eventType MidiEventType) int {
	switch eventType {
	case ProgramChange, ChannelAfterTouch:
		return 1
	}

	return 2
}

func (event *MidiEvent) IsTempo() bool {
	return event.EventType == Metadata && event.FirstParam == MetaTempo && len(event.Metadata) == 3
}

// MicrosecondsPerQuarter decodes a Set-Tempo payload.
func (event *MidiEvent) MicrosecondsPerQuarter() uint32 {
	return uint32(event.Metadata[0])<<16 | uint32(event.Metadata[1])<<8 | uint32(event.Metadata[2])
}

// PitchValue combines the two data bytes of a pitch wheel event.
func (event *MidiEvent) PitchValue() uint16 {
	return uint16(event.FirstParam&0x7f) | uint16(event.SecondParam&0x7f)<<7
}

func NewTempoEvent(time uint32, microsecondsPerQuarter uint32) *MidiEvent {
	return &MidiEvent{
		AbsoluteTime: time,
		EventType:    Metadata,
		FirstParam:   MetaTempo,
		Metadata: []byte{
			byte(microsecondsPerQuarter >> 16),
			byte(microsecondsPerQuarter >> 8),
			byte(microsecondsPerQuarter),
		},
	}
}

func NewEndOfTrack(time uint32) *MidiEvent {
	return &MidiEvent{
		AbsoluteTime: time,
		EventType:    Metadata,
		FirstParam:   MetaEnd,
		Metadata:     []byte{},
	}
}

func NewPitchEvent(time uint32, channel uint8, value uint16) *MidiEvent {
	return &MidiEvent{
		AbsoluteTime: time,
		EventType:    PitchWheel,
		Channel:      channel,
		FirstParam:   uint8(value & 0x7f),
		SecondParam:  uint8((value >> 7) & 0x7f),
	}
}

// SortEvents orders events by time, keeping insertion order for ties.
func (track *Track) SortEvents() {
	sort.SliceStable(track.Events, func(i, j int) bool {
		return track.Events[i].AbsoluteTime < track.Events[j].AbsoluteTime
	})
}

func (track *Track) EndTime() uint32 {
	var result uint32 = 0

	for _, event := range track.Events {
		if event.AbsoluteTime > result {
			result = event.AbsoluteTime
		}
	}

	return result
}
