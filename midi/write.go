package midi

import (
	"encoding/binary"
	"fmt"
	"io"
)

// appendVarInt appends value as a variable length quantity, most significant
// seven bits first.
func appendVarInt(out []byte, value uint32) []byte {
	var groups [5]byte
	var count = 0

	for {
		groups[count] = uint8(value) & 0x7f
		count++
		value >>= 7

		if value == 0 {
			break
		}
	}

	for i := count - 1; i > 0; i-- {
		out = append(out, groups[i]|0x80)
	}

	return append(out, groups[0])
}

func statusByte(event *MidiEvent) uint8 {
	return uint8(event.EventType)<<4 | event.Channel&0x0f
}

// appendEvent encodes event relative to prev. Channel events drop the
// status byte when it repeats the previous channel event's.
func appendEvent(out []byte, event *MidiEvent, prev *MidiEvent) []byte {
	var delta = event.AbsoluteTime

	if prev != nil {
		delta -= prev.AbsoluteTime
	}

	out = appendVarInt(out, delta)

	if event.EventType == Metadata {
		if event.FirstParam != SysexStart && event.FirstParam != SysexEscape {
			out = append(out, 0xFF)
		}

		out = append(out, event.FirstParam)
		out = appendVarInt(out, uint32(len(event.Metadata)))
		return append(out, event.Metadata...)
	}

	if prev == nil || prev.EventType == Metadata || statusByte(prev) != statusByte(event) {
		out = append(out, statusByte(event))
	}

	out = append(out, event.FirstParam)

	if bytesForEvent(event.EventType) == 2 {
		out = append(out, event.SecondParam)
	}

	return out
}

func appendTrack(out []byte, track *Track) ([]byte, error) {
	out = binary.BigEndian.AppendUint32(out, TrackHeader)

	var lengthAt = len(out)
	out = append(out, 0, 0, 0, 0)

	var prev *MidiEvent = nil

	for _, event := range track.Events {
		if prev != nil && event.AbsoluteTime < prev.AbsoluteTime {
			return nil, fmt.Errorf("%w: events out of order at tick %d", ErrInvalidMidi, event.AbsoluteTime)
		}

		out = appendEvent(out, event, prev)
		prev = event
	}

	binary.BigEndian.PutUint32(out[lengthAt:], uint32(len(out)-lengthAt-4))

	return out, nil
}

// Bytes encodes the file as a standard MIDI file.
func (midi *Midi) Bytes() ([]byte, error) {
	var out = binary.BigEndian.AppendUint32(nil, MidiHeader)
	out = binary.BigEndian.AppendUint32(out, 6)
	out = binary.BigEndian.AppendUint16(out, uint16(midi.Type))
	out = binary.BigEndian.AppendUint16(out, uint16(len(midi.Tracks)))
	out = binary.BigEndian.AppendUint16(out, midi.TicksPerQuarter)

	var err error

	for _, track := range midi.Tracks {
		if out, err = appendTrack(out, track); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func WriteMidi(writer io.Writer, midi *Midi) error {
	data, err := midi.Bytes()

	if err != nil {
		return err
	}

	_, err = writer.Write(data)
	return err
}
