package midi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

func readVarInt(reader io.Reader) (uint32, uint32, error) {
	var result uint32 = 0
	var bytesRead uint32 = 0
	var hasMore = true

	for hasMore {
		var readByte uint8
		err := binary.Read(reader, binary.BigEndian, &readByte)
		bytesRead = bytesRead + 1

		if err != nil {
			return 0, 0, err
		}

		if bytesRead > 4 {
			return 0, bytesRead, fmt.Errorf("%w: variable length value longer than 4 bytes", ErrInvalidMidi)
		}

		result = (result << 7) | (uint32(readByte) & 0x7F)

		hasMore = (readByte & 0x80) != 0
	}

	return result, bytesRead, nil
}

func readPayload(reader io.Reader, length uint32) ([]byte, error) {
	var data = make([]byte, length)

	_, err := io.ReadFull(reader, data)

	if err != nil {
		return nil, fmt.Errorf("%w: truncated event payload", ErrInvalidMidi)
	}

	return data, nil
}

func readMidiEvent(reader io.Reader, prevEvent *MidiEvent) (*MidiEvent, uint32, error) {
	eventTime, bytesRead, err := readVarInt(reader)

	if err != nil {
		return nil, 0, err
	}

	if prevEvent != nil {
		eventTime = eventTime + prevEvent.AbsoluteTime
	}

	var eventChannel uint8

	err = binary.Read(reader, binary.BigEndian, &eventChannel)
	bytesRead = bytesRead + 1

	if err != nil {
		return nil, bytesRead, err
	}

	if eventChannel == SysexStart || eventChannel == SysexEscape {
		length, lengthLen, err := readVarInt(reader)
		bytesRead = bytesRead + lengthLen

		if err != nil {
			return nil, bytesRead, err
		}

		data, err := readPayload(reader, length)
		bytesRead = bytesRead + length

		if err != nil {
			return nil, bytesRead, err
		}

		return &MidiEvent{eventTime, Metadata, 0, eventChannel, 0, data}, bytesRead, nil
	}

	var channel uint8
	var eventType MidiEventType
	var firstByte uint8

	if eventChannel < 128 {
		if prevEvent == nil || prevEvent.EventType == Metadata {
			return nil, 0, fmt.Errorf("%w: running status with no previous channel event", ErrInvalidMidi)
		}

		channel = prevEvent.Channel
		eventType = prevEvent.EventType
		firstByte = eventChannel
	} else {
		channel = eventChannel & 0xF
		eventType = MidiEventType(eventChannel >> 4)

		err = binary.Read(reader, binary.BigEndian, &firstByte)
		bytesRead = bytesRead + 1

		if err != nil {
			return nil, bytesRead, err
		}
	}

	if eventType == Metadata {
		extraBytes, extraByteLen, err := readVarInt(reader)
		bytesRead = bytesRead + extraByteLen

		if err != nil {
			return nil, bytesRead, err
		}

		data, err := readPayload(reader, extraBytes)
		bytesRead = bytesRead + extraBytes

		if err != nil {
			return nil, bytesRead, err
		}

		return &MidiEvent{eventTime, eventType, 0, firstByte, 0, data}, bytesRead, nil
	}

	var secondByte uint8

	if firstByte&0x80 != 0 {
		return nil, bytesRead, fmt.Errorf("%w: data had high bit set", ErrInvalidMidi)
	}

	if bytesForEvent(eventType) == 2 {
		err = binary.Read(reader, binary.BigEndian, &secondByte)
		bytesRead = bytesRead + 1

		if err != nil {
			return nil, bytesRead, err
		}

		if secondByte&0x80 != 0 {
			return nil, bytesRead, fmt.Errorf("%w: data had high bit set", ErrInvalidMidi)
		}
	}

	return &MidiEvent{eventTime, eventType, channel, firstByte, secondByte, nil}, bytesRead, nil
}

func readTrack(reader io.Reader) (*Track, error) {
	var trackHeader uint32
	err := binary.Read(reader, binary.BigEndian, &trackHeader)

	if err != nil {
		return nil, err
	}

	if trackHeader != TrackHeader {
		return nil, fmt.Errorf("%w: invalid track header %08X", ErrInvalidMidi, trackHeader)
	}

	var trackLength uint32

	err = binary.Read(reader, binary.BigEndian, &trackLength)

	if err != nil {
		return nil, err
	}

	var bytesRead uint32 = 0
	var events []*MidiEvent = nil
	var prevEvent *MidiEvent = nil
	// running status survives metadata events
	var prevChannelEvent *MidiEvent = nil

	for bytesRead < trackLength {
		var running = prevChannelEvent

		if running != nil && prevEvent != nil {
			running = &MidiEvent{
				AbsoluteTime: prevEvent.AbsoluteTime,
				EventType:    running.EventType,
				Channel:      running.Channel,
			}
		} else if prevEvent != nil {
			running = &MidiEvent{AbsoluteTime: prevEvent.AbsoluteTime, EventType: Metadata}
		}

		event, byteLength, err := readMidiEvent(reader, running)

		if err != nil {
			return nil, err
		}

		events = append(events, event)
		prevEvent = event

		if event.EventType != Metadata {
			prevChannelEvent = event
		}

		bytesRead = bytesRead + byteLength

		if event.EventType == Metadata && event.FirstParam == MetaEnd {
			break
		}
	}

	if bytesRead < trackLength {
		io.CopyN(io.Discard, reader, int64(trackLength-bytesRead))
	}

	return &Track{
		events,
	}, nil
}

func ReadMidi(reader io.Reader) (*Midi, error) {
	var midiHeader uint32
	err := binary.Read(reader, binary.BigEndian, &midiHeader)

	if err != nil {
		return nil, err
	}

	if midiHeader != MidiHeader {
		return nil, fmt.Errorf("%w: header %X", ErrInvalidMidi, midiHeader)
	}

	var headerLength uint32
	err = binary.Read(reader, binary.BigEndian, &headerLength)

	if err != nil {
		return nil, err
	}

	if headerLength != 6 {
		return nil, fmt.Errorf("%w: header length %d", ErrInvalidMidi, headerLength)
	}

	var midiType uint16
	var trackCount uint16
	var deltaTicksPerQuarter uint16

	err = binary.Read(reader, binary.BigEndian, &midiType)

	if err != nil {
		return nil, err
	}

	if midiType > MultipleTracksAsync {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidMidi, midiType)
	}

	err = binary.Read(reader, binary.BigEndian, &trackCount)

	if err != nil {
		return nil, err
	}

	err = binary.Read(reader, binary.BigEndian, &deltaTicksPerQuarter)

	if err != nil {
		return nil, err
	}

	if deltaTicksPerQuarter&0x8000 != 0 || deltaTicksPerQuarter == 0 {
		return nil, fmt.Errorf("%w: unsupported time division %04X", ErrInvalidMidi, deltaTicksPerQuarter)
	}

	var tracks []*Track = nil

	for trackIndex := uint16(0); trackIndex < trackCount; trackIndex++ {
		track, err := readTrack(reader)

		if err != nil {
			return nil, err
		}

		tracks = append(tracks, track)
	}

	return &Midi{
		MidiFileType(midiType),
		deltaTicksPerQuarter,
		tracks,
	}, nil
}

func ParseMidi(data []byte) (*Midi, error) {
	return ReadMidi(bytes.NewReader(data))
}
