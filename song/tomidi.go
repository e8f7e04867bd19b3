package song

import (
	"sort"

	"github.com/lambertjamesd/musyxconv/midi"
)

const TicksPerQuarter = 384
const defaultTempo = 120

const (
	pitchCenter = 0x2000
	pitchMax    = 0x3fff
)

func tempoToMicroseconds(tempo uint32) uint32 {
	if tempo == 0 {
		tempo = defaultTempo
	}

	return min(60000000/tempo, 0xFFFFFF)
}

func pitchToMidi(raw int32) uint16 {
	return uint16(min(max(raw/2+pitchCenter, 0), pitchMax))
}

func modToMidi(raw int32) uint8 {
	return uint8(min(max(raw*128/16384, 0), 127))
}

type channelEvent struct {
	event *midi.MidiEvent
	// note offs sort ahead of other events on the same tick
	order int
}

func (state *SongState) channelEvents(channel uint8) []channelEvent {
	var result []channelEvent = nil

	for _, track := range state.Tracks {
		if track.Channel&0x0f != channel {
			continue
		}

		for _, region := range track.Regions {
			for _, cmd := range region.Commands {
				switch cmd.Type {
				case CommandNote:
					result = append(result, channelEvent{&midi.MidiEvent{
						AbsoluteTime: cmd.Tick,
						EventType:    midi.MidiOn,
						Channel:      channel,
						FirstParam:   cmd.Note & 0x7f,
						SecondParam:  cmd.Velocity & 0x7f,
					}, 1})

					if cmd.Length != 0 {
						result = append(result, channelEvent{&midi.MidiEvent{
							AbsoluteTime: cmd.Tick + uint32(cmd.Length),
							EventType:    midi.MidiOff,
							Channel:      channel,
							FirstParam:   cmd.Note & 0x7f,
						}, 0})
					}
				case CommandControl:
					result = append(result, channelEvent{&midi.MidiEvent{
						AbsoluteTime: cmd.Tick,
						EventType:    midi.ControlChange,
						Channel:      channel,
						FirstParam:   cmd.Control,
						SecondParam:  cmd.Value,
					}, 1})
				}
			}

			for _, point := range region.Pitch {
				result = append(result, channelEvent{midi.NewPitchEvent(point.Tick, channel, pitchToMidi(point.Value)), 1})
			}

			for _, point := range region.Mod {
				result = append(result, channelEvent{&midi.MidiEvent{
					AbsoluteTime: point.Tick,
					EventType:    midi.ControlChange,
					Channel:      channel,
					FirstParam:   midi.ControllerModWheel,
					SecondParam:  modToMidi(point.Value),
				}, 1})
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].event.AbsoluteTime != result[j].event.AbsoluteTime {
			return result[i].event.AbsoluteTime < result[j].event.AbsoluteTime
		}

		return result[i].order < result[j].order
	})

	return result
}

func (state *SongState) tempoTrack() *midi.Track {
	var result = &midi.Track{}
	var endTime uint32 = 0

	result.Events = append(result.Events, midi.NewTempoEvent(0, tempoToMicroseconds(state.Tempo)))

	for _, change := range state.TempoChanges {
		result.Events = append(result.Events, midi.NewTempoEvent(change.Tick, tempoToMicroseconds(change.Tempo)))
		endTime = change.Tick
	}

	result.Events = append(result.Events, midi.NewEndOfTrack(endTime))

	return result
}

// ToMidi builds a type 1 file: a tempo track followed by one track per MIDI
// channel the song's track slots map to.
func (state *SongState) ToMidi() *midi.Midi {
	var result = &midi.Midi{
		Type:            midi.MultipleTracks,
		TicksPerQuarter: TicksPerQuarter,
		Tracks:          []*midi.Track{state.tempoTrack()},
	}

	var used [16]bool

	for _, track := range state.Tracks {
		used[track.Channel&0x0f] = true
	}

	for channel := uint8(0); channel < 16; channel++ {
		if !used[channel] {
			continue
		}

		var track = &midi.Track{}

		for _, event := range state.channelEvents(channel) {
			track.Events = append(track.Events, event.event)
		}

		track.Events = append(track.Events, midi.NewEndOfTrack(track.EndTime()))
		result.Tracks = append(result.Tracks, track)
	}

	return result
}

// SongToMIDI detects the layout of data and converts it to a standard MIDI
// file, returning the detected version and byte order alongside.
func SongToMIDI(data []byte) ([]byte, int, bool, error) {
	state, err := Parse(data)

	if err != nil {
		return nil, 0, IsBig(data), err
	}

	result, err := state.ToMidi().Bytes()

	if err != nil {
		return nil, state.Version, state.Big, err
	}

	return result, state.Version, state.Big, nil
}
