package song

import (
	"fmt"
	"sort"

	"github.com/lambertjamesd/musyxconv/midi"
)

type channelData struct {
	channel  uint8
	commands []Command
	pitch    []ContinuousPoint
	mod      []ContinuousPoint
	program  uint8
	start    uint32
	end      uint32
}

func (data *channelData) empty() bool {
	return len(data.commands) == 0 && len(data.pitch) == 0 && len(data.mod) == 0
}

type timedEvent struct {
	tick  uint32
	event *midi.MidiEvent
}

func scaleTick(tick uint32, ticksPerQuarter uint16) uint32 {
	return uint32(uint64(tick) * TicksPerQuarter / uint64(ticksPerQuarter))
}

func microsecondsToTempo(microseconds uint32) uint32 {
	if microseconds == 0 {
		return defaultTempo
	}

	return (60000000 + microseconds/2) / microseconds
}

// collectEvents merges every track of file into one tick ordered list,
// rescaled to TicksPerQuarter.
func collectEvents(file *midi.Midi) []timedEvent {
	var result []timedEvent = nil

	for _, track := range file.Tracks {
		for _, event := range track.Events {
			result = append(result, timedEvent{scaleTick(event.AbsoluteTime, file.TicksPerQuarter), event})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].tick < result[j].tick
	})

	return result
}

func splitTempos(events []timedEvent) (uint32, []TempoChange) {
	var initial uint32 = defaultTempo
	var changes []TempoChange = nil

	for _, event := range events {
		if !event.event.IsTempo() {
			continue
		}

		var tempo = microsecondsToTempo(event.event.MicrosecondsPerQuarter())

		if event.tick == 0 && len(changes) == 0 {
			initial = tempo
			continue
		}

		changes = append(changes, TempoChange{event.tick, tempo})
	}

	return initial, changes
}

func buildChannels(events []timedEvent) []*channelData {
	var channels [16]channelData
	var pending [16][128][]int

	for i := range channels {
		channels[i].channel = uint8(i)
	}

	for _, timed := range events {
		var event = timed.event
		var tick = timed.tick

		if event.EventType == midi.Metadata {
			continue
		}

		var data = &channels[event.Channel&0x0f]
		data.end = max(data.end, tick)

		switch event.EventType {
		case midi.MidiOn, midi.MidiOff:
			var note = event.FirstParam & 0x7f
			var queue = pending[data.channel][note]

			if event.EventType == midi.MidiOn && event.SecondParam != 0 {
				pending[data.channel][note] = append(queue, len(data.commands))
				data.commands = append(data.commands, Command{
					Tick:     tick,
					Type:     CommandNote,
					Note:     note,
					Velocity: event.SecondParam & 0x7f,
				})
			} else if len(queue) > 0 {
				// the latest open note owns the off; zero length notes never
				// receive one
				var last = len(queue) - 1
				var cmd = &data.commands[queue[last]]
				cmd.Length = uint16(min(tick-cmd.Tick, 0xFFFF))
				pending[data.channel][note] = queue[:last]
			}
		case midi.ControlChange:
			if event.FirstParam == midi.ControllerModWheel {
				data.mod = append(data.mod, ContinuousPoint{tick, int32(event.SecondParam) * 128})
			} else if event.FirstParam != 0x7f || event.SecondParam != 0x7f {
				// 0x7f/0x7f would encode as a stream terminator
				data.commands = append(data.commands, Command{
					Tick:    tick,
					Type:    CommandControl,
					Control: event.FirstParam & 0x7f,
					Value:   event.SecondParam & 0x7f,
				})
			}
		case midi.PitchWheel:
			data.pitch = append(data.pitch, ContinuousPoint{tick, (int32(event.PitchValue()) - pitchCenter) * 2})
		case midi.ProgramChange:
			if len(data.commands) == 0 {
				data.program = event.FirstParam & 0x7f
			}

			data.commands = append(data.commands, Command{
				Tick:    tick,
				Type:    CommandProgram,
				Program: event.FirstParam & 0x7f,
			})
		}
	}

	var result []*channelData = nil

	for i := range channels {
		var data = &channels[i]

		if data.empty() {
			continue
		}

		data.start = data.end

		for _, cmd := range data.commands {
			data.start = min(data.start, cmd.Tick)
		}
		for _, point := range data.pitch {
			data.start = min(data.start, point.Tick)
		}
		for _, point := range data.mod {
			data.start = min(data.start, point.Tick)
		}

		result = append(result, data)
	}

	return result
}

type songWriter struct {
	out   []byte
	order ByteOrder
}

func (w *songWriter) u32(value uint32) {
	w.out = w.order.AppendUint32(w.out, value)
}

func (w *songWriter) u16(value uint16) {
	w.out = w.order.AppendUint16(w.out, value)
}

func (w *songWriter) putU32(at int, value uint32) {
	w.order.PutUint32(w.out[at:], value)
}

func (w *songWriter) align() {
	for len(w.out)%4 != 0 {
		w.out = append(w.out, 0)
	}
}

func (w *songWriter) offset() uint32 {
	return uint32(len(w.out))
}

func encodeCommandsRevised(out []byte, data *channelData) []byte {
	var prev = data.start

	for _, cmd := range data.commands {
		out = encodeTimeRLE(out, cmd.Tick-prev)
		prev = cmd.Tick

		switch cmd.Type {
		case CommandNote:
			out = append(out, cmd.Note, cmd.Velocity)
			out = streamOrder.AppendUint16(out, cmd.Length)
		case CommandControl:
			out = append(out, 0x80|cmd.Value, 0x80|cmd.Control)
		case CommandProgram:
			out = append(out, 0x80|cmd.Program, 0)
		}
	}

	out = encodeTimeRLE(out, 0)
	return append(out, 0xFF, 0xFF)
}

func encodeCommandsLegacy(out []byte, data *channelData) []byte {
	var last uint32 = 0

	for _, cmd := range data.commands {
		last = cmd.Tick - data.start
		out = streamOrder.AppendUint32(out, last)

		switch cmd.Type {
		case CommandNote:
			out = streamOrder.AppendUint16(out, cmd.Length)
			out = append(out, cmd.Note, cmd.Velocity)
		case CommandControl:
			out = append(out, 0, 0, 0x80|cmd.Value, 0x80|cmd.Control)
		case CommandProgram:
			out = append(out, 0, 0, 0x80|cmd.Program, 0)
		}
	}

	out = streamOrder.AppendUint32(out, last)
	return append(out, 0, 0, 0xFF, 0xFF)
}

func encodeContinuous(out []byte, points []ContinuousPoint, start uint32) []byte {
	var prevTick = start
	var prevValue int32 = 0

	for _, point := range points {
		var delay = point.Tick - prevTick

		for _, step := range splitValueDelta(point.Value - prevValue) {
			out = encodeContinuousRLE(out, delay)
			out = encodeSignedValue(out, step)
			delay = 0
		}

		prevTick = point.Tick
		prevValue = point.Value
	}

	return encodeContinuousEnd(out)
}

// FromMidi lays out a song with one track slot and one region per MIDI
// channel in use.
func FromMidi(file *midi.Midi, version int, big bool) ([]byte, error) {
	if version != VersionLegacy && version != VersionRevised {
		return nil, fmt.Errorf("%w: version %d", ErrUnknownVersion, version)
	}

	if file.TicksPerQuarter == 0 {
		return nil, fmt.Errorf("%w: zero ticks per quarter", midi.ErrInvalidMidi)
	}

	var events = collectEvents(file)
	var tempo, tempoChanges = splitTempos(events)
	var channels = buildChannels(events)

	var w = &songWriter{order: byteOrder(big)}
	var header = Header{
		TrackIdxOff:  headerSize,
		InitialTempo: tempo,
	}

	w.out = make([]byte, headerSize)

	for slot := 0; slot < TrackSlots; slot++ {
		w.u32(0)
	}

	header.ChanMapOff = w.offset()
	header.ChanMapOff2 = header.ChanMapOff

	for slot := 0; slot < TrackSlots; slot++ {
		var channel uint8 = 0

		if slot < len(channels) {
			channel = channels[slot].channel
		}

		w.out = append(w.out, channel)
	}

	if len(tempoChanges) > 0 {
		header.TempoTableOff = w.offset()

		for _, change := range tempoChanges {
			w.u32(change.Tick)
			w.u32(change.Tempo)
		}

		w.u32(tempoEnd)
		w.u32(0)
	}

	var regionOffsets = make([]uint32, len(channels))

	for i, data := range channels {
		regionOffsets[i] = w.offset()
		w.u32(0)
		w.u32(0)
		w.u32(0)

		if version == VersionRevised {
			w.out = encodeCommandsRevised(w.out, data)
		} else {
			w.out = encodeCommandsLegacy(w.out, data)
		}

		w.align()
	}

	for i, data := range channels {
		if len(data.pitch) > 0 {
			w.putU32(int(regionOffsets[i])+4, w.offset())
			w.out = encodeContinuous(w.out, data.pitch, data.start)
		}

		if len(data.mod) > 0 {
			w.putU32(int(regionOffsets[i])+8, w.offset())
			w.out = encodeContinuous(w.out, data.mod, data.start)
		}
	}

	w.align()
	header.RegionIdxOff = w.offset()

	for _, offset := range regionOffsets {
		w.u32(offset)
	}

	var endIndex int16 = regionEnd

	for slot, data := range channels {
		w.putU32(int(header.TrackIdxOff)+slot*4, w.offset())

		w.u32(data.start)
		w.out = append(w.out, data.program, 0)
		w.u16(0)
		w.u16(uint16(slot))
		w.u16(0)

		w.u32(data.end)
		w.out = append(w.out, 0, 0)
		w.u16(0)
		w.u16(uint16(endIndex))
		w.u16(0)
	}

	var fields = []uint32{header.TrackIdxOff, header.RegionIdxOff, header.ChanMapOff, header.TempoTableOff, header.InitialTempo}

	for i, value := range fields {
		w.putU32(i*4, value)
	}

	w.putU32(headerSize-4, header.ChanMapOff2)

	return w.out, nil
}

func MIDIToSong(data []byte, version int, big bool) ([]byte, error) {
	file, err := midi.ParseMidi(data)

	if err != nil {
		return nil, err
	}

	return FromMidi(file, version, big)
}
