// Package song parses the multi-track Song sequence format and converts it
// to and from standard MIDI files.
package song

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	headerSize       = 88
	TrackSlots       = 64
	LoopChannels     = 16
	regionRecordSize = 12
	regionHeaderSize = 12
	tempoEnd         = 0xFFFFFFFF
	perChannelLoop   = 0x80000000
)

const (
	regionEnd  = -1
	regionLoop = -2
)

const (
	VersionLegacy  = 0 // N64, absolute tick per command
	VersionRevised = 1 // GameCube, delay coded commands
)

type Header struct {
	TrackIdxOff    uint32
	RegionIdxOff   uint32
	ChanMapOff     uint32
	TempoTableOff  uint32
	InitialTempo   uint32
	LoopStartTicks [LoopChannels]uint32
	ChanMapOff2    uint32
}

type TempoChange struct {
	Tick  uint32
	Tempo uint32
}

type CommandType uint8

const (
	CommandNote CommandType = iota
	CommandControl
	CommandProgram
)

type Command struct {
	Tick     uint32
	Type     CommandType
	Note     uint8
	Velocity uint8
	Length   uint16
	Control  uint8
	Value    uint8
	Program  uint8
}

// ContinuousPoint is one decoded pitch or mod wheel value at an absolute tick.
type ContinuousPoint struct {
	Tick  uint32
	Value int32
}

type Region struct {
	StartTick    uint32
	Program      uint8
	RegionIndex  int16
	LoopToRegion int16
	Type         uint32
	Commands     []Command
	Pitch        []ContinuousPoint
	Mod          []ContinuousPoint
}

type Track struct {
	Slot    int
	Channel uint8
	Regions []Region
	// Loops is set when the chain ends with a loop record; LoopToRegion
	// then names the region playback returns to.
	Loops        bool
	LoopToRegion int16
}

type SongState struct {
	Version        int
	Big            bool
	Header         Header
	Tempo          uint32
	PerChannelLoop bool
	TempoChanges   []TempoChange
	Tracks         []Track
}

// ByteOrder reads and appends in one byte order.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func byteOrder(big bool) ByteOrder {
	if big {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsBig reports the header byte order: a big endian track index offset
// always starts with a zero byte.
func IsBig(data []byte) bool {
	return len(data) > 0 && data[0] == 0
}

func readHeader(c *cursor) (Header, error) {
	var result Header
	var fields = []*uint32{&result.TrackIdxOff, &result.RegionIdxOff, &result.ChanMapOff, &result.TempoTableOff, &result.InitialTempo}

	for _, field := range fields {
		value, err := c.u32()

		if err != nil {
			return result, err
		}

		*field = value
	}

	for i := range result.LoopStartTicks {
		value, err := c.u32()

		if err != nil {
			return result, err
		}

		result.LoopStartTicks[i] = value
	}

	value, err := c.u32()
	result.ChanMapOff2 = value
	return result, err
}

func readTempoTable(data []byte, offset uint32, order binary.ByteOrder) ([]TempoChange, error) {
	if offset == 0 {
		return nil, nil
	}

	c, err := newCursor(data, offset, order)

	if err != nil {
		return nil, err
	}

	var result []TempoChange = nil
	var lastTick uint32 = 0

	for {
		tick, err := c.u32()

		if err != nil {
			return nil, err
		}

		if tick == tempoEnd {
			return result, nil
		}

		tempo, err := c.u32()

		if err != nil {
			return nil, err
		}

		if tick < lastTick {
			return nil, fmt.Errorf("%w: tempo table not ascending at tick %d", ErrTruncatedSong, tick)
		}

		lastTick = tick
		result = append(result, TempoChange{tick, tempo})
	}
}

// readRegionOffsets returns the region index table, sized by the highest
// region index any track chain references.
func readRegionOffsets(data []byte, header *Header, order binary.ByteOrder) ([]uint32, error) {
	var maxIndex = -1

	c, err := newCursor(data, header.TrackIdxOff, order)

	if err != nil {
		return nil, err
	}

	for slot := 0; slot < TrackSlots; slot++ {
		trackOff, err := c.u32()

		if err != nil {
			return nil, err
		}

		if trackOff == 0 {
			continue
		}

		chain, err := newCursor(data, trackOff, order)

		if err != nil {
			return nil, err
		}

		for {
			record, err := chain.bytes(regionRecordSize)

			if err != nil {
				return nil, err
			}

			var index = int16(order.Uint16(record[8:]))

			if index < 0 {
				break
			}

			maxIndex = max(maxIndex, int(index))
		}
	}

	var result = make([]uint32, maxIndex+1)

	if maxIndex < 0 {
		return result, nil
	}

	if err = c.seek(header.RegionIdxOff); err != nil {
		return nil, err
	}

	for i := range result {
		if result[i], err = c.u32(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// parseCommandsRevised decodes delay coded commands and returns them with the
// offset just past the terminator.
func parseCommandsRevised(c *cursor, startTick uint32) ([]Command, int, error) {
	var result []Command = nil
	var tick = startTick

	for {
		delta, err := decodeTimeRLE(c)

		if err != nil {
			return nil, 0, err
		}

		tick += delta

		cmd, err := c.bytes(2)

		if err != nil {
			return nil, 0, err
		}

		switch {
		case cmd[0] == 0xFF && cmd[1] == 0xFF:
			return result, c.pos, nil
		case cmd[0]&0x80 != 0 && cmd[1]&0x80 != 0:
			result = append(result, Command{Tick: tick, Type: CommandControl, Value: cmd[0] & 0x7f, Control: cmd[1] & 0x7f})
		case cmd[0]&0x80 != 0:
			result = append(result, Command{Tick: tick, Type: CommandProgram, Program: cmd[0] & 0x7f})
		default:
			length, err := c.bytes(2)

			if err != nil {
				return nil, 0, err
			}

			result = append(result, Command{
				Tick:     tick,
				Type:     CommandNote,
				Note:     cmd[0],
				Velocity: cmd[1],
				Length:   streamOrder.Uint16(length),
			})
		}
	}
}

// parseCommandsLegacy decodes 8 byte records: a region relative absolute
// tick followed by a 4 byte command.
func parseCommandsLegacy(c *cursor, startTick uint32) ([]Command, int, error) {
	var result []Command = nil

	for {
		record, err := c.bytes(8)

		if err != nil {
			return nil, 0, err
		}

		var tick = startTick + streamOrder.Uint32(record)
		var cmd = record[4:]

		switch {
		case cmd[2] == 0xFF && cmd[3] == 0xFF:
			return result, c.pos, nil
		case cmd[2]&0x80 != 0 && cmd[3]&0x80 != 0:
			result = append(result, Command{Tick: tick, Type: CommandControl, Value: cmd[2] & 0x7f, Control: cmd[3] & 0x7f})
		case cmd[2]&0x80 != 0:
			result = append(result, Command{Tick: tick, Type: CommandProgram, Program: cmd[2] & 0x7f})
		default:
			result = append(result, Command{
				Tick:     tick,
				Type:     CommandNote,
				Note:     cmd[2],
				Velocity: cmd[3],
				Length:   streamOrder.Uint16(cmd),
			})
		}
	}
}

func parseContinuous(data []byte, offset uint32, startTick uint32) ([]ContinuousPoint, error) {
	if offset == 0 {
		return nil, nil
	}

	c, err := newCursor(data, offset, streamOrder)

	if err != nil {
		return nil, err
	}

	var result []ContinuousPoint = nil
	var tick = startTick
	var value int32 = 0

	for {
		delta, more, err := decodeContinuousRLE(c)

		if err != nil {
			return nil, err
		}

		if !more {
			return result, nil
		}

		step, err := decodeSignedValue(c)

		if err != nil {
			return nil, err
		}

		tick += delta
		value += step
		result = append(result, ContinuousPoint{tick, value})
	}
}

type regionBody struct {
	kind     uint32
	commands []Command
	pitch    []ContinuousPoint
	mod      []ContinuousPoint
	end      int
}

func parseRegion(data []byte, offset uint32, startTick uint32, version int, order binary.ByteOrder) (*regionBody, error) {
	c, err := newCursor(data, offset, order)

	if err != nil {
		return nil, err
	}

	var result regionBody
	var pitchOff, modOff uint32

	if result.kind, err = c.u32(); err != nil {
		return nil, err
	}
	if pitchOff, err = c.u32(); err != nil {
		return nil, err
	}
	if modOff, err = c.u32(); err != nil {
		return nil, err
	}

	if version == VersionRevised {
		result.commands, result.end, err = parseCommandsRevised(c, startTick)
	} else {
		result.commands, result.end, err = parseCommandsLegacy(c, startTick)
	}

	if err != nil {
		return nil, err
	}

	if result.pitch, err = parseContinuous(data, pitchOff, startTick); err != nil {
		return nil, err
	}
	if result.mod, err = parseContinuous(data, modOff, startTick); err != nil {
		return nil, err
	}

	return &result, nil
}

func align4(value int) int {
	return (value + 3) &^ 3
}

// structureStarts lists every offset the header, track index and region
// headers point at, plus the buffer end, in ascending order.
func structureStarts(data []byte, header *Header, regionOffsets []uint32, order binary.ByteOrder) []int {
	var result = []int{len(data)}

	var add = func(offset uint32) {
		if offset != 0 && int(offset) <= len(data) {
			result = append(result, int(offset))
		}
	}

	add(header.TrackIdxOff)
	add(header.RegionIdxOff)
	add(header.ChanMapOff)
	add(header.ChanMapOff2)
	add(header.TempoTableOff)

	if int(header.TrackIdxOff)+TrackSlots*4 <= len(data) {
		for slot := 0; slot < TrackSlots; slot++ {
			add(order.Uint32(data[int(header.TrackIdxOff)+slot*4:]))
		}
	}

	for _, offset := range regionOffsets {
		add(offset)

		if int(offset)+regionHeaderSize <= len(data) {
			add(order.Uint32(data[offset+4:]))
			add(order.Uint32(data[offset+8:]))
		}
	}

	sort.Ints(result)

	return result
}

// implausibleNotes counts note records no sequencer writes: silent or out of
// the 7 bit range. Reading one layout as the other produces them.
func implausibleNotes(commands []Command) int {
	var result = 0

	for _, cmd := range commands {
		if cmd.Type == CommandNote && (cmd.Velocity == 0 || cmd.Velocity > 0x7f || cmd.Note > 0x7f) {
			result++
		}
	}

	return result
}

// validateVersion checks that every region's command stream decodes under
// version and ends where the next structure in the buffer begins. It
// returns the number of implausible notes decoded.
func validateVersion(data []byte, header *Header, regionOffsets []uint32, version int, order binary.ByteOrder) (int, error) {
	var starts = structureStarts(data, header, regionOffsets, order)
	var implausible = 0

	for i, offset := range regionOffsets {
		body, err := parseRegion(data, offset, 0, version, order)

		if err != nil {
			return 0, err
		}

		var next = starts[sort.SearchInts(starts, int(offset)+1)]

		if align4(body.end) != align4(next) {
			return 0, fmt.Errorf("%w: region %d ends at %08X, next structure at %08X", ErrUnknownVersion, i, body.end, next)
		}

		implausible += implausibleNotes(body.commands)
	}

	return implausible, nil
}

// DetectVersion tries both layouts. When both decode, the one with fewer
// implausible notes wins and ties go to the revised layout.
func DetectVersion(data []byte) (int, bool, error) {
	var big = IsBig(data)
	var order = byteOrder(big)

	c, err := newCursor(data, 0, order)

	if err != nil {
		return 0, big, err
	}

	header, err := readHeader(c)

	if err != nil {
		return 0, big, err
	}

	regionOffsets, err := readRegionOffsets(data, &header, order)

	if err != nil {
		return 0, big, err
	}

	revised, revisedErr := validateVersion(data, &header, regionOffsets, VersionRevised, order)
	legacy, legacyErr := validateVersion(data, &header, regionOffsets, VersionLegacy, order)

	switch {
	case revisedErr == nil && (legacyErr != nil || revised <= legacy):
		return VersionRevised, big, nil
	case legacyErr == nil:
		return VersionLegacy, big, nil
	}

	return 0, big, ErrUnknownVersion
}

func Parse(data []byte) (*SongState, error) {
	version, big, err := DetectVersion(data)

	if err != nil {
		return nil, err
	}

	return ParseVersion(data, version, big)
}

// ParseVersion decodes data with an explicit layout, skipping detection.
func ParseVersion(data []byte, version int, big bool) (*SongState, error) {
	if version != VersionLegacy && version != VersionRevised {
		return nil, fmt.Errorf("%w: version %d", ErrUnknownVersion, version)
	}

	var order = byteOrder(big)

	c, err := newCursor(data, 0, order)

	if err != nil {
		return nil, err
	}

	header, err := readHeader(c)

	if err != nil {
		return nil, err
	}

	var result = &SongState{
		Version:        version,
		Big:            big,
		Header:         header,
		Tempo:          header.InitialTempo &^ perChannelLoop,
		PerChannelLoop: header.InitialTempo&perChannelLoop != 0,
	}

	if result.TempoChanges, err = readTempoTable(data, header.TempoTableOff, order); err != nil {
		return nil, err
	}

	regionOffsets, err := readRegionOffsets(data, &header, order)

	if err != nil {
		return nil, err
	}

	chanMap, err := newCursor(data, header.ChanMapOff, order)

	if err != nil {
		return nil, err
	}

	channels, err := chanMap.bytes(TrackSlots)

	if err != nil {
		return nil, err
	}

	if err = c.seek(header.TrackIdxOff); err != nil {
		return nil, err
	}

	for slot := 0; slot < TrackSlots; slot++ {
		trackOff, err := c.u32()

		if err != nil {
			return nil, err
		}

		if trackOff == 0 {
			continue
		}

		track, err := parseTrack(data, trackOff, regionOffsets, version, order)

		if err != nil {
			return nil, fmt.Errorf("track %d: %w", slot, err)
		}

		track.Slot = slot
		track.Channel = channels[slot]
		result.Tracks = append(result.Tracks, *track)
	}

	return result, nil
}

func parseTrack(data []byte, offset uint32, regionOffsets []uint32, version int, order binary.ByteOrder) (*Track, error) {
	chain, err := newCursor(data, offset, order)

	if err != nil {
		return nil, err
	}

	var result Track

	for {
		startTick, err := chain.u32()

		if err != nil {
			return nil, err
		}

		record, err := chain.bytes(regionRecordSize - 4)

		if err != nil {
			return nil, err
		}

		var region = Region{
			StartTick:    startTick,
			Program:      record[0],
			RegionIndex:  int16(order.Uint16(record[4:])),
			LoopToRegion: int16(order.Uint16(record[6:])),
		}

		if region.RegionIndex == regionLoop {
			result.Loops = true
			result.LoopToRegion = region.LoopToRegion
			return &result, nil
		}

		if region.RegionIndex < 0 {
			return &result, nil
		}

		body, err := parseRegion(data, regionOffsets[region.RegionIndex], startTick, version, order)

		if err != nil {
			return nil, fmt.Errorf("region %d: %w", region.RegionIndex, err)
		}

		region.Type = body.kind
		region.Commands = body.commands
		region.Pitch = body.pitch
		region.Mod = body.mod
		result.Regions = append(result.Regions, region)
	}
}
