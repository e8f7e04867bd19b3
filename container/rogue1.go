package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

const rs1RecordSize = 32
const rs1Stored = 0xFFFFFFFF
const rs1GroupName = "Group"
const rs1SongPrefix = "s_"

var rs1Signature = append([]byte("dbg_data"), make([]byte, 8)...)

var rs1ChunkNames = [4]string{"proj_SND", "pool_SND", "sdir_SND", "samp_SND"}

type fstEntry struct {
	offset   uint64
	decompSz uint64
	compSz   uint64
	kind     uint64
	name     string
}

func readRS1Records(table []byte, order binary.ByteOrder) []fstEntry {
	var result []fstEntry = nil

	for pos := 0; pos+rs1RecordSize <= len(table); pos += rs1RecordSize {
		var record = table[pos : pos+rs1RecordSize]

		result = append(result, fstEntry{
			offset:   uint64(order.Uint32(record[0:])),
			decompSz: uint64(order.Uint32(record[4:])),
			compSz:   uint64(order.Uint32(record[8:])),
			kind:     uint64(order.Uint32(record[12:])),
			name:     fixedName(record[16:32]),
		})
	}

	return result
}

// groupFromEntries assembles the four named chunks of a Rogue Squadron FST.
func groupFromEntries(entries []fstEntry, format DataFormat, load func(entry *fstEntry) ([]byte, error)) (*GroupData, error) {
	var group = &GroupData{Format: format}
	var chunks = [4]*[]byte{&group.Proj, &group.Pool, &group.Sdir, &group.Samp}

	for i, name := range rs1ChunkNames {
		var found = false

		for e := range entries {
			if entries[e].name != name {
				continue
			}

			data, err := load(&entries[e])

			if err != nil {
				return nil, err
			}

			*chunks[i] = data
			found = true
			break
		}

		if !found {
			return nil, fmt.Errorf("%w: missing %s", ErrMalformedContainer, name)
		}
	}

	return group, nil
}

func hasChunkEntries(entries []fstEntry) bool {
	for _, name := range rs1ChunkNames {
		var found = false

		for _, entry := range entries {
			found = found || entry.name == name
		}

		if !found {
			return false
		}
	}

	return true
}

func songsFromEntries(entries []fstEntry, load func(entry *fstEntry) ([]byte, error)) ([]NamedSong, error) {
	var result []NamedSong = nil

	for i := range entries {
		if !strings.HasPrefix(entries[i].name, rs1SongPrefix) {
			continue
		}

		data, err := load(&entries[i])

		if err != nil {
			return nil, err
		}

		result = append(result, NamedSong{entries[i].name, newSongData(data)})
	}

	return result, nil
}

type rs1PC struct {
	data    []byte
	entries []fstEntry
}

func readRS1PC(data []byte) (*rs1PC, error) {
	var reader = newReader(data, binary.LittleEndian)

	fstOff, err := reader.u32()

	if err != nil {
		return nil, err
	}

	fstSz, err := reader.u32()

	if err != nil {
		return nil, err
	}

	if fstSz == 0 || fstSz%rs1RecordSize != 0 {
		return nil, fmt.Errorf("%w: fst size %X", ErrMalformedContainer, fstSz)
	}

	table, err := slice(data, uint64(fstOff), uint64(fstSz))

	if err != nil {
		return nil, err
	}

	return &rs1PC{data, readRS1Records(table, binary.LittleEndian)}, nil
}

func (container *rs1PC) load(entry *fstEntry) ([]byte, error) {
	return slice(container.data, entry.offset, entry.decompSz)
}

func validateRS1PC(data []byte) bool {
	container, err := readRS1PC(data)
	return err == nil && hasChunkEntries(container.entries)
}

func loadRS1PC(data []byte) ([]Group, error) {
	container, err := readRS1PC(data)

	if err != nil {
		return nil, err
	}

	group, err := groupFromEntries(container.entries, FormatPC, container.load)

	if err != nil {
		return nil, err
	}

	return []Group{newGroup(rs1GroupName, group)}, nil
}

func loadRS1PCSongs(data []byte) ([]NamedSong, error) {
	container, err := readRS1PC(data)

	if err != nil {
		return nil, err
	}

	return songsFromEntries(container.entries, container.load)
}

// rs1N64 is a normalised Rogue Squadron ROM. Entry offsets are relative to
// base, which sits 32 bytes past the debug data signature.
type rs1N64 struct {
	rom     []byte
	base    uint64
	entries []fstEntry
}

func readRS1N64(data []byte) (*rs1N64, error) {
	var rom = normalizeRom(data, rs1GameId)

	if rom == nil {
		return nil, fmt.Errorf("%w: not a Rogue Squadron ROM", ErrMalformedContainer)
	}

	var signature = bytes.Index(rom, rs1Signature)

	if signature < 0 {
		return nil, fmt.Errorf("%w: no data segment signature", ErrMalformedContainer)
	}

	var reader = newReader(rom, binary.BigEndian)

	if err := reader.seek(uint64(signature) + 28); err != nil {
		return nil, err
	}

	fstEnd, err := reader.u32()

	if err != nil {
		return nil, err
	}

	fstOff, err := reader.u32()

	if err != nil {
		return nil, err
	}

	var base = uint64(signature) + 32

	if fstEnd < fstOff || (fstEnd-fstOff)%rs1RecordSize != 0 {
		return nil, fmt.Errorf("%w: fst range %X-%X", ErrMalformedContainer, fstOff, fstEnd)
	}

	table, err := slice(rom, base+uint64(fstOff), uint64(fstEnd-fstOff))

	if err != nil {
		return nil, err
	}

	return &rs1N64{rom, base, readRS1Records(table, binary.BigEndian)}, nil
}

func (container *rs1N64) load(entry *fstEntry) ([]byte, error) {
	if entry.compSz == rs1Stored {
		return slice(container.rom, container.base+entry.offset, entry.decompSz)
	}

	compressed, err := slice(container.rom, container.base+entry.offset, entry.compSz)

	if err != nil {
		return nil, err
	}

	return inflate(compressed, entry.decompSz)
}

func validateRS1N64(data []byte) bool {
	container, err := readRS1N64(data)
	return err == nil && hasChunkEntries(container.entries)
}

func loadRS1N64(data []byte) ([]Group, error) {
	container, err := readRS1N64(data)

	if err != nil {
		return nil, err
	}

	group, err := groupFromEntries(container.entries, FormatN64, container.load)

	if err != nil {
		return nil, err
	}

	return []Group{newGroup(rs1GroupName, group)}, nil
}

func loadRS1N64Songs(data []byte) ([]NamedSong, error) {
	container, err := readRS1N64(data)

	if err != nil {
		return nil, err
	}

	return songsFromEntries(container.entries, container.load)
}
