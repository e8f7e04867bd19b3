package container

import (
	"encoding/binary"
	"fmt"

	"github.com/lambertjamesd/musyxconv/identity"
)

const (
	rs2RecordSize = 64
	rs3RecordSize = 160
	rsDataEntry   = "data"
	groupHeadSize = 48
	rsSongRecord  = 12
)

// rsGroupHead locates one group's chunks inside the data blob.
type rsGroupHead struct {
	projOff, projLen uint32
	poolOff, poolLen uint32
	sdirOff, sdirLen uint32
	sampOff, sampLen uint32
	unkOff, unkLen   uint32
	songCount        uint32
	songIdxOff       uint32
}

func readRSTable(data []byte, recordSize uint64) ([]fstEntry, error) {
	var reader = newReader(data, binary.BigEndian)

	fstOff, err := reader.u64()

	if err != nil {
		return nil, err
	}

	fstSz, err := reader.u64()

	if err != nil {
		return nil, err
	}

	if fstSz == 0 || fstSz%recordSize != 0 {
		return nil, fmt.Errorf("%w: fst size %X", ErrMalformedContainer, fstSz)
	}

	table, err := slice(data, fstOff, fstSz)

	if err != nil {
		return nil, err
	}

	var result []fstEntry = nil

	for pos := uint64(0); pos < fstSz; pos += recordSize {
		var record = table[pos : pos+recordSize]
		var entry = fstEntry{
			offset:   binary.BigEndian.Uint64(record[0:]),
			decompSz: binary.BigEndian.Uint64(record[8:]),
			compSz:   binary.BigEndian.Uint64(record[16:]),
			kind:     binary.BigEndian.Uint64(record[24:]),
			name:     fixedName(record[32:]),
		}

		if entry.decompSz == 0 {
			// read with the wrong record size, a later record would show
			// through here
			if !allZero(table[pos:]) {
				return nil, fmt.Errorf("%w: data after fst terminator", ErrMalformedContainer)
			}

			break
		}

		if !zeroTail(record[32:]) {
			return nil, fmt.Errorf("%w: name field of record %d", ErrMalformedContainer, pos/recordSize)
		}

		result = append(result, entry)
	}

	return result, nil
}

func loadRSEntry(data []byte, entry *fstEntry) ([]byte, error) {
	if entry.compSz == 0 || entry.compSz == entry.decompSz {
		return slice(data, entry.offset, entry.decompSz)
	}

	compressed, err := slice(data, entry.offset, entry.compSz)

	if err != nil {
		return nil, err
	}

	return inflate(compressed, entry.decompSz)
}

func readRSDataBlob(data []byte, recordSize uint64) ([]byte, error) {
	entries, err := readRSTable(data, recordSize)

	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].name == rsDataEntry && entries[i].offset != 0 {
			return loadRSEntry(data, &entries[i])
		}
	}

	return nil, fmt.Errorf("%w: no %q entry", ErrMalformedContainer, rsDataEntry)
}

func readGroupHeads(blob []byte) ([]rsGroupHead, error) {
	var reader = newReader(blob, binary.BigEndian)

	if err := reader.seek(4); err != nil {
		return nil, err
	}

	indexOff, err := reader.u32()

	if err != nil {
		return nil, err
	}

	if err = reader.seek(uint64(indexOff)); err != nil {
		return nil, err
	}

	count, err := reader.u32()

	if err != nil {
		return nil, err
	}

	offsets, err := reader.read(uint64(count) * 4)

	if err != nil {
		return nil, err
	}

	var result = make([]rsGroupHead, count)

	for i := range result {
		head, err := slice(blob, uint64(binary.BigEndian.Uint32(offsets[i*4:])), groupHeadSize)

		if err != nil {
			return nil, err
		}

		var fields = []*uint32{
			&result[i].projOff, &result[i].projLen,
			&result[i].poolOff, &result[i].poolLen,
			&result[i].sdirOff, &result[i].sdirLen,
			&result[i].sampOff, &result[i].sampLen,
			&result[i].unkOff, &result[i].unkLen,
			&result[i].songCount, &result[i].songIdxOff,
		}

		for f, field := range fields {
			*field = binary.BigEndian.Uint32(head[f*4:])
		}
	}

	return result, nil
}

func (head *rsGroupHead) complete() bool {
	return head.projLen != 0 && head.poolLen != 0 && head.sdirLen != 0 && head.sampLen != 0
}

func groupFileName(index int) string {
	return fmt.Sprintf("GroupFile%d", index)
}

func validateRS(data []byte, recordSize uint64) bool {
	blob, err := readRSDataBlob(data, recordSize)

	if err != nil {
		return false
	}

	_, err = readGroupHeads(blob)
	return err == nil
}

func loadRS(data []byte, recordSize uint64) ([]Group, error) {
	blob, err := readRSDataBlob(data, recordSize)

	if err != nil {
		return nil, err
	}

	heads, err := readGroupHeads(blob)

	if err != nil {
		return nil, err
	}

	var result []Group = nil

	for i := range heads {
		var head = &heads[i]

		if !head.complete() {
			logger.Printf("skipping incomplete %s", groupFileName(i))
			continue
		}

		var group = &GroupData{Format: FormatGCN}
		var chunks = []struct {
			target         *[]byte
			offset, length uint32
		}{
			{&group.Proj, head.projOff, head.projLen},
			{&group.Pool, head.poolOff, head.poolLen},
			{&group.Sdir, head.sdirOff, head.sdirLen},
			{&group.Samp, head.sampOff, head.sampLen},
		}

		for _, chunk := range chunks {
			if *chunk.target, err = slice(blob, uint64(chunk.offset), uint64(chunk.length)); err != nil {
				return nil, err
			}
		}

		result = append(result, newGroup(groupFileName(i), group))
	}

	return result, nil
}

func loadRSSongs(data []byte, recordSize uint64) ([]NamedSong, error) {
	blob, err := readRSDataBlob(data, recordSize)

	if err != nil {
		return nil, err
	}

	heads, err := readGroupHeads(blob)

	if err != nil {
		return nil, err
	}

	var result []NamedSong = nil

	for i := range heads {
		var head = &heads[i]

		index, err := slice(blob, uint64(head.songIdxOff), uint64(head.songCount)*rsSongRecord)

		if err != nil {
			return nil, err
		}

		for s := uint32(0); s < head.songCount; s++ {
			var record = index[s*rsSongRecord:]

			songData, err := slice(blob, uint64(binary.BigEndian.Uint32(record[0:])), uint64(binary.BigEndian.Uint32(record[4:])))

			if err != nil {
				return nil, err
			}

			var song = newSongData(songData)
			song.GroupId = identity.GroupId(binary.BigEndian.Uint16(record[8:]))
			song.SetupId = identity.SongId(binary.BigEndian.Uint16(record[10:]))

			result = append(result, NamedSong{fmt.Sprintf("%s-%d", groupFileName(i), s), song})
		}
	}

	return result, nil
}

func validateRS2(data []byte) bool { return validateRS(data, rs2RecordSize) }
func validateRS3(data []byte) bool { return validateRS(data, rs3RecordSize) }

func loadRS2(data []byte) ([]Group, error) { return loadRS(data, rs2RecordSize) }
func loadRS3(data []byte) ([]Group, error) { return loadRS(data, rs3RecordSize) }

func loadRS2Songs(data []byte) ([]NamedSong, error) { return loadRSSongs(data, rs2RecordSize) }
func loadRS3Songs(data []byte) ([]NamedSong, error) { return loadRSSongs(data, rs3RecordSize) }
