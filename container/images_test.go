package container

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"
)

var be = binary.BigEndian

func chunkBytes(tag string, size int) []byte {
	var result = make([]byte, size)

	for i := range result {
		result[i] = tag[i%len(tag)] + byte(i/len(tag))
	}

	return result
}

var (
	testProj = chunkBytes("proj", 40)
	testPool = chunkBytes("pool", 28)
	testSdir = chunkBytes("sdir", 64)
	testSamp = chunkBytes("samp", 96)
	testSong = chunkBytes("song", 52)
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	var writer = zlib.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	return buf.Bytes()
}

func pad(data []byte, alignment int) []byte {
	for len(data)%alignment != 0 {
		data = append(data, 0)
	}

	return data
}

func appendPrefixed(out []byte, blobs ...[]byte) []byte {
	for _, blob := range blobs {
		out = be.AppendUint32(out, uint32(len(blob)))
		out = append(out, blob...)
	}

	return out
}

type pakEntry struct {
	fourcc     string
	id         uint32
	name       string
	payload    []byte
	compressed bool
	// packed replaces the deflated payload of a compressed entry
	packed []byte
}

func buildPak(t *testing.T, entries []pakEntry) []byte {
	t.Helper()

	var payloads = make([][]byte, len(entries))
	var headerSize = 8 + 4 + 4 + 20*len(entries)

	for i, entry := range entries {
		payloads[i] = entry.payload

		if entry.compressed && entry.packed != nil {
			payloads[i] = entry.packed
		} else if entry.compressed {
			payloads[i] = append(be.AppendUint32(nil, uint32(len(entry.payload))), deflate(t, entry.payload)...)
		}

		if entry.name != "" {
			headerSize += 12 + len(entry.name)
		}
	}

	var out = be.AppendUint32(nil, pakMagic)
	out = be.AppendUint32(out, 0)

	var named []pakEntry
	for _, entry := range entries {
		if entry.name != "" {
			named = append(named, entry)
		}
	}

	out = be.AppendUint32(out, uint32(len(named)))
	for _, entry := range named {
		out = append(out, entry.fourcc...)
		out = be.AppendUint32(out, entry.id)
		out = appendPrefixed(out, []byte(entry.name))
	}

	out = be.AppendUint32(out, uint32(len(entries)))

	var offset = uint32(headerSize)
	for i, entry := range entries {
		var compressed uint32 = 0
		if entry.compressed {
			compressed = 1
		}

		out = be.AppendUint32(out, compressed)
		out = append(out, entry.fourcc...)
		out = be.AppendUint32(out, entry.id)
		out = be.AppendUint32(out, uint32(len(payloads[i])))
		out = be.AppendUint32(out, offset)
		offset += uint32(len(payloads[i]))
	}

	if len(out) != headerSize {
		t.Fatalf("pak header is %d bytes, expected %d", len(out), headerSize)
	}

	for _, payload := range payloads {
		out = append(out, payload...)
	}

	return out
}

func mp1Audio(name string) []byte {
	var out = append([]byte(audioPrefix), 0)
	out = append(out, name...)
	out = append(out, 0)
	return appendPrefixed(out, testPool, testProj, testSamp, testSdir)
}

func mp2Audio(name string, id uint16) []byte {
	var out = be.AppendUint32(nil, 1)
	out = append(out, name...)
	out = append(out, 0)
	out = be.AppendUint16(out, id)

	for _, blob := range [][]byte{testProj, testPool, testSdir, testSamp} {
		out = be.AppendUint32(out, uint32(len(blob)))
	}
	for _, blob := range [][]byte{testProj, testPool, testSdir, testSamp} {
		out = append(out, blob...)
	}

	return out
}

func csng(setup uint32, group uint32, song []byte) []byte {
	var out = be.AppendUint32(nil, 2)
	out = be.AppendUint32(out, setup)
	out = be.AppendUint32(out, group)
	out = be.AppendUint32(out, 0)
	return appendPrefixed(out, song)
}

func buildMP1(t *testing.T) []byte {
	return buildPak(t, []pakEntry{
		{fourcc: "CSNG", id: 0x1234ABCD, name: "Song_Title", payload: csng(5, 7, testSong)},
		{fourcc: "CSNG", id: 0x00000042, payload: csng(6, 7, testSong[:20]), compressed: true},
		{fourcc: "STRG", id: 1, payload: []byte("unrelated")},
		{fourcc: "AGSC", id: 2, payload: mp1Audio("Frigate")},
	})
}

func buildMP2(t *testing.T) []byte {
	return buildPak(t, []pakEntry{
		{fourcc: "CSNG", id: 9, payload: csng(1, 3, testSong)},
		{fourcc: "AGSC", id: 3, payload: mp2Audio("Torvus", 3), compressed: true},
	})
}

type rs1File struct {
	name       string
	data       []byte
	compressed bool
}

func rs1Files() []rs1File {
	return []rs1File{
		{name: "proj_SND", data: testProj},
		{name: "pool_SND", data: testPool, compressed: true},
		{name: "sdir_SND", data: testSdir},
		{name: "samp_SND", data: testSamp, compressed: true},
		{name: "s_0", data: testSong},
		{name: "misc", data: []byte("other")},
	}
}

type recordOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func rs1Record(order recordOrder, offset, decompSz, compSz uint32, name string) []byte {
	var out = order.AppendUint32(nil, offset)
	out = order.AppendUint32(out, decompSz)
	out = order.AppendUint32(out, compSz)
	out = order.AppendUint32(out, 0)
	var field = make([]byte, 16)
	copy(field, name)
	return append(out, field...)
}

func buildRS1PC(t *testing.T) []byte {
	var le = binary.LittleEndian
	var out = make([]byte, 8)
	var table []byte

	for _, file := range rs1Files() {
		table = append(table, rs1Record(le, uint32(len(out)), uint32(len(file.data)), uint32(len(file.data)), file.name)...)
		out = append(out, file.data...)
	}

	le.PutUint32(out[0:], uint32(len(out)))
	le.PutUint32(out[4:], uint32(len(table)))
	return append(out, table...)
}

// buildRS1N64 returns a big endian ROM image whose length is a multiple of 4.
func buildRS1N64(t *testing.T) []byte {
	var out = make([]byte, 0x100)
	be.PutUint32(out, 0x80371240)
	copy(out[n64GameIdOffset:], rs1GameId)

	var signature = len(out)
	out = append(out, rs1Signature...)
	out = append(out, make([]byte, 20)...)
	var base = signature + 32
	var table []byte

	for _, file := range rs1Files() {
		var offset = uint32(len(out) - base)

		if file.compressed {
			var packed = deflate(t, file.data)
			table = append(table, rs1Record(be, offset, uint32(len(file.data)), uint32(len(packed)), file.name)...)
			out = append(out, packed...)
		} else {
			table = append(table, rs1Record(be, offset, uint32(len(file.data)), rs1Stored, file.name)...)
			out = append(out, file.data...)
		}
	}

	out = pad(out, 4)

	var fstOff = uint32(len(out) - base)
	be.PutUint32(out[signature+28:], fstOff+uint32(len(table)))
	be.PutUint32(out[signature+32:], fstOff)

	return append(out, table...)
}

type rsSong struct {
	data    []byte
	groupId uint16
	setupId uint16
}

// buildRSBlob lays out a data blob with one complete group carrying songs
// and one group missing its sample chunk.
func buildRSBlob(songs []rsSong) []byte {
	var blob = make([]byte, 8)
	be.PutUint32(blob[4:], 8)

	blob = be.AppendUint32(blob, 2)
	var headTable = len(blob)
	blob = append(blob, make([]byte, 8)...)

	var chunkAt = func(data []byte) (uint32, uint32) {
		var offset = uint32(len(blob))
		blob = append(blob, data...)
		return offset, uint32(len(data))
	}

	var songRecords []byte
	for _, song := range songs {
		offset, length := chunkAt(song.data)
		songRecords = be.AppendUint32(songRecords, offset)
		songRecords = be.AppendUint32(songRecords, length)
		songRecords = be.AppendUint16(songRecords, song.groupId)
		songRecords = be.AppendUint16(songRecords, song.setupId)
	}
	songIdx, _ := chunkAt(songRecords)

	var heads [2][12]uint32
	heads[0][0], heads[0][1] = chunkAt(testProj)
	heads[0][2], heads[0][3] = chunkAt(testPool)
	heads[0][4], heads[0][5] = chunkAt(testSdir)
	heads[0][6], heads[0][7] = chunkAt(testSamp)
	heads[0][10] = uint32(len(songs))
	heads[0][11] = songIdx

	heads[1][0], heads[1][1] = chunkAt(testProj)
	heads[1][2], heads[1][3] = chunkAt(testPool)
	heads[1][4], heads[1][5] = chunkAt(testSdir)
	heads[1][11] = songIdx

	for i, head := range heads {
		be.PutUint32(blob[headTable+i*4:], uint32(len(blob)))

		for _, field := range head {
			blob = be.AppendUint32(blob, field)
		}
	}

	return blob
}

func rsRecord(recordSize int, offset, decompSz, compSz uint64, name string) []byte {
	var out = be.AppendUint64(nil, offset)
	out = be.AppendUint64(out, decompSz)
	out = be.AppendUint64(out, compSz)
	out = be.AppendUint64(out, 0)
	var field = make([]byte, recordSize-32)
	copy(field, name)
	return append(out, field...)
}

func testRSSongs() []rsSong {
	return []rsSong{
		{testSong, 0x0010, 0x0020},
		{testSong[:12], 0x0011, 0x0021},
	}
}

func buildRS(t *testing.T, recordSize int, compressed bool) []byte {
	var out = make([]byte, 16)
	var blob = buildRSBlob(testRSSongs())
	var extra = []byte("extra file")
	var table []byte

	var dataOffset = uint64(len(out))
	if compressed {
		var packed = deflate(t, blob)
		out = append(out, packed...)
		table = append(table, rsRecord(recordSize, dataOffset, uint64(len(blob)), uint64(len(packed)), "data")...)
	} else {
		out = append(out, blob...)
		table = append(table, rsRecord(recordSize, dataOffset, uint64(len(blob)), uint64(len(blob)), "data")...)
	}

	table = append(rsRecord(recordSize, uint64(len(out)), uint64(len(extra)), 0, "extra"), table...)
	out = append(out, extra...)
	table = append(table, make([]byte, recordSize)...)

	be.PutUint64(out[0:], uint64(len(out)))
	be.PutUint64(out[8:], uint64(len(table)))
	return append(out, table...)
}
