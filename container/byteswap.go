package container

import "bytes"

const n64GameIdOffset = 59

var rs1GameId = []byte("NRSE")

type byteSwapper func(p []byte)

func nativeByteSwapper(p []byte) {

}

func byteSwappedByteSwapper(p []byte) {
	for offset := 0; offset+4 <= len(p); offset += 4 {
		p[offset+0], p[offset+1], p[offset+2], p[offset+3] = p[offset+1], p[offset+0], p[offset+3], p[offset+2]
	}
}

func littleEndianSwapper(p []byte) {
	for offset := 0; offset+4 <= len(p); offset += 4 {
		p[offset+0], p[offset+1], p[offset+2], p[offset+3] = p[offset+3], p[offset+2], p[offset+1], p[offset+0]
	}
}

var romSwappers = []byteSwapper{nativeByteSwapper, byteSwappedByteSwapper, littleEndianSwapper}

// determineByteSwapper finds the swapper that puts gameId at byte 59 of the
// ROM header, or nil when no ordering matches.
func determineByteSwapper(header []byte, gameId []byte) byteSwapper {
	if len(header) < 64 {
		return nil
	}

	for _, swapper := range romSwappers {
		var swappedHeader = append([]byte{}, header[:64]...)
		swapper(swappedHeader)

		if bytes.Equal(swappedHeader[n64GameIdOffset:n64GameIdOffset+len(gameId)], gameId) {
			return swapper
		}
	}

	return nil
}

// normalizeRom returns a big endian copy of a ROM image whose header names
// gameId, or nil when it does not.
func normalizeRom(data []byte, gameId []byte) []byte {
	var swapper = determineByteSwapper(data, gameId)

	if swapper == nil {
		return nil
	}

	var result = append([]byte{}, data...)
	swapper(result)
	return result
}
