package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// byteReader walks a container image. Reads past the end fail with
// ErrMalformedContainer.
type byteReader struct {
	content []byte
	curr    int
	order   binary.ByteOrder
}

func newReader(content []byte, order binary.ByteOrder) *byteReader {
	return &byteReader{content, 0, order}
}

func (reader *byteReader) remaining() int {
	return len(reader.content) - reader.curr
}

func (reader *byteReader) seek(offset uint64) error {
	if offset > uint64(len(reader.content)) {
		return fmt.Errorf("%w: seek to %X past end %X", ErrMalformedContainer, offset, len(reader.content))
	}

	reader.curr = int(offset)
	return nil
}

func (reader *byteReader) skip(count int) error {
	return reader.seek(uint64(reader.curr) + uint64(count))
}

func (reader *byteReader) read(count uint64) ([]byte, error) {
	if count > uint64(reader.remaining()) {
		return nil, fmt.Errorf("%w: read of %X bytes at %X", ErrMalformedContainer, count, reader.curr)
	}

	var result = reader.content[reader.curr : reader.curr+int(count)]
	reader.curr += int(count)
	return result, nil
}

func (reader *byteReader) u16() (uint16, error) {
	data, err := reader.read(2)

	if err != nil {
		return 0, err
	}

	return reader.order.Uint16(data), nil
}

func (reader *byteReader) u32() (uint32, error) {
	data, err := reader.read(4)

	if err != nil {
		return 0, err
	}

	return reader.order.Uint32(data), nil
}

func (reader *byteReader) u64() (uint64, error) {
	data, err := reader.read(8)

	if err != nil {
		return 0, err
	}

	return reader.order.Uint64(data), nil
}

// cstring reads a NUL terminated string and consumes the terminator.
func (reader *byteReader) cstring() (string, error) {
	var end = bytes.IndexByte(reader.content[reader.curr:], 0)

	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %X", ErrMalformedContainer, reader.curr)
	}

	var result = string(reader.content[reader.curr : reader.curr+end])
	reader.curr += end + 1
	return result, nil
}

// lengthPrefixed reads a u32 length followed by that many bytes.
func (reader *byteReader) lengthPrefixed() ([]byte, error) {
	length, err := reader.u32()

	if err != nil {
		return nil, err
	}

	return reader.read(uint64(length))
}

// slice returns content[offset:offset+length] when it lies inside content.
func slice(content []byte, offset uint64, length uint64) ([]byte, error) {
	if offset > uint64(len(content)) || length > uint64(len(content))-offset {
		return nil, fmt.Errorf("%w: range %X+%X outside %X bytes", ErrMalformedContainer, offset, length, len(content))
	}

	return content[offset : offset+length], nil
}

// fixedName decodes a NUL padded name field.
func fixedName(field []byte) string {
	if end := bytes.IndexByte(field, 0); end >= 0 {
		return string(field[:end])
	}

	return string(field)
}

func allZero(content []byte) bool {
	for _, b := range content {
		if b != 0 {
			return false
		}
	}

	return true
}

// zeroTail reports whether everything after the name's terminator is zero.
func zeroTail(field []byte) bool {
	var end = bytes.IndexByte(field, 0)

	if end < 0 {
		return false
	}

	return allZero(field[end:])
}
