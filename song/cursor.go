package song

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrTruncatedSong = errors.New("truncated song data")
var ErrUnknownVersion = errors.New("unrecognised song layout")

// cursor is a bounds-checked reader over a song buffer. Every read past the
// end reports ErrTruncatedSong instead of panicking.
type cursor struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

func newCursor(data []byte, offset uint32, order binary.ByteOrder) (*cursor, error) {
	var result = &cursor{data: data, order: order}

	if err := result.seek(offset); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *cursor) seek(offset uint32) error {
	if uint64(offset) > uint64(len(c.data)) {
		return fmt.Errorf("%w: offset %08X beyond %d bytes", ErrTruncatedSong, offset, len(c.data))
	}

	c.pos = int(offset)
	return nil
}

func (c *cursor) need(count int) error {
	if count < 0 || c.pos+count > len(c.data) {
		return fmt.Errorf("%w: need %d bytes at %08X", ErrTruncatedSong, count, c.pos)
	}

	return nil
}

func (c *cursor) peek(count int) ([]byte, error) {
	if err := c.need(count); err != nil {
		return nil, err
	}

	return c.data[c.pos : c.pos+count], nil
}

func (c *cursor) bytes(count int) ([]byte, error) {
	result, err := c.peek(count)

	if err != nil {
		return nil, err
	}

	c.pos += count
	return result, nil
}

func (c *cursor) u8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}

	var result = c.data[c.pos]
	c.pos++
	return result, nil
}

func (c *cursor) u16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}

	var result = c.order.Uint16(c.data[c.pos:])
	c.pos += 2
	return result, nil
}

func (c *cursor) i16() (int16, error) {
	value, err := c.u16()
	return int16(value), err
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}

	var result = c.order.Uint32(c.data[c.pos:])
	c.pos += 4
	return result, nil
}
