package song

import (
	"encoding/binary"
)

const timeRLEChain = 0xFFFF
const contRLEChain = 32767

// Command streams always store their delays and note lengths big endian,
// independent of the header byte order.
var streamOrder = binary.BigEndian

// decodeTimeRLE reads a command delay: big endian u16 parts where 0xFFFF
// (plus two padding bytes) adds 65535 and keeps reading.
func decodeTimeRLE(c *cursor) (uint32, error) {
	var result uint32 = 0

	for {
		part, err := c.bytes(2)

		if err != nil {
			return 0, err
		}

		var value = streamOrder.Uint16(part)

		if value == timeRLEChain {
			if _, err = c.bytes(2); err != nil {
				return 0, err
			}

			result += timeRLEChain
			continue
		}

		return result + uint32(value), nil
	}
}

func encodeTimeRLE(out []byte, delta uint32) []byte {
	for delta >= timeRLEChain {
		out = append(out, 0xFF, 0xFF, 0x00, 0x00)
		delta -= timeRLEChain
	}

	return streamOrder.AppendUint16(out, uint16(delta))
}

// decodeContinuousRLE reads the delay of a continuous stream point. The
// second result is false at the 0x80 0x00 terminator.
func decodeContinuousRLE(c *cursor) (uint32, bool, error) {
	var result uint32 = 0

	for {
		first, err := c.u8()

		if err != nil {
			return 0, false, err
		}

		var part = uint32(first)

		if first&0x80 != 0 {
			second, err := c.u8()

			if err != nil {
				return 0, false, err
			}

			part = uint32(first&0x7f)<<8 | uint32(second)

			if part == 0 {
				return 0, false, nil
			}
		}

		if part == contRLEChain {
			result += contRLEChain
			continue
		}

		return result + part, true, nil
	}
}

func encodeContinuousRLE(out []byte, delta uint32) []byte {
	for delta >= contRLEChain {
		out = append(out, 0xFF, 0xFF)
		delta -= contRLEChain
	}

	if delta < 0x80 {
		return append(out, uint8(delta))
	}

	return append(out, 0x80|uint8(delta>>8), uint8(delta))
}

func encodeContinuousEnd(out []byte) []byte {
	return append(out, 0x80, 0x00)
}

// decodeSignedValue reads a value delta: 7 bit signed in one byte, or 15 bit
// signed in two when the first byte has its top bit set.
func decodeSignedValue(c *cursor) (int32, error) {
	first, err := c.u8()

	if err != nil {
		return 0, err
	}

	if first&0x80 == 0 {
		return int32(int8(first<<1)) >> 1, nil
	}

	second, err := c.u8()

	if err != nil {
		return 0, err
	}

	var raw = uint16(first&0x7f)<<8 | uint16(second)
	return int32(int16(raw<<1)) >> 1, nil
}

const (
	minShortValue = -0x40
	maxShortValue = 0x3f
	minLongValue  = -0x4000
	maxLongValue  = 0x3fff
)

// encodeSignedValue writes one value delta, which must fit in 15 signed bits.
func encodeSignedValue(out []byte, delta int32) []byte {
	if delta >= minShortValue && delta <= maxShortValue {
		return append(out, uint8(delta)&0x7f)
	}

	return append(out, 0x80|uint8(delta>>8)&0x7f, uint8(delta))
}

// splitValueDelta breaks a delta into steps encodeSignedValue accepts.
func splitValueDelta(delta int32) []int32 {
	var result []int32 = nil

	for delta > maxLongValue {
		result = append(result, maxLongValue)
		delta -= maxLongValue
	}

	for delta < minLongValue {
		result = append(result, minLongValue)
		delta -= minLongValue
	}

	return append(result, delta)
}
