package aiff

import (
	"encoding/binary"
	"fmt"
	"io"
)

func readExtended(reader io.Reader) (ExtendedFloat, error) {
	var exponent uint16
	err := binary.Read(reader, binary.BigEndian, &exponent)

	if err != nil {
		return ExtendedFloat{}, err
	}

	var mantissa uint64
	err = binary.Read(reader, binary.BigEndian, &mantissa)

	if err != nil {
		return ExtendedFloat{}, err
	}

	return ExtendedFloat{
		(exponent & 0x8000) != 0,
		exponent & 0x7FFF,
		mantissa,
	}, nil
}

func readPString(reader io.Reader) (string, error) {
	var len uint8
	err := binary.Read(reader, binary.BigEndian, &len)

	if err != nil {
		return "", err
	}

	var buffer = make([]byte, len)

	if _, err = io.ReadFull(reader, buffer); err != nil {
		return "", err
	}

	if len%2 == 0 {
		// read padding byte
		if err = binary.Read(reader, binary.BigEndian, &len); err != nil {
			return "", err
		}
	}

	return string(buffer), nil
}

func parseCommonChunk(reader io.Reader, compressed bool) (*CommonChunk, error) {
	var result CommonChunk

	var fields = []interface{}{&result.NumChannels, &result.NumSampleFrames, &result.SampleSize}

	for _, field := range fields {
		if err := binary.Read(reader, binary.BigEndian, field); err != nil {
			return nil, err
		}
	}

	sampleRate, err := readExtended(reader)

	if err != nil {
		return nil, err
	}

	result.SampleRate = sampleRate

	if compressed {
		err = binary.Read(reader, binary.BigEndian, &result.CompressionType)

		if err != nil {
			return nil, err
		}

		compressionName, err := readPString(reader)

		if err != nil {
			return nil, err
		}

		result.CompressionName = compressionName
	}

	return &result, nil
}

func parseSoundDataChunk(reader io.Reader, chunkSize uint32) (*SoundDataChunk, error) {
	var result SoundDataChunk

	if chunkSize < 8 {
		return nil, fmt.Errorf("%w: SSND chunk of %d bytes", ErrInvalidAiff, chunkSize)
	}

	if err := binary.Read(reader, binary.BigEndian, &result.Offset); err != nil {
		return nil, err
	}

	if err := binary.Read(reader, binary.BigEndian, &result.BlockSize); err != nil {
		return nil, err
	}

	if result.Offset > chunkSize-8 {
		return nil, fmt.Errorf("%w: SSND offset %d", ErrInvalidAiff, result.Offset)
	}

	if _, err := io.CopyN(io.Discard, reader, int64(result.Offset)); err != nil {
		return nil, err
	}

	result.WaveformData = make([]byte, chunkSize-8-result.Offset)

	if _, err := io.ReadFull(reader, result.WaveformData); err != nil {
		return nil, err
	}

	return &result, nil
}

func parseMarkerChunk(reader io.Reader) (*MarkerChunk, error) {
	var count uint16

	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	var result MarkerChunk

	for i := 0; i < int(count); i++ {
		var marker Marker

		if err := binary.Read(reader, binary.BigEndian, &marker.ID); err != nil {
			return nil, err
		}

		if err := binary.Read(reader, binary.BigEndian, &marker.Position); err != nil {
			return nil, err
		}

		name, err := readPString(reader)

		if err != nil {
			return nil, err
		}

		marker.Name = name
		result.Markers = append(result.Markers, marker)
	}

	return &result, nil
}

func parseInstrumentChunk(reader io.Reader) (*InstrumentChunk, error) {
	var result InstrumentChunk
	err := binary.Read(reader, binary.BigEndian, &result)
	return &result, err
}

func Parse(reader io.ReadSeeker) (*Aiff, error) {
	var result Aiff

	var id uint32

	err := binary.Read(reader, binary.BigEndian, &id)

	if err != nil {
		return nil, err
	}

	if id != FORM_HEADER {
		return nil, fmt.Errorf("%w: missing FORM header", ErrInvalidAiff)
	}

	var chunkSize uint32

	if err = binary.Read(reader, binary.BigEndian, &chunkSize); err != nil {
		return nil, err
	}

	if err = binary.Read(reader, binary.BigEndian, &id); err != nil {
		return nil, err
	}

	if id == AIFC {
		result.Compressed = true
	} else if id != AIFF {
		return nil, fmt.Errorf("%w: not an AIFF or AIFC form", ErrInvalidAiff)
	}

	for {
		err = binary.Read(reader, binary.BigEndian, &id)

		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAiff, err)
		}

		if err = binary.Read(reader, binary.BigEndian, &chunkSize); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAiff, err)
		}

		currPos, err := reader.Seek(0, io.SeekCurrent)

		if err != nil {
			return nil, err
		}

		switch id {
		case COMM:
			result.Common, err = parseCommonChunk(reader, result.Compressed)
		case SSND:
			result.SoundData, err = parseSoundDataChunk(reader, chunkSize)
		case MARK:
			result.Markers, err = parseMarkerChunk(reader)
		case INST:
			result.Instrument, err = parseInstrumentChunk(reader)
		}

		if err != nil {
			return nil, fmt.Errorf("%w: chunk %08X: %v", ErrInvalidAiff, id, err)
		}

		if _, err = reader.Seek(int64(chunkSize)+int64(chunkSize&1)+currPos, io.SeekStart); err != nil {
			return nil, err
		}
	}

	if result.Common == nil || result.SoundData == nil {
		return nil, fmt.Errorf("%w: missing COMM or SSND chunk", ErrInvalidAiff)
	}

	return &result, nil
}
