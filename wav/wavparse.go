package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

func parseHeader(reader io.Reader, header *WaveHeader) error {
	return binary.Read(reader, binary.LittleEndian, header)
}

func parseData(reader io.Reader, len uint32) ([]byte, error) {
	var result = make([]byte, len)

	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("%w: data chunk: %v", ErrInvalidWave, err)
	}

	return result, nil
}

func Parse(reader io.ReadSeeker) (*Wave, error) {
	var result Wave

	var header uint32
	err := binary.Read(reader, binary.BigEndian, &header)

	if err != nil {
		return nil, err
	}

	if header != RIFF_HEADER {
		return nil, fmt.Errorf("%w: missing RIFF header", ErrInvalidWave)
	}

	var chunkSize uint32
	if err = binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
		return nil, err
	}

	if err = binary.Read(reader, binary.BigEndian, &header); err != nil {
		return nil, err
	}

	if header != WAVE_FORMAT {
		return nil, fmt.Errorf("%w: not a WAVE file", ErrInvalidWave)
	}

	var hasHeader = false
	var hasData = false

	for !hasHeader || !hasData {
		err = binary.Read(reader, binary.BigEndian, &header)

		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWave, err)
		}

		if err = binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWave, err)
		}

		startPos, err := reader.Seek(0, io.SeekCurrent)

		if err != nil {
			return nil, err
		}

		if header == FORMAT_HEADER {
			if err = parseHeader(reader, &result.Header); err != nil {
				return nil, fmt.Errorf("%w: fmt chunk: %v", ErrInvalidWave, err)
			}
			hasHeader = true
		} else if header == DATA_HEADER {
			if result.Data, err = parseData(reader, chunkSize); err != nil {
				return nil, err
			}
			hasData = true
		}

		// chunks are word aligned
		if _, err = reader.Seek(startPos+int64(chunkSize)+int64(chunkSize&1), io.SeekStart); err != nil {
			return nil, err
		}
	}

	return &result, nil
}
