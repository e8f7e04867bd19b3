package container

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

const maxInflatedSize = 1 << 28

// inflate decompresses a zlib stream that must produce exactly size bytes.
func inflate(src []byte, size uint64) ([]byte, error) {
	if size > maxInflatedSize {
		return nil, fmt.Errorf("%w: inflated size %X too large", ErrMalformedContainer, size)
	}

	reader, err := zlib.NewReader(bytes.NewReader(src))

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	defer reader.Close()

	var result = make([]byte, size)

	if _, err = io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("%w: inflate: %v", ErrMalformedContainer, err)
	}

	return result, nil
}
