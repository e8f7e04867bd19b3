package wav

import (
	"bytes"
	"encoding/binary"
	"io"
)

func generateHeader(header *WaveHeader) []byte {
	var result bytes.Buffer
	binary.Write(&result, binary.LittleEndian, header)
	return result.Bytes()
}

type chunkWriter struct {
	out io.Writer
	err error
}

func (writer *chunkWriter) write(order binary.ByteOrder, value uint32) {
	if writer.err == nil {
		writer.err = binary.Write(writer.out, order, value)
	}
}

func (writer *chunkWriter) bytes(data []byte) {
	if writer.err == nil {
		_, writer.err = writer.out.Write(data)
	}
}

func (wave *Wave) Serialize(out io.Writer) error {
	var header = generateHeader(&wave.Header)
	var writer = chunkWriter{out: out}
	var padding = len(wave.Data) & 1

	writer.write(binary.BigEndian, RIFF_HEADER)
	writer.write(binary.LittleEndian, uint32(len(header)+len(wave.Data)+padding+20))
	writer.write(binary.BigEndian, WAVE_FORMAT)

	writer.write(binary.BigEndian, FORMAT_HEADER)
	writer.write(binary.LittleEndian, uint32(len(header)))
	writer.bytes(header)

	writer.write(binary.BigEndian, DATA_HEADER)
	writer.write(binary.LittleEndian, uint32(len(wave.Data)))
	writer.bytes(wave.Data)

	if padding != 0 {
		writer.bytes([]byte{0})
	}

	return writer.err
}
