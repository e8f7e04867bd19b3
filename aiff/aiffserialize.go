package aiff

import (
	"bytes"
	"encoding/binary"
	"io"
)

type chunk struct {
	header uint32
	data   bytes.Buffer
}

func writePString(out *bytes.Buffer, value string) {
	out.WriteByte(byte(len(value)))
	out.WriteString(value)

	if len(value)%2 == 0 {
		out.WriteByte(0)
	}
}

func writeExtended(out *bytes.Buffer, value ExtendedFloat) {
	var exponent = value.Exponent

	if value.Sign {
		exponent |= 0x8000
	}

	binary.Write(out, binary.BigEndian, exponent)
	binary.Write(out, binary.BigEndian, value.Mantissa)
}

func (commonChunk *CommonChunk) serialize(compressed bool) *chunk {
	var result = &chunk{header: COMM}

	binary.Write(&result.data, binary.BigEndian, commonChunk.NumChannels)
	binary.Write(&result.data, binary.BigEndian, commonChunk.NumSampleFrames)
	binary.Write(&result.data, binary.BigEndian, commonChunk.SampleSize)
	writeExtended(&result.data, commonChunk.SampleRate)

	if compressed {
		binary.Write(&result.data, binary.BigEndian, commonChunk.CompressionType)
		writePString(&result.data, commonChunk.CompressionName)
	}

	return result
}

func (markers *MarkerChunk) serialize() *chunk {
	var result = &chunk{header: MARK}

	binary.Write(&result.data, binary.BigEndian, uint16(len(markers.Markers)))

	for _, marker := range markers.Markers {
		binary.Write(&result.data, binary.BigEndian, marker.ID)
		binary.Write(&result.data, binary.BigEndian, marker.Position)
		writePString(&result.data, marker.Name)
	}

	return result
}

func (instrument *InstrumentChunk) serialize() *chunk {
	var result = &chunk{header: INST}
	binary.Write(&result.data, binary.BigEndian, instrument)
	return result
}

func (soundData *SoundDataChunk) serialize() *chunk {
	var result = &chunk{header: SSND}

	binary.Write(&result.data, binary.BigEndian, soundData.Offset)
	binary.Write(&result.data, binary.BigEndian, soundData.BlockSize)
	result.data.Write(make([]byte, soundData.Offset))
	result.data.Write(soundData.WaveformData)

	return result
}

func (aiff *Aiff) Serialize(writer io.Writer) error {
	var chunks = []*chunk{aiff.Common.serialize(aiff.Compressed)}

	if aiff.Markers != nil {
		chunks = append(chunks, aiff.Markers.serialize())
	}

	if aiff.Instrument != nil {
		chunks = append(chunks, aiff.Instrument.serialize())
	}

	chunks = append(chunks, aiff.SoundData.serialize())

	var formType uint32 = AIFF

	if aiff.Compressed {
		formType = AIFC
	}

	var totalLength uint32 = 4

	for _, entry := range chunks {
		totalLength += 8 + uint32(entry.data.Len()+entry.data.Len()&1)
	}

	var out bytes.Buffer

	binary.Write(&out, binary.BigEndian, uint32(FORM_HEADER))
	binary.Write(&out, binary.BigEndian, totalLength)
	binary.Write(&out, binary.BigEndian, formType)

	for _, entry := range chunks {
		binary.Write(&out, binary.BigEndian, entry.header)
		binary.Write(&out, binary.BigEndian, uint32(entry.data.Len()))
		out.Write(entry.data.Bytes())

		if entry.data.Len()&1 != 0 {
			out.WriteByte(0)
		}
	}

	_, err := writer.Write(out.Bytes())
	return err
}
