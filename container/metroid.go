package container

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lambertjamesd/musyxconv/identity"
)

const pakMagic = 0x00030005
const maxPakSize = 40 * 1024 * 1024
const audioPrefix = "Audio/"

type pakResource struct {
	compressed bool
	fourcc     string
	id         uint32
	size       uint32
	offset     uint32
}

type pakFile struct {
	names     map[string]string
	resources []pakResource
}

func pakKey(fourcc string, id uint32) string {
	return fmt.Sprintf("%s%08X", fourcc, id)
}

func readPak(data []byte) (*pakFile, error) {
	if len(data) > maxPakSize {
		return nil, fmt.Errorf("%w: pak larger than %d bytes", ErrMalformedContainer, maxPakSize)
	}

	var reader = newReader(data, binary.BigEndian)

	magic, err := reader.u32()

	if err != nil {
		return nil, err
	}

	if magic != pakMagic {
		return nil, fmt.Errorf("%w: pak magic %08X", ErrMalformedContainer, magic)
	}

	if err = reader.skip(4); err != nil {
		return nil, err
	}

	var result = &pakFile{names: make(map[string]string)}

	nameCount, err := reader.u32()

	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < nameCount; i++ {
		fourcc, err := reader.read(4)

		if err != nil {
			return nil, err
		}

		id, err := reader.u32()

		if err != nil {
			return nil, err
		}

		name, err := reader.lengthPrefixed()

		if err != nil {
			return nil, err
		}

		result.names[pakKey(string(fourcc), id)] = fixedName(name)
	}

	resourceCount, err := reader.u32()

	if err != nil {
		return nil, err
	}

	for i := uint32(0); i < resourceCount; i++ {
		record, err := reader.read(20)

		if err != nil {
			return nil, err
		}

		result.resources = append(result.resources, pakResource{
			compressed: binary.BigEndian.Uint32(record[0:]) != 0,
			fourcc:     string(record[4:8]),
			id:         binary.BigEndian.Uint32(record[8:]),
			size:       binary.BigEndian.Uint32(record[12:]),
			offset:     binary.BigEndian.Uint32(record[16:]),
		})
	}

	return result, nil
}

// resourceData returns a resource payload, inflating compressed entries
// (u32 decompressed size followed by a zlib stream).
func (pak *pakFile) resourceData(data []byte, resource *pakResource) ([]byte, error) {
	payload, err := slice(data, uint64(resource.offset), uint64(resource.size))

	if err != nil {
		return nil, err
	}

	if !resource.compressed {
		return payload, nil
	}

	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: compressed resource %08X too short", ErrMalformedContainer, resource.id)
	}

	return inflate(payload[4:], uint64(binary.BigEndian.Uint32(payload)))
}

func (pak *pakFile) each(data []byte, fourcc string, callback func(resource *pakResource, payload []byte) error) error {
	for i := range pak.resources {
		var resource = &pak.resources[i]

		if resource.fourcc != fourcc {
			continue
		}

		payload, err := pak.resourceData(data, resource)

		if err != nil && resource.compressed {
			logger.Printf("skipping compressed %s %08X: %v", resource.fourcc, resource.id, err)
			continue
		} else if err != nil {
			return err
		}

		if err = callback(resource, payload); err != nil {
			return err
		}
	}

	return nil
}

func isMP1Audio(payload []byte) bool {
	return bytes.HasPrefix(payload, []byte(audioPrefix))
}

func isMP2Audio(payload []byte) bool {
	return len(payload) >= 4 && binary.BigEndian.Uint32(payload) == 1
}

func validatePak(data []byte, match func(payload []byte) bool) bool {
	pak, err := readPak(data)

	if err != nil {
		return false
	}

	var found = false

	err = pak.each(data, "AGSC", func(resource *pakResource, payload []byte) error {
		found = found || match(payload)
		return nil
	})

	return err == nil && found
}

func validateMP1(data []byte) bool {
	return validatePak(data, isMP1Audio)
}

func validateMP2(data []byte) bool {
	return validatePak(data, isMP2Audio)
}

func loadMP1(data []byte) ([]Group, error) {
	pak, err := readPak(data)

	if err != nil {
		return nil, err
	}

	var result []Group = nil

	err = pak.each(data, "AGSC", func(resource *pakResource, payload []byte) error {
		var reader = newReader(payload, binary.BigEndian)

		if _, err := reader.cstring(); err != nil {
			return err
		}

		name, err := reader.cstring()

		if err != nil {
			return err
		}

		var group = &GroupData{Format: FormatGCN}

		for _, chunk := range []*[]byte{&group.Pool, &group.Proj, &group.Samp, &group.Sdir} {
			if *chunk, err = reader.lengthPrefixed(); err != nil {
				return err
			}
		}

		result = append(result, newGroup(name, group))
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

func loadMP2(data []byte) ([]Group, error) {
	pak, err := readPak(data)

	if err != nil {
		return nil, err
	}

	var result []Group = nil

	err = pak.each(data, "AGSC", func(resource *pakResource, payload []byte) error {
		var reader = newReader(payload, binary.BigEndian)

		if err := reader.skip(4); err != nil {
			return err
		}

		name, err := reader.cstring()

		if err != nil {
			return err
		}

		groupId, err := reader.u16()

		if err != nil {
			return err
		}

		var group = &GroupData{Format: FormatGCN}
		var chunks = []*[]byte{&group.Proj, &group.Pool, &group.Sdir, &group.Samp}
		var lengths [4]uint32

		for i := range lengths {
			if lengths[i], err = reader.u32(); err != nil {
				return err
			}
		}

		for i, chunk := range chunks {
			if *chunk, err = reader.read(uint64(lengths[i])); err != nil {
				return err
			}
		}

		var entry = newGroup(name, group)
		entry.Id = identity.GroupId(groupId)
		logger.Printf("AGSC %q group %s", name, entry.Id)
		result = append(result, entry)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// loadPakSongs extracts every CSNG resource of a Metroid Prime pak.
func loadPakSongs(data []byte) ([]NamedSong, error) {
	pak, err := readPak(data)

	if err != nil {
		return nil, err
	}

	var result []NamedSong = nil

	err = pak.each(data, "CSNG", func(resource *pakResource, payload []byte) error {
		var reader = newReader(payload, binary.BigEndian)
		var header [4]uint32

		for i := range header {
			value, err := reader.u32()

			if err != nil {
				return err
			}

			header[i] = value
		}

		songData, err := reader.lengthPrefixed()

		if err != nil {
			return err
		}

		var song = newSongData(songData)
		song.SetupId = identity.SongId(header[1])
		song.GroupId = identity.GroupId(header[2])

		var name, ok = pak.names[pakKey(resource.fourcc, resource.id)]

		if !ok || name == "" {
			name = fmt.Sprintf("%08X", resource.id)
		}

		result = append(result, NamedSong{name, song})
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}
